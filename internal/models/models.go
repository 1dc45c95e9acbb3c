package models

import "bytes"

// Document is the binary content selected for upload.
type Document struct {
	Name   string `json:"name"`
	Data   []byte `json:"-"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
	Pages  int    `json:"pages,omitempty"`
}

// SubmissionInput is the pending (document, identifier) pair a run sends.
type SubmissionInput struct {
	Document *Document `json:"document,omitempty"`
	LicID    string    `json:"lic_id"`
}

func (in SubmissionInput) HasDocument() bool {
	return in.Document != nil && in.Document.Name != ""
}

// Snapshot returns a copy that later edits of the pending input cannot touch.
func (in SubmissionInput) Snapshot() SubmissionInput {
	out := SubmissionInput{LicID: in.LicID}
	if in.Document != nil {
		doc := *in.Document
		doc.Data = bytes.Clone(in.Document.Data)
		out.Document = &doc
	}
	return out
}
