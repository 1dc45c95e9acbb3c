// Package render turns an IngestionRecord into display structures for the
// debugger page and the CLI. Nothing here mutates the record or fails on a
// malformed document.
package render

import (
	"bytes"
	"encoding/json"

	"licitaflow/internal/models"
	"licitaflow/internal/util"
)

const NoVisualMetadata = "No visual metadata found."

type PageView struct {
	Label       string `json:"label"`
	Heading     string `json:"heading"`
	Description string `json:"description"`
}

// DocumentView is one document of the visual panel. Exactly one of Pages and
// Placeholder is set. Degraded marks metadata that could not be decoded.
type DocumentView struct {
	FileName    string     `json:"file_name"`
	Pages       []PageView `json:"pages,omitempty"`
	Placeholder string     `json:"placeholder,omitempty"`
	Degraded    bool       `json:"degraded,omitempty"`
}

type VisualPanel struct {
	Documents []DocumentView `json:"documents"`
}

func RenderVisual(rec models.IngestionRecord) VisualPanel {
	panel := VisualPanel{Documents: make([]DocumentView, 0, len(rec.Documentos))}
	for _, doc := range rec.Documentos {
		panel.Documents = append(panel.Documents, renderDocument(doc))
	}
	return panel
}

func renderDocument(doc models.DocumentRecord) DocumentView {
	view := DocumentView{FileName: util.SanitizeText(doc.NombreArchivo)}
	decoded, err := doc.Metadata.Decode()
	if err != nil {
		view.Degraded = true
	}
	for _, p := range decoded.Visual {
		view.Pages = append(view.Pages, PageView{
			Label:       p.Label,
			Heading:     "Page " + p.Label,
			Description: util.SanitizeText(p.Description),
		})
	}
	if len(view.Pages) == 0 {
		view.Placeholder = NoVisualMetadata
	}
	return view
}

// RawView is the verbatim payload indented two spaces. TotalBytes is the
// length of the full indented text even when Text was cut.
type RawView struct {
	Text       string `json:"text"`
	Truncated  bool   `json:"truncated"`
	TotalBytes int    `json:"total_bytes"`
}

// RenderRaw indents the payload exactly as received, key order included.
// limit <= 0 disables the size guard.
func RenderRaw(rec models.IngestionRecord, limit int) RawView {
	raw, err := json.Marshal(rec)
	if err != nil {
		return RawView{}
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	full := buf.String()
	text, cut := util.TruncateUTF8(full, limit)
	return RawView{Text: text, Truncated: cut, TotalBytes: len(full)}
}
