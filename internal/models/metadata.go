package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"licitaflow/internal/util"
)

type MetadataKind uint8

const (
	MetadataAbsent MetadataKind = iota
	MetadataRaw
	MetadataEncoded
)

func (k MetadataKind) String() string {
	switch k {
	case MetadataRaw:
		return "raw"
	case MetadataEncoded:
		return "encoded"
	default:
		return "absent"
	}
}

// Metadata is a document's embedded metadata as received: either a structured
// JSON value or a string holding JSON that needs one decode step.
type Metadata struct {
	kind    MetadataKind
	raw     json.RawMessage
	encoded string
}

func RawMetadata(v json.RawMessage) Metadata {
	return Metadata{kind: MetadataRaw, raw: bytes.Clone(v)}
}

func EncodedMetadata(s string) Metadata {
	return Metadata{kind: MetadataEncoded, encoded: s}
}

func (m Metadata) Kind() MetadataKind { return m.kind }

func (m *Metadata) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*m = Metadata{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = EncodedMetadata(s)
	default:
		*m = RawMetadata(b)
	}
	return nil
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	switch m.kind {
	case MetadataRaw:
		return m.raw, nil
	case MetadataEncoded:
		return json.Marshal(m.encoded)
	default:
		return []byte("null"), nil
	}
}

// VisualPage is one page entry of visual_content.
type VisualPage struct {
	Label       string `json:"label"`
	Description string `json:"visual_description"`
}

// VisualMetadata lists pages with integer labels first in ascending numeric
// order, then any other labels in the order they were received.
type VisualMetadata []VisualPage

// DecodedMetadata is the structured form of Metadata.
type DecodedMetadata struct {
	Value  json.RawMessage
	Visual VisualMetadata
}

// Decode resolves the union. Decoding an already structured value is a no-op
// step, so Raw(v) and Encoded(string(v)) decode identically. Unparseable
// content yields util.ErrMetadataDecode; valid JSON of the wrong shape
// decodes to empty metadata.
func (m Metadata) Decode() (DecodedMetadata, error) {
	var src []byte
	switch m.kind {
	case MetadataRaw:
		src = m.raw
	case MetadataEncoded:
		src = bytes.TrimSpace([]byte(m.encoded))
	default:
		return DecodedMetadata{}, nil
	}
	if !json.Valid(src) {
		return DecodedMetadata{}, fmt.Errorf("%w: %s metadata is not valid JSON", util.ErrMetadataDecode, m.kind)
	}
	out := DecodedMetadata{Value: json.RawMessage(bytes.Clone(src))}
	members, ok, err := objectMembers(src)
	if err != nil {
		return DecodedMetadata{}, fmt.Errorf("%w: %v", util.ErrMetadataDecode, err)
	}
	if !ok {
		return out, nil
	}
	if v, found := lookup(members, "visual_content"); found {
		out.Visual = decodeVisual(v)
	}
	return out, nil
}

func decodeVisual(v json.RawMessage) VisualMetadata {
	pages, ok, err := objectMembers(v)
	if err != nil || !ok || len(pages) == 0 {
		return nil
	}
	type indexed struct {
		n    uint64
		page VisualPage
	}
	numeric := make([]indexed, 0, len(pages))
	named := make([]VisualPage, 0)
	for _, p := range pages {
		page := VisualPage{Label: p.Key, Description: pageDescription(p.Value)}
		if n, isIndex := isIndexKey(p.Key); isIndex {
			numeric = append(numeric, indexed{n: n, page: page})
			continue
		}
		named = append(named, page)
	}
	sort.SliceStable(numeric, func(i, j int) bool { return numeric[i].n < numeric[j].n })
	out := make(VisualMetadata, 0, len(pages))
	for _, x := range numeric {
		out = append(out, x.page)
	}
	return append(out, named...)
}

func pageDescription(v json.RawMessage) string {
	fields, ok, err := objectMembers(v)
	if err != nil || !ok {
		return ""
	}
	d, found := lookup(fields, "visual_description")
	if !found {
		return ""
	}
	return stringValue(d)
}
