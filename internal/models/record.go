package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"licitaflow/internal/util"
)

// IngestReceipt is the ingestion service's answer to an upload.
type IngestReceipt struct {
	RecordID string          `json:"licitacion_id"`
	Raw      json.RawMessage `json:"-"`
}

func DecodeIngestReceipt(body []byte) (IngestReceipt, error) {
	members, ok, err := objectMembers(body)
	if err != nil {
		return IngestReceipt{}, fmt.Errorf("%w: ingest response is not valid JSON: %v", util.ErrDecode, err)
	}
	if !ok {
		return IngestReceipt{}, fmt.Errorf("%w: ingest response is not a JSON object", util.ErrDecode)
	}
	out := IngestReceipt{Raw: bytes.Clone(body)}
	for _, key := range []string{"licitacion_id", "id"} {
		if v, found := lookup(members, key); found {
			if id := stringValue(v); id != "" {
				out.RecordID = id
				return out, nil
			}
		}
	}
	return IngestReceipt{}, fmt.Errorf("%w: ingest response has no licitacion_id", util.ErrDecode)
}

// DocumentRecord is one processed file inside an IngestionRecord.
type DocumentRecord struct {
	NombreArchivo string   `json:"nombre_archivo"`
	Metadata      Metadata `json:"metadata"`
}

// IngestionRecord is the detail payload. Raw keeps the bytes exactly as the
// detail service sent them and is what MarshalJSON emits.
type IngestionRecord struct {
	LicitacionID string
	Documentos   []DocumentRecord
	Raw          json.RawMessage
}

// DecodeIngestionRecord requires a JSON object at the top level; everything
// below it is read leniently so one odd document cannot fail the record.
func DecodeIngestionRecord(body []byte) (IngestionRecord, error) {
	members, ok, err := objectMembers(body)
	if err != nil {
		return IngestionRecord{}, fmt.Errorf("%w: detail response is not valid JSON: %v", util.ErrDecode, err)
	}
	if !ok {
		return IngestionRecord{}, fmt.Errorf("%w: detail response is not a JSON object", util.ErrDecode)
	}
	rec := IngestionRecord{Raw: bytes.Clone(body)}
	if v, found := lookup(members, "licitacion_id"); found {
		rec.LicitacionID = stringValue(v)
	}
	if v, found := lookup(members, "documentos"); found {
		rec.Documentos = decodeDocuments(v)
	}
	return rec, nil
}

func decodeDocuments(v json.RawMessage) []DocumentRecord {
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil
	}
	out := make([]DocumentRecord, 0, len(items))
	for _, item := range items {
		var doc DocumentRecord
		fields, ok, err := objectMembers(item)
		if err == nil && ok {
			if name, found := lookup(fields, "nombre_archivo"); found {
				doc.NombreArchivo = stringValue(name)
			}
			if meta, found := lookup(fields, "metadata"); found {
				_ = doc.Metadata.UnmarshalJSON(meta)
			}
		}
		out = append(out, doc)
	}
	return out
}

func (r *IngestionRecord) UnmarshalJSON(b []byte) error {
	rec, err := DecodeIngestionRecord(b)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

func (r IngestionRecord) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(struct {
		LicitacionID string           `json:"licitacion_id,omitempty"`
		Documentos   []DocumentRecord `json:"documentos"`
	}{r.LicitacionID, r.Documentos})
}
