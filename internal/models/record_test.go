package models

import (
	"encoding/json"
	"errors"
	"testing"

	"licitaflow/internal/util"

	"github.com/stretchr/testify/require"
)

func TestDecodeIngestionRecordKeepsPayloadVerbatim(t *testing.T) {
	body := []byte(`{"licitacion_id":"LIC-TEST-001","documentos":[{"nombre_archivo":"pliego.pdf","metadata":{"visual_content":{"1":{"visual_description":"A signed cover page"}}}}],"extra":{"z":1,"a":2}}`)
	rec, err := DecodeIngestionRecord(body)
	require.NoError(t, err)
	require.Equal(t, "LIC-TEST-001", rec.LicitacionID)
	require.Len(t, rec.Documentos, 1)
	require.Equal(t, "pliego.pdf", rec.Documentos[0].NombreArchivo)
	require.Equal(t, body, []byte(rec.Raw))

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	require.Equal(t, string(body), string(out))
}

func TestDecodeIngestionRecordIsLenientBelowTopLevel(t *testing.T) {
	body := []byte(`{"documentos":[42,{"nombre_archivo":7,"metadata":"oops"},{"nombre_archivo":"b.pdf"}]}`)
	rec, err := DecodeIngestionRecord(body)
	require.NoError(t, err)
	require.Len(t, rec.Documentos, 3)
	require.Equal(t, DocumentRecord{}, rec.Documentos[0])
	require.Equal(t, "7", rec.Documentos[1].NombreArchivo)
	require.Equal(t, MetadataEncoded, rec.Documentos[1].Metadata.Kind())
	require.Equal(t, MetadataAbsent, rec.Documentos[2].Metadata.Kind())

	rec, err = DecodeIngestionRecord([]byte(`{"documentos":{"not":"a list"}}`))
	require.NoError(t, err)
	require.Empty(t, rec.Documentos)
}

func TestDecodeIngestionRecordRejectsNonObjects(t *testing.T) {
	for _, body := range []string{`[]`, `"text"`, `{"documentos":`, `<html>`} {
		_, err := DecodeIngestionRecord([]byte(body))
		require.Error(t, err, body)
		require.True(t, errors.Is(err, util.ErrDecode), body)
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	for _, body := range []string{
		`{"licitacion_id":"x","documentos":[]}}`,
		`{"licitacion_id":"x","documentos":[]}]`,
		`{"licitacion_id":"x"} {"licitacion_id":"y"}`,
	} {
		_, err := DecodeIngestionRecord([]byte(body))
		require.True(t, errors.Is(err, util.ErrDecode), body)

		_, err = DecodeIngestReceipt([]byte(body))
		require.True(t, errors.Is(err, util.ErrDecode), body)
	}

	rec, err := DecodeIngestionRecord([]byte("{\"licitacion_id\":\"x\"}\n"))
	require.NoError(t, err)
	_, err = json.Marshal(rec)
	require.NoError(t, err)
}

func TestDecodeIngestReceipt(t *testing.T) {
	r, err := DecodeIngestReceipt([]byte(`{"licitacion_id":"LIC-TEST-001","metadata_extraccion":{}}`))
	require.NoError(t, err)
	require.Equal(t, "LIC-TEST-001", r.RecordID)

	r, err = DecodeIngestReceipt([]byte(`{"id":981}`))
	require.NoError(t, err)
	require.Equal(t, "981", r.RecordID)

	_, err = DecodeIngestReceipt([]byte(`{"status":"queued"}`))
	require.True(t, errors.Is(err, util.ErrDecode))
}

func TestSubmissionInputSnapshotIsDetached(t *testing.T) {
	in := SubmissionInput{LicID: "LIC-1", Document: &Document{Name: "a.pdf", Data: []byte("abc")}}
	snap := in.Snapshot()
	in.Document.Data[0] = 'x'
	in.LicID = "LIC-2"
	require.Equal(t, "abc", string(snap.Document.Data))
	require.Equal(t, "LIC-1", snap.LicID)
	require.True(t, snap.HasDocument())
	require.False(t, SubmissionInput{}.HasDocument())
}
