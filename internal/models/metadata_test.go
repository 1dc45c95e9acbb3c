package models

import (
	"encoding/json"
	"errors"
	"testing"

	"licitaflow/internal/util"

	"github.com/stretchr/testify/require"
)

func TestMetadataUnmarshalTagsVariant(t *testing.T) {
	var doc DocumentRecord
	require.NoError(t, json.Unmarshal([]byte(`{"nombre_archivo":"a.pdf","metadata":{"visual_content":{}}}`), &doc))
	require.Equal(t, MetadataRaw, doc.Metadata.Kind())

	require.NoError(t, json.Unmarshal([]byte(`{"nombre_archivo":"a.pdf","metadata":"{\"visual_content\":{}}"}`), &doc))
	require.Equal(t, MetadataEncoded, doc.Metadata.Kind())

	require.NoError(t, json.Unmarshal([]byte(`{"nombre_archivo":"a.pdf","metadata":null}`), &doc))
	require.Equal(t, MetadataAbsent, doc.Metadata.Kind())
}

func TestMetadataDecodeIsIdempotentAcrossVariants(t *testing.T) {
	structured := `{"visual_content":{"2":{"visual_description":"Table of bidders"},"1":{"visual_description":"A signed cover page"}}}`

	raw, err := RawMetadata(json.RawMessage(structured)).Decode()
	require.NoError(t, err)
	enc, err := EncodedMetadata(structured).Decode()
	require.NoError(t, err)

	require.Equal(t, raw.Visual, enc.Visual)
	require.Equal(t, VisualMetadata{
		{Label: "1", Description: "A signed cover page"},
		{Label: "2", Description: "Table of bidders"},
	}, raw.Visual)
}

func TestMetadataDecodeOrdersIndexLabelsFirst(t *testing.T) {
	m := RawMetadata(json.RawMessage(`{"visual_content":{"annex":{"visual_description":"x"},"10":{"visual_description":"ten"},"2":{"visual_description":"two"},"cover":{"visual_description":"c"},"01":{"visual_description":"zero-one"}}}`))
	d, err := m.Decode()
	require.NoError(t, err)

	labels := make([]string, 0, len(d.Visual))
	for _, p := range d.Visual {
		labels = append(labels, p.Label)
	}
	require.Equal(t, []string{"2", "10", "annex", "cover", "01"}, labels)
}

func TestMetadataDecodeMalformedString(t *testing.T) {
	_, err := EncodedMetadata(`{"visual_content": {`).Decode()
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrMetadataDecode))
}

func TestMetadataDecodeWrongShapesAreEmpty(t *testing.T) {
	cases := []Metadata{
		{},
		RawMetadata(json.RawMessage(`[1,2,3]`)),
		EncodedMetadata(`"double encoded"`),
		RawMetadata(json.RawMessage(`{"visual_content":"none"}`)),
		RawMetadata(json.RawMessage(`{"other":true}`)),
	}
	for _, m := range cases {
		d, err := m.Decode()
		require.NoError(t, err)
		require.Empty(t, d.Visual)
	}
}

func TestMetadataDecodeMissingDescriptionDefaultsEmpty(t *testing.T) {
	d, err := RawMetadata(json.RawMessage(`{"visual_content":{"1":{"objects":["stamp"]},"2":"plain"}}`)).Decode()
	require.NoError(t, err)
	require.Equal(t, VisualMetadata{{Label: "1"}, {Label: "2"}}, d.Visual)
}

func TestMetadataMarshalRoundTripsVariant(t *testing.T) {
	b, err := json.Marshal(EncodedMetadata(`{"a":1}`))
	require.NoError(t, err)
	require.JSONEq(t, `"{\"a\":1}"`, string(b))

	b, err = json.Marshal(Metadata{})
	require.NoError(t, err)
	require.Equal(t, "null", string(b))
}
