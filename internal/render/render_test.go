package render

import (
	"bytes"
	"strings"
	"testing"

	"licitaflow/internal/models"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) models.IngestionRecord {
	t.Helper()
	rec, err := models.DecodeIngestionRecord([]byte(body))
	require.NoError(t, err)
	return rec
}

func TestRenderVisualSingleCoverPage(t *testing.T) {
	body := `{"licitacion_id":"LIC-TEST-001","documentos":[{"nombre_archivo":"pliego.pdf","metadata":"{\"visual_content\":{\"1\":{\"visual_description\":\"A signed cover page\"}}}"}]}`
	rec := decode(t, body)

	panel := RenderVisual(rec)
	require.Len(t, panel.Documents, 1)
	doc := panel.Documents[0]
	require.Equal(t, "pliego.pdf", doc.FileName)
	require.Empty(t, doc.Placeholder)
	require.Equal(t, []PageView{{Label: "1", Heading: "Page 1", Description: "A signed cover page"}}, doc.Pages)

	raw := RenderRaw(rec, 0)
	require.False(t, raw.Truncated)
	require.Contains(t, raw.Text, `"licitacion_id": "LIC-TEST-001"`)
	require.Equal(t, body, string(rec.Raw))
}

func TestRenderVisualRawAndEncodedMatch(t *testing.T) {
	meta := `{"visual_content":{"10":{"visual_description":"ten"},"2":{"visual_description":"two"},"annex":{"visual_description":"a"}}}`
	structured := decode(t, `{"documentos":[{"nombre_archivo":"a.pdf","metadata":`+meta+`}]}`)
	encoded := decode(t, `{"documentos":[{"nombre_archivo":"a.pdf","metadata":`+quote(meta)+`}]}`)

	a, b := RenderVisual(structured), RenderVisual(encoded)
	require.Equal(t, a, b)
	require.Equal(t, []string{"2", "10", "annex"}, labels(a.Documents[0]))
}

func TestRenderVisualMalformedSiblingDegradesAlone(t *testing.T) {
	rec := decode(t, `{"documentos":[
		{"nombre_archivo":"bad.pdf","metadata":"{not json"},
		{"nombre_archivo":"good.pdf","metadata":{"visual_content":{"1":{"visual_description":"ok"}}}},
		{"nombre_archivo":"none.pdf"},
		"not an object",
		{"nombre_archivo":"list.pdf","metadata":{"visual_content":["x"]}}
	]}`)

	panel := RenderVisual(rec)
	require.Len(t, panel.Documents, 5)
	require.True(t, panel.Documents[0].Degraded)
	require.Equal(t, NoVisualMetadata, panel.Documents[0].Placeholder)
	require.Equal(t, "Page 1", panel.Documents[1].Pages[0].Heading)
	require.Equal(t, NoVisualMetadata, panel.Documents[2].Placeholder)
	require.False(t, panel.Documents[2].Degraded)
	require.Equal(t, "", panel.Documents[3].FileName)
	require.Equal(t, NoVisualMetadata, panel.Documents[3].Placeholder)
	require.Equal(t, NoVisualMetadata, panel.Documents[4].Placeholder)
}

func TestRenderVisualDoesNotMutateRecord(t *testing.T) {
	body := `{"documentos":[{"nombre_archivo":"a.pdf","metadata":"{\"visual_content\":{\"1\":{\"visual_description\":\"x\\u0000y\"}}}"}]}`
	rec := decode(t, body)
	first := RenderVisual(rec)
	second := RenderVisual(rec)
	require.Equal(t, first, second)
	require.Equal(t, "xy", first.Documents[0].Pages[0].Description)
	require.Equal(t, body, string(rec.Raw))
}

func TestRenderRawKeepsKeyOrderAndGuardsSize(t *testing.T) {
	rec := decode(t, `{"z":1,"a":"ñandú","documentos":[]}`)
	full := RenderRaw(rec, 0)
	require.Equal(t, "{\n  \"z\": 1,\n  \"a\": \"ñandú\",\n  \"documentos\": []\n}", full.Text)

	cut := RenderRaw(rec, 20)
	require.True(t, cut.Truncated)
	require.LessOrEqual(t, len(cut.Text), 20)
	require.Equal(t, full.TotalBytes, cut.TotalBytes)
	require.True(t, strings.HasPrefix(full.Text, cut.Text))
}

func TestWriteVisualText(t *testing.T) {
	panel := VisualPanel{Documents: []DocumentView{
		{FileName: "a.pdf", Pages: []PageView{{Label: "1", Heading: "Page 1", Description: "cover"}}},
		{FileName: "b.pdf", Placeholder: NoVisualMetadata},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteVisual(&buf, panel))
	require.Equal(t, "== a.pdf ==\n  Page 1\n    cover\n\n== b.pdf ==\n  No visual metadata found.\n", buf.String())
}

func labels(doc DocumentView) []string {
	out := make([]string, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		out = append(out, p.Label)
	}
	return out
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
