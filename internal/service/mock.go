package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"licitaflow/internal/models"
	"licitaflow/internal/util"
)

// MockService is an in-process stand-in for the licitaciones API. It answers
// deterministically from the uploaded document so the debugger can run offline.
type MockService struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewMockService() *MockService {
	return &MockService{records: map[string][]byte{}}
}

func (m *MockService) Ingest(_ context.Context, in models.SubmissionInput) (models.IngestReceipt, error) {
	if !in.HasDocument() {
		return models.IngestReceipt{}, util.ErrNoDocument
	}
	id := in.LicID
	if id == "" {
		id = "LIC-MOCK-" + util.ShortHash(in.Document.Data)
	}
	payload, err := mockRecord(id, in.Document)
	if err != nil {
		return models.IngestReceipt{}, util.NewWorkflowError(util.ErrService, OpIngest, "mock record could not be built", err)
	}
	m.mu.Lock()
	m.records[id] = payload
	m.mu.Unlock()

	raw, _ := json.Marshal(map[string]string{"licitacion_id": id})
	return models.IngestReceipt{RecordID: id, Raw: raw}, nil
}

func (m *MockService) FetchDetail(_ context.Context, recordID string) (models.IngestionRecord, error) {
	m.mu.Lock()
	payload, ok := m.records[recordID]
	m.mu.Unlock()
	if !ok {
		we := util.NewWorkflowError(util.ErrService, OpDetail, http.StatusText(http.StatusNotFound), nil)
		we.Status = http.StatusNotFound
		return models.IngestionRecord{}, we
	}
	return models.DecodeIngestionRecord(payload)
}

// mockRecord mirrors the real detail shape, with the metadata string-encoded
// the way the ingestion database hands it back.
func mockRecord(id string, doc *models.Document) ([]byte, error) {
	pages := doc.Pages
	if pages <= 0 {
		pages = 1
	}
	visual := make(map[string]map[string]string, pages)
	for i := 1; i <= pages; i++ {
		visual[strconv.Itoa(i)] = map[string]string{
			"visual_description": fmt.Sprintf("Mock description of page %d of %s", i, doc.Name),
		}
	}
	meta, err := json.Marshal(map[string]any{
		"visual_content": visual,
		"sha256":         doc.SHA256,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"licitacion_id": id,
		"documentos": []map[string]any{{
			"nombre_archivo": doc.Name,
			"metadata":       string(meta),
		}},
	})
}
