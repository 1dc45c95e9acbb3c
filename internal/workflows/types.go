package workflows

type IngestRunInput struct {
	DocumentPath         string `json:"document_path"`
	LicID                string `json:"lic_id"`
	IngestTimeoutSeconds int    `json:"ingest_timeout_seconds,omitempty"`
	DetailTimeoutSeconds int    `json:"detail_timeout_seconds,omitempty"`
}

// RunStatus is what GetRunStatus reports while the run is in progress.
type RunStatus struct {
	Phase    string `json:"phase"`
	Step     string `json:"step,omitempty"`
	RecordID string `json:"record_id,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Pages    int    `json:"pages,omitempty"`
	Message  string `json:"error,omitempty"`
}

// IngestRunResult is the terminal state of a run. Record holds the detail
// payload exactly as received and is set only when Phase is succeeded.
type IngestRunResult struct {
	Phase    string `json:"phase"`
	RecordID string `json:"record_id,omitempty"`
	Record   []byte `json:"record,omitempty"`
	Message  string `json:"error,omitempty"`
}
