package activities

type SubmitDocumentInput struct {
	DocumentPath string `json:"document_path"`
	LicID        string `json:"lic_id"`
}

type SubmitDocumentOutput struct {
	RecordID string `json:"record_id"`
	FileName string `json:"file_name"`
	SHA256   string `json:"sha256"`
	Pages    int    `json:"pages"`
}

type FetchDetailInput struct {
	RecordID string `json:"record_id"`
}

// FetchDetailOutput carries the detail payload as bytes so the data converter
// keeps it byte for byte.
type FetchDetailOutput struct {
	Record    []byte `json:"record"`
	Documents int    `json:"documents"`
}

// Failure is attached as details to the non-retryable application error an
// activity returns for a known failure.
type Failure struct {
	Kind    string `json:"kind"`
	Op      string `json:"op"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}
