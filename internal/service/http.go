package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"licitaflow/internal/logger"
	"licitaflow/internal/models"
	"licitaflow/internal/util"
)

const defaultMaxResponseBytes = 256 << 20

// HTTPService talks to the licitaciones API:
//
//	POST {base}/licitaciones/ingest     multipart file + lic_id
//	GET  {base}/licitaciones/{id}
type HTTPService struct {
	baseURL       string
	client        *http.Client
	ingestTimeout time.Duration
	detailTimeout time.Duration
	maxResponse   int64
	logger        *slog.Logger
}

type HTTPOption func(*HTTPService)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPService) { s.client = c }
}

// WithTimeouts bounds each call; zero leaves a call bounded only by ctx.
func WithTimeouts(ingest, detail time.Duration) HTTPOption {
	return func(s *HTTPService) {
		s.ingestTimeout = ingest
		s.detailTimeout = detail
	}
}

// WithMaxResponseBytes caps how much of a response body is read. A larger
// body fails the call instead of being cut short.
func WithMaxResponseBytes(n int64) HTTPOption {
	return func(s *HTTPService) {
		if n > 0 {
			s.maxResponse = n
		}
	}
}

func NewHTTPService(baseURL string, opts ...HTTPOption) *HTTPService {
	s := &HTTPService{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:      &http.Client{},
		maxResponse: defaultMaxResponseBytes,
		logger:      logger.WithComponent("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPService) Ingest(ctx context.Context, in models.SubmissionInput) (models.IngestReceipt, error) {
	if !in.HasDocument() {
		return models.IngestReceipt{}, util.ErrNoDocument
	}
	body, contentType, err := encodeSubmission(in)
	if err != nil {
		return models.IngestReceipt{}, util.NewWorkflowError(util.ErrValidation, OpIngest, "could not encode upload", err)
	}
	ctx, cancel := withTimeout(ctx, s.ingestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/licitaciones/ingest", body)
	if err != nil {
		return models.IngestReceipt{}, util.NewWorkflowError(util.ErrTransport, OpIngest, "invalid service address", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	payload, err := s.do(req, OpIngest)
	logger.FromContext(ctx).Debug("ingest call finished", "component", "service", "file", in.Document.Name, "bytes", in.Document.Size, "elapsed", time.Since(start), "error", err)
	if err != nil {
		return models.IngestReceipt{}, err
	}
	receipt, err := models.DecodeIngestReceipt(payload)
	if err != nil {
		return models.IngestReceipt{}, util.NewWorkflowError(util.ErrDecode, OpIngest, decodeMessage(err), err)
	}
	return receipt, nil
}

func (s *HTTPService) FetchDetail(ctx context.Context, recordID string) (models.IngestionRecord, error) {
	if strings.TrimSpace(recordID) == "" {
		return models.IngestionRecord{}, util.NewWorkflowError(util.ErrDecode, OpDetail, "empty record id", nil)
	}
	ctx, cancel := withTimeout(ctx, s.detailTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/licitaciones/"+url.PathEscape(recordID), nil)
	if err != nil {
		return models.IngestionRecord{}, util.NewWorkflowError(util.ErrTransport, OpDetail, "invalid service address", err)
	}
	req.Header.Set("Accept", "application/json")

	payload, err := s.do(req, OpDetail)
	if err != nil {
		return models.IngestionRecord{}, err
	}
	rec, err := models.DecodeIngestionRecord(payload)
	if err != nil {
		return models.IngestionRecord{}, util.NewWorkflowError(util.ErrDecode, OpDetail, decodeMessage(err), err)
	}
	return rec, nil
}

func (s *HTTPService) do(req *http.Request, op string) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxResponse+1))
	if err != nil {
		return nil, transportError(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("service returned non-success status", "op", op, "status", resp.StatusCode, "body", util.ShortMessage(string(body), 200))
		we := util.NewWorkflowError(util.ErrService, op, statusText(resp), nil)
		we.Status = resp.StatusCode
		return nil, we
	}
	if int64(len(body)) > s.maxResponse {
		return nil, util.NewWorkflowError(util.ErrDecode, op, fmt.Sprintf("response exceeds %d bytes", s.maxResponse), nil)
	}
	return body, nil
}

func encodeSubmission(in models.SubmissionInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": in.Document.Name,
	}))
	h.Set("Content-Type", documentContentType(in.Document))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(in.Document.Data); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("lic_id", in.LicID); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func documentContentType(doc *models.Document) string {
	if strings.HasSuffix(strings.ToLower(doc.Name), ".pdf") {
		return "application/pdf"
	}
	return http.DetectContentType(doc.Data)
}

// statusText is the reason phrase of resp, falling back to the canonical
// text for its code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	if text == "" {
		text = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return text
}

func transportError(op string, err error) error {
	msg := err.Error()
	var uerr *url.Error
	if errors.As(err, &uerr) {
		msg = uerr.Err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out"
	}
	return util.NewWorkflowError(util.ErrTransport, op, msg, err)
}

func decodeMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), util.ErrDecode.Error()+": ")
	return util.ShortMessage(msg, 160)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
