package api

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"licitaflow/internal/config"
	"licitaflow/internal/controller"
	"licitaflow/internal/document"
	"licitaflow/internal/logger"
	"licitaflow/internal/metrics"
	"licitaflow/internal/models"
	"licitaflow/internal/render"
	"licitaflow/internal/util"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// multipartOverhead is allowed on top of MaxUploadBytes for the form fields
// and part headers.
const multipartOverhead = 1 << 20

type Server struct {
	cfg     config.Config
	ctrl    *controller.Controller
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewServer serves the debugger page for ctrl. m may be nil, in which case
// /metrics is not routed.
func NewServer(cfg config.Config, ctrl *controller.Controller, m *metrics.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		ctrl:    ctrl,
		metrics: m,
		logger:  logger.WithComponent("api"),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/run", s.handleRun)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/discard", s.handleDiscard)
	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return withCORS(s.withRequestLog(mux))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeErr(w, http.StatusNotFound, nil)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeErr(w, http.StatusMethodNotAllowed, nil)
		return
	}
	s.renderPage(w, http.StatusOK, "")
}

// handleRun takes the multipart form of the page (file + lic_id), makes it
// the pending input and submits it. Browsers get redirected back to the page;
// JSON clients get the new state.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, nil)
		return
	}
	if s.ctrl.State().Busy() {
		s.reject(w, r, http.StatusConflict, util.ErrBusy)
		return
	}
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.reject(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: document exceeds %d bytes", util.ErrValidation, s.cfg.MaxUploadBytes))
			return
		}
		s.reject(w, r, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	licID := r.FormValue("lic_id")
	fh, ok := uploadedFile(r.MultipartForm)
	if !ok {
		s.reject(w, r, http.StatusBadRequest, util.ErrNoDocument)
		return
	}
	doc, err := readUpload(fh, s.cfg.MaxUploadBytes)
	if err != nil {
		s.reject(w, r, http.StatusBadRequest, err)
		return
	}

	if err := s.ctrl.SetInput(models.SubmissionInput{Document: &doc, LicID: licID}); err != nil {
		s.reject(w, r, statusFor(err), err)
		return
	}
	gen, err := s.ctrl.Submit(r.Context())
	if err != nil {
		s.reject(w, r, statusFor(err), err)
		return
	}
	s.logger.Info("run submitted", "generation", gen, "file", doc.Name, "lic_id", licID, "bytes", doc.Size)

	if wantsJSON(r) {
		writeJSON(w, http.StatusAccepted, s.stateView())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.stateView())
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, nil)
		return
	}
	s.ctrl.Discard()
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, s.stateView())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// reject answers a refused submission without touching controller state.
func (s *Server) reject(w http.ResponseWriter, r *http.Request, code int, err error) {
	s.logger.Info("run rejected", "status", code, "error", err)
	if wantsJSON(r) {
		writeErr(w, code, err)
		return
	}
	s.renderPage(w, code, toAPIError(code, err).Message)
}

type stateView struct {
	State  controller.State    `json:"state"`
	Visual *render.VisualPanel `json:"visual,omitempty"`
}

func (s *Server) stateView() stateView {
	st := s.ctrl.State()
	v := stateView{State: st}
	if st.Result != nil {
		panel := render.RenderVisual(*st.Result)
		v.Visual = &panel
	}
	return v
}

type pageData struct {
	LicID  string
	State  controller.State
	Busy   bool
	Notice string
	Visual *render.VisualPanel
	Raw    *render.RawView
}

func (s *Server) renderPage(w http.ResponseWriter, code int, notice string) {
	st := s.ctrl.State()
	data := pageData{
		LicID:  s.ctrl.Input().LicID,
		State:  st,
		Busy:   st.Busy(),
		Notice: notice,
	}
	if data.LicID == "" {
		data.LicID = s.cfg.DefaultLicID
	}
	if st.Result != nil {
		panel := render.RenderVisual(*st.Result)
		raw := render.RenderRaw(*st.Result, s.cfg.RawOutputLimit)
		data.Visual = &panel
		data.Raw = &raw
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

func uploadedFile(form *multipart.Form) (*multipart.FileHeader, bool) {
	if form == nil {
		return nil, false
	}
	if files := form.File["file"]; len(files) > 0 && files[0].Filename != "" {
		return files[0], true
	}
	return firstSingleFile(form.File)
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 && v[0].Filename != "" {
			return v[0], true
		}
	}
	return nil, false
}

func readUpload(fh *multipart.FileHeader, maxBytes int64) (models.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Document{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return models.Document{}, fmt.Errorf("read upload: %w", err)
	}
	return document.FromBytes(fh.Filename, data, maxBytes)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, util.ErrBusy):
		return http.StatusConflict
	case controller.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	switch {
	case errors.Is(err, util.ErrNoDocument):
		return apiError{Code: "LC-RUN-4001", Message: "Select a PDF file before running the ingestion."}
	case errors.Is(err, util.ErrNoLicID):
		return apiError{Code: "LC-RUN-4002", Message: "A licitación ID is required."}
	case errors.Is(err, util.ErrBusy):
		return apiError{Code: "LC-RUN-4009", Message: "A run is already in progress. Wait for it to finish."}
	case controller.IsValidation(err):
		return apiError{Code: "LC-RUN-4000", Message: util.UserMessage(err)}
	}

	switch {
	case status >= 500:
		return apiError{Code: "LC-API-5000", Message: "Internal server error. Please retry or check service logs."}
	case status == http.StatusNotFound:
		return apiError{Code: "LC-API-4004", Message: "Requested resource was not found."}
	case status == http.StatusMethodNotAllowed:
		return apiError{Code: "LC-API-4005", Message: "This endpoint does not support the requested method."}
	case status == http.StatusRequestEntityTooLarge:
		return apiError{Code: "LC-API-4013", Message: "Uploaded document is too large."}
	default:
		return apiError{Code: "LC-API-4000", Message: "Invalid request. Check inputs and retry."}
	}
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		if r.URL.Path == "/state" || r.URL.Path == "/metrics" || r.URL.Path == "/healthz" {
			return
		}
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", sw.status, "elapsed", time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
