package activities

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"licitaflow/internal/config"
	"licitaflow/internal/document"
	"licitaflow/internal/logger"
	"licitaflow/internal/models"
	"licitaflow/internal/service"
	"licitaflow/internal/util"

	"go.temporal.io/sdk/temporal"
)

type Activities struct {
	cfg    config.Config
	svc    service.Service
	logger *slog.Logger
}

func New(cfg config.Config, svc service.Service) *Activities {
	return &Activities{cfg: cfg, svc: svc, logger: logger.WithComponent("activities")}
}

func (a *Activities) SubmitDocumentActivity(ctx context.Context, in SubmitDocumentInput) (SubmitDocumentOutput, error) {
	if strings.TrimSpace(in.DocumentPath) == "" {
		return SubmitDocumentOutput{}, failure(service.OpIngest, util.ErrNoDocument)
	}
	if a.cfg.RequireLicID && strings.TrimSpace(in.LicID) == "" {
		return SubmitDocumentOutput{}, failure(service.OpIngest, util.ErrNoLicID)
	}
	doc, err := document.Open(in.DocumentPath, a.cfg.MaxUploadBytes)
	if err != nil {
		return SubmitDocumentOutput{}, failure(service.OpIngest, err)
	}
	log := logger.FromContext(ctx).With("component", "activities")
	log.Info("submitting document", "file", doc.Name, "lic_id", in.LicID, "bytes", doc.Size, "pages", doc.Pages)

	receipt, err := a.svc.Ingest(ctx, models.SubmissionInput{Document: &doc, LicID: in.LicID})
	if err != nil {
		log.Warn("ingest failed", "error", err, "kind", service.ClassifyError(err))
		return SubmitDocumentOutput{}, failure(service.OpIngest, err)
	}
	return SubmitDocumentOutput{
		RecordID: receipt.RecordID,
		FileName: doc.Name,
		SHA256:   doc.SHA256,
		Pages:    doc.Pages,
	}, nil
}

func (a *Activities) FetchDetailActivity(ctx context.Context, in FetchDetailInput) (FetchDetailOutput, error) {
	rec, err := a.svc.FetchDetail(ctx, in.RecordID)
	if err != nil {
		a.logger.Warn("fetch detail failed", "record_id", in.RecordID, "error", err, "kind", service.ClassifyError(err))
		return FetchDetailOutput{}, failure(service.OpDetail, err)
	}
	return FetchDetailOutput{Record: rec.Raw, Documents: len(rec.Documentos)}, nil
}

// failure wraps err as a non-retryable application error. The user-facing
// message travels in the Failure details, so the workflow never has to parse
// error strings.
func failure(op string, err error) error {
	f := Failure{
		Kind:    string(service.ClassifyError(err)),
		Op:      op,
		Status:  service.StatusCode(err),
		Message: util.UserMessage(err),
	}
	var we *util.WorkflowError
	if !errors.As(err, &we) {
		f.Message = util.ShortMessage(op+": "+err.Error(), 240)
	}
	return temporal.NewNonRetryableApplicationError(f.Message, f.Kind, err, f)
}
