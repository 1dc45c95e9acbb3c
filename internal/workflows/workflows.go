package workflows

import (
	"errors"
	"time"

	"licitaflow/internal/activities"
	"licitaflow/internal/controller"
	"licitaflow/internal/service"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetRunStatus = "GetRunStatus"

// Activity timeouts leave room over the service client's own deadline so the
// client reports the timeout, not the server.
const activityTimeoutSlack = 30 * time.Second

// IngestRunWorkflow is the durable form of one controller run: submit the
// document, then fetch the record it created. Neither step is retried and the
// detail fetch is never scheduled after a failed submit.
func IngestRunWorkflow(ctx workflow.Context, input IngestRunInput) (IngestRunResult, error) {
	status := RunStatus{Phase: string(controller.PhaseSubmitting), Step: string(controller.StepIngest)}
	if err := workflow.SetQueryHandler(ctx, QueryGetRunStatus, func() (RunStatus, error) {
		return status, nil
	}); err != nil {
		return IngestRunResult{}, err
	}
	log := workflow.GetLogger(ctx)

	ingestCtx := workflow.WithActivityOptions(ctx, activityOptions(input.IngestTimeoutSeconds, 600))
	var submitOut activities.SubmitDocumentOutput
	err := workflow.ExecuteActivity(ingestCtx, "SubmitDocumentActivity", activities.SubmitDocumentInput{
		DocumentPath: input.DocumentPath,
		LicID:        input.LicID,
	}).Get(ctx, &submitOut)
	if err != nil {
		msg, known := failureMessage(service.OpIngest, err)
		if !known {
			return IngestRunResult{}, err
		}
		log.Warn("ingest failed", "error", msg)
		return failRun(&status, msg), nil
	}
	status.Step = string(controller.StepDetail)
	status.RecordID = submitOut.RecordID
	status.FileName = submitOut.FileName
	status.Pages = submitOut.Pages

	detailCtx := workflow.WithActivityOptions(ctx, activityOptions(input.DetailTimeoutSeconds, 60))
	var detailOut activities.FetchDetailOutput
	err = workflow.ExecuteActivity(detailCtx, "FetchDetailActivity", activities.FetchDetailInput{
		RecordID: submitOut.RecordID,
	}).Get(ctx, &detailOut)
	if err != nil {
		msg, known := failureMessage(service.OpDetail, err)
		if !known {
			return IngestRunResult{}, err
		}
		log.Warn("fetch detail failed", "record_id", submitOut.RecordID, "error", msg)
		return failRun(&status, msg), nil
	}

	status.Phase = string(controller.PhaseSucceeded)
	status.Step = ""
	log.Info("run succeeded", "record_id", submitOut.RecordID, "documents", detailOut.Documents)
	return IngestRunResult{
		Phase:    status.Phase,
		RecordID: submitOut.RecordID,
		Record:   detailOut.Record,
	}, nil
}

func activityOptions(seconds, fallback int) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: durationOrDefault(seconds, fallback) + activityTimeoutSlack,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
}

func failRun(status *RunStatus, msg string) IngestRunResult {
	status.Phase = string(controller.PhaseFailed)
	status.Step = ""
	status.Message = msg
	return IngestRunResult{Phase: status.Phase, RecordID: status.RecordID, Message: msg}
}

// failureMessage extracts the user-facing message of an activity failure.
// Anything that is neither a reported failure nor a timeout fails the
// workflow itself.
func failureMessage(op string, err error) (string, bool) {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.HasDetails() {
		var f activities.Failure
		if detailsErr := appErr.Details(&f); detailsErr == nil && f.Message != "" {
			return f.Message, true
		}
	}
	var timeoutErr *temporal.TimeoutError
	if errors.As(err, &timeoutErr) {
		return op + ": request timed out", true
	}
	return "", false
}

func durationOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
