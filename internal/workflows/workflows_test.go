package workflows

import (
	"context"
	"testing"

	"licitaflow/internal/activities"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

const detailPayload = `{"licitacion_id": "LIC-TEST-001",
  "documentos": [{"nombre_archivo": "pliego.pdf", "metadata": {}}]}`

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func newEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(IngestRunWorkflow)
	return env
}

func TestIngestRunWorkflowSuccess(t *testing.T) {
	env := newEnv(t)
	registerActivityName(env, "SubmitDocumentActivity", func(context.Context, activities.SubmitDocumentInput) (activities.SubmitDocumentOutput, error) {
		return activities.SubmitDocumentOutput{}, nil
	})
	registerActivityName(env, "FetchDetailActivity", func(context.Context, activities.FetchDetailInput) (activities.FetchDetailOutput, error) {
		return activities.FetchDetailOutput{}, nil
	})
	env.OnActivity("SubmitDocumentActivity", mock.Anything, activities.SubmitDocumentInput{DocumentPath: "/tmp/pliego.pdf", LicID: "LIC-TEST-001"}).
		Return(activities.SubmitDocumentOutput{RecordID: "LIC-TEST-001", FileName: "pliego.pdf", Pages: 1}, nil)
	env.OnActivity("FetchDetailActivity", mock.Anything, activities.FetchDetailInput{RecordID: "LIC-TEST-001"}).
		Return(activities.FetchDetailOutput{Record: []byte(detailPayload), Documents: 1}, nil)

	env.ExecuteWorkflow(IngestRunWorkflow, IngestRunInput{DocumentPath: "/tmp/pliego.pdf", LicID: "LIC-TEST-001"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out IngestRunResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "succeeded", out.Phase)
	require.Equal(t, "LIC-TEST-001", out.RecordID)
	require.Equal(t, detailPayload, string(out.Record))
	require.Empty(t, out.Message)

	v, err := env.QueryWorkflow(QueryGetRunStatus)
	require.NoError(t, err)
	var status RunStatus
	require.NoError(t, v.Get(&status))
	require.Equal(t, "succeeded", status.Phase)
	require.Equal(t, 1, status.Pages)
}

func TestIngestRunWorkflowIngestFailureSkipsDetail(t *testing.T) {
	env := newEnv(t)
	detailCalls := 0
	registerActivityName(env, "SubmitDocumentActivity", func(context.Context, activities.SubmitDocumentInput) (activities.SubmitDocumentOutput, error) {
		f := activities.Failure{Kind: "service", Op: "ingest", Status: 500, Message: "ingest: Internal Server Error"}
		return activities.SubmitDocumentOutput{}, temporal.NewNonRetryableApplicationError(f.Message, f.Kind, nil, f)
	})
	registerActivityName(env, "FetchDetailActivity", func(context.Context, activities.FetchDetailInput) (activities.FetchDetailOutput, error) {
		detailCalls++
		return activities.FetchDetailOutput{}, nil
	})

	env.ExecuteWorkflow(IngestRunWorkflow, IngestRunInput{DocumentPath: "/tmp/pliego.pdf", LicID: "LIC-TEST-001"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out IngestRunResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out.Phase)
	require.Equal(t, "ingest: Internal Server Error", out.Message)
	require.Nil(t, out.Record)
	require.Zero(t, detailCalls)
}

func TestIngestRunWorkflowDetailFailure(t *testing.T) {
	env := newEnv(t)
	registerActivityName(env, "SubmitDocumentActivity", func(context.Context, activities.SubmitDocumentInput) (activities.SubmitDocumentOutput, error) {
		return activities.SubmitDocumentOutput{}, nil
	})
	registerActivityName(env, "FetchDetailActivity", func(context.Context, activities.FetchDetailInput) (activities.FetchDetailOutput, error) {
		return activities.FetchDetailOutput{}, nil
	})
	f := activities.Failure{Kind: "service", Op: "fetch detail", Status: 404, Message: "fetch detail: Not Found"}
	env.OnActivity("SubmitDocumentActivity", mock.Anything, mock.Anything).Return(activities.SubmitDocumentOutput{RecordID: "LIC-9"}, nil)
	env.OnActivity("FetchDetailActivity", mock.Anything, mock.Anything).
		Return(activities.FetchDetailOutput{}, temporal.NewNonRetryableApplicationError(f.Message, f.Kind, nil, f))

	env.ExecuteWorkflow(IngestRunWorkflow, IngestRunInput{DocumentPath: "/tmp/pliego.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out IngestRunResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out.Phase)
	require.Equal(t, "LIC-9", out.RecordID)
	require.Equal(t, "fetch detail: Not Found", out.Message)
}

func TestIngestRunWorkflowUnknownErrorFailsWorkflow(t *testing.T) {
	env := newEnv(t)
	registerActivityName(env, "SubmitDocumentActivity", func(context.Context, activities.SubmitDocumentInput) (activities.SubmitDocumentOutput, error) {
		return activities.SubmitDocumentOutput{}, temporal.NewNonRetryableApplicationError("worker misconfigured", "internal", nil)
	})

	env.ExecuteWorkflow(IngestRunWorkflow, IngestRunInput{DocumentPath: "/tmp/pliego.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}
