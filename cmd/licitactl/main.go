// Command licitactl runs one ingestion from the terminal: upload a document,
// fetch the record it produced and print it.
//
// Usage:
//
//	licitactl -file pliego.pdf [-id LIC-TEST-001] [-runner local|temporal] [-json] [-out record.json]
//
// Exit status is 0 when the run succeeded, 1 when it failed and 2 for usage
// or validation errors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"licitaflow/internal/config"
	"licitaflow/internal/controller"
	"licitaflow/internal/document"
	"licitaflow/internal/logger"
	"licitaflow/internal/models"
	"licitaflow/internal/render"
	"licitaflow/internal/service"
	"licitaflow/internal/util"
	"licitaflow/internal/workflows"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
)

const (
	exitSucceeded = 0
	exitFailed    = 1
	exitUsage     = 2
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(exitUsage)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	file   string
	licID  string
	runner string
	asJSON bool
	out    string
}

// outcome is the terminal state of a run, whichever runner produced it.
type outcome struct {
	Phase    controller.Phase        `json:"phase"`
	RecordID string                  `json:"record_id,omitempty"`
	Result   *models.IngestionRecord `json:"result,omitempty"`
	Message  string                  `json:"error,omitempty"`
}

func run(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("licitactl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.file, "file", "", "document to ingest (required)")
	fs.StringVar(&opts.licID, "id", cfg.DefaultLicID, "licitacion id sent as lic_id")
	fs.StringVar(&opts.runner, "runner", "local", "local runs in-process; temporal starts IngestRunWorkflow")
	fs.BoolVar(&opts.asJSON, "json", false, "print the final state as JSON")
	fs.StringVar(&opts.out, "out", "", "also write the detail payload to this path")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if strings.TrimSpace(opts.file) == "" {
		fmt.Fprintln(stderr, "licitactl: -file is required")
		fs.Usage()
		return exitUsage
	}

	var (
		res outcome
		err error
	)
	switch opts.runner {
	case "local":
		res, err = runLocal(ctx, cfg, opts)
	case "temporal":
		res, err = runTemporal(ctx, cfg, opts)
	default:
		fmt.Fprintf(stderr, "licitactl: unknown runner %q\n", opts.runner)
		return exitUsage
	}
	if err != nil {
		fmt.Fprintf(stderr, "licitactl: %s\n", util.UserMessage(err))
		if controller.IsValidation(err) {
			return exitUsage
		}
		return exitFailed
	}

	if err := report(stdout, cfg, opts, res); err != nil {
		fmt.Fprintf(stderr, "licitactl: %v\n", err)
		return exitFailed
	}
	if res.Phase != controller.PhaseSucceeded {
		if !opts.asJSON {
			fmt.Fprintf(stderr, "licitactl: run failed: %s\n", res.Message)
		}
		return exitFailed
	}
	return exitSucceeded
}

func runLocal(ctx context.Context, cfg config.Config, opts options) (outcome, error) {
	doc, err := document.Open(opts.file, cfg.MaxUploadBytes)
	if err != nil {
		return outcome{}, err
	}
	svc, err := service.New(cfg)
	if err != nil {
		return outcome{}, err
	}
	ctrl := controller.New(svc, controller.WithRequireLicID(cfg.RequireLicID))
	st, err := ctrl.Run(ctx, models.SubmissionInput{Document: &doc, LicID: opts.licID})
	if err != nil {
		return outcome{}, err
	}
	return outcome{Phase: st.Phase, RecordID: st.RecordID, Result: st.Result, Message: st.Message}, nil
}

// runTemporal starts IngestRunWorkflow and waits for it. The worker opens the
// document itself, so the path is made absolute and checked here first.
func runTemporal(ctx context.Context, cfg config.Config, opts options) (outcome, error) {
	path, err := filepath.Abs(opts.file)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: %v", util.ErrValidation, err)
	}
	if _, err := document.Open(path, cfg.MaxUploadBytes); err != nil {
		return outcome{}, err
	}

	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalAddress,
		Logger:   tlog.NewStructuredLogger(logger.WithComponent("temporal")),
	})
	if err != nil {
		return outcome{}, fmt.Errorf("dial temporal: %w", err)
	}
	defer c.Close()

	runID := uuid.NewString()
	we, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    "licita-run-" + runID,
		TaskQueue:             cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, workflows.IngestRunWorkflow, workflows.IngestRunInput{
		DocumentPath:         path,
		LicID:                opts.licID,
		IngestTimeoutSeconds: int(cfg.IngestTimeout.Seconds()),
		DetailTimeoutSeconds: int(cfg.DetailTimeout.Seconds()),
	})
	if err != nil {
		return outcome{}, fmt.Errorf("start workflow: %w", err)
	}
	logger.FromContext(logger.WithRunID(ctx, runID)).Info("workflow started", "workflow_id", we.GetID(), "temporal_run_id", we.GetRunID())

	var wr workflows.IngestRunResult
	if err := we.Get(ctx, &wr); err != nil {
		return outcome{}, fmt.Errorf("workflow %s: %w", we.GetID(), err)
	}
	res := outcome{Phase: controller.Phase(wr.Phase), RecordID: wr.RecordID, Message: wr.Message}
	if res.Phase == controller.PhaseSucceeded {
		rec, err := models.DecodeIngestionRecord(wr.Record)
		if err != nil {
			return outcome{}, err
		}
		res.Result = &rec
	}
	return res, nil
}

func report(w io.Writer, cfg config.Config, opts options, res outcome) error {
	if opts.out != "" && res.Result != nil {
		if err := util.WriteJSONAtomic(opts.out, res.Result.Raw); err != nil {
			return fmt.Errorf("write %s: %w", opts.out, err)
		}
	}
	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if res.Result == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "record %s\n\n", res.RecordID); err != nil {
		return err
	}
	if err := render.WriteVisual(w, render.RenderVisual(*res.Result)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return render.WriteRaw(w, render.RenderRaw(*res.Result, cfg.RawOutputLimit))
}
