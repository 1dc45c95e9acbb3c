package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"licitaflow/internal/logger"
	"licitaflow/internal/models"
	"licitaflow/internal/service"
	"licitaflow/internal/util"

	"github.com/google/uuid"
)

// Observer receives run lifecycle notifications, e.g. for metrics.
type Observer interface {
	RunStarted()
	CallFinished(op string, err error, elapsed time.Duration)
	RunFinished(phase Phase, elapsed time.Duration)
	StaleDropped()
}

type nopObserver struct{}

func (nopObserver) RunStarted()                               {}
func (nopObserver) CallFinished(string, error, time.Duration) {}
func (nopObserver) RunFinished(Phase, time.Duration)          {}
func (nopObserver) StaleDropped()                             {}

type Option func(*Controller)

func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithRequireLicID makes Submit reject an empty identifier instead of leaving
// that decision to the ingestion service.
func WithRequireLicID(require bool) Option {
	return func(c *Controller) { c.requireLicID = require }
}

type listener struct {
	id int
	fn func(State)
}

// Controller owns the ingestion workflow: the pending input, the single
// State, and at most one in-flight run. All writes to State go through
// reduce, tagged with the generation of the run that produced them.
type Controller struct {
	svc          service.Service
	observer     Observer
	requireLicID bool
	logger       *slog.Logger

	mu        sync.Mutex
	state     State
	input     models.SubmissionInput
	gen       uint64
	done      chan struct{}
	listeners []listener
	nextID    int
	seq       uint64

	notifyMu  sync.Mutex
	delivered uint64
}

func New(svc service.Service, opts ...Option) *Controller {
	c := &Controller{
		svc:      svc,
		observer: nopObserver{},
		logger:   logger.WithComponent("controller"),
		state:    State{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Input() models.SubmissionInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput replaces the pending input. It is refused while a run is in flight.
func (c *Controller) SetInput(in models.SubmissionInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Busy() {
		return util.ErrBusy
	}
	c.input = in
	return nil
}

// Subscribe registers fn to be called with every applied transition. fn must
// not call SetInput, Submit or Discard synchronously.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Submit starts a run with a snapshot of the pending input and returns its
// generation. Validation failures and ErrBusy are returned synchronously and
// leave State untouched. The run is not tied to ctx's cancellation; each
// remote call is bounded by the service's own timeouts.
func (c *Controller) Submit(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	if c.state.Busy() {
		c.mu.Unlock()
		return 0, util.ErrBusy
	}
	if !c.input.HasDocument() {
		c.mu.Unlock()
		return 0, util.ErrNoDocument
	}
	if c.requireLicID && strings.TrimSpace(c.input.LicID) == "" {
		c.mu.Unlock()
		return 0, util.ErrNoLicID
	}
	c.gen++
	gen := c.gen
	runID := uuid.NewString()
	next, _ := reduce(c.state, evStarted{gen: gen, runID: runID})
	snapshot := c.input.Snapshot()
	done := make(chan struct{})
	c.done = done
	c.publishLocked(next)

	c.observer.RunStarted()
	runCtx := logger.WithRunID(context.WithoutCancel(ctx), runID)
	go c.run(runCtx, gen, snapshot, done)
	return gen, nil
}

// Wait blocks until the latest run has returned.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.State(), ctx.Err()
		}
	}
	return c.State(), nil
}

// Run is the headless form of the workflow: set the input, submit and wait
// for the final state.
func (c *Controller) Run(ctx context.Context, in models.SubmissionInput) (State, error) {
	if err := c.SetInput(in); err != nil {
		return c.State(), err
	}
	if _, err := c.Submit(ctx); err != nil {
		return c.State(), err
	}
	return c.Wait(ctx)
}

// Discard returns to Idle and clears the pending input. Any run still in
// flight becomes stale and its results are dropped.
func (c *Controller) Discard() {
	c.mu.Lock()
	c.gen++
	c.input = models.SubmissionInput{}
	gen := c.gen
	next, _ := reduce(c.state, evDiscarded{gen: gen})
	c.publishLocked(next)
	c.logger.Debug("workflow state discarded", "generation", gen)
}

func (c *Controller) run(ctx context.Context, gen uint64, in models.SubmissionInput, done chan struct{}) {
	defer close(done)
	log := logger.FromContext(ctx).With("component", "controller", "generation", gen)
	start := time.Now()
	log.Info("workflow run started", "file", in.Document.Name, "lic_id", in.LicID, "bytes", in.Document.Size, "sha256", in.Document.SHA256)

	t := time.Now()
	receipt, err := c.svc.Ingest(ctx, in)
	c.observer.CallFinished(service.OpIngest, err, time.Since(t))
	if err != nil {
		c.finish(log, start, evFailed{gen: gen, message: util.UserMessage(err)}, err)
		return
	}
	if !c.apply(evIngested{gen: gen, recordID: receipt.RecordID}) {
		c.observer.StaleDropped()
		log.Info("run superseded after ingest, detail fetch skipped")
		return
	}

	t = time.Now()
	rec, err := c.svc.FetchDetail(ctx, receipt.RecordID)
	c.observer.CallFinished(service.OpDetail, err, time.Since(t))
	if err != nil {
		c.finish(log, start, evFailed{gen: gen, message: util.UserMessage(err)}, err)
		return
	}
	c.finish(log, start, evSucceeded{gen: gen, record: rec}, nil)
}

func (c *Controller) finish(log *slog.Logger, start time.Time, ev event, cause error) {
	if !c.apply(ev) {
		c.observer.StaleDropped()
		log.Info("discarded result of superseded run")
		return
	}
	elapsed := time.Since(start)
	if cause != nil {
		c.observer.RunFinished(PhaseFailed, elapsed)
		log.Warn("workflow run failed", "error", cause, "kind", service.ClassifyError(cause), "elapsed", elapsed)
		return
	}
	c.observer.RunFinished(PhaseSucceeded, elapsed)
	log.Info("workflow run succeeded", "elapsed", elapsed)
}

func (c *Controller) apply(ev event) bool {
	c.mu.Lock()
	next, ok := reduce(c.state, ev)
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.publishLocked(next)
	return true
}

// publishLocked stores next and notifies listeners. It must be called with mu
// held and releases it. Listeners never see an older state after a newer one.
func (c *Controller) publishLocked(next State) {
	c.state = next
	c.seq++
	seq := c.seq
	listeners := make([]func(State), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l.fn)
	}
	c.mu.Unlock()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if seq <= c.delivered {
		return
	}
	c.delivered = seq
	for _, fn := range listeners {
		fn(next)
	}
}

// IsValidation reports whether err is a precondition failure of Submit.
func IsValidation(err error) bool {
	return errors.Is(err, util.ErrValidation)
}
