package controller

import "licitaflow/internal/models"

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

type Step string

const (
	StepNone   Step = ""
	StepIngest Step = "ingest"
	StepDetail Step = "detail"
)

// State is the single workflow state. Only the fields of the active phase
// are set: Result in Succeeded, Message in Failed, Step and RecordID while
// Submitting (RecordID is kept afterwards for display).
type State struct {
	Phase      Phase                   `json:"phase"`
	Generation uint64                  `json:"generation"`
	RunID      string                  `json:"run_id,omitempty"`
	Step       Step                    `json:"step,omitempty"`
	RecordID   string                  `json:"record_id,omitempty"`
	Result     *models.IngestionRecord `json:"result,omitempty"`
	Message    string                  `json:"error,omitempty"`
}

func (s State) Busy() bool { return s.Phase == PhaseSubmitting }

func (s State) Done() bool { return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed }

type event interface {
	generation() uint64
}

type (
	evStarted struct {
		gen   uint64
		runID string
	}
	evIngested struct {
		gen      uint64
		recordID string
	}
	evSucceeded struct {
		gen    uint64
		record models.IngestionRecord
	}
	evFailed struct {
		gen     uint64
		message string
	}
	evDiscarded struct {
		gen uint64
	}
)

func (e evStarted) generation() uint64   { return e.gen }
func (e evIngested) generation() uint64  { return e.gen }
func (e evSucceeded) generation() uint64 { return e.gen }
func (e evFailed) generation() uint64    { return e.gen }
func (e evDiscarded) generation() uint64 { return e.gen }

// reduce is the only place a State changes. Start and discard events open a
// new generation; every other event must belong to the current generation
// and to a run that is still submitting, otherwise it is stale and dropped.
func reduce(s State, ev event) (State, bool) {
	switch e := ev.(type) {
	case evStarted:
		if e.gen <= s.Generation || s.Busy() {
			return s, false
		}
		return State{Phase: PhaseSubmitting, Generation: e.gen, RunID: e.runID, Step: StepIngest}, true
	case evDiscarded:
		if e.gen <= s.Generation {
			return s, false
		}
		return State{Phase: PhaseIdle, Generation: e.gen}, true
	}

	if ev.generation() != s.Generation || !s.Busy() {
		return s, false
	}
	switch e := ev.(type) {
	case evIngested:
		if s.Step != StepIngest {
			return s, false
		}
		next := s
		next.Step = StepDetail
		next.RecordID = e.recordID
		return next, true
	case evSucceeded:
		if s.Step != StepDetail {
			return s, false
		}
		rec := e.record
		return State{Phase: PhaseSucceeded, Generation: s.Generation, RunID: s.RunID, RecordID: s.RecordID, Result: &rec}, true
	case evFailed:
		return State{Phase: PhaseFailed, Generation: s.Generation, RunID: s.RunID, RecordID: s.RecordID, Message: e.message}, true
	}
	return s, false
}
