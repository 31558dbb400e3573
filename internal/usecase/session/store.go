package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/lumina/internal/domain/entities"
	ucerrors "github.com/johnquangdev/lumina/internal/usecase/errors"
)

// State is the analysis lifecycle state of a session
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// Stage is the progress of an in-flight submission
type Stage string

const (
	StageNone               Stage = ""
	StageEncodingAudio      Stage = "encoding_audio"
	StageParsingTranscript  Stage = "parsing_transcript"
	StageAnalyzing          Stage = "analyzing"
	StageExtractingInsights Stage = "extracting_insights"
)

// Failure is the user-visible error held by a Failed session
type Failure struct {
	Kind    entities.ErrorKind `json:"kind"`
	Message string             `json:"message"`
}

// Snapshot is an immutable copy of a session's state
type Snapshot struct {
	ID          uuid.UUID
	State       State
	Stage       Stage
	Generation  uint64
	Input       *entities.InputSummary
	Failure     *Failure
	Analysis    *entities.MeetingAnalysis
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time
	CompletedAt *time.Time
}

// Store is the Analysis State Store for one session.
//
//	Idle -> Submitting -> Ready | Failed
//	Ready | Failed | Idle -> Idle (Reset)
//
// Every submission is tagged with a generation number. Reset bumps the
// generation so a completion that arrives afterwards is discarded.
type Store struct {
	mu sync.Mutex

	id         uuid.UUID
	state      State
	stage      Stage
	generation uint64

	input    *entities.InputSummary
	request  *entities.AnalysisRequest
	failure  *Failure
	analysis *entities.MeetingAnalysis

	createdAt   time.Time
	updatedAt   time.Time
	submittedAt *time.Time
	completedAt *time.Time
}

// NewStore creates an Idle store
func NewStore(id uuid.UUID) *Store {
	now := time.Now()
	return &Store{
		id:        id,
		state:     StateIdle,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session id
func (s *Store) ID() uuid.UUID {
	return s.id
}

// Begin moves Idle -> Submitting and returns the generation of the new submission
func (s *Store) Begin(input entities.InputSummary) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle:
	case StateSubmitting:
		return 0, ucerrors.ErrSubmissionInProgress
	default:
		return 0, ucerrors.ErrInvalidState
	}

	now := time.Now()
	s.generation++
	s.state = StateSubmitting
	s.stage = StageNone
	s.input = &input
	s.request = nil
	s.failure = nil
	s.analysis = nil
	s.submittedAt = &now
	s.completedAt = nil
	s.updatedAt = now
	return s.generation, nil
}

// Attach records the normalized request of the current submission so a
// failed submission can be retried without re-reading the input
func (s *Store) Attach(gen uint64, req *entities.AnalysisRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen) {
		return false
	}
	s.request = req
	if s.input != nil && req != nil && req.Kind == entities.RequestKindAudio {
		s.input.MIMEType = req.MIMEType
	}
	s.updatedAt = time.Now()
	return true
}

// Advance records the progress stage of the current submission
func (s *Store) Advance(gen uint64, stage Stage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen) {
		return false
	}
	s.stage = stage
	s.updatedAt = time.Now()
	return true
}

// Complete moves Submitting -> Ready. It returns false when the submission is
// stale and the result was discarded.
func (s *Store) Complete(gen uint64, analysis *entities.MeetingAnalysis) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen) {
		return false
	}
	now := time.Now()
	s.state = StateReady
	s.stage = StageNone
	s.analysis = analysis
	s.failure = nil
	s.completedAt = &now
	s.updatedAt = now
	return true
}

// Fail moves Submitting -> Failed, keeping the submission's inputs. It
// returns false when the submission is stale.
func (s *Store) Fail(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen) {
		return false
	}
	kind := entities.ErrorKind("")
	if ae, ok := entities.AsAnalysisError(err); ok {
		kind = ae.Kind
	}
	now := time.Now()
	s.state = StateFailed
	s.stage = StageNone
	s.analysis = nil
	s.failure = &Failure{Kind: kind, Message: entities.UserMessage(err)}
	s.completedAt = &now
	s.updatedAt = now
	return true
}

// Reset discards result, error and inputs and returns to Idle from any state.
// An in-flight submission keeps running but its completion is discarded.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = StateIdle
	s.stage = StageNone
	s.input = nil
	s.request = nil
	s.failure = nil
	s.analysis = nil
	s.submittedAt = nil
	s.completedAt = nil
	s.updatedAt = time.Now()
}

// Resubmit moves Failed -> Submitting under a single lock, reusing the failed
// submission's inputs. It returns the new generation and the stored request.
func (s *Store) Resubmit() (uint64, *entities.AnalysisRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFailed || s.request == nil || s.input == nil {
		return 0, nil, ucerrors.ErrNothingToRetry
	}

	now := time.Now()
	s.generation++
	s.state = StateSubmitting
	s.stage = StageNone
	s.failure = nil
	s.analysis = nil
	s.submittedAt = &now
	s.completedAt = nil
	s.updatedAt = now
	return s.generation, s.request, nil
}

// State returns the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Analysis returns the current result; only available in Ready
func (s *Store) Analysis() (*entities.MeetingAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady || s.analysis == nil {
		return nil, ucerrors.ErrAnalysisNotReady
	}
	return s.analysis, nil
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		State:       s.state,
		Stage:       s.stage,
		Generation:  s.generation,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
		SubmittedAt: copyTime(s.submittedAt),
		CompletedAt: copyTime(s.completedAt),
	}
	if s.input != nil {
		in := *s.input
		snap.Input = &in
	}
	if s.failure != nil {
		f := *s.failure
		snap.Failure = &f
	}
	if s.state == StateReady {
		snap.Analysis = s.analysis
	}
	return snap
}

// current reports whether gen is the in-flight submission. Caller holds mu.
func (s *Store) current(gen uint64) bool {
	return s.state == StateSubmitting && gen == s.generation
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
