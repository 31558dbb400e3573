package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/lumina/internal/domain/entities"
	"github.com/johnquangdev/lumina/internal/infrastructure/cache"
	"github.com/johnquangdev/lumina/internal/usecase/ai"
	ucerrors "github.com/johnquangdev/lumina/internal/usecase/errors"
	"github.com/johnquangdev/lumina/pkg/jobcontext"
)

// Service manages analysis sessions
type Service interface {
	Create(ctx context.Context) (Snapshot, error)
	Get(ctx context.Context, id uuid.UUID) (Snapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Submit(ctx context.Context, id uuid.UUID, src entities.InputSource) (Snapshot, error)
	Retry(ctx context.Context, id uuid.UUID) (Snapshot, error)
	Reset(ctx context.Context, id uuid.UUID) (Snapshot, error)
	Analysis(ctx context.Context, id uuid.UUID) (*entities.MeetingAnalysis, error)
	Drain(ctx context.Context) error
}

type sessionService struct {
	sessions   *cache.MemoryStore[*Store]
	normalizer *ai.Normalizer
	analyzer   ai.Analyzer
	logger     *zap.Logger
	inflight   sync.WaitGroup
}

// NewService constructs the session service
func NewService(
	sessions *cache.MemoryStore[*Store],
	normalizer *ai.Normalizer,
	analyzer ai.Analyzer,
	logger *zap.Logger,
) Service {
	return &sessionService{
		sessions:   sessions,
		normalizer: normalizer,
		analyzer:   analyzer,
		logger:     logger,
	}
}

// Create starts a new Idle session
func (s *sessionService) Create(ctx context.Context) (Snapshot, error) {
	store := NewStore(uuid.New())
	s.sessions.Set(store.ID().String(), store)

	if s.logger != nil {
		s.logger.Info("🆕 Session created", zap.String("session_id", store.ID().String()))
	}
	return store.Snapshot(), nil
}

// Get returns the current snapshot of a session
func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	store, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return store.Snapshot(), nil
}

// Delete removes a session. An in-flight analysis is discarded on arrival.
func (s *sessionService) Delete(ctx context.Context, id uuid.UUID) error {
	store, err := s.lookup(id)
	if err != nil {
		return err
	}
	store.Reset()
	s.sessions.Delete(id.String())

	if s.logger != nil {
		s.logger.Info("🗑️ Session deleted", zap.String("session_id", id.String()))
	}
	return nil
}

// Submit normalizes the input and starts an analysis. Input that fails the
// upfront checks is rejected and the session stays Idle. Once the submission
// has begun, read failures move the session to Failed.
func (s *sessionService) Submit(ctx context.Context, id uuid.UUID, src entities.InputSource) (Snapshot, error) {
	store, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	if state := store.State(); state != StateIdle {
		return store.Snapshot(), stateError(state)
	}
	if err := s.normalizer.Check(src); err != nil {
		return store.Snapshot(), err
	}

	gen, err := store.Begin(src.Summary())
	if err != nil {
		return store.Snapshot(), err
	}

	if src.Mode == entities.InputModeAudio {
		store.Advance(gen, StageEncodingAudio)
	} else {
		store.Advance(gen, StageParsingTranscript)
	}

	req, err := s.normalizer.Normalize(ctx, src)
	if err != nil {
		store.Fail(gen, err)
		if s.logger != nil {
			s.logger.Warn("⚠️ Input normalization failed",
				zap.String("session_id", id.String()),
				zap.String("input_mode", string(src.Mode)),
				zap.Error(err),
			)
		}
		return store.Snapshot(), err
	}

	if !store.Attach(gen, req) {
		if s.logger != nil {
			s.logger.Info("🗑️ Submission discarded before analysis",
				zap.String("session_id", id.String()),
				zap.Uint64("generation", gen),
			)
		}
		return store.Snapshot(), ucerrors.ErrSubmissionDiscarded
	}
	s.launch(store, gen, req)
	return store.Snapshot(), nil
}

// Retry resubmits the inputs of a Failed session
func (s *sessionService) Retry(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	store, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	gen, req, err := store.Resubmit()
	if err != nil {
		return store.Snapshot(), err
	}

	if s.logger != nil {
		s.logger.Info("🔁 Retrying analysis",
			zap.String("session_id", id.String()),
			zap.Uint64("generation", gen),
		)
	}

	s.launch(store, gen, req)
	return store.Snapshot(), nil
}

// Reset returns the session to Idle from any state
func (s *sessionService) Reset(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	store, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	store.Reset()
	return store.Snapshot(), nil
}

// Analysis returns the current result of a Ready session
func (s *sessionService) Analysis(ctx context.Context, id uuid.UUID) (*entities.MeetingAnalysis, error) {
	store, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return store.Analysis()
}

// Drain waits for in-flight analyses to finish or for ctx to expire
func (s *sessionService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain interrupted: %w", ctx.Err())
	}
}

// launch runs the provider call in the background. No deadline is set on the
// call; completion is applied through the store's generation guard.
func (s *sessionService) launch(store *Store, gen uint64, req *entities.AnalysisRequest) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx := jobcontext.SubmissionBegin(context.Background(), store.ID(), gen, string(req.Kind))
		ctx = jobcontext.WithProgress(ctx, func(stage string) {
			store.Advance(gen, Stage(stage))
		})

		analysis, err := s.run(ctx, req)

		var applied bool
		if err != nil {
			applied = store.Fail(gen, err)
		} else {
			applied = store.Complete(gen, analysis)
		}

		if s.logger == nil {
			return
		}
		fields := append(jobcontext.Fields(ctx), zap.Duration("elapsed", jobcontext.Elapsed(ctx)))
		switch {
		case !applied:
			s.logger.Info("🗑️ Discarded stale analysis result", fields...)
		case err != nil:
			s.logger.Warn("❌ Analysis failed", append(fields, zap.Error(err))...)
		default:
			s.logger.Info("✅ Session ready", fields...)
		}
	}()
}

// run calls the analyzer, converting a panic into a failed submission
func (s *sessionService) run(ctx context.Context, req *entities.AnalysisRequest) (analysis *entities.MeetingAnalysis, err error) {
	defer func() {
		if p := recover(); p != nil {
			analysis = nil
			err = entities.NewProviderError("The analysis failed unexpectedly.", 0, fmt.Errorf("panic recovered: %v", p))
		}
	}()
	return s.analyzer.Analyze(ctx, req)
}

func (s *sessionService) lookup(id uuid.UUID) (*Store, error) {
	store, ok := s.sessions.Get(id.String())
	if !ok {
		return nil, ucerrors.ErrSessionNotFound
	}
	return store, nil
}

func stateError(state State) error {
	if state == StateSubmitting {
		return ucerrors.ErrSubmissionInProgress
	}
	return ucerrors.ErrInvalidState
}
