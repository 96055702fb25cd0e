package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/server/generators"
	"github.com/dmitrijs2005/gophdiary/internal/server/models"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/repomanager"
)

// Capabilities are the external generators the diary pipeline calls out to.
type Capabilities struct {
	Summarizer  generators.Summarizer
	Synthesizer generators.VideoSynthesizer
	Linker      generators.VideoLinker
}

// DiaryService runs the diary pipeline and the owner-scoped diary operations.
type DiaryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	caps        Capabilities
	clock       *Clock
	metrics     *PipelineMetrics
	log         logging.Logger
}

// NewDiaryService constructs a DiaryService. metrics may be nil.
func NewDiaryService(db *sql.DB, m repomanager.RepositoryManager, caps Capabilities, metrics *PipelineMetrics, log logging.Logger) *DiaryService {
	if caps.Linker == nil {
		caps.Linker = generators.RefLinker{}
	}
	return &DiaryService{
		db:          db,
		repomanager: m,
		caps:        caps,
		clock:       NewClock(),
		metrics:     metrics,
		log:         log.With("module", "diaries"),
	}
}

// Create turns a conversation into a persisted diary owned by userID:
// summarize with the user's prompt, derive the title, synthesize the video,
// then store. Nothing is stored unless every step succeeds. The returned
// diary carries the assigned ID.
func (s *DiaryService) Create(ctx context.Context, userID, conversation string) (*models.Diary, error) {
	if conversation == "" {
		return nil, common.NewValidationError("missing conversation")
	}

	started := time.Now()
	d, err := s.runPipeline(ctx, userID, conversation)
	if err != nil {
		result := "error"
		var pe *PipelineError
		if errors.As(err, &pe) {
			result = pe.Stage
			s.log.Warn(ctx, "diary pipeline failed", "user_id", userID, "stage", pe.Stage, "error", pe.Err)
		}
		s.metrics.observe(result, time.Since(started))
		return nil, err
	}
	s.metrics.observe("ok", time.Since(started))

	s.log.Info(ctx, "diary created", "user_id", userID, "diary_id", d.ID)
	return d, nil
}

func (s *DiaryService) runPipeline(ctx context.Context, userID, conversation string) (*models.Diary, error) {
	prompt, err := s.userPrompt(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary, err := s.caps.Summarizer.Summarize(ctx, conversation, prompt)
	if err != nil {
		return nil, &PipelineError{Stage: StageSummarize, Err: err}
	}

	video, err := s.caps.Synthesizer.Synthesize(ctx, summary)
	if err != nil {
		return nil, &PipelineError{Stage: StageSynthesize, Err: err}
	}

	d := &models.Diary{
		UserID:       userID,
		Conversation: conversation,
		Summary:      summary,
		Video:        video,
		Date:         s.clock.Now(),
		Title:        common.Truncate(summary, common.TitleLength),
	}
	id, err := s.repomanager.Diaries(s.db).Create(ctx, d)
	if err != nil {
		return nil, &PipelineError{Stage: StagePersist, Err: err}
	}
	d.ID = id
	return d, nil
}

func (s *DiaryService) userPrompt(ctx context.Context, userID string) (string, error) {
	p, err := s.repomanager.Users(s.db).GetPrompt(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil
		}
		return "", err
	}
	return p, nil
}

// List returns the caller's diaries, newest first.
func (s *DiaryService) List(ctx context.Context, userID string) ([]models.DiaryListItem, error) {
	return s.repomanager.Diaries(s.db).ListByOwner(ctx, userID)
}

// Get returns a diary the caller owns, or common.ErrorNotFound.
func (s *DiaryService) Get(ctx context.Context, id, userID string) (*models.Diary, error) {
	return s.repomanager.Diaries(s.db).Get(ctx, id, userID)
}

// UpdateTitle replaces the title of a diary the caller owns.
func (s *DiaryService) UpdateTitle(ctx context.Context, id, userID, title string) error {
	if title == "" {
		return common.NewValidationError("missing title")
	}
	return s.repomanager.Diaries(s.db).UpdateTitle(ctx, id, userID, title)
}

// UpdateThumbnail replaces the thumbnail reference of a diary the caller owns.
func (s *DiaryService) UpdateThumbnail(ctx context.Context, id, userID, thumbnail string) error {
	if thumbnail == "" {
		return common.NewValidationError("missing thumbnail")
	}
	return s.repomanager.Diaries(s.db).UpdateThumbnail(ctx, id, userID, thumbnail)
}

// VideoURL returns a fetchable link to the video of a diary the caller owns.
func (s *DiaryService) VideoURL(ctx context.Context, id, userID string) (string, error) {
	d, err := s.Get(ctx, id, userID)
	if err != nil {
		return "", err
	}
	return s.caps.Linker.Link(ctx, d.Video)
}
