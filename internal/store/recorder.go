package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/archtype/internal/game"
	"github.com/verte-zerg/archtype/internal/model"
)

const writeTimeout = 2 * time.Second

// Recorder adapts Store to the game's persistence collaborators. Storage
// failures are logged and swallowed so a broken database never interrupts
// play.
type Recorder struct {
	store  *Store
	logger *zap.Logger
	newID  func() string
}

// NewRecorder wraps store. A nil store yields a recorder that remembers
// nothing.
func NewRecorder(store *Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:  store,
		logger: logger,
		newID:  func() string { return uuid.NewString() },
	}
}

// LoadHighScore implements game.HighScoreStore.
func (r *Recorder) LoadHighScore() int {
	if r.store == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	score, err := r.store.LoadHighScore(ctx)
	if err != nil {
		r.logger.Warn("failed to load high score", zap.Error(err))
		return 0
	}
	return score
}

// SaveHighScore implements game.HighScoreStore.
func (r *Recorder) SaveHighScore(score int) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.store.SaveHighScore(ctx, score); err != nil {
		r.logger.Warn("failed to save high score", zap.Int("score", score), zap.Error(err))
	}
}

// RecordSession implements game.History.
func (r *Recorder) RecordSession(summary game.Summary) {
	if r.store == nil {
		return
	}
	rec, challenges := SessionRecords(r.newID(), summary)
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.store.InsertSession(ctx, rec, challenges); err != nil {
		r.logger.Warn("failed to record session", zap.String("id", rec.ID), zap.Error(err))
		return
	}
	r.logger.Debug("session recorded", zap.String("id", rec.ID), zap.Int("challenges", len(challenges)))
}

// SessionRecords converts a session summary into storage rows.
func SessionRecords(id string, summary game.Summary) (model.SessionRecord, []model.ChallengeRecord) {
	rec := model.SessionRecord{
		ID:        id,
		StartedAt: summary.StartedAt,
		EndedAt:   summary.EndedAt,
		Outcome:   string(summary.Outcome),
		Policy:    string(summary.Policy),
		Score:     summary.Score,
		HighScore: summary.HighScore,
		Level:     summary.Level,
		Completed: summary.Completed,
		Total:     summary.Total,
	}
	challenges := make([]model.ChallengeRecord, 0, len(summary.Results))
	for i, res := range summary.Results {
		challenges = append(challenges, model.ChallengeRecord{
			Seq:        i + 1,
			Command:    res.Command,
			TimeLimit:  res.Limit,
			TimeUsed:   res.TimeUsed,
			Multiplier: res.Multiplier,
			Attempt:    res.Attempt,
			TimedOut:   res.TimedOut,
			Tier:       string(res.Rank.Tier),
			Points:     res.Rank.Points,
		})
	}
	return rec, challenges
}
