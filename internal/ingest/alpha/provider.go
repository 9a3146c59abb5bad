package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/claude/liftmap/internal/ingest"
	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/setclass"
)

// Source tags rows stored by this provider.
const Source = "alpha"

// Store persists logged sets. Implemented by *storage.DB.
type Store interface {
	DeleteSessions(ctx context.Context, userID int, sessionIDs []uuid.UUID) (int64, error)
	InsertSets(ctx context.Context, rows []models.SetRow) (int64, error)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	store     Store
	onChanged func()
	log       *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider. onChanged, if
// set, runs after an import changes stored data.
func NewProvider(store Store, onChanged func(), log *slog.Logger) *Provider {
	return &Provider{store: store, onChanged: onChanged, log: log}
}

// Ingest parses a CSV export and stores its sets. Sessions already stored are
// replaced so re-imports always reflect the latest parser output.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	sets := ToLoggedSets(sessions)
	result := &ingest.Result{
		SessionsReceived: len(sessions),
		SetsReceived:     len(sets),
		UndatedSets:      len(sets) - len(setclass.Dated(sets)),
	}
	if len(sets) == 0 {
		result.Message = "no sets found"
		return result, nil
	}

	rows := make([]models.SetRow, 0, len(sets))
	seen := make(map[uuid.UUID]bool)
	var sessionIDs []uuid.UUID
	for _, s := range sets {
		row := models.NewSetRow(userID, Source, s)
		if !seen[row.SessionID] {
			seen[row.SessionID] = true
			sessionIDs = append(sessionIDs, row.SessionID)
		}
		rows = append(rows, row)
	}

	replaced, err := p.store.DeleteSessions(ctx, userID, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("deleting existing sessions: %w", err)
	}
	inserted, err := p.store.InsertSets(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("inserting sets: %w", err)
	}
	result.SetsReplaced = replaced
	result.SetsInserted = inserted
	result.SetsSkipped = int64(len(rows)) - inserted

	if (replaced > 0 || inserted > 0) && p.onChanged != nil {
		p.onChanged()
	}

	p.log.Info("alpha import",
		"user_id", userID,
		"sessions", len(sessions),
		"sets", len(rows),
		"inserted", inserted,
		"replaced", replaced,
		"undated", result.UndatedSets,
	)
	return result, nil
}
