package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/citypulse/enrichment/internal/domain"
)

// StatsRepository persists stats documents, one JSONB row per scope key.
// It implements stats.Store. The upsert writes the whole document in a
// single statement, so a fold is never half-applied.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats loads the stats document for a scope key.
func (r *StatsRepository) GetStats(ctx context.Context, scopeKey string) (*domain.StatsDocument, bool, error) {
	var payload []byte
	query := `SELECT doc FROM stats_documents WHERE scope_key = $1`

	if err := r.db.GetContext(ctx, &payload, query, scopeKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get stats %q: %w", scopeKey, err)
	}

	var doc domain.StatsDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal stats %q: %w", scopeKey, err)
	}
	return &doc, true, nil
}

// UpsertStats writes the whole document back, creating the row if absent.
func (r *StatsRepository) UpsertStats(ctx context.Context, doc *domain.StatsDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal stats %q: %w", doc.ScopeKey, err)
	}

	query := `
		INSERT INTO stats_documents (scope_key, doc, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (scope_key)
		DO UPDATE SET doc = EXCLUDED.doc, last_updated = EXCLUDED.last_updated
	`

	if _, err := r.db.ExecContext(ctx, query, doc.ScopeKey, payload, doc.LastUpdated); err != nil {
		return fmt.Errorf("failed to upsert stats %q: %w", doc.ScopeKey, err)
	}
	return nil
}
