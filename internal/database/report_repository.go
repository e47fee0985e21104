package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/citypulse/enrichment/internal/domain"
)

// ReportRepository handles database operations for reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// reportRow is the scan target for report queries; classification is stored
// as a JSONB column.
type reportRow struct {
	ID             string         `db:"id"`
	City           string         `db:"city"`
	District       string         `db:"district"`
	Service        string         `db:"service"`
	Rating         int            `db:"rating"`
	Comment        string         `db:"comment"`
	CreatedAt      time.Time      `db:"created_at"`
	IsAnonymous    bool           `db:"is_anonymous"`
	Name           sql.NullString `db:"name"`
	CleanedComment sql.NullString `db:"cleaned_comment"`
	Classification []byte         `db:"classification"`
	Processing     int            `db:"processing"`
}

const reportColumns = `
	id, city, district, service, rating, comment, created_at,
	is_anonymous, name, cleaned_comment, classification, processing
`

// Create inserts a new report in stage 0.
func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) error {
	query := `
		INSERT INTO reports (id, city, district, service, rating, comment, created_at, is_anonymous, name, processing)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)
	`

	name := sql.NullString{String: report.Name, Valid: report.Name != ""}
	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.City, report.District, report.Service,
		report.Rating, report.Comment, report.CreatedAt, report.IsAnonymous, name,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetReport loads a report by id, returning domain.ErrReportNotFound if it
// does not exist.
func (r *ReportRepository) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	var row reportRow
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}

	return row.toDomain()
}

// SaveCleaned persists the cleaned comment and advances processing to 1.
// GREATEST keeps the processing marker monotonically non-decreasing even on
// a re-run of an already-completed stage.
func (r *ReportRepository) SaveCleaned(ctx context.Context, id, cleaned string) error {
	query := `
		UPDATE reports
		SET cleaned_comment = $2, processing = GREATEST(processing, $3)
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, cleaned, domain.StageCleaned)
	if err != nil {
		return fmt.Errorf("failed to save cleaned comment for %s: %w", id, err)
	}
	return requireRow(res, id)
}

// SaveClassification persists the classification output and advances
// processing to 2.
func (r *ReportRepository) SaveClassification(ctx context.Context, id string, out *domain.ClassificationOutput) error {
	payload, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal classification: %w", err)
	}

	query := `
		UPDATE reports
		SET classification = $2, processing = GREATEST(processing, $3)
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, payload, domain.StageAggregated)
	if err != nil {
		return fmt.Errorf("failed to save classification for %s: %w", id, err)
	}
	return requireRow(res, id)
}

// ListUnfinishedReports returns ids of reports stuck below stage 2 created
// before the cutoff, oldest first.
func (r *ReportRepository) ListUnfinishedReports(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	query := `
		SELECT id FROM reports
		WHERE processing < $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, domain.StageAggregated, cutoff, limit); err != nil {
		return nil, fmt.Errorf("failed to list unfinished reports: %w", err)
	}
	return ids, nil
}

// ListProcessed returns fully processed reports, newest first.
func (r *ReportRepository) ListProcessed(ctx context.Context, limit int) ([]*domain.Report, error) {
	query := `
		SELECT ` + reportColumns + ` FROM reports
		WHERE processing = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, query, domain.StageAggregated, limit); err != nil {
		return nil, fmt.Errorf("failed to list processed reports: %w", err)
	}

	reports := make([]*domain.Report, 0, len(rows))
	for i := range rows {
		report, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// ProcessingStatus summarizes pipeline progress across all reports.
type ProcessingStatus struct {
	Total     int `db:"total"     json:"total"`
	Pending   int `db:"pending"   json:"pending"`
	Processed int `db:"processed" json:"processed"`
}

// Status returns total/pending/processed report counts.
func (r *ReportRepository) Status(ctx context.Context) (*ProcessingStatus, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE processing < $1) AS pending,
			COUNT(*) FILTER (WHERE processing = $1) AS processed
		FROM reports
	`

	var status ProcessingStatus
	if err := r.db.GetContext(ctx, &status, query, domain.StageAggregated); err != nil {
		return nil, fmt.Errorf("failed to get processing status: %w", err)
	}
	return &status, nil
}

func (row *reportRow) toDomain() (*domain.Report, error) {
	report := &domain.Report{
		ID:          row.ID,
		City:        row.City,
		District:    row.District,
		Service:     row.Service,
		Rating:      row.Rating,
		Comment:     row.Comment,
		CreatedAt:   row.CreatedAt,
		IsAnonymous: row.IsAnonymous,
		Name:        row.Name.String,
		Processing:  row.Processing,
	}

	if row.CleanedComment.Valid {
		cleaned := row.CleanedComment.String
		report.CleanedComment = &cleaned
	}

	if len(row.Classification) > 0 {
		var out domain.ClassificationOutput
		if err := json.Unmarshal(row.Classification, &out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal classification for %s: %w", row.ID, err)
		}
		report.Classification = &out
	}

	return report, nil
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report %s: %w", id, domain.ErrReportNotFound)
	}
	return nil
}
