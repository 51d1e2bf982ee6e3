package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pdfdigest/internal/domain"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultHistoryLimit = 10

var ErrReportNotFound = errors.New("report not found")

// SaveReport stores a generated report and returns its new ID.
func (d *Database) SaveReport(ctx context.Context, r domain.Report) (string, error) {
	if len(r.PDF) == 0 {
		return "", errors.New("pdf report is empty")
	}

	id := uuid.NewString()

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = r.SourceName
	}

	query := `insert into reports
		(id, user_id, source_name, title, page_count, text_report, pdf_report, created_at)
		values (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		id, r.UserID, r.SourceName, title, r.PageCount, r.Text, r.PDF, createdAt.UTC().Unix())
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}

	return id, nil
}

// GetReport returns a full report, rendered outputs included.
func (d *Database) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportNotFound, err)
	}

	query := `select id, user_id, source_name, title, page_count, text_report, pdf_report, created_at
		from reports where id = ?`

	var r domain.Report
	var createdAt int64

	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.UserID, &r.SourceName, &r.Title, &r.PageCount, &r.Text, &r.PDF, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select report: %w", err)
	}

	r.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &r, nil
}

// ListUserReports returns the newest reports of a user without their
// rendered outputs.
func (d *Database) ListUserReports(ctx context.Context, userID int64, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `select id, user_id, source_name, title, page_count, created_at
		from reports where user_id = ?
		order by created_at desc, rowid desc
		limit ?`

	rows, err := d.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"userID", userID,
				"error", closeErr)
		}
	}()

	var reports []domain.Report
	for rows.Next() {
		var r domain.Report
		var createdAt int64

		if err = rows.Scan(&r.ID, &r.UserID, &r.SourceName, &r.Title, &r.PageCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		reports = append(reports, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return reports, nil
}

// DeleteReportsBefore removes reports created before t and returns how many
// were deleted.
func (d *Database) DeleteReportsBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, "delete from reports where created_at < ?", t.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("delete reports: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted reports: %w", err)
	}

	return n, nil
}
