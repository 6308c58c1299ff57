package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ContactScanner/internal/domain"
	"ContactScanner/internal/ports"
)

// PostgresRepository persists enriched contacts and scan checkpoints.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ContactRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// KnownIDs returns which of the given contact ids already exist in storage.
func (r *PostgresRepository) KnownIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if r.db == nil || len(ids) == 0 {
		return result, nil
	}

	query, args, err := r.builder.
		Select("contact_id").
		From("contacts").
		Where(sq.Expr("contact_id = ANY(?)", pq.StringArray(ids))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build known ids query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query known ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan contact id: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// SaveContacts upserts contact snapshots, keeping the latest score and
// status per contact id.
func (r *PostgresRepository) SaveContacts(ctx context.Context, contacts []domain.Contact) error {
	if r.db == nil || len(contacts) == 0 {
		return nil
	}

	insert := r.builder.
		Insert("contacts").
		Columns("contact_id", "profile_url", "first_name", "last_name",
			"country", "region", "region_confidence",
			"activity_level", "days_since_activity",
			"total_score", "priority", "status", "skip_reason")

	for _, c := range contacts {
		insert = insert.Values(
			c.ID, c.ProfileURL, c.FirstName, c.LastName,
			c.Location.Country, string(c.Location.Region), c.Location.Confidence,
			string(c.Activity.Level), c.Activity.DaysSinceActivity,
			c.Scores.TotalScore, string(c.Scores.Priority), string(c.Status), c.SkipReason,
		)
	}

	query, args, err := insert.Suffix(`
		ON CONFLICT (contact_id) DO UPDATE SET
			country = EXCLUDED.country,
			region = EXCLUDED.region,
			region_confidence = EXCLUDED.region_confidence,
			activity_level = EXCLUDED.activity_level,
			days_since_activity = EXCLUDED.days_since_activity,
			total_score = EXCLUDED.total_score,
			priority = EXCLUDED.priority,
			status = EXCLUDED.status,
			skip_reason = EXCLUDED.skip_reason,
			updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build contact upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert contacts: %w", err)
	}
	return nil
}

// SaveCheckpoint records the scan's progress marker so an interrupted scan
// can resume from the last known position.
func (r *PostgresRepository) SaveCheckpoint(ctx context.Context, scanned int, lastID string) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Insert("scan_checkpoints").
		Columns("singleton", "scanned", "last_contact_id").
		Values(true, scanned, lastID).
		Suffix(`ON CONFLICT (singleton) DO UPDATE SET
			scanned = EXCLUDED.scanned,
			last_contact_id = EXCLUDED.last_contact_id,
			updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build checkpoint upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert checkpoint: %w", err)
	}
	return nil
}
