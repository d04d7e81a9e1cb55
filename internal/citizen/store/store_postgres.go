package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"outreach/internal/citizen/models"
	"outreach/pkg/delivery"
	"outreach/pkg/platform/sentinel"
)

// Schema creates the citizens table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS citizens (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	age                  INTEGER NOT NULL DEFAULT 0,
	neighborhood         TEXT NOT NULL DEFAULT '',
	phone                TEXT NOT NULL DEFAULT '',
	channel_handle       TEXT NOT NULL DEFAULT '',
	sent_at              TIMESTAMPTZ,
	message_id           TEXT NOT NULL DEFAULT '',
	provider             TEXT NOT NULL DEFAULT '',
	delivery_status      TEXT NOT NULL DEFAULT '',
	status_updated_at    TIMESTAMPTZ,
	clicked_at           TIMESTAMPTZ,
	survey_issue         TEXT,
	survey_satisfaction  INTEGER,
	survey_participation BOOLEAN,
	survey_detail        TEXT,
	survey_answered_at   TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_citizens_message_id ON citizens (message_id) WHERE message_id <> '';
`

const selectColumns = `
	id, name, age, neighborhood, phone, channel_handle,
	sent_at, message_id, provider, delivery_status, status_updated_at, clicked_at,
	survey_issue, survey_satisfaction, survey_participation, survey_detail, survey_answered_at,
	created_at, updated_at`

// PostgresStore persists citizens in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed citizen store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate citizens: %w", err)
	}
	return nil
}

// Save upserts the whole aggregate.
func (s *PostgresStore) Save(ctx context.Context, c *models.Citizen) error {
	var (
		issue, detail sql.NullString
		satisfaction  sql.NullInt32
		participation sql.NullBool
		answeredAt    sql.NullTime
	)
	if resp, ok := c.SurveyResponse(); ok {
		issue = sql.NullString{String: resp.Issue, Valid: true}
		detail = sql.NullString{String: resp.Detail, Valid: true}
		satisfaction = sql.NullInt32{Int32: int32(resp.Satisfaction), Valid: true}
		participation = sql.NullBool{Bool: resp.ParticipationIntent, Valid: true}
		answeredAt = sql.NullTime{Time: resp.AnsweredAt, Valid: true}
	}

	query := `
		INSERT INTO citizens (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			neighborhood = EXCLUDED.neighborhood,
			phone = EXCLUDED.phone,
			channel_handle = EXCLUDED.channel_handle,
			sent_at = EXCLUDED.sent_at,
			message_id = EXCLUDED.message_id,
			provider = EXCLUDED.provider,
			delivery_status = EXCLUDED.delivery_status,
			status_updated_at = EXCLUDED.status_updated_at,
			clicked_at = EXCLUDED.clicked_at,
			survey_issue = EXCLUDED.survey_issue,
			survey_satisfaction = EXCLUDED.survey_satisfaction,
			survey_participation = EXCLUDED.survey_participation,
			survey_detail = EXCLUDED.survey_detail,
			survey_answered_at = EXCLUDED.survey_answered_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Personal.Name, c.Personal.Age, c.Personal.Neighborhood,
		c.Contact.Phone, c.Contact.ChannelHandle,
		nullTime(c.Engagement.SentAt), c.Engagement.MessageID, c.Engagement.Provider,
		string(c.Engagement.DeliveryStatus), nullTime(c.Engagement.StatusUpdatedAt), nullTime(c.Engagement.ClickedAt),
		issue, satisfaction, participation, detail, answeredAt,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save citizen: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, citizenID string) (*models.Citizen, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM citizens WHERE id = $1`, citizenID)
	c, err := scanCitizen(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find citizen by id: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindByMessageID(ctx context.Context, messageID string) (*models.Citizen, error) {
	if messageID == "" {
		return nil, sentinel.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM citizens WHERE message_id = $1`, messageID)
	c, err := scanCitizen(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find citizen by message id: %w", err)
	}
	return c, nil
}

// FindByIDs loads a batch in one round trip. Unknown ids are skipped.
func (s *PostgresStore) FindByIDs(ctx context.Context, citizenIDs []string) ([]*models.Citizen, error) {
	if len(citizenIDs) == 0 {
		return []*models.Citizen{}, nil
	}
	return s.query(ctx, "find citizens by ids",
		`SELECT `+selectColumns+` FROM citizens WHERE id = ANY($1) ORDER BY created_at, id`,
		pq.Array(citizenIDs))
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*models.Citizen, error) {
	return s.query(ctx, "find all citizens", `SELECT `+selectColumns+` FROM citizens ORDER BY created_at, id`)
}

func (s *PostgresStore) query(ctx context.Context, op, query string, args ...any) ([]*models.Citizen, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []*models.Citizen{}
	for rows.Next() {
		c, err := scanCitizen(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCitizen(row scanner) (*models.Citizen, error) {
	var (
		c                                  models.Citizen
		status                             string
		sentAt, statusUpdatedAt, clickedAt sql.NullTime
		issue, detail                      sql.NullString
		satisfaction                       sql.NullInt32
		participation                      sql.NullBool
		answeredAt                         sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.Personal.Name, &c.Personal.Age, &c.Personal.Neighborhood,
		&c.Contact.Phone, &c.Contact.ChannelHandle,
		&sentAt, &c.Engagement.MessageID, &c.Engagement.Provider, &status, &statusUpdatedAt, &clickedAt,
		&issue, &satisfaction, &participation, &detail, &answeredAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Engagement.DeliveryStatus = delivery.Status(status)
	c.Engagement.SentAt = timePtr(sentAt)
	c.Engagement.StatusUpdatedAt = timePtr(statusUpdatedAt)
	c.Engagement.ClickedAt = timePtr(clickedAt)
	if issue.Valid {
		c.Survey = &models.SurveyResponse{
			Issue:               issue.String,
			Satisfaction:        int(satisfaction.Int32),
			ParticipationIntent: participation.Bool,
			Detail:              detail.String,
			AnsweredAt:          answeredAt.Time,
		}
	}
	return &c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
