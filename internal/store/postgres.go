package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/db"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_name        TEXT NOT NULL UNIQUE,
	email               TEXT UNIQUE,
	phone               TEXT,
	website_url         TEXT,
	address             TEXT,
	contact_name        TEXT,
	instagram_url       TEXT,
	status              TEXT NOT NULL DEFAULT 'cold',
	last_step_completed INTEGER CHECK (last_step_completed BETWEEN 0 AND 2),
	source              TEXT NOT NULL DEFAULT '',
	premium_score       INTEGER NOT NULL DEFAULT 0 CHECK (premium_score BETWEEN 0 AND 10),
	place_id            TEXT,
	notes               TEXT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS interactions (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id          TEXT NOT NULL REFERENCES leads(id),
	channel          TEXT NOT NULL,
	step             INTEGER NOT NULL CHECK (step BETWEEN 0 AND 2),
	message_template TEXT NOT NULL DEFAULT '',
	message_content  TEXT NOT NULL DEFAULT '',
	sent_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	status           TEXT NOT NULL,
	external_id      TEXT,
	error_message    TEXT
);

CREATE TABLE IF NOT EXISTS blacklist (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	type       TEXT NOT NULL,
	value      TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (type, value)
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_interactions_lead_id ON interactions(lead_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS interactions, blacklist, leads`); err != nil {
		return eris.Wrap(err, "postgres: drop tables")
	}
	return s.Migrate(ctx)
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	if err := validateLead(lead); err != nil {
		return err
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	lead.CreatedAt, lead.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		lead.ID, lead.CompanyName, lead.Email, lead.Phone, lead.WebsiteURL, lead.Address,
		lead.ContactName, lead.InstagramURL, string(lead.Status), lead.LastStepCompleted, lead.Source,
		lead.PremiumScore, lead.PlaceID, lead.Notes, now, now,
	)
	if db.IsUniqueViolation(err) {
		return eris.Wrapf(ErrConflict, "postgres: lead %q", lead.CompanyName)
	}
	if err != nil {
		return eris.Wrap(err, "postgres: insert lead")
	}
	return nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	l, err := scanLead(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return l, nil
}

func (s *PostgresStore) LeadExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE company_name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "postgres: lead exists")
	}
	return exists, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query, args := buildLeadQuery(filter, dollarPlaceholder)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list leads")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads rows")
}

func (s *PostgresStore) UpdateLeadEmail(ctx context.Context, id, email string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET email = $1, updated_at = $2 WHERE id = $3`,
		email, time.Now().UTC(), id,
	)
	if db.IsUniqueViolation(err) {
		return eris.Wrapf(ErrConflict, "postgres: email %s already assigned", email)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead email %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: lead %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateLeadContact(ctx context.Context, id string, update ContactUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET website_url = COALESCE($1, website_url), phone = COALESCE($2, phone), updated_at = $3 WHERE id = $4`,
		update.WebsiteURL, update.Phone, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead contact %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: lead %s", id)
	}
	return nil
}

func (s *PostgresStore) CountLeadsByStatus(ctx context.Context) (map[model.LeadStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count leads")
	}
	defer rows.Close()

	counts := make(map[model.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead count")
		}
		counts[model.LeadStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count leads rows")
}

func (s *PostgresStore) RecordOutreach(ctx context.Context, it *model.Interaction, progress *model.LeadProgress) error {
	if err := validateInteraction(it); err != nil {
		return err
	}
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	if it.SentAt.IsZero() {
		it.SentAt = time.Now().UTC()
	}

	var advanced int64 = 1
	err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO interactions (`+interactionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, it.LeadID, string(it.Channel), it.Step, it.MessageTemplate, it.MessageContent,
			it.SentAt, string(it.Status), it.ExternalID, it.ErrorMessage,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert interaction")
		}
		if progress == nil {
			return nil
		}
		tag, err := tx.Exec(ctx,
			`UPDATE leads SET last_step_completed = $1, status = $2, updated_at = $3
			 WHERE id = $4 AND (last_step_completed IS NULL OR last_step_completed < $1)`,
			progress.LastStepCompleted, string(progress.Status), time.Now().UTC(), it.LeadID,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: advance lead")
		}
		advanced = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if advanced == 0 {
		return eris.Wrapf(ErrConflict, "postgres: lead %s already past step %d", it.LeadID, it.Step)
	}
	return nil
}

func (s *PostgresStore) ListInteractions(ctx context.Context, leadID string) ([]model.Interaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE lead_id = $1 ORDER BY sent_at ASC, id ASC`,
		leadID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list interactions")
	}
	defer rows.Close()

	var out []model.Interaction
	for rows.Next() {
		it, err := scanInteraction(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list interactions")
		}
		out = append(out, *it)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list interactions rows")
}

func (s *PostgresStore) CountInteractions(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count interactions")
	}
	return n, nil
}

func (s *PostgresStore) AddBlacklist(ctx context.Context, entry *model.Blacklist) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO blacklist (id, type, value, reason, created_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (type, value) DO NOTHING`,
		entry.ID, string(entry.Type), entry.Value, entry.Reason, entry.CreatedAt,
	)
	return eris.Wrap(err, "postgres: add blacklist")
}

func (s *PostgresStore) IsBlacklisted(ctx context.Context, typ model.BlacklistType, value string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM blacklist WHERE type = $1 AND value = $2)`,
		string(typ), value,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "postgres: check blacklist")
	}
	return exists, nil
}
