package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                  TEXT PRIMARY KEY,
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
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS interactions (
	id               TEXT PRIMARY KEY,
	lead_id          TEXT NOT NULL REFERENCES leads(id),
	channel          TEXT NOT NULL,
	step             INTEGER NOT NULL CHECK (step BETWEEN 0 AND 2),
	message_template TEXT NOT NULL DEFAULT '',
	message_content  TEXT NOT NULL DEFAULT '',
	sent_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	status           TEXT NOT NULL,
	external_id      TEXT,
	error_message    TEXT
);

CREATE TABLE IF NOT EXISTS blacklist (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	value      TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (type, value)
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_interactions_lead_id ON interactions(lead_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	for _, table := range []string{"interactions", "blacklist", "leads"} {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return eris.Wrapf(err, "sqlite: drop %s", table)
		}
	}
	return s.Migrate(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isSQLiteUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	if err := validateLead(lead); err != nil {
		return err
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	lead.CreatedAt, lead.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.CompanyName, lead.Email, lead.Phone, lead.WebsiteURL, lead.Address,
		lead.ContactName, lead.InstagramURL, string(lead.Status), lead.LastStepCompleted, lead.Source,
		lead.PremiumScore, lead.PlaceID, lead.Notes, now, now,
	)
	if isSQLiteUnique(err) {
		return eris.Wrapf(ErrConflict, "sqlite: lead %q", lead.CompanyName)
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: insert lead")
	}
	return nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	l, err := scanLead(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return l, nil
}

func (s *SQLiteStore) LeadExistsByName(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE company_name = ?`, name).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: lead exists")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query, args := buildLeadQuery(filter, questionPlaceholder)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: list leads")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads rows")
}

func (s *SQLiteStore) UpdateLeadEmail(ctx context.Context, id, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET email = ?, updated_at = ? WHERE id = ?`,
		email, time.Now().UTC(), id,
	)
	if isSQLiteUnique(err) {
		return eris.Wrapf(ErrConflict, "sqlite: email %s already assigned", email)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead email %s", id)
	}
	return checkRowsAffected(res, "lead", id)
}

func (s *SQLiteStore) UpdateLeadContact(ctx context.Context, id string, update ContactUpdate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET website_url = COALESCE(?, website_url), phone = COALESCE(?, phone), updated_at = ? WHERE id = ?`,
		update.WebsiteURL, update.Phone, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead contact %s", id)
	}
	return checkRowsAffected(res, "lead", id)
}

func (s *SQLiteStore) CountLeadsByStatus(ctx context.Context) (map[model.LeadStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count leads")
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[model.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead count")
		}
		counts[model.LeadStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count leads rows")
}

func (s *SQLiteStore) RecordOutreach(ctx context.Context, it *model.Interaction, progress *model.LeadProgress) error {
	if err := validateInteraction(it); err != nil {
		return err
	}
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	if it.SentAt.IsZero() {
		it.SentAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin outreach tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO interactions (`+interactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.LeadID, string(it.Channel), it.Step, it.MessageTemplate, it.MessageContent,
		it.SentAt, string(it.Status), it.ExternalID, it.ErrorMessage,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert interaction")
	}

	var advanced int64 = 1
	if progress != nil {
		res, err := tx.ExecContext(ctx,
			`UPDATE leads SET last_step_completed = ?, status = ?, updated_at = ?
			 WHERE id = ? AND (last_step_completed IS NULL OR last_step_completed < ?)`,
			progress.LastStepCompleted, string(progress.Status), time.Now().UTC(),
			it.LeadID, progress.LastStepCompleted,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: advance lead")
		}
		advanced, err = res.RowsAffected()
		if err != nil {
			return eris.Wrap(err, "sqlite: advance lead rows affected")
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit outreach")
	}
	if advanced == 0 {
		return eris.Wrapf(ErrConflict, "sqlite: lead %s already past step %d", it.LeadID, it.Step)
	}
	return nil
}

func (s *SQLiteStore) ListInteractions(ctx context.Context, leadID string) ([]model.Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE lead_id = ? ORDER BY sent_at ASC, id ASC`,
		leadID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list interactions")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Interaction
	for rows.Next() {
		it, err := scanInteraction(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: list interactions")
		}
		out = append(out, *it)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list interactions rows")
}

func (s *SQLiteStore) CountInteractions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count interactions")
	}
	return n, nil
}

func (s *SQLiteStore) AddBlacklist(ctx context.Context, entry *model.Blacklist) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blacklist (id, type, value, reason, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (type, value) DO NOTHING`,
		entry.ID, string(entry.Type), entry.Value, entry.Reason, entry.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: add blacklist")
}

func (s *SQLiteStore) IsBlacklisted(ctx context.Context, typ model.BlacklistType, value string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blacklist WHERE type = ? AND value = ?`,
		string(typ), value,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: check blacklist")
	}
	return n > 0, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
