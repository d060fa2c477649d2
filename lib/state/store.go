// Package state persists the local session journal and pending restart
// configs in a sqlite database under the user's home directory.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sitetester-cli/lib/audit"
	"sitetester-cli/lib/state/db"
	"sort"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("row not found")

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) (Store, error) {
	_, err := database.Exec(db.Schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return Store{}, err
	}
	return Store{
		db:  database,
		qry: db.New(database),
	}, nil
}

// RestartConfig is a saved submission that can be replayed exactly once.
type RestartConfig struct {
	SessionID   string
	Tool        audit.Tool
	Name        string
	URLs        []string
	Browsers    []string
	Resolutions []string
}

func (s Store) SaveRestart(ctx context.Context, cfg RestartConfig) error {
	urls, err := json.Marshal(cfg.URLs)
	if err != nil {
		return err
	}
	browsers, err := json.Marshal(cfg.Browsers)
	if err != nil {
		return err
	}
	resolutions, err := json.Marshal(cfg.Resolutions)
	if err != nil {
		return err
	}
	return s.qry.CreateRestartConfig(ctx, db.CreateRestartConfigParams{
		SessionID:   cfg.SessionID,
		Tool:        string(cfg.Tool),
		Name:        cfg.Name,
		Urls:        string(urls),
		Browsers:    string(browsers),
		Resolutions: string(resolutions),
		CreatedAt:   time.Now().Unix(),
	})
}

// TakeRestart fetches a restart config and deletes it in the same
// transaction, so a given config can only ever be consumed once.
func (s Store) TakeRestart(ctx context.Context, sessionID string) (RestartConfig, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RestartConfig{}, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	row, err := txqry.GetRestartConfig(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return RestartConfig{}, ErrNotFound
	}
	if err != nil {
		return RestartConfig{}, err
	}
	err = txqry.DeleteRestartConfig(ctx, sessionID)
	if err != nil {
		return RestartConfig{}, err
	}
	err = tx.Commit()
	if err != nil {
		return RestartConfig{}, err
	}

	cfg := RestartConfig{
		SessionID: row.SessionID,
		Tool:      audit.Tool(row.Tool),
		Name:      row.Name,
	}
	err = json.Unmarshal([]byte(row.Urls), &cfg.URLs)
	if err != nil {
		return RestartConfig{}, err
	}
	err = json.Unmarshal([]byte(row.Browsers), &cfg.Browsers)
	if err != nil {
		return RestartConfig{}, err
	}
	err = json.Unmarshal([]byte(row.Resolutions), &cfg.Resolutions)
	if err != nil {
		return RestartConfig{}, err
	}
	return cfg, nil
}

// Session is one entry of the local submission journal.
type Session struct {
	SessionID string
	Tool      audit.Tool
	Name      string
	URLCount  int
	CreatedAt time.Time
}

func (s Store) RecordSession(ctx context.Context, sess Session) error {
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return s.qry.CreateSession(ctx, db.CreateSessionParams{
		SessionID: sess.SessionID,
		Tool:      string(sess.Tool),
		Name:      sess.Name,
		UrlCount:  int64(sess.URLCount),
		CreatedAt: createdAt.Unix(),
	})
}

func (s Store) GetSession(ctx context.Context, sessionID string) (Session, error) {
	row, err := s.qry.GetSession(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return sessionFromRow(row), nil
}

func (s Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.qry.ListSessions(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	sessions := make([]Session, len(rows))
	for i, row := range rows {
		sessions[i] = sessionFromRow(row)
	}
	return sessions, nil
}

// SearchSessions ranks journal entries against the query. Names match
// by substring or string similarity, session ids by substring only
// since ids from the same day differ by a few digits.
func (s Store) SearchSessions(ctx context.Context, query string) ([]Session, error) {
	rows, err := s.qry.ListAllSessions(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		sessions := make([]Session, len(rows))
		for i, row := range rows {
			sessions[i] = sessionFromRow(row)
		}
		return sessions, nil
	}

	type ranked struct {
		session    Session
		similarity float64
	}
	var matches []ranked
	for _, row := range rows {
		name := strings.ToLower(row.Name)
		id := strings.ToLower(row.SessionID)

		similarity := matchr.JaroWinkler(name, query, false)
		if strings.Contains(name, query) || strings.Contains(id, query) {
			similarity = 1
		}
		if similarity < 0.8 {
			continue
		}
		matches = append(matches, ranked{
			session:    sessionFromRow(row),
			similarity: similarity,
		})
	}

	// rows already come most recent first, stable sort keeps that
	// order within a similarity bucket
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].similarity > matches[j].similarity
	})

	sessions := make([]Session, len(matches))
	for i, m := range matches {
		sessions[i] = m.session
	}
	return sessions, nil
}

func (s Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.qry.DeleteSession(ctx, sessionID)
}

func (s Store) Clear(ctx context.Context) error {
	return s.qry.DeleteAllSessions(ctx)
}

func sessionFromRow(row db.Session) Session {
	return Session{
		SessionID: row.SessionID,
		Tool:      audit.Tool(row.Tool),
		Name:      row.Name,
		URLCount:  int(row.UrlCount),
		CreatedAt: time.Unix(row.CreatedAt, 0),
	}
}
