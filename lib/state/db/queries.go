package db

import (
	"context"
)

const createRestartConfig = `-- name: CreateRestartConfig :exec
INSERT OR REPLACE INTO restart_configs (
    session_id, tool, name, urls, browsers, resolutions, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateRestartConfigParams struct {
	SessionID   string
	Tool        string
	Name        string
	Urls        string
	Browsers    string
	Resolutions string
	CreatedAt   int64
}

func (q *Queries) CreateRestartConfig(ctx context.Context, arg CreateRestartConfigParams) error {
	_, err := q.db.ExecContext(ctx, createRestartConfig,
		arg.SessionID,
		arg.Tool,
		arg.Name,
		arg.Urls,
		arg.Browsers,
		arg.Resolutions,
		arg.CreatedAt,
	)
	return err
}

const getRestartConfig = `-- name: GetRestartConfig :one
SELECT session_id, tool, name, urls, browsers, resolutions, created_at
FROM restart_configs
WHERE session_id = ?
`

func (q *Queries) GetRestartConfig(ctx context.Context, sessionID string) (RestartConfig, error) {
	row := q.db.QueryRowContext(ctx, getRestartConfig, sessionID)
	var i RestartConfig
	err := row.Scan(
		&i.SessionID,
		&i.Tool,
		&i.Name,
		&i.Urls,
		&i.Browsers,
		&i.Resolutions,
		&i.CreatedAt,
	)
	return i, err
}

const deleteRestartConfig = `-- name: DeleteRestartConfig :exec
DELETE FROM restart_configs
WHERE session_id = ?
`

func (q *Queries) DeleteRestartConfig(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, deleteRestartConfig, sessionID)
	return err
}

const createSession = `-- name: CreateSession :exec
INSERT OR REPLACE INTO sessions (
    session_id, tool, name, url_count, created_at
) VALUES (?, ?, ?, ?, ?)
`

type CreateSessionParams struct {
	SessionID string
	Tool      string
	Name      string
	UrlCount  int64
	CreatedAt int64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession,
		arg.SessionID,
		arg.Tool,
		arg.Name,
		arg.UrlCount,
		arg.CreatedAt,
	)
	return err
}

const getSession = `-- name: GetSession :one
SELECT session_id, tool, name, url_count, created_at
FROM sessions
WHERE session_id = ?
`

func (q *Queries) GetSession(ctx context.Context, sessionID string) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession, sessionID)
	var i Session
	err := row.Scan(
		&i.SessionID,
		&i.Tool,
		&i.Name,
		&i.UrlCount,
		&i.CreatedAt,
	)
	return i, err
}

const listSessions = `-- name: ListSessions :many
SELECT session_id, tool, name, url_count, created_at
FROM sessions
ORDER BY created_at DESC
LIMIT ?
`

func (q *Queries) ListSessions(ctx context.Context, limit int64) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listSessions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Session
	for rows.Next() {
		var i Session
		if err := rows.Scan(
			&i.SessionID,
			&i.Tool,
			&i.Name,
			&i.UrlCount,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listAllSessions = `-- name: ListAllSessions :many
SELECT session_id, tool, name, url_count, created_at
FROM sessions
ORDER BY created_at DESC
`

func (q *Queries) ListAllSessions(ctx context.Context) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listAllSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Session
	for rows.Next() {
		var i Session
		if err := rows.Scan(
			&i.SessionID,
			&i.Tool,
			&i.Name,
			&i.UrlCount,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM sessions
WHERE session_id = ?
`

func (q *Queries) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, sessionID)
	return err
}

const deleteAllSessions = `-- name: DeleteAllSessions :exec
DELETE FROM sessions
`

func (q *Queries) DeleteAllSessions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllSessions)
	return err
}
