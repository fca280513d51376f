// Package audit persists verification outcomes so an operator can answer
// "who tried to log in and when" after the fact, which the structured log
// alone cannot once it rotates away.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type (
	// Log is an append-mostly trail of verification attempts backed by a
	// single sqlite file.
	Log struct {
		db *sql.DB
	}

	Entry struct {
		When     string
		Kind     string
		Username string
		OK       bool
		Detail   string
	}
)

const (
	// KindVerify marks password verification attempts, KindToken marks
	// token validations.
	KindVerify = "verify"
	KindToken  = "validate_token"
)

func Open(ctx context.Context, path string) (*Log, error) {
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%v?_journal=wal&mode=rwc", path))
	if err != nil {
		return nil, fmt.Errorf("unable to open audit log %v, cause %w", path, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping audit log %v, cause %w", path, err)
	}
	l := &Log{db: conn}
	if err := l.init(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Log) init(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `create table if not exists attempts(
		attempt_id integer primary key autoincrement,
		at text not null,
		kind text not null,
		username text not null,
		ok integer not null,
		detail text not null)`)
	if err != nil {
		return fmt.Errorf("unable to create attempts table, cause %w", err)
	}
	return nil
}

// Record appends one attempt. The timestamp is stamped here so callers
// cannot disagree about formats.
func (l *Log) Record(ctx context.Context, kind, username string, ok bool, detail string) error {
	_, err := l.db.ExecContext(ctx,
		`insert into attempts (at, kind, username, ok, detail) values (?, ?, ?, ?, ?)`,
		time.Now().Format("2006-01-02 15:04:05"), kind, username, boolToInt(ok), detail)
	if err != nil {
		return fmt.Errorf("unable to record audit entry, cause %w", err)
	}
	return nil
}

// Tail returns the most recent n attempts, newest first.
func (l *Log) Tail(ctx context.Context, n int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`select at, kind, username, ok, detail from attempts order by attempt_id desc limit ?`, n)
	if err != nil {
		return nil, fmt.Errorf("unable to read audit entries, cause %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var ok int
		if err := rows.Scan(&e.When, &e.Kind, &e.Username, &ok, &e.Detail); err != nil {
			return nil, fmt.Errorf("unable to read audit entries, cause %w", err)
		}
		e.OK = ok != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *Log) Close() error {
	return l.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
