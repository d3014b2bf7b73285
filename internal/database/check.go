package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/appinstaller/internal/envelope"
)

// NotEmptyError reports a target schema that already has tables.
type NotEmptyError struct {
	Schema string
	Tables int
}

func (e *NotEmptyError) Error() string {
	return fmt.Sprintf("Database \"%s\" is not empty. Use another database or DROP (remove) all the tables in the target database.", e.Schema)
}

// Conn is the introspection surface the checks need.
type Conn interface {
	Tables(ctx context.Context, schema string) ([]string, error)
	Grants(ctx context.Context) ([]string, error)
	Close() error
}

// Dialer opens a Conn for creds.
type Dialer func(ctx context.Context, creds Credentials) (Conn, error)

// MySQLDialer returns a Dialer backed by go-sql-driver/mysql, registered by
// the import in credentials.go.
func MySQLDialer(timeout time.Duration) Dialer {
	return func(ctx context.Context, creds Credentials) (Conn, error) {
		db, err := sql.Open("mysql", creds.DSN(timeout))
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &sqlConn{db: db}, nil
	}
}

type sqlConn struct {
	db *sql.DB
}

func (c *sqlConn) Tables(ctx context.Context, schema string) ([]string, error) {
	quoted := "`" + strings.ReplaceAll(schema, "`", "``") + "`"
	return c.column(ctx, "SHOW TABLES FROM "+quoted)
}

func (c *sqlConn) Grants(ctx context.Context) ([]string, error) {
	return c.column(ctx, "SHOW GRANTS FOR CURRENT_USER")
}

func (c *sqlConn) Close() error {
	return c.db.Close()
}

func (c *sqlConn) column(ctx context.Context, query string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Checker runs the pre-install database checks.
type Checker struct {
	dial Dialer
	log  logr.Logger
}

// NewChecker returns a checker using dial.
func NewChecker(dial Dialer, log logr.Logger) *Checker {
	return &Checker{dial: dial, log: log}
}

// Check connects with creds and verifies the schema is empty and that the user
// holds every required privilege on it.
func (c *Checker) Check(ctx context.Context, creds Credentials) error {
	conn, err := c.dial(ctx, creds)
	if err != nil {
		return envelope.Errorf(envelope.CodeServiceUnavailable, "Unable to connect to the database: %v", err)
	}
	defer func() { _ = conn.Close() }()

	tables, err := conn.Tables(ctx, creds.Name)
	if err != nil {
		return envelope.WithCode(fmt.Errorf("unable to list tables: %w", err), envelope.CodeInternalServerError)
	}
	if len(tables) > 0 {
		c.log.Info("database not empty", "database", creds.Name, "tables", len(tables))
		return envelope.WithCode(&NotEmptyError{Schema: creds.Name, Tables: len(tables)}, envelope.CodeConflict)
	}

	grants, err := conn.Grants(ctx)
	if err != nil {
		return envelope.WithCode(fmt.Errorf("unable to read grants: %w", err), envelope.CodeInternalServerError)
	}
	if missing := MissingPrivileges(grants, creds.Name); len(missing) > 0 {
		return envelope.WithCode(&PrivilegeError{User: creds.User, Schema: creds.Name, Missing: missing}, envelope.CodeForbidden)
	}
	return nil
}
