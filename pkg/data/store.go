// Package data keeps the verbatim funding source rows for the length of a run
// so the report can reproduce them by row index.
package data

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

const (
	memoryDSN = ":memory:"

	insertHeaderSQL = `INSERT INTO header (id, cells) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET cells = excluded.cells
	`

	selectHeaderSQL = `SELECT cells FROM header WHERE id = 1`

	insertRowSQL = `INSERT INTO funding_row (idx, cells) VALUES (?, ?)
		ON CONFLICT(idx) DO UPDATE SET cells = excluded.cells
	`

	selectRowSQL = `SELECT cells FROM funding_row WHERE idx = ?`
)

var (
	//go:embed sql/*
	f embed.FS

	errStoreNotInitialized = errors.New("store not initialized")

	// ErrRowNotFound is returned for a row index that was never saved.
	ErrRowNotFound = errors.New("row not found")
)

// Store is an in-memory SQLite database holding one source file's header and
// rows. Nothing is written to disk.
type Store struct {
	db *sql.DB
}

// Open creates an empty store with its schema.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", memoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read the schema creation file: %w", err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	slog.Debug("row store created")

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveHeader stores the header row.
func (s *Store) SaveHeader(cells []string) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	b, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("error encoding header: %w", err)
	}

	if _, err := s.db.Exec(insertHeaderSQL, string(b)); err != nil {
		return fmt.Errorf("error saving header: %w", err)
	}
	return nil
}

// Header returns the stored header row.
func (s *Store) Header() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	var cells string
	if err := s.db.QueryRow(selectHeaderSQL).Scan(&cells); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRowNotFound
		}
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	return decodeCells(cells)
}

// SaveRows stores rows in one transaction, rows[i] under index i.
func (s *Store) SaveRows(rows [][]string) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting row tx: %w", err)
	}

	stmt, err := tx.Prepare(insertRowSQL)
	if err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("error preparing row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error encoding row %d: %w", i, err)
		}
		if _, err := stmt.Exec(i, string(b)); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error saving row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing row tx: %w", err)
	}

	slog.Debug("rows saved", "count", len(rows))
	return nil
}

// Row returns the row stored under idx.
func (s *Store) Row(idx int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	var cells string
	if err := s.db.QueryRow(selectRowSQL, idx).Scan(&cells); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("row %d: %w", idx, ErrRowNotFound)
		}
		return nil, fmt.Errorf("error reading row %d: %w", idx, err)
	}

	return decodeCells(cells)
}

func decodeCells(val string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(val), &cells); err != nil {
		return nil, fmt.Errorf("error decoding cells: %w", err)
	}
	return cells, nil
}

func rollbackTransaction(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		slog.Error("error rolling back transaction", "error", err)
	}
}
