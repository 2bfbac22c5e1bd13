package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

var ErrReadOnly = errors.New("settings transaction is read-only")

// SettingsSQLite is a namespaced key/value store.
type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite { return &SettingsSQLite{db: db} }

const (
	selectSettingSQL = `SELECT value FROM settings WHERE namespace = ? AND key = ?`
	upsertSettingSQL = `
		INSERT INTO settings (namespace, key, value) VALUES (?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value=excluded.value
	`
	clearSettingsSQL = `DELETE FROM settings WHERE namespace = ?`
)

// SettingsTx is an open settings transaction scoped to one namespace.
// It must be finished with End or Rollback.
type SettingsTx struct {
	ctx       context.Context
	tx        *sql.Tx
	namespace string
	readOnly  bool
}

// Begin opens a transaction on namespace. Puts on a read-only transaction
// fail with ErrReadOnly.
func (s *SettingsSQLite) Begin(ctx context.Context, namespace string, readOnly bool) (*SettingsTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settings %q: %w", namespace, err)
	}
	return &SettingsTx{ctx: ctx, tx: tx, namespace: namespace, readOnly: readOnly}, nil
}

// Clear removes every key in namespace.
func (s *SettingsSQLite) Clear(ctx context.Context, namespace string) error {
	if _, err := s.db.ExecContext(ctx, clearSettingsSQL, namespace); err != nil {
		return fmt.Errorf("clear settings %q: %w", namespace, err)
	}
	return nil
}

// End commits the transaction.
func (t *SettingsTx) End() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit settings %q: %w", t.namespace, err)
	}
	return nil
}

// Rollback discards the transaction. Safe to call after End.
func (t *SettingsTx) Rollback() {
	_ = t.tx.Rollback()
}

func (t *SettingsTx) get(key string) (string, bool, error) {
	var v string
	err := t.tx.QueryRowContext(t.ctx, selectSettingSQL, t.namespace, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s.%s: %w", t.namespace, key, err)
	}
	return v, true, nil
}

func (t *SettingsTx) put(key, value string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, err := t.tx.ExecContext(t.ctx, upsertSettingSQL, t.namespace, key, value); err != nil {
		return fmt.Errorf("put %s.%s: %w", t.namespace, key, err)
	}
	return nil
}

// GetInt returns def when the key is absent.
func (t *SettingsTx) GetInt(key string, def int) (int, error) {
	v, ok, err := t.get(key)
	if err != nil || !ok {
		return def, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("parse %s.%s: %w", t.namespace, key, err)
	}
	return n, nil
}

func (t *SettingsTx) GetFloat(key string, def float64) (float64, error) {
	v, ok, err := t.get(key)
	if err != nil || !ok {
		return def, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("parse %s.%s: %w", t.namespace, key, err)
	}
	return f, nil
}

func (t *SettingsTx) GetBool(key string, def bool) (bool, error) {
	v, ok, err := t.get(key)
	if err != nil || !ok {
		return def, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("parse %s.%s: %w", t.namespace, key, err)
	}
	return b, nil
}

func (t *SettingsTx) PutInt(key string, v int) error {
	return t.put(key, strconv.Itoa(v))
}

func (t *SettingsTx) PutFloat(key string, v float64) error {
	return t.put(key, strconv.FormatFloat(v, 'g', -1, 64))
}

func (t *SettingsTx) PutBool(key string, v bool) error {
	return t.put(key, strconv.FormatBool(v))
}
