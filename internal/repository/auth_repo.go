package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"vermicompost_monitor/internal/models"
)

type OperatorRepository struct {
	db *sql.DB
}

func NewOperatorRepository(db *sql.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

var _ Authorization = (*OperatorRepository)(nil)

const (
	insertOperatorSQL           = `INSERT INTO operators (username, password_hash) VALUES (?, ?)`
	selectOperatorByUsernameSQL = `SELECT id, username, password_hash FROM operators WHERE username = ?`
	countOperatorsSQL           = `SELECT COUNT(*) FROM operators`
)

// Create inserts a new operator and returns its ID.
func (r *OperatorRepository) Create(username, passwordHash string) (int, error) {
	res, err := r.db.Exec(insertOperatorSQL, username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("insert operator %q: %w", username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for operator %q: %w", username, err)
	}
	return int(lastID), nil
}

// GetByUsername returns (nil, nil) when the operator does not exist.
func (r *OperatorRepository) GetByUsername(username string) (*models.Operator, error) {
	var op models.Operator
	err := r.db.QueryRow(selectOperatorByUsernameSQL, username).Scan(&op.ID, &op.Username, &op.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select operator %q: %w", username, err)
	}
	return &op, nil
}

// Count returns the number of registered operators.
func (r *OperatorRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(countOperatorsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count operators: %w", err)
	}
	return n, nil
}
