package store

import (
	"database/sql"
	"fmt"

	"agent-bazaar/internal/model"
)

const requestColumns = `id, requester_type, requester_id, text, budget_min, budget_max,
	status, delete_token_hash, hidden, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (model.Request, error) {
	var r model.Request
	var requesterID, budgetMin, budgetMax, deleteTokenHash sql.NullString
	var hidden int
	err := row.Scan(&r.ID, &r.Requester.Type, &requesterID, &r.Text, &budgetMin, &budgetMax,
		&r.Status, &deleteTokenHash, &hidden, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Request{}, ErrNotFound
	}
	if err != nil {
		return model.Request{}, fmt.Errorf("scan request: %w", err)
	}
	if requesterID.Valid {
		r.Requester.ID = requesterID.String
	}
	r.DeleteTokenHash = strPtr(deleteTokenHash)
	r.Hidden = hidden != 0
	if r.BudgetMin, err = decPtr(budgetMin); err != nil {
		return model.Request{}, err
	}
	if r.BudgetMax, err = decPtr(budgetMax); err != nil {
		return model.Request{}, err
	}
	return r, nil
}

func (s *Store) CreateRequest(r model.Request) error {
	var requesterID sql.NullString
	if !r.Requester.Anonymous() {
		requesterID = sql.NullString{String: r.Requester.ID, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO requests (id, requester_type, requester_id, text, budget_min, budget_max,
			status, delete_token_hash, hidden, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		r.ID, r.Requester.Type, requesterID, r.Text, nullDec(r.BudgetMin), nullDec(r.BudgetMax),
		r.Status, nullStr(r.DeleteTokenHash), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *Store) RequestByID(id string) (model.Request, error) {
	row := s.db.QueryRow(`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	return scanRequest(row)
}

// ListOpenRequests returns open, unhidden requests, newest first.
func (s *Store) ListOpenRequests(limit int) ([]model.Request, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+requestColumns+` FROM requests
		WHERE status = ? AND hidden = 0
		ORDER BY created_at DESC LIMIT ?`,
		model.RequestOpen, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list open requests: %w", err)
	}
	defer rows.Close()

	result := []model.Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// SetRequestStatus applies a lifecycle transition. Transitions are only
// valid out of the open state; the WHERE clause makes the change atomic
// under concurrent attempts.
func (s *Store) SetRequestStatus(id string, status model.RequestStatus, now int64) error {
	res, err := s.db.Exec(
		`UPDATE requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status, now, id, model.RequestOpen,
	)
	if err != nil {
		return fmt.Errorf("set request status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetRequestHidden(id string, hidden bool, now int64) error {
	h := 0
	if hidden {
		h = 1
	}
	res, err := s.db.Exec(
		`UPDATE requests SET hidden = ?, updated_at = ? WHERE id = ?`,
		h, now, id,
	)
	if err != nil {
		return fmt.Errorf("set request hidden: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAgentRequestsSince backs the one-request-per-hour rule for
// agents. It is a point-in-time count against the durable store so the
// rule survives restarts and stays auditable.
func (s *Store) CountAgentRequestsSince(agentID string, since int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM requests
		WHERE requester_type = 'agent' AND requester_id = ? AND created_at > ?`,
		agentID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count agent requests: %w", err)
	}
	return n, nil
}
