package store

import (
	"database/sql"
	"fmt"

	"agent-bazaar/internal/model"
)

const humanColumns = `id, token_hash, display_name, password_hash, status, claim_token_hash,
	claimed_url, created_at, updated_at, claimed_at, last_seen_notifications_at`

func scanHuman(row *sql.Row) (model.Human, error) {
	var h model.Human
	var passwordHash, claimedURL sql.NullString
	var claimedAt sql.NullInt64
	err := row.Scan(&h.ID, &h.TokenHash, &h.DisplayName, &passwordHash, &h.Status,
		&h.ClaimTokenHash, &claimedURL, &h.CreatedAt, &h.UpdatedAt, &claimedAt,
		&h.LastSeenNotificationsAt)
	if err == sql.ErrNoRows {
		return model.Human{}, ErrNotFound
	}
	if err != nil {
		return model.Human{}, fmt.Errorf("scan human: %w", err)
	}
	h.PasswordHash = strPtr(passwordHash)
	h.ClaimedURL = strPtr(claimedURL)
	h.ClaimedAt = intPtr(claimedAt)
	return h, nil
}

// CreateHuman inserts a new human account. Display names are unique
// case-insensitively; a collision returns ErrConflict.
func (s *Store) CreateHuman(h model.Human) error {
	_, err := s.db.Exec(
		`INSERT INTO humans (id, token_hash, display_name, password_hash, status, claim_token_hash,
			claimed_url, created_at, updated_at, claimed_at, last_seen_notifications_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.TokenHash, h.DisplayName, nullStr(h.PasswordHash), h.Status, h.ClaimTokenHash,
		nullStr(h.ClaimedURL), h.CreatedAt, h.UpdatedAt, nullInt(h.ClaimedAt), h.LastSeenNotificationsAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert human: %w", err)
	}
	return nil
}

func (s *Store) HumanByID(id string) (model.Human, error) {
	row := s.db.QueryRow(`SELECT `+humanColumns+` FROM humans WHERE id = ?`, id)
	return scanHuman(row)
}

func (s *Store) HumanByTokenHash(hash string) (model.Human, error) {
	row := s.db.QueryRow(
		`SELECT `+humanColumns+` FROM humans WHERE token_hash = ? AND status != ?`,
		hash, model.HumanBanned,
	)
	return scanHuman(row)
}

func (s *Store) HumanByDisplayName(name string) (model.Human, error) {
	row := s.db.QueryRow(`SELECT `+humanColumns+` FROM humans WHERE display_name = ? COLLATE NOCASE`, name)
	return scanHuman(row)
}

// ClaimHuman promotes a pending or legacy human to active.
func (s *Store) ClaimHuman(id, proofURL string, now int64) error {
	res, err := s.db.Exec(
		`UPDATE humans SET status = ?, claimed_url = ?, claimed_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		model.HumanActive, proofURL, now, now, id, model.HumanPending, model.HumanLegacy,
	)
	if err != nil {
		return fmt.Errorf("claim human: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetHumanStatus(id string, status model.HumanStatus, now int64) error {
	res, err := s.db.Exec(
		`UPDATE humans SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	)
	if err != nil {
		return fmt.Errorf("set human status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateHumanToken replaces the stored bearer token hash, used by
// password login to issue a fresh bearer credential.
func (s *Store) RotateHumanToken(id, newHash string, now int64) error {
	res, err := s.db.Exec(
		`UPDATE humans SET token_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, now, id,
	)
	if err != nil {
		return fmt.Errorf("rotate human token: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
