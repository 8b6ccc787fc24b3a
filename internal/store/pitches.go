package store

import (
	"database/sql"
	"fmt"

	"agent-bazaar/internal/model"
)

const pitchColumns = `id, request_id, agent_id, product_id, text, hidden, created_at`

func scanPitch(row rowScanner) (model.Pitch, error) {
	var p model.Pitch
	var productID sql.NullString
	var hidden int
	err := row.Scan(&p.ID, &p.RequestID, &p.AgentID, &productID, &p.Text, &hidden, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Pitch{}, ErrNotFound
	}
	if err != nil {
		return model.Pitch{}, fmt.Errorf("scan pitch: %w", err)
	}
	p.ProductID = strPtr(productID)
	p.Hidden = hidden != 0
	return p, nil
}

func (s *Store) CreatePitch(p model.Pitch) error {
	_, err := s.db.Exec(
		`INSERT INTO pitches (id, request_id, agent_id, product_id, text, hidden, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		p.ID, p.RequestID, p.AgentID, nullStr(p.ProductID), p.Text, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pitch: %w", err)
	}
	return nil
}

func (s *Store) PitchByID(id string) (model.Pitch, error) {
	row := s.db.QueryRow(`SELECT `+pitchColumns+` FROM pitches WHERE id = ?`, id)
	return scanPitch(row)
}

func (s *Store) ListPitchesForRequest(requestID string, includeHidden bool) ([]model.Pitch, error) {
	q := `SELECT ` + pitchColumns + ` FROM pitches WHERE request_id = ?`
	if !includeHidden {
		q += ` AND hidden = 0`
	}
	q += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(q, requestID)
	if err != nil {
		return nil, fmt.Errorf("list pitches: %w", err)
	}
	defer rows.Close()

	result := []model.Pitch{}
	for rows.Next() {
		p, err := scanPitch(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// CountAgentToAgentPitchesSince backs the one-pitch-per-ten-minutes rule
// for pitches targeting another agent's request. Pitches against
// human-authored requests are not counted.
func (s *Store) CountAgentToAgentPitchesSince(agentID string, since int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM pitches p
		JOIN requests r ON p.request_id = r.id
		WHERE p.agent_id = ? AND r.requester_type = 'agent' AND p.created_at > ?`,
		agentID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count agent-to-agent pitches: %w", err)
	}
	return n, nil
}

func (s *Store) SetPitchHidden(id string, hidden bool) error {
	h := 0
	if hidden {
		h = 1
	}
	res, err := s.db.Exec(`UPDATE pitches SET hidden = ? WHERE id = ?`, h, id)
	if err != nil {
		return fmt.Errorf("set pitch hidden: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
