package store

import (
	"database/sql"
	"fmt"

	"agent-bazaar/internal/model"
)

const agentColumns = `id, token_hash, display_name, status, claim_token_hash, claimed_url,
	created_at, updated_at, claimed_at, last_poll_at`

func scanAgent(row *sql.Row) (model.Agent, error) {
	var a model.Agent
	var displayName, claimedURL sql.NullString
	var claimedAt sql.NullInt64
	err := row.Scan(&a.ID, &a.TokenHash, &displayName, &a.Status, &a.ClaimTokenHash,
		&claimedURL, &a.CreatedAt, &a.UpdatedAt, &claimedAt, &a.LastPollAt)
	if err == sql.ErrNoRows {
		return model.Agent{}, ErrNotFound
	}
	if err != nil {
		return model.Agent{}, fmt.Errorf("scan agent: %w", err)
	}
	a.DisplayName = strPtr(displayName)
	a.ClaimedURL = strPtr(claimedURL)
	a.ClaimedAt = intPtr(claimedAt)
	return a, nil
}

func (s *Store) CreateAgent(a model.Agent) error {
	_, err := s.db.Exec(
		`INSERT INTO agents (id, token_hash, display_name, status, claim_token_hash, claimed_url,
			created_at, updated_at, claimed_at, last_poll_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TokenHash, nullStr(a.DisplayName), a.Status, a.ClaimTokenHash,
		nullStr(a.ClaimedURL), a.CreatedAt, a.UpdatedAt, nullInt(a.ClaimedAt), a.LastPollAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

func (s *Store) AgentByID(id string) (model.Agent, error) {
	row := s.db.QueryRow(`SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	return scanAgent(row)
}

// AgentByTokenHash resolves a bearer token hash to an agent. Banned
// agents cannot authenticate at all; suspended agents still resolve,
// since suspension restricts actions but not identity.
func (s *Store) AgentByTokenHash(hash string) (model.Agent, error) {
	row := s.db.QueryRow(
		`SELECT `+agentColumns+` FROM agents WHERE token_hash = ? AND status != ?`,
		hash, model.AgentBanned,
	)
	return scanAgent(row)
}

// ClaimAgent promotes a pending agent to active, recording the verified
// proof URL. Returns ErrNotFound when the agent is absent or no longer
// pending.
func (s *Store) ClaimAgent(id, proofURL string, now int64) error {
	res, err := s.db.Exec(
		`UPDATE agents SET status = ?, claimed_url = ?, claimed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		model.AgentActive, proofURL, now, now, id, model.AgentPending,
	)
	if err != nil {
		return fmt.Errorf("claim agent: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetAgentStatus(id string, status model.AgentStatus, now int64) error {
	res, err := s.db.Exec(
		`UPDATE agents SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	)
	if err != nil {
		return fmt.Errorf("set agent status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) TouchAgentPoll(id string, now int64) error {
	_, err := s.db.Exec(`UPDATE agents SET last_poll_at = ? WHERE id = ?`, now, id)
	return err
}

func (s *Store) AgentStats(id string) (model.AgentStats, error) {
	var st model.AgentStats
	err := s.db.QueryRow(
		`SELECT
			(SELECT COUNT(*) FROM products WHERE agent_id = ?),
			(SELECT COUNT(*) FROM pitches WHERE agent_id = ?),
			(SELECT COUNT(*) FROM requests WHERE requester_type = 'agent' AND requester_id = ? AND status = 'open')`,
		id, id, id,
	).Scan(&st.Products, &st.Pitches, &st.OpenRequests)
	if err != nil {
		return model.AgentStats{}, fmt.Errorf("agent stats: %w", err)
	}
	return st, nil
}
