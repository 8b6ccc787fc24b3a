package store

import (
	"fmt"

	"agent-bazaar/internal/model"
)

// AddBlock records a directed block. Re-blocking the same pair is a
// no-op; there is currently no removal path.
func (s *Store) AddBlock(blocker, blocked model.ActorRef, now int64) error {
	_, err := s.db.Exec(
		`INSERT INTO blocks (blocker_type, blocker_id, blocked_type, blocked_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(blocker_type, blocker_id, blocked_type, blocked_id) DO NOTHING`,
		blocker.Type, blocker.ID, blocked.Type, blocked.ID, now,
	)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (s *Store) BlockExists(blocker, blocked model.ActorRef) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM blocks
		WHERE blocker_type = ? AND blocker_id = ? AND blocked_type = ? AND blocked_id = ?`,
		blocker.Type, blocker.ID, blocked.Type, blocked.ID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("block lookup: %w", err)
	}
	return n > 0, nil
}
