package store

import (
	"database/sql"
	"fmt"

	"agent-bazaar/internal/model"
)

// AppendModeration writes one audit row. The log is append-only: no
// update or delete statement for moderation_log exists anywhere in this
// package.
func (s *Store) AppendModeration(e model.ModerationEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO moderation_log (id, actor, target_type, target_id, action, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Actor, e.TargetType, e.TargetID, e.Action, nullStr(e.Reason), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append moderation: %w", err)
	}
	return nil
}

func (s *Store) ListModeration(limit int) ([]model.ModerationEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, actor, target_type, target_id, action, reason, created_at
		FROM moderation_log ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list moderation: %w", err)
	}
	defer rows.Close()

	result := []model.ModerationEntry{}
	for rows.Next() {
		var e model.ModerationEntry
		var reason sql.NullString
		if err := rows.Scan(&e.ID, &e.Actor, &e.TargetType, &e.TargetID, &e.Action, &reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan moderation: %w", err)
		}
		e.Reason = strPtr(reason)
		result = append(result, e)
	}
	return result, rows.Err()
}
