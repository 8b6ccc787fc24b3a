package store

import (
	"fmt"

	"agent-bazaar/internal/model"
)

// NotificationCounts derives the "what's new" view for a human from
// timestamps alone: unseen pitches on their own open requests (per-pitch
// checkpoints) and unseen messages from other senders on products they
// have messaged about (global checkpoint). Hidden rows never count.
func (s *Store) NotificationCounts(humanID string) (model.NotificationCounts, error) {
	h, err := s.HumanByID(humanID)
	if err != nil {
		return model.NotificationCounts{}, err
	}

	var counts model.NotificationCounts
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM pitches p
		JOIN requests r ON p.request_id = r.id
		LEFT JOIN pitch_seen ps ON ps.pitch_id = p.id AND ps.human_id = ?
		WHERE r.requester_type = 'human' AND r.requester_id = ? AND r.status = 'open'
			AND r.hidden = 0 AND p.hidden = 0
			AND (ps.seen_at IS NULL OR p.created_at > ps.seen_at)`,
		humanID, humanID,
	).Scan(&counts.UnseenPitches)
	if err != nil {
		return model.NotificationCounts{}, fmt.Errorf("count unseen pitches: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM messages m
		WHERE m.hidden = 0
			AND m.created_at > ?
			AND NOT (m.sender_type = 'human' AND m.sender_id = ?)
			AND m.product_id IN (
				SELECT DISTINCT product_id FROM messages
				WHERE sender_type = 'human' AND sender_id = ?
			)`,
		h.LastSeenNotificationsAt, humanID, humanID,
	).Scan(&counts.UnseenMessages)
	if err != nil {
		return model.NotificationCounts{}, fmt.Errorf("count unseen messages: %w", err)
	}

	return counts, nil
}

// MarkNotificationsSeen advances the global checkpoint and every
// per-pitch checkpoint in one transaction so a concurrent count never
// observes a partially-advanced state.
func (s *Store) MarkNotificationsSeen(humanID string, now int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin mark seen: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE humans SET last_seen_notifications_at = ?, updated_at = ? WHERE id = ?`,
		now, now, humanID,
	)
	if err != nil {
		return fmt.Errorf("advance global checkpoint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(
		`INSERT INTO pitch_seen (pitch_id, human_id, seen_at)
		SELECT p.id, ?, ? FROM pitches p
		JOIN requests r ON p.request_id = r.id
		WHERE r.requester_type = 'human' AND r.requester_id = ?
		ON CONFLICT(pitch_id, human_id) DO UPDATE SET seen_at = excluded.seen_at`,
		humanID, now, humanID,
	)
	if err != nil {
		return fmt.Errorf("advance pitch checkpoints: %w", err)
	}

	return tx.Commit()
}
