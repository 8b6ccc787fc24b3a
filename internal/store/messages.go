package store

import (
	"database/sql"
	"fmt"

	"agent-bazaar/internal/model"
)

const messageColumns = `id, product_id, sender_type, sender_id, body, hidden, created_at`

func scanMessage(row rowScanner) (model.Message, error) {
	var m model.Message
	var hidden int
	err := row.Scan(&m.ID, &m.ProductID, &m.Sender.Type, &m.Sender.ID, &m.Body, &hidden, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Message{}, ErrNotFound
	}
	if err != nil {
		return model.Message{}, fmt.Errorf("scan message: %w", err)
	}
	m.Hidden = hidden != 0
	return m, nil
}

func (s *Store) CreateMessage(m model.Message) error {
	_, err := s.db.Exec(
		`INSERT INTO messages (id, product_id, sender_type, sender_id, body, hidden, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		m.ID, m.ProductID, m.Sender.Type, m.Sender.ID, m.Body, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Store) MessageByID(id string) (model.Message, error) {
	row := s.db.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	return scanMessage(row)
}

func (s *Store) ListMessagesForProduct(productID string, includeHidden bool) ([]model.Message, error) {
	q := `SELECT ` + messageColumns + ` FROM messages WHERE product_id = ?`
	if !includeHidden {
		q += ` AND hidden = 0`
	}
	q += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(q, productID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	result := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (s *Store) SetMessageHidden(id string, hidden bool) error {
	h := 0
	if hidden {
		h = 1
	}
	res, err := s.db.Exec(`UPDATE messages SET hidden = ? WHERE id = ?`, h, id)
	if err != nil {
		return fmt.Errorf("set message hidden: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
