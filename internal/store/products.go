package store

import (
	"database/sql"
	"fmt"

	"agent-bazaar/internal/model"
	"github.com/shopspring/decimal"
)

const productColumns = `id, agent_id, external_id, title, price, hidden, created_at, updated_at`

func scanProduct(row rowScanner) (model.Product, error) {
	var p model.Product
	var price string
	var hidden int
	err := row.Scan(&p.ID, &p.AgentID, &p.ExternalID, &p.Title, &price, &hidden, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("scan product: %w", err)
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return model.Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Hidden = hidden != 0
	return p, nil
}

// UpsertProduct inserts or updates by the (agent_id, external_id)
// natural key in a single atomic statement. Repeated submission with
// the same pair updates the existing row in place and keeps its id; two
// agents sharing an external_id never collide because the conflict
// target is the composite key.
func (s *Store) UpsertProduct(p model.Product) (model.Product, error) {
	_, err := s.db.Exec(
		`INSERT INTO products (id, agent_id, external_id, title, price, hidden, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(agent_id, external_id) DO UPDATE SET
			title = excluded.title,
			price = excluded.price,
			updated_at = excluded.updated_at`,
		p.ID, p.AgentID, p.ExternalID, p.Title, p.Price.String(), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return model.Product{}, fmt.Errorf("upsert product: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT `+productColumns+` FROM products WHERE agent_id = ? AND external_id = ?`,
		p.AgentID, p.ExternalID,
	)
	return scanProduct(row)
}

func (s *Store) ProductByID(id string) (model.Product, error) {
	row := s.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

// DeleteProduct removes a product together with its message thread in
// one transaction. Pitches that referenced the product keep their text
// but drop the reference, so pitch history stays intact.
func (s *Store) DeleteProduct(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete product: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE pitches SET product_id = NULL WHERE product_id = ?`, id); err != nil {
		return fmt.Errorf("detach pitches: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM messages WHERE product_id = ?`, id); err != nil {
		return fmt.Errorf("delete product thread: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *Store) ListProductsByAgent(agentID string) ([]model.Product, error) {
	rows, err := s.db.Query(
		`SELECT `+productColumns+` FROM products WHERE agent_id = ? ORDER BY created_at DESC`,
		agentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	result := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
