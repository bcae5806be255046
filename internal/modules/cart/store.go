// README: Cart store backed by PostgreSQL.
package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Add puts one unit of the product into the membership's cart: an existing
// line is incremented, otherwise a new line with quantity 1 appears. The
// product must belong to the same salon as the membership; a cross-salon add
// is silently a no-op, mirroring an unknown membership.
//
// The read-modify-write is not guarded against two rapid taps racing each
// other; the row-level upsert keeps the line unique, a lost increment under
// that race is accepted.
func (s *Store) Add(ctx context.Context, membershipID, productID int64) error {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM product p
			JOIN user_salon us ON us.salon_id = p.salon_id
			WHERE p.id = $1 AND us.id = $2
		)`, productID, membershipID,
	).Scan(&ok)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO cart (user_salon_id, product_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_salon_id, product_id)
		DO UPDATE SET quantity = cart.quantity + 1`,
		membershipID, productID,
	)
	return err
}

// Reduce decrements the line by one. A line that would drop to zero is
// deleted instead; the return value reports whether the line still exists so
// callers can adjust pagination.
func (s *Store) Reduce(ctx context.Context, membershipID, productID int64) (stillPresent bool, err error) {
	var quantity int
	err = s.db.QueryRow(ctx, `
		SELECT quantity FROM cart
		WHERE user_salon_id = $1 AND product_id = $2`,
		membershipID, productID,
	).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if quantity > 1 {
		_, err = s.db.Exec(ctx, `
			UPDATE cart SET quantity = quantity - 1
			WHERE user_salon_id = $1 AND product_id = $2`,
			membershipID, productID,
		)
		return true, err
	}
	return false, s.DeleteLine(ctx, membershipID, productID)
}

func (s *Store) DeleteLine(ctx context.Context, membershipID, productID int64) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM cart WHERE user_salon_id = $1 AND product_id = $2`,
		membershipID, productID,
	)
	return err
}

// Clear removes every line for the membership; called after a successful
// order write and on the explicit "clear cart" action.
func (s *Store) Clear(ctx context.Context, membershipID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM cart WHERE user_salon_id = $1`, membershipID)
	return err
}

// List returns the cart lines joined with live product name and price.
func (s *Store) List(ctx context.Context, membershipID int64) ([]Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.user_salon_id, c.product_id, c.quantity, p.name, p.price
		FROM cart c
		JOIN product p ON p.id = c.product_id
		WHERE c.user_salon_id = $1
		ORDER BY c.id`,
		membershipID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.MembershipID, &it.ProductID, &it.Quantity, &it.ProductName, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Count returns the total number of units across all lines.
func (s *Store) Count(ctx context.Context, membershipID int64) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM cart WHERE user_salon_id = $1`,
		membershipID,
	).Scan(&count)
	return count, err
}
