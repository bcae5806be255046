// README: Catalog store backed by PostgreSQL; every read is scoped by salon id.
package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("catalog entry not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Categories(ctx context.Context, salonID int64) ([]Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, salon_id, name FROM category
		WHERE salon_id = $1 ORDER BY id`,
		salonID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.SalonID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) AddCategory(ctx context.Context, salonID int64, name string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO category (salon_id, name) VALUES ($1, $2)`, salonID, name)
	return err
}

func (s *Store) DeleteCategory(ctx context.Context, categoryID, salonID int64) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM category WHERE id = $1 AND salon_id = $2`,
		categoryID, salonID,
	)
	return err
}

const productColumns = `id, salon_id, category_id, name, description, price, COALESCE(image, ''), created`

func (s *Store) Products(ctx context.Context, salonID int64, categoryID int64) ([]Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+productColumns+` FROM product
		WHERE salon_id = $1 AND category_id = $2
		ORDER BY id`,
		salonID, categoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *Store) AllProducts(ctx context.Context, salonID int64) ([]Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+productColumns+` FROM product
		WHERE salon_id = $1 ORDER BY id`,
		salonID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *Store) GetProduct(ctx context.Context, productID, salonID int64) (*Product, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+productColumns+` FROM product
		WHERE id = $1 AND salon_id = $2`,
		productID, salonID,
	)
	var p Product
	err := row.Scan(&p.ID, &p.SalonID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) AddProduct(ctx context.Context, p *Product) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO product (salon_id, category_id, name, description, price, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		p.SalonID, p.CategoryID, p.Name, p.Description, p.Price, p.Image,
	).Scan(&id)
	return id, err
}

func (s *Store) DeleteProduct(ctx context.Context, productID, salonID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM product WHERE id = $1 AND salon_id = $2`, productID, salonID)
	return err
}

func (s *Store) GetBanner(ctx context.Context, salonID int64, name string) (*Banner, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, salon_id, name, COALESCE(image, ''), COALESCE(description, '')
		FROM banner WHERE salon_id = $1 AND name = $2`,
		salonID, name,
	)
	var b Banner
	err := row.Scan(&b.ID, &b.SalonID, &b.Name, &b.Image, &b.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpsertBanner creates the banner page or updates its description/image.
// Empty description keeps the existing text so manual edits survive.
func (s *Store) UpsertBanner(ctx context.Context, salonID int64, name, description, image string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO banner (salon_id, name, description, image)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (name, salon_id) DO UPDATE
		SET description = COALESCE(NULLIF(EXCLUDED.description, ''), banner.description),
		    image       = COALESCE(NULLIF(EXCLUDED.image, ''), banner.image)`,
		salonID, name, description, image,
	)
	return err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SalonID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
