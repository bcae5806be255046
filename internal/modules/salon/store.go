// README: Salon store backed by PostgreSQL.
package salon

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("salon not found")
	// ErrExists is returned on a name or slug collision; the uniqueness check
	// runs before the insert so callers get a clean rejection instead of a
	// raw constraint error.
	ErrExists = errors.New("salon with this name or slug already exists")
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const salonColumns = `id, name, slug, currency, timezone, latitude, longitude,
       group_chat_id, free_plan, order_limit, created, updated`

func (s *Store) Create(ctx context.Context, name, slug, currency, timezone string) (*Salon, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM salon WHERE name = $1 OR slug = $2)`,
		name, slug,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrExists
	}

	if timezone == "" {
		timezone = "UTC"
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO salon (name, slug, currency, timezone, free_plan, order_limit)
		VALUES ($1, $2, $3, $4, TRUE, 30)
		RETURNING `+salonColumns,
		name, slug, currency, timezone,
	)
	return scanSalon(row)
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Salon, error) {
	row := s.db.QueryRow(ctx, `SELECT `+salonColumns+` FROM salon WHERE id = $1`, id)
	return scanSalon(row)
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (*Salon, error) {
	row := s.db.QueryRow(ctx, `SELECT `+salonColumns+` FROM salon WHERE slug = $1`, slug)
	return scanSalon(row)
}

func (s *Store) List(ctx context.Context) ([]Salon, error) {
	rows, err := s.db.Query(ctx, `SELECT `+salonColumns+` FROM salon ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var salons []Salon
	for rows.Next() {
		sal, err := scanSalonRow(rows)
		if err != nil {
			return nil, err
		}
		salons = append(salons, *sal)
	}
	return salons, rows.Err()
}

func (s *Store) SetTimezone(ctx context.Context, id int64, tz string) error {
	_, err := s.db.Exec(ctx, `UPDATE salon SET timezone = $1, updated = NOW() WHERE id = $2`, tz, id)
	return err
}

func (s *Store) SetLocation(ctx context.Context, id int64, lat, lon float64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE salon SET latitude = $1, longitude = $2, updated = NOW() WHERE id = $3`,
		lat, lon, id,
	)
	return err
}

func (s *Store) SetGroupChat(ctx context.Context, id int64, chatID int64) error {
	_, err := s.db.Exec(ctx, `UPDATE salon SET group_chat_id = $1, updated = NOW() WHERE id = $2`, chatID, id)
	return err
}

func (s *Store) SetCurrency(ctx context.Context, id int64, currency string) error {
	_, err := s.db.Exec(ctx, `UPDATE salon SET currency = $1, updated = NOW() WHERE id = $2`, currency, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSalon(row pgx.Row) (*Salon, error) {
	sal, err := scanSalonRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sal, err
}

func scanSalonRow(row rowScanner) (*Salon, error) {
	var sal Salon
	err := row.Scan(
		&sal.ID, &sal.Name, &sal.Slug, &sal.Currency, &sal.Timezone,
		&sal.Latitude, &sal.Longitude, &sal.GroupChatID,
		&sal.FreePlan, &sal.OrderLimit, &sal.Created, &sal.Updated,
	)
	if err != nil {
		return nil, err
	}
	return &sal, nil
}
