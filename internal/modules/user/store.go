// README: User/membership store backed by PostgreSQL.
package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("membership not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Register creates the global user row if missing and binds it to the salon,
// updating profile fields on re-entry. The membership row is created lazily on
// the first interaction with a salon.
func (s *Store) Register(ctx context.Context, tgUserID, salonID int64, firstName, lastName string) (*Membership, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (tg_user_id) VALUES ($1)
		ON CONFLICT (tg_user_id) DO NOTHING`,
		tgUserID,
	)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO user_salon (tg_user_id, salon_id, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tg_user_id, salon_id) DO UPDATE
		SET first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), user_salon.first_name),
		    last_name  = COALESCE(NULLIF(EXCLUDED.last_name, ''), user_salon.last_name),
		    updated    = NOW()
		RETURNING `+membershipColumns,
		tgUserID, salonID, firstName, lastName,
	)
	return scanMembership(row)
}

const membershipColumns = `id, tg_user_id, salon_id,
       COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(phone, ''),
       is_salon_admin, updated`

func (s *Store) GetMembership(ctx context.Context, id int64) (*Membership, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+membershipColumns+` FROM user_salon WHERE id = $1`, id)
	return scanMembership(row)
}

func (s *Store) GetMembershipBySalon(ctx context.Context, tgUserID, salonID int64) (*Membership, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+membershipColumns+` FROM user_salon
		WHERE tg_user_id = $1 AND salon_id = $2`,
		tgUserID, salonID,
	)
	return scanMembership(row)
}

// Memberships lists every salon the user belongs to, most recently used first.
func (s *Store) Memberships(ctx context.Context, tgUserID int64) ([]Membership, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+membershipColumns+` FROM user_salon
		WHERE tg_user_id = $1
		ORDER BY updated DESC`,
		tgUserID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		m, err := scanMembershipRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// MRUMembership returns the membership for the salon the user most recently
// interacted with, or ErrNotFound when the user belongs to no salon.
func (s *Store) MRUMembership(ctx context.Context, tgUserID int64) (*Membership, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+membershipColumns+` FROM user_salon
		WHERE tg_user_id = $1
		ORDER BY updated DESC
		LIMIT 1`,
		tgUserID,
	)
	return scanMembership(row)
}

// Touch refreshes the MRU marker on re-entry into a salon's context.
func (s *Store) Touch(ctx context.Context, tgUserID, salonID int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE user_salon SET updated = NOW()
		WHERE tg_user_id = $1 AND salon_id = $2`,
		tgUserID, salonID,
	)
	return err
}

func (s *Store) SetPhone(ctx context.Context, membershipID int64, phone string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE user_salon SET phone = $1, updated = NOW() WHERE id = $2`,
		phone, membershipID,
	)
	return err
}

func (s *Store) SetLanguage(ctx context.Context, tgUserID int64, language string) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET language = $1 WHERE tg_user_id = $2`, language, tgUserID)
	return err
}

// GetUser returns the global identity row.
func (s *Store) GetUser(ctx context.Context, tgUserID int64) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT tg_user_id, is_super_admin, COALESCE(language, ''), created
		FROM users WHERE tg_user_id = $1`, tgUserID,
	).Scan(&u.TgUserID, &u.IsSuperAdmin, &u.Language, &u.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) IsSuperAdmin(ctx context.Context, tgUserID int64) (bool, error) {
	u, err := s.GetUser(ctx, tgUserID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsSuperAdmin, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row pgx.Row) (*Membership, error) {
	m, err := scanMembershipRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func scanMembershipRow(row rowScanner) (*Membership, error) {
	var m Membership
	err := row.Scan(
		&m.ID, &m.TgUserID, &m.SalonID,
		&m.FirstName, &m.LastName, &m.Phone,
		&m.IsSalonAdmin, &m.Updated,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
