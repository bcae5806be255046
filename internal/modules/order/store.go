// README: Order store backed by PostgreSQL; creation is one transaction.
package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"salonbot/internal/modules/cart"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidState = errors.New("invalid status transition")
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// CreateCommand carries the checkout result into persistence. Items is the
// cart snapshot the total is computed from; the live cart is not re-queried
// here.
type CreateCommand struct {
	MembershipID  int64
	Name          string
	Phone         string
	Email         string
	Address       string
	DeliveryType  string
	PaymentMethod string
	Comment       string
	DeliveryCost  int64
	Items         []cart.Item
}

// Create persists the order row and one item row per cart line in a single
// transaction; a partial write (order without lines) cannot be observed. The
// total is computed server-side from the snapshot: Σ price×qty plus the
// delivery cost.
func (s *Store) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if len(cmd.Items) == 0 {
		return nil, ErrEmptyCart
	}

	total := cart.Total(cmd.Items).Add(decimal.NewFromInt(cmd.DeliveryCost))

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := &Order{
		MembershipID:  cmd.MembershipID,
		Name:          cmd.Name,
		Phone:         cmd.Phone,
		Email:         cmd.Email,
		Address:       cmd.Address,
		DeliveryType:  cmd.DeliveryType,
		PaymentMethod: cmd.PaymentMethod,
		Comment:       cmd.Comment,
		Status:        StatusNew,
		Total:         total,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_salon_id, name, phone, email, address,
		                    delivery_type, payment_method, comment, status, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created`,
		cmd.MembershipID, cmd.Name, cmd.Phone, cmd.Email, cmd.Address,
		cmd.DeliveryType, cmd.PaymentMethod, cmd.Comment, string(StatusNew), total,
	).Scan(&o.ID, &o.Created)
	if err != nil {
		return nil, err
	}

	for _, it := range cmd.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_item (order_id, product_id, product_name, quantity, price)
			VALUES ($1, $2, $3, $4, $5)`,
			o.ID, it.ProductID, it.ProductName, it.Quantity, it.Price,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

const orderColumns = `o.id, o.user_salon_id, COALESCE(o.name, ''), COALESCE(o.phone, ''),
       COALESCE(o.email, ''), COALESCE(o.address, ''), COALESCE(o.delivery_type, ''),
       COALESCE(o.payment_method, ''), COALESCE(o.comment, ''), o.status, o.total, o.created`

// Get returns the order only when it belongs to the given salon; a guessed
// order id from another salon yields ErrNotFound.
func (s *Store) Get(ctx context.Context, orderID, salonID int64) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN user_salon us ON us.id = o.user_salon_id
		WHERE o.id = $1 AND us.salon_id = $2`,
		orderID, salonID,
	)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *Store) Items(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_item WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) ListBySalon(ctx context.Context, salonID int64) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN user_salon us ON us.id = o.user_salon_id
		WHERE us.salon_id = $1
		ORDER BY o.created DESC`,
		salonID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// CountBySalon counts cumulative orders for the free-plan limit check.
func (s *Store) CountBySalon(ctx context.Context, salonID int64) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders o
		JOIN user_salon us ON us.id = o.user_salon_id
		WHERE us.salon_id = $1`,
		salonID,
	).Scan(&count)
	return count, err
}

// UpdateStatus advances the order through the status flow. It is scoped by
// salon so an admin of salon A can never mutate salon B's order, and the
// transition table is enforced against the current status.
func (s *Store) UpdateStatus(ctx context.Context, orderID, salonID int64, to Status) (*Order, error) {
	o, err := s.Get(ctx, orderID, salonID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, ErrInvalidState
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE orders SET status = $1
		WHERE id = $2 AND status = $3`,
		string(to), orderID, string(o.Status),
	)
	if err != nil {
		return nil, err
	}
	// The status predicate makes the update a compare-and-swap; zero affected
	// rows means a concurrent update won the race.
	if tag.RowsAffected() == 0 {
		return nil, ErrInvalidState
	}
	o.Status = to
	return o, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.MembershipID, &o.Name, &o.Phone, &o.Email, &o.Address,
		&o.DeliveryType, &o.PaymentMethod, &o.Comment, &o.Status, &o.Total, &o.Created,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
