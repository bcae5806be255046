package order

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"salonbot/internal/modules/cart"
)

// testPool connects to the database behind SALONBOT_TEST_DSN; tests are
// skipped when the variable is unset so the suite stays runnable offline.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("SALONBOT_TEST_DSN")
	if dsn == "" {
		t.Skip("SALONBOT_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Skipf("database not reachable: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// seedMembership creates a throwaway salon, user and membership and returns
// the membership and salon ids. Everything is removed on cleanup via the
// salon cascade.
func seedMembership(t *testing.T, pool *pgxpool.Pool) (membershipID, salonID int64) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	err := pool.QueryRow(ctx, `
		INSERT INTO salon (name, slug, currency, timezone)
		VALUES ($1, $2, 'RUB', 'UTC')
		RETURNING id`,
		fmt.Sprintf("test-salon-%d", suffix), fmt.Sprintf("test-%d", suffix),
	).Scan(&salonID)
	if err != nil {
		t.Fatalf("seed salon: %v", err)
	}

	tgUserID := suffix
	if _, err := pool.Exec(ctx, `INSERT INTO users (tg_user_id) VALUES ($1)`, tgUserID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO user_salon (tg_user_id, salon_id, first_name)
		VALUES ($1, $2, 'Тест')
		RETURNING id`,
		tgUserID, salonID,
	).Scan(&membershipID)
	if err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = pool.Exec(cleanupCtx, `DELETE FROM salon WHERE id = $1`, salonID)
		_, _ = pool.Exec(cleanupCtx, `DELETE FROM users WHERE tg_user_id = $1`, tgUserID)
	})
	return membershipID, salonID
}

func TestCreateAndGet(t *testing.T) {
	pool := testPool(t)
	membershipID, salonID := seedMembership(t, pool)
	store := NewStore(pool)
	ctx := context.Background()

	o, err := store.Create(ctx, CreateCommand{
		MembershipID:  membershipID,
		Name:          "Иван",
		Phone:         "+79990000000",
		Address:       "Тверская ул., 7",
		DeliveryType:  DeliveryCourier,
		PaymentMethod: PaymentCash,
		DeliveryCost:  4,
		Items: []cart.Item{
			{ProductID: 1, ProductName: "Маникюр", Quantity: 2, Price: decimal.NewFromInt(10)},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status != StatusNew {
		t.Errorf("status = %q", o.Status)
	}
	if o.Total.String() != "24" {
		t.Errorf("total = %s, want 24", o.Total)
	}

	got, err := store.Get(ctx, o.ID, salonID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Иван" || got.DeliveryType != DeliveryCourier {
		t.Errorf("round trip mismatch: %+v", got)
	}

	items, err := store.Items(ctx, o.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].ProductName != "Маникюр" || items[0].Quantity != 2 {
		t.Errorf("unexpected items: %+v", items)
	}

	// Foreign salon must not see the order.
	if _, err := store.Get(ctx, o.ID, salonID+1); err != ErrNotFound {
		t.Errorf("foreign salon get: err = %v, want ErrNotFound", err)
	}

	count, err := store.CountBySalon(ctx, salonID)
	if err != nil || count != 1 {
		t.Errorf("count = %d, err = %v", count, err)
	}
}

func TestCreateEmptyCart(t *testing.T) {
	pool := testPool(t)
	membershipID, _ := seedMembership(t, pool)
	store := NewStore(pool)

	_, err := store.Create(context.Background(), CreateCommand{MembershipID: membershipID})
	if err != ErrEmptyCart {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	pool := testPool(t)
	membershipID, salonID := seedMembership(t, pool)
	store := NewStore(pool)
	ctx := context.Background()

	o, err := store.Create(ctx, CreateCommand{
		MembershipID: membershipID,
		DeliveryType: DeliveryPickup,
		Items: []cart.Item{
			{ProductID: 1, ProductName: "Педикюр", Quantity: 1, Price: decimal.NewFromInt(5)},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	upd, err := store.UpdateStatus(ctx, o.ID, salonID, StatusInProgress)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Status != StatusInProgress {
		t.Errorf("status = %q", upd.Status)
	}

	// DONE is terminal; a further transition must be rejected.
	if _, err := store.UpdateStatus(ctx, o.ID, salonID, StatusDone); err != nil {
		t.Fatalf("update to done: %v", err)
	}
	if _, err := store.UpdateStatus(ctx, o.ID, salonID, StatusNew); err != ErrInvalidState {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}

	// Foreign salon cannot mutate the order.
	if _, err := store.UpdateStatus(ctx, o.ID, salonID+1, StatusCancelled); err != ErrNotFound {
		t.Errorf("foreign salon update: err = %v, want ErrNotFound", err)
	}
}

// Two admins pressing the same button at once must not both succeed: the
// update is a compare-and-swap on the current status, so exactly one writer
// wins and the rest get ErrInvalidState.
func TestUpdateStatusConcurrent(t *testing.T) {
	pool := testPool(t)
	membershipID, salonID := seedMembership(t, pool)
	store := NewStore(pool)
	ctx := context.Background()

	o, err := store.Create(ctx, CreateCommand{
		MembershipID: membershipID,
		DeliveryType: DeliveryPickup,
		Items: []cart.Item{
			{ProductID: 1, ProductName: "Стрижка", Quantity: 1, Price: decimal.NewFromInt(15)},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpdateStatus(ctx, o.ID, salonID, StatusInProgress)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch err {
		case nil:
			won++
		case ErrInvalidState:
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != writers-1 {
		t.Fatalf("won = %d, lost = %d, want 1/%d", won, lost, writers-1)
	}

	got, err := store.Get(ctx, o.ID, salonID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusInProgress {
		t.Errorf("status = %q, want %q", got.Status, StatusInProgress)
	}
}
