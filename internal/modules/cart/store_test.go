package cart

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

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

type fixture struct {
	membershipID int64
	productID    int64
	// product of another salon, for the cross-salon guard
	foreignProductID int64
}

func seed(t *testing.T, pool *pgxpool.Pool) fixture {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	newSalon := func(n int) int64 {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO salon (name, slug, currency, timezone)
			VALUES ($1, $2, 'RUB', 'UTC')
			RETURNING id`,
			fmt.Sprintf("cart-salon-%d-%d", n, suffix), fmt.Sprintf("cart-%d-%d", n, suffix),
		).Scan(&id)
		if err != nil {
			t.Fatalf("seed salon: %v", err)
		}
		t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DELETE FROM salon WHERE id = $1`, id) })
		return id
	}
	newProduct := func(salonID int64, name string) int64 {
		var categoryID, id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO category (salon_id, name) VALUES ($1, 'Услуги') RETURNING id`,
			salonID,
		).Scan(&categoryID)
		if err != nil {
			t.Fatalf("seed category: %v", err)
		}
		err = pool.QueryRow(ctx, `
			INSERT INTO product (salon_id, category_id, name, price)
			VALUES ($1, $2, $3, 10.00)
			RETURNING id`,
			salonID, categoryID, name,
		).Scan(&id)
		if err != nil {
			t.Fatalf("seed product: %v", err)
		}
		return id
	}

	salonID := newSalon(1)
	foreignSalonID := newSalon(2)

	tgUserID := suffix
	if _, err := pool.Exec(ctx, `INSERT INTO users (tg_user_id) VALUES ($1)`, tgUserID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE tg_user_id = $1`, tgUserID) })

	var membershipID int64
	err := pool.QueryRow(ctx, `
		INSERT INTO user_salon (tg_user_id, salon_id) VALUES ($1, $2) RETURNING id`,
		tgUserID, salonID,
	).Scan(&membershipID)
	if err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	return fixture{
		membershipID:     membershipID,
		productID:        newProduct(salonID, "Маникюр"),
		foreignProductID: newProduct(foreignSalonID, "Чужой"),
	}
}

func TestAddReduceClear(t *testing.T) {
	pool := testPool(t)
	f := seed(t, pool)
	store := NewStore(pool)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Add(ctx, f.membershipID, f.productID); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	items, err := store.List(ctx, f.membershipID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].Subtotal().String() != "30" {
		t.Errorf("subtotal = %s", items[0].Subtotal())
	}

	count, err := store.Count(ctx, f.membershipID)
	if err != nil || count != 3 {
		t.Errorf("count = %d, err = %v", count, err)
	}

	still, err := store.Reduce(ctx, f.membershipID, f.productID)
	if err != nil || !still {
		t.Fatalf("reduce: still = %v, err = %v", still, err)
	}
	still, _ = store.Reduce(ctx, f.membershipID, f.productID)
	still, err = store.Reduce(ctx, f.membershipID, f.productID)
	if err != nil || still {
		t.Fatalf("last reduce should delete the line: still = %v, err = %v", still, err)
	}

	// Reducing a missing line is a no-op.
	if still, err := store.Reduce(ctx, f.membershipID, f.productID); err != nil || still {
		t.Errorf("reduce on empty: still = %v, err = %v", still, err)
	}

	if err := store.Add(ctx, f.membershipID, f.productID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Clear(ctx, f.membershipID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	items, _ = store.List(ctx, f.membershipID)
	if len(items) != 0 {
		t.Errorf("cart not empty after clear: %+v", items)
	}
}

func TestAddCrossSalonIsNoOp(t *testing.T) {
	pool := testPool(t)
	f := seed(t, pool)
	store := NewStore(pool)
	ctx := context.Background()

	if err := store.Add(ctx, f.membershipID, f.foreignProductID); err != nil {
		t.Fatalf("add: %v", err)
	}
	items, err := store.List(ctx, f.membershipID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("foreign product must not land in the cart: %+v", items)
	}
}
