// README: Catalog entities: categories, products and banner pages, all salon-scoped.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID      int64
	SalonID int64
	Name    string
}

type Product struct {
	ID          int64
	SalonID     int64
	CategoryID  int64
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Created     time.Time
}

// Banner is an informational page (main menu, about, payment, shipping) with
// an optional image; the name is unique per salon.
type Banner struct {
	ID          int64
	SalonID     int64
	Name        string
	Image       string
	Description string
}
