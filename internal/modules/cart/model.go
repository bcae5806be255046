// README: Cart line model. One line per (membership, product), quantity >= 1.
package cart

import "github.com/shopspring/decimal"

// Item is a cart line joined with the product it references. Name and Price
// are the live product values; the order store snapshots them at creation
// time so later product edits never touch order history.
type Item struct {
	ID           int64
	MembershipID int64
	ProductID    int64
	Quantity     int
	ProductName  string
	Price        decimal.Decimal
}

// Subtotal is price × quantity for this line.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums line subtotals over a cart snapshot.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
