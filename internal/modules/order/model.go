// README: Order aggregate, item snapshots and the status flow.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusCancelled  Status = "CANCELLED"
)

// Delivery fulfillment modes.
const (
	DeliveryCourier = "delivery_courier"
	DeliveryPickup  = "delivery_pickup"
)

// Payment methods derived from the delivery type when the customer did not
// choose one explicitly.
const (
	PaymentCash   = "cash"
	PaymentPickup = "pickup"
)

type Order struct {
	ID            int64
	MembershipID  int64
	Name          string
	Phone         string
	Email         string
	Address       string
	DeliveryType  string
	PaymentMethod string
	Comment       string
	Status        Status
	Total         decimal.Decimal
	Created       time.Time
}

// Item is the snapshot of one cart line at order creation time. It is
// decoupled from the live product row: later price or name edits never alter
// historical orders.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// allowedTransitions represents the order status flow as code. Cancellation
// is reachable until the order is done.
var allowedTransitions = map[Status][]Status{
	StatusNew:        {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusDone, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DefaultPaymentMethod maps the delivery type to a payment method for
// installations that skip the payment step.
func DefaultPaymentMethod(deliveryType string) string {
	switch deliveryType {
	case DeliveryPickup:
		return PaymentPickup
	case DeliveryCourier:
		return PaymentCash
	default:
		return ""
	}
}
