// README: Order summary rendering for the customer and the salon group chat.
package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"salonbot/internal/modules/cart"
	"salonbot/internal/types"
)

// SummaryView is the checkout state a summary is rendered from. DistanceKm is
// nil until a courier location was received; PickupTime is set only on the
// pickup path.
type SummaryView struct {
	DeliveryType string
	DeliveryCost int64
	Address      string
	DistanceKm   *float64
	Phone        string
	PickupTime   string
	Currency     string
}

// Summary renders the order into an HTML text block. The group rendition
// differs from the customer one: the address is broadcast only for courier
// orders and the phone is never included in the text (it travels as a native
// contact card instead). An empty cart renders an empty item section.
func Summary(items []cart.Item, v SummaryView, forGroup bool) string {
	cur := types.CurrencySymbol(v.Currency)

	var lines []string
	for _, it := range items {
		lines = append(lines, fmt.Sprintf(
			"- 🛒 %s — %d x %s%s = %s%s",
			it.ProductName, it.Quantity, it.Price.String(), cur, it.Subtotal().String(), cur,
		))
	}

	var delivery string
	switch v.DeliveryType {
	case DeliveryCourier:
		delivery = fmt.Sprintf("🚗 Курьер (+%d%s)", v.DeliveryCost, cur)
	case DeliveryPickup:
		delivery = fmt.Sprintf("🏃 Самовывоз (0%s)", cur)
	default:
		delivery = "❓ Не выбран"
	}

	var b strings.Builder
	b.WriteString("🆕 <b>Новый заказ!</b>\n\n")
	b.WriteString("🛍 <b>Состав:</b>\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n🚚 <b>Доставка:</b> " + delivery)

	showAddress := v.Address != "" &&
		(!forGroup || v.DeliveryType == DeliveryCourier)
	if showAddress {
		b.WriteString("\n📍 <b>Адрес:</b> " + v.Address)
	}

	if v.DistanceKm != nil && v.DeliveryType == DeliveryCourier {
		b.WriteString(fmt.Sprintf("\n📏 <b>Расстояние:</b> %.2f км", *v.DistanceKm))
	}

	if v.PickupTime != "" && v.DeliveryType == DeliveryPickup {
		b.WriteString("\n🕒 <b>Время готовности:</b> " + v.PickupTime)
	}

	if !forGroup && v.Phone != "" {
		b.WriteString("\n☎️ <b>Телефон:</b> " + v.Phone)
	}

	total := cart.Total(items).Add(decimal.NewFromInt(v.DeliveryCost))
	b.WriteString(fmt.Sprintf("\n\n💰 <b>Итого:</b> %s%s", total.StringFixed(2), cur))

	return b.String()
}
