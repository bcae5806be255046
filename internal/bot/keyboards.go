// README: Telegram keyboard builders for the menu and every checkout step.
package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"salonbot/internal/modules/cart"
	"salonbot/internal/modules/catalog"
	"salonbot/internal/modules/checkout"
	"salonbot/internal/modules/order"
	"salonbot/internal/modules/salon"
	"salonbot/internal/modules/user"
	"salonbot/internal/types"
)

const backText = "⬅️ Назад"

func isBackButton(text string) bool {
	return text == backText
}

func deliveryKb() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚗 Курьер", "delivery_courier"),
			tgbotapi.NewInlineKeyboardButtonData("🏃 Самовывоз", "delivery_pickup"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Вернуться в корзину", "back_to_cart"),
		),
	)
}

func geoKb() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation("📍 Отправить геолокацию")),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(backText)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func confirmAddressKb() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да", "address_ok"),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Ввести вручную", "address_manual"),
		),
	)
}

func pickupTimeKb() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, slot := range checkout.PickupSlots {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("Через %d мин", slot), encodePickupTime(slot),
		))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func phoneKb() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact("📞 Отправить контакт")),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(backText)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func confirmOrderKb() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", "confirm_order"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(backText, "back_to_phone"),
		),
	)
}

// checkoutMarkup maps the machine's transport-neutral keyboard ids onto
// Telegram reply markup. A nil return means no markup at all.
func checkoutMarkup(kb checkout.Keyboard) interface{} {
	switch kb {
	case checkout.KbDelivery:
		return deliveryKb()
	case checkout.KbGeo:
		return geoKb()
	case checkout.KbConfirmAddress:
		return confirmAddressKb()
	case checkout.KbPickupTime:
		return pickupTimeKb()
	case checkout.KbPhone:
		return phoneKb()
	case checkout.KbConfirmOrder:
		return confirmOrderKb()
	case checkout.KbRemove:
		return tgbotapi.NewRemoveKeyboard(true)
	default:
		return nil
	}
}

func categoriesKb(categories []catalog.Category, cartCount int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Name, encodeCategory(c.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🛒 Корзина (%d)", cartCount), "cart"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func productsKb(products []catalog.Product, cur string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range products {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("➕ %s — %s%s", p.Name, p.Price.String(), cur),
				encodeAdd(p.ID),
			),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🛒 Корзина", "cart")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(backText, "categories")),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cartKb(items []cart.Item) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, it := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ "+it.ProductName, encodeReduce(it.ProductID)),
		))
	}
	if len(items) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Оформить заказ", "start_order"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(backText, "categories"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func salonsKb(salons []salon.Salon) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range salons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.Name, encodeSalon(s.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var statusLabels = map[order.Status]string{
	order.StatusNew:        "🆕 Новый",
	order.StatusInProgress: "🔧 В работе",
	order.StatusDone:       "✅ Выполнен",
	order.StatusCancelled:  "❌ Отменён",
}

func statusLabel(s order.Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func adminOrdersKb(orders []order.Order, cur string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, o := range orders {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("№%d • %s • %s%s", o.ID, statusLabel(o.Status), o.Total.StringFixed(2), cur),
				encodeOrder(o.ID),
			),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// orderStatusKb offers only the transitions the flow table allows from the
// order's current status.
func orderStatusKb(o *order.Order) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, to := range []order.Status{order.StatusInProgress, order.StatusDone, order.StatusCancelled} {
		if order.CanTransition(o.Status, to) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(statusLabel(to), encodeOrderStatus(o.ID, to)))
		}
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(backText, "orders"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func contactButtonKb(m *user.Membership) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("👤 Написать клиенту", fmt.Sprintf("tg://user?id=%d", m.TgUserID)),
		),
	)
}

func cartText(items []cart.Item, cur string) string {
	if len(items) == 0 {
		return "🛒 Ваша корзина пуста."
	}
	text := "🛒 <b>Ваша корзина:</b>\n\n"
	for _, it := range items {
		text += fmt.Sprintf("- %s — %d x %s%s = %s%s\n",
			it.ProductName, it.Quantity, it.Price.String(), cur, it.Subtotal().String(), cur)
	}
	text += fmt.Sprintf("\n💰 <b>Итого:</b> %s%s", cart.Total(items).StringFixed(2), cur)
	return text
}

func currencyOf(s *salon.Salon) string {
	return types.CurrencySymbol(s.Currency)
}
