// README: Salon admin handlers; order management and salon settings.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"salonbot/internal/modules/order"
	"salonbot/internal/modules/salon"
	"salonbot/internal/modules/user"
)

// adminMembership resolves the caller's active membership and checks salon
// admin rights (super admins pass everywhere).
func (b *Bot) adminMembership(ctx context.Context, tgUserID int64) (*user.Membership, error) {
	mem, err := b.activeMembership(ctx, tgUserID)
	if err != nil {
		return nil, err
	}
	if mem.IsSalonAdmin {
		return mem, nil
	}
	super, err := b.users.IsSuperAdmin(ctx, tgUserID)
	if err != nil {
		return nil, err
	}
	if !super {
		return nil, user.ErrNotFound
	}
	return mem, nil
}

func (b *Bot) handleAdminOrders(ctx context.Context, msg *tgbotapi.Message) {
	mem, err := b.adminMembership(ctx, msg.From.ID)
	if err != nil {
		b.replyNoAccess(msg.Chat.ID, err)
		return
	}
	b.renderOrderList(ctx, msg.Chat.ID, mem.SalonID)
}

func (b *Bot) handleAdminOrdersCb(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	b.answerCallback(cb, "")
	mem, err := b.adminMembership(ctx, cb.From.ID)
	if err != nil {
		b.replyNoAccess(cb.Message.Chat.ID, err)
		return
	}
	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
	b.renderOrderList(ctx, cb.Message.Chat.ID, mem.SalonID)
}

func (b *Bot) renderOrderList(ctx context.Context, chatID, salonID int64) {
	sal, err := b.salons.GetByID(ctx, salonID)
	if err != nil {
		b.logAndApologize(chatID, err, "loading salon")
		return
	}
	orders, err := b.orders.ListBySalon(ctx, salonID)
	if err != nil {
		b.logAndApologize(chatID, err, "loading orders")
		return
	}
	if len(orders) == 0 {
		b.reply(chatID, "Заказов пока нет.")
		return
	}
	b.replyHTML(chatID, "📦 <b>Заказы салона:</b>", adminOrdersKb(orders, currencyOf(sal)))
}

func (b *Bot) handleAdminOrder(ctx context.Context, cb *tgbotapi.CallbackQuery, orderID int64) {
	b.answerCallback(cb, "")
	mem, err := b.adminMembership(ctx, cb.From.ID)
	if err != nil {
		b.replyNoAccess(cb.Message.Chat.ID, err)
		return
	}
	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
	b.renderOrderDetail(ctx, cb.Message.Chat.ID, orderID, mem.SalonID)
}

func (b *Bot) renderOrderDetail(ctx context.Context, chatID, orderID, salonID int64) {
	o, err := b.orders.Get(ctx, orderID, salonID)
	if errors.Is(err, order.ErrNotFound) {
		b.reply(chatID, "Заказ не найден.")
		return
	}
	if err != nil {
		b.logAndApologize(chatID, err, "loading order")
		return
	}
	items, err := b.orders.Items(ctx, o.ID)
	if err != nil {
		b.logAndApologize(chatID, err, "loading order items")
		return
	}
	sal, err := b.salons.GetByID(ctx, salonID)
	if err != nil {
		b.logAndApologize(chatID, err, "loading salon")
		return
	}
	cur := currencyOf(sal)

	var bld strings.Builder
	fmt.Fprintf(&bld, "📦 <b>Заказ №%d</b> • %s\n", o.ID, statusLabel(o.Status))
	fmt.Fprintf(&bld, "🕒 %s\n\n", o.Created.Format("02.01.2006 15:04"))
	for _, it := range items {
		fmt.Fprintf(&bld, "- %s — %d x %s%s\n", it.ProductName, it.Quantity, it.Price.String(), cur)
	}
	if o.Address != "" {
		fmt.Fprintf(&bld, "\n📍 %s", o.Address)
	}
	if o.Phone != "" {
		fmt.Fprintf(&bld, "\n☎️ %s", o.Phone)
	}
	if o.Name != "" {
		fmt.Fprintf(&bld, "\n👤 %s", o.Name)
	}
	fmt.Fprintf(&bld, "\n\n💰 <b>Итого:</b> %s%s", o.Total.StringFixed(2), cur)

	b.replyHTML(chatID, bld.String(), orderStatusKb(o))
}

func (b *Bot) handleAdminOrderStatus(ctx context.Context, cb *tgbotapi.CallbackQuery, cmd AdminOrderStatusCmd) {
	mem, err := b.adminMembership(ctx, cb.From.ID)
	if err != nil {
		b.answerCallback(cb, "Недостаточно прав")
		return
	}
	_, err = b.orders.UpdateStatus(ctx, cmd.OrderID, mem.SalonID, cmd.Status)
	switch {
	case errors.Is(err, order.ErrInvalidState):
		b.answerCallback(cb, "Такой переход статуса невозможен")
		return
	case errors.Is(err, order.ErrNotFound):
		b.answerCallback(cb, "Заказ не найден")
		return
	case err != nil:
		b.log.WithError(err).Error("updating order status failed")
		b.answerCallback(cb, "Не получилось, попробуйте ещё раз")
		return
	}
	b.answerCallback(cb, "Статус обновлён")
	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
	b.renderOrderDetail(ctx, cb.Message.Chat.ID, cmd.OrderID, mem.SalonID)
}

// handleNewSalon creates a salon: /newsalon Name | slug | RUB | Europe/Moscow.
// Super admins only; duplicate name or slug is refused explicitly.
func (b *Bot) handleNewSalon(ctx context.Context, msg *tgbotapi.Message) {
	super, err := b.users.IsSuperAdmin(ctx, msg.From.ID)
	if err != nil {
		b.logAndApologize(msg.Chat.ID, err, "checking super admin")
		return
	}
	if !super {
		b.reply(msg.Chat.ID, "Эта команда доступна только администратору сервиса.")
		return
	}

	parts := strings.Split(msg.CommandArguments(), "|")
	if len(parts) != 4 {
		b.reply(msg.Chat.ID, "Формат: /newsalon Название | slug | RUB | Europe/Moscow")
		return
	}
	name := strings.TrimSpace(parts[0])
	slug := strings.TrimSpace(parts[1])
	currency := strings.ToUpper(strings.TrimSpace(parts[2]))
	timezone := strings.TrimSpace(parts[3])
	if name == "" || slug == "" {
		b.reply(msg.Chat.ID, "Название и slug не могут быть пустыми.")
		return
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		b.reply(msg.Chat.ID, "Неизвестный часовой пояс: "+timezone)
		return
	}

	sal, err := b.salons.Create(ctx, name, slug, currency, timezone)
	if errors.Is(err, salon.ErrExists) {
		b.reply(msg.Chat.ID, "Салон с таким названием или slug уже существует.")
		return
	}
	if err != nil {
		b.logAndApologize(msg.Chat.ID, err, "creating salon")
		return
	}
	if _, err := b.users.Register(ctx, msg.From.ID, sal.ID, msg.From.FirstName, msg.From.LastName); err != nil {
		b.log.WithError(err).Warn("registering creator membership failed")
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Салон «%s» создан. Ссылка для клиентов: t.me/%s?start=%s",
		sal.Name, b.api.Self.UserName, sal.Slug))
}

func (b *Bot) handleSetTimezone(ctx context.Context, msg *tgbotapi.Message) {
	mem, err := b.adminMembership(ctx, msg.From.ID)
	if err != nil {
		b.replyNoAccess(msg.Chat.ID, err)
		return
	}
	tz := strings.TrimSpace(msg.CommandArguments())
	if _, err := time.LoadLocation(tz); err != nil {
		b.reply(msg.Chat.ID, "Формат: /settimezone Europe/Moscow")
		return
	}
	if err := b.salons.SetTimezone(ctx, mem.SalonID, tz); err != nil {
		b.logAndApologize(msg.Chat.ID, err, "setting timezone")
		return
	}
	b.reply(msg.Chat.ID, "Часовой пояс салона обновлён: "+tz)
}

func (b *Bot) handleSetLocation(ctx context.Context, msg *tgbotapi.Message) {
	mem, err := b.adminMembership(ctx, msg.From.ID)
	if err != nil {
		b.replyNoAccess(msg.Chat.ID, err)
		return
	}

	var lat, lon float64
	if msg.Location != nil {
		lat, lon = msg.Location.Latitude, msg.Location.Longitude
	} else {
		fields := strings.Fields(msg.CommandArguments())
		if len(fields) != 2 {
			b.reply(msg.Chat.ID, "Формат: /setlocation 55.7558 37.6176")
			return
		}
		var err1, err2 error
		lat, err1 = strconv.ParseFloat(fields[0], 64)
		lon, err2 = strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			b.reply(msg.Chat.ID, "Координаты должны быть числами.")
			return
		}
	}
	if err := b.salons.SetLocation(ctx, mem.SalonID, lat, lon); err != nil {
		b.logAndApologize(msg.Chat.ID, err, "setting location")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Координаты салона обновлены: %.5f, %.5f", lat, lon))
}

func (b *Bot) handleSetCurrency(ctx context.Context, msg *tgbotapi.Message) {
	mem, err := b.adminMembership(ctx, msg.From.ID)
	if err != nil {
		b.replyNoAccess(msg.Chat.ID, err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(msg.CommandArguments()))
	if len(code) != 3 {
		b.reply(msg.Chat.ID, "Формат: /setcurrency RUB")
		return
	}
	if err := b.salons.SetCurrency(ctx, mem.SalonID, code); err != nil {
		b.logAndApologize(msg.Chat.ID, err, "setting currency")
		return
	}
	b.reply(msg.Chat.ID, "Валюта салона обновлена: "+code)
}

// handleBindGroup runs inside the salon group chat and binds it as the
// notification target for the caller's active salon.
func (b *Bot) handleBindGroup(ctx context.Context, msg *tgbotapi.Message) {
	mem, err := b.adminMembership(ctx, msg.From.ID)
	if err != nil {
		b.replyNoAccess(msg.Chat.ID, err)
		return
	}
	if err := b.salons.SetGroupChat(ctx, mem.SalonID, msg.Chat.ID); err != nil {
		b.logAndApologize(msg.Chat.ID, err, "binding group chat")
		return
	}
	b.reply(msg.Chat.ID, "Готово! Новые заказы будут приходить в этот чат.")
}

func (b *Bot) replyNoAccess(chatID int64, err error) {
	if isNotFound(err) {
		b.reply(chatID, "Эта команда доступна только администратору салона.")
		return
	}
	b.logAndApologize(chatID, err, "checking access")
}
