// README: Telegram transport; long-poll update loop and routing.
package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"salonbot/internal/modules/cart"
	"salonbot/internal/modules/catalog"
	"salonbot/internal/modules/checkout"
	"salonbot/internal/modules/order"
	"salonbot/internal/modules/salon"
	"salonbot/internal/modules/user"
)

type Deps struct {
	API      *tgbotapi.BotAPI
	Machine  *checkout.Machine
	Sessions checkout.SessionStore
	Salons   *salon.Store
	Users    *user.Store
	Catalog  *catalog.Store
	Carts    *cart.Store
	Orders   *order.Store
	Log      *logrus.Entry
}

type Bot struct {
	api      *tgbotapi.BotAPI
	machine  *checkout.Machine
	sessions checkout.SessionStore
	salons   *salon.Store
	users    *user.Store
	catalog  *catalog.Store
	carts    *cart.Store
	orders   *order.Store
	log      *logrus.Entry
}

func New(d Deps) *Bot {
	return &Bot{
		api:      d.API,
		machine:  d.Machine,
		sessions: d.Sessions,
		salons:   d.Salons,
		users:    d.Users,
		catalog:  d.Catalog,
		carts:    d.Carts,
		orders:   d.Orders,
		log:      d.Log,
	}
}

// Run polls Telegram until the context is cancelled. Updates for one chat
// arrive serially, so handlers never contend for the same session key.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	b.log.WithField("username", b.api.Self.UserName).Info("bot started")

	for update := range updates {
		b.route(ctx, update)
	}
	return ctx.Err()
}

func (b *Bot) route(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
		if msg.IsCommand() && msg.Command() == "bindgroup" {
			b.handleBindGroup(ctx, msg)
		}
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(ctx, msg)
		case "orders":
			b.handleAdminOrders(ctx, msg)
		case "newsalon":
			b.handleNewSalon(ctx, msg)
		case "settimezone":
			b.handleSetTimezone(ctx, msg)
		case "setlocation":
			b.handleSetLocation(ctx, msg)
		case "setcurrency":
			b.handleSetCurrency(ctx, msg)
		default:
			b.reply(msg.Chat.ID, "Неизвестная команда. Попробуйте /start.")
		}
		return
	}

	b.handleCheckoutMessage(ctx, msg)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	cmd, err := DecodeCommand(cb.Data)
	if err != nil {
		b.log.WithField("data", cb.Data).Warn("unknown callback data")
		b.answerCallback(cb, "")
		return
	}

	switch c := cmd.(type) {
	case StartOrderCmd:
		b.handleStartOrder(ctx, cb)
	case CourierCmd, PickupCmd, PickupTimeCmd, AddressOKCmd, AddressManualCmd,
		ConfirmOrderCmd, BackToPhoneCmd, BackToCartCmd:
		b.handleCheckoutCallback(ctx, cb, cmd)
	case ShowCategoriesCmd:
		b.handleShowCategories(ctx, cb)
	case ShowCategoryCmd:
		b.handleShowCategory(ctx, cb, c.CategoryID)
	case AddToCartCmd:
		b.handleAddToCart(ctx, cb, c.ProductID)
	case ReduceCartCmd:
		b.handleReduceCart(ctx, cb, c.ProductID)
	case ShowCartCmd:
		b.handleShowCart(ctx, cb)
	case ChooseSalonCmd:
		b.handleChooseSalon(ctx, cb, c.SalonID)
	case AdminOrdersCmd:
		b.handleAdminOrdersCb(ctx, cb)
	case AdminOrderCmd:
		b.handleAdminOrder(ctx, cb, c.OrderID)
	case AdminOrderStatusCmd:
		b.handleAdminOrderStatus(ctx, cb, c)
	}
}

// activeMembership resolves the salon the user most recently interacted
// with.
func (b *Bot) activeMembership(ctx context.Context, tgUserID int64) (*user.Membership, error) {
	return b.users.MRUMembership(ctx, tgUserID)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.WithError(err).Warn("sending message failed")
	}
}

func (b *Bot) replyHTML(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.WithError(err).Warn("sending message failed")
	}
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.WithError(err).Warn("answering callback failed")
	}
}

func (b *Bot) deleteMessage(chatID int64, msgID int) {
	// best effort: the message may already be gone
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, msgID)); err != nil {
		b.log.WithError(err).Debug("deleting message failed")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, user.ErrNotFound) || errors.Is(err, salon.ErrNotFound) ||
		errors.Is(err, catalog.ErrNotFound) || errors.Is(err, order.ErrNotFound)
}
