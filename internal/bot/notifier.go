// README: Best-effort group-chat notification about a new order.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"salonbot/internal/modules/user"
)

// GroupNotifier posts the order summary into the salon group chat. The phone
// never appears in the text; it travels as a native contact card, and the
// summary carries a tg://user button instead. Any failure is logged and
// swallowed: a missing group must not break the customer's checkout.
type GroupNotifier struct {
	api *tgbotapi.BotAPI
	log *logrus.Entry
}

func NewGroupNotifier(api *tgbotapi.BotAPI, log *logrus.Entry) *GroupNotifier {
	return &GroupNotifier{api: api, log: log}
}

func (n *GroupNotifier) NotifyOrder(ctx context.Context, groupChatID int64, text string, customer *user.Membership) {
	msg := tgbotapi.NewMessage(groupChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if customer != nil {
		msg.ReplyMarkup = contactButtonKb(customer)
	}
	if _, err := n.api.Send(msg); err != nil {
		n.log.WithError(err).WithField("chat_id", groupChatID).Warn("group notification failed")
		return
	}

	if customer == nil || customer.Phone == "" {
		return
	}
	name := customer.DisplayName()
	if name == "" {
		name = "Клиент"
	}
	contact := tgbotapi.NewContact(groupChatID, customer.Phone, name)
	if _, err := n.api.Send(contact); err != nil {
		n.log.WithError(err).WithField("chat_id", groupChatID).Warn("sending contact card failed")
	}
}
