// README: Wires Telegram updates into the checkout machine and sends its replies.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"salonbot/internal/modules/checkout"
)

// handleStartOrder enters checkout from the cart screen with a fresh
// session; the machine resolves the active membership itself.
func (b *Bot) handleStartOrder(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	b.answerCallback(cb, "")
	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)

	s := &checkout.Session{
		ChatID:   cb.Message.Chat.ID,
		TgUserID: cb.From.ID,
		TgName:   displayName(cb.From),
	}
	if mem, err := b.activeMembership(ctx, cb.From.ID); err == nil {
		s.MembershipID = mem.ID
		s.SalonID = mem.SalonID
	}

	r, err := b.machine.Start(ctx, s)
	if err != nil {
		b.logAndApologize(s.ChatID, err, "starting checkout")
		return
	}
	b.dispatchReply(ctx, s, r)
}

// handleCheckoutCallback routes the checkout button presses into the
// machine. The session must already exist; a press on a stale keyboard gets
// a restart prompt.
func (b *Bot) handleCheckoutCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cmd Command) {
	b.answerCallback(cb, "")
	chatID := cb.Message.Chat.ID

	s, err := b.sessions.Get(ctx, chatID, cb.From.ID)
	if err != nil {
		b.logAndApologize(chatID, err, "loading checkout session")
		return
	}
	if s == nil {
		if _, ok := cmd.(BackToCartCmd); ok {
			b.deleteMessage(chatID, cb.Message.MessageID)
			b.showCartFor(ctx, chatID, cb.From.ID)
			return
		}
		b.reply(chatID, "Оформление заказа прервано. Начните заново из корзины.")
		return
	}

	var r checkout.Reply
	switch c := cmd.(type) {
	case CourierCmd:
		r, err = b.machine.ChooseCourier(ctx, s)
	case PickupCmd:
		r, err = b.machine.ChoosePickup(ctx, s)
	case PickupTimeCmd:
		r, err = b.machine.PickupTime(ctx, s, c.Minutes)
	case AddressOKCmd:
		r, err = b.machine.AddressOK(ctx, s)
	case AddressManualCmd:
		r, err = b.machine.AddressManual(ctx, s)
	case ConfirmOrderCmd:
		r, err = b.machine.Confirm(ctx, s)
	case BackToPhoneCmd:
		r, err = b.machine.BackToPhone(ctx, s)
	case BackToCartCmd:
		b.deleteMessage(chatID, cb.Message.MessageID)
		r, err = b.machine.Abandon(ctx, s)
	default:
		return
	}
	if err != nil {
		b.logAndApologize(chatID, err, "checkout transition")
		return
	}
	b.dispatchReply(ctx, s, r)
}

// handleCheckoutMessage routes free-form messages (location, contact, text,
// the reply-keyboard back button) by the session's current state.
func (b *Bot) handleCheckoutMessage(ctx context.Context, msg *tgbotapi.Message) {
	s, err := b.sessions.Get(ctx, msg.Chat.ID, msg.From.ID)
	if err != nil {
		b.logAndApologize(msg.Chat.ID, err, "loading checkout session")
		return
	}
	if s == nil {
		return
	}

	var r checkout.Reply
	switch s.State {
	case checkout.StateEnteringAddress:
		switch {
		case msg.Location != nil:
			r, err = b.machine.Location(ctx, s, msg.Location.Latitude, msg.Location.Longitude)
		case isBackButton(msg.Text):
			b.deleteMessage(msg.Chat.ID, msg.MessageID)
			r, err = b.machine.BackToDelivery(ctx, s)
		default:
			r, err = b.machine.AddressText(ctx, s, msg.Text)
		}
	case checkout.StateEnteringApartment:
		r, err = b.machine.Apartment(ctx, s, msg.Text)
	case checkout.StateEnteringPhone:
		switch {
		case isBackButton(msg.Text):
			b.deleteMessage(msg.Chat.ID, msg.MessageID)
			r, err = b.machine.PhoneBack(ctx, s)
		case msg.Contact != nil:
			r, err = b.machine.Phone(ctx, s, msg.Contact.PhoneNumber)
		default:
			r, err = b.machine.Phone(ctx, s, msg.Text)
		}
	default:
		return
	}
	if err != nil {
		b.logAndApologize(msg.Chat.ID, err, "checkout transition")
		return
	}
	b.dispatchReply(ctx, s, r)
}

// dispatchReply executes the machine's side-effect plan: deletes, sends,
// records tagged message ids, then persists or clears the session.
func (b *Bot) dispatchReply(ctx context.Context, s *checkout.Session, r checkout.Reply) {
	for _, id := range r.Delete {
		b.deleteMessage(s.ChatID, id)
	}
	for _, m := range r.Msgs {
		msg := tgbotapi.NewMessage(s.ChatID, m.Text)
		if m.HTML {
			msg.ParseMode = tgbotapi.ModeHTML
		}
		msg.DisableWebPagePreview = m.NoPreview
		if markup := checkoutMarkup(m.Keyboard); markup != nil {
			msg.ReplyMarkup = markup
		}
		sent, err := b.api.Send(msg)
		if err != nil {
			b.log.WithError(err).Warn("sending checkout message failed")
			continue
		}
		if m.Tag != "" {
			s.RecordMsg(m.Tag, sent.MessageID)
		}
	}

	if r.End {
		if err := b.sessions.Clear(ctx, s.ChatID, s.TgUserID); err != nil {
			b.log.WithError(err).Warn("clearing checkout session failed")
		}
	} else if err := b.sessions.Save(ctx, s); err != nil {
		b.log.WithError(err).Error("saving checkout session failed")
	}

	if r.ShowCart {
		b.showCartFor(ctx, s.ChatID, s.TgUserID)
	}
}

func (b *Bot) showCartFor(ctx context.Context, chatID, tgUserID int64) {
	mem, err := b.activeMembership(ctx, tgUserID)
	if err != nil {
		b.replyNoSalon(chatID, err)
		return
	}
	b.renderCart(ctx, chatID, mem)
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
