// README: Menu, catalog and cart handlers for private chats.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"salonbot/internal/modules/salon"
	"salonbot/internal/modules/user"
)

// handleStart registers the user and shows the catalog. A deep-link payload
// ("/start <slug>") binds the user to that salon; without one the most
// recently used membership is reused.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	slug := strings.TrimSpace(msg.CommandArguments())
	if slug != "" {
		sal, err := b.salons.GetBySlug(ctx, slug)
		if errors.Is(err, salon.ErrNotFound) {
			b.reply(msg.Chat.ID, "Салон не найден. Проверьте ссылку.")
			return
		}
		if err != nil {
			b.logAndApologize(msg.Chat.ID, err, "loading salon by slug")
			return
		}
		mem, err := b.users.Register(ctx, msg.From.ID, sal.ID, msg.From.FirstName, msg.From.LastName)
		if err != nil {
			b.logAndApologize(msg.Chat.ID, err, "registering membership")
			return
		}
		if msg.From.LanguageCode != "" {
			if err := b.users.SetLanguage(ctx, msg.From.ID, msg.From.LanguageCode); err != nil {
				b.log.WithError(err).Warn("saving language failed")
			}
		}
		b.reply(msg.Chat.ID, fmt.Sprintf("Добро пожаловать в %s!", sal.Name))
		b.showCategories(ctx, msg.Chat.ID, mem, sal)
		return
	}

	memberships, err := b.users.Memberships(ctx, msg.From.ID)
	if err != nil {
		b.logAndApologize(msg.Chat.ID, err, "loading memberships")
		return
	}
	switch len(memberships) {
	case 0:
		b.reply(msg.Chat.ID, "Привет! Чтобы открыть меню, перейдите по ссылке салона.")
	case 1:
		b.openSalon(ctx, msg.Chat.ID, &memberships[0])
	default:
		var salons []salon.Salon
		for _, m := range memberships {
			sal, err := b.salons.GetByID(ctx, m.SalonID)
			if err != nil {
				continue
			}
			salons = append(salons, *sal)
		}
		b.replyHTML(msg.Chat.ID, "Выберите салон:", salonsKb(salons))
	}
}

func (b *Bot) openSalon(ctx context.Context, chatID int64, mem *user.Membership) {
	sal, err := b.salons.GetByID(ctx, mem.SalonID)
	if err != nil {
		b.logAndApologize(chatID, err, "loading salon")
		return
	}
	if err := b.users.Touch(ctx, mem.TgUserID, mem.SalonID); err != nil {
		b.log.WithError(err).Warn("touching membership failed")
	}
	b.showCategories(ctx, chatID, mem, sal)
}

func (b *Bot) showCategories(ctx context.Context, chatID int64, mem *user.Membership, sal *salon.Salon) {
	categories, err := b.catalog.Categories(ctx, sal.ID)
	if err != nil {
		b.logAndApologize(chatID, err, "loading categories")
		return
	}
	count, err := b.carts.Count(ctx, mem.ID)
	if err != nil {
		b.log.WithError(err).Warn("counting cart failed")
	}

	text := fmt.Sprintf("<b>%s</b>\n\nВыберите категорию:", sal.Name)
	if banner, err := b.catalog.GetBanner(ctx, sal.ID, "main"); err == nil && banner.Description != "" {
		text = banner.Description + "\n\nВыберите категорию:"
	}
	b.replyHTML(chatID, text, categoriesKb(categories, count))
}

func (b *Bot) handleShowCategories(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	b.answerCallback(cb, "")
	mem, err := b.activeMembership(ctx, cb.From.ID)
	if err != nil {
		b.replyNoSalon(cb.Message.Chat.ID, err)
		return
	}
	sal, err := b.salons.GetByID(ctx, mem.SalonID)
	if err != nil {
		b.logAndApologize(cb.Message.Chat.ID, err, "loading salon")
		return
	}
	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
	b.showCategories(ctx, cb.Message.Chat.ID, mem, sal)
}

func (b *Bot) handleShowCategory(ctx context.Context, cb *tgbotapi.CallbackQuery, categoryID int64) {
	b.answerCallback(cb, "")
	mem, err := b.activeMembership(ctx, cb.From.ID)
	if err != nil {
		b.replyNoSalon(cb.Message.Chat.ID, err)
		return
	}
	sal, err := b.salons.GetByID(ctx, mem.SalonID)
	if err != nil {
		b.logAndApologize(cb.Message.Chat.ID, err, "loading salon")
		return
	}
	products, err := b.catalog.Products(ctx, sal.ID, categoryID)
	if err != nil {
		b.logAndApologize(cb.Message.Chat.ID, err, "loading products")
		return
	}
	if len(products) == 0 {
		b.answerCallback(cb, "В этой категории пока пусто")
		return
	}

	text := "Нажмите на товар, чтобы добавить его в корзину:"
	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
	b.replyHTML(cb.Message.Chat.ID, text, productsKb(products, currencyOf(sal)))
}

// handleAddToCart relies on the store's cross-salon check: adding a foreign
// product is a silent no-op.
func (b *Bot) handleAddToCart(ctx context.Context, cb *tgbotapi.CallbackQuery, productID int64) {
	mem, err := b.activeMembership(ctx, cb.From.ID)
	if err != nil {
		b.answerCallback(cb, "Сначала выберите салон")
		return
	}
	if err := b.carts.Add(ctx, mem.ID, productID); err != nil {
		b.log.WithError(err).Error("adding to cart failed")
		b.answerCallback(cb, "Не получилось, попробуйте ещё раз")
		return
	}
	b.answerCallback(cb, "Добавлено в корзину ✅")
}

func (b *Bot) handleReduceCart(ctx context.Context, cb *tgbotapi.CallbackQuery, productID int64) {
	mem, err := b.activeMembership(ctx, cb.From.ID)
	if err != nil {
		b.answerCallback(cb, "Сначала выберите салон")
		return
	}
	still, err := b.carts.Reduce(ctx, mem.ID, productID)
	if err != nil {
		b.log.WithError(err).Error("reducing cart failed")
		b.answerCallback(cb, "Не получилось, попробуйте ещё раз")
		return
	}
	if still {
		b.answerCallback(cb, "Убрали одну штуку")
	} else {
		b.answerCallback(cb, "Товар удалён из корзины")
	}
	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
	b.renderCart(ctx, cb.Message.Chat.ID, mem)
}

func (b *Bot) handleShowCart(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	b.answerCallback(cb, "")
	mem, err := b.activeMembership(ctx, cb.From.ID)
	if err != nil {
		b.replyNoSalon(cb.Message.Chat.ID, err)
		return
	}
	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
	b.renderCart(ctx, cb.Message.Chat.ID, mem)
}

func (b *Bot) renderCart(ctx context.Context, chatID int64, mem *user.Membership) {
	items, err := b.carts.List(ctx, mem.ID)
	if err != nil {
		b.logAndApologize(chatID, err, "loading cart")
		return
	}
	sal, err := b.salons.GetByID(ctx, mem.SalonID)
	if err != nil {
		b.logAndApologize(chatID, err, "loading salon")
		return
	}
	b.replyHTML(chatID, cartText(items, currencyOf(sal)), cartKb(items))
}

func (b *Bot) handleChooseSalon(ctx context.Context, cb *tgbotapi.CallbackQuery, salonID int64) {
	b.answerCallback(cb, "")
	mem, err := b.users.GetMembershipBySalon(ctx, cb.From.ID, salonID)
	if err != nil {
		b.replyNoSalon(cb.Message.Chat.ID, err)
		return
	}
	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
	b.openSalon(ctx, cb.Message.Chat.ID, mem)
}

func (b *Bot) replyNoSalon(chatID int64, err error) {
	if isNotFound(err) {
		b.reply(chatID, "Не удалось определить салон. Пожалуйста, выберите салон через /start.")
		return
	}
	b.logAndApologize(chatID, err, "resolving membership")
}

func (b *Bot) logAndApologize(chatID int64, err error, action string) {
	b.log.WithError(err).Error(action + " failed")
	b.reply(chatID, "Что-то пошло не так. Попробуйте ещё раз позже.")
}
