// README: Entry point for the web mini-app API.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"salonbot/internal/bot"
	"salonbot/internal/config"
	"salonbot/internal/infra"
	"salonbot/internal/logger"
	"salonbot/internal/modules/cart"
	"salonbot/internal/modules/catalog"
	"salonbot/internal/modules/checkout"
	"salonbot/internal/modules/order"
	"salonbot/internal/modules/salon"
	"salonbot/internal/modules/user"
	"salonbot/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadWeb()
	if err != nil {
		log.Fatal(err)
	}

	logs := logger.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logs.WithError(err).Fatal("postgres init")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	// Orders placed over the web are announced in the salon group the same way
	// bot orders are, so the web app shares the bot token and notifier.
	var notifier checkout.Notifier
	if cfg.Bot.Token != "" {
		api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
		if err != nil {
			logs.WithError(err).Warn("telegram init failed, group notifications disabled")
		} else {
			notifier = bot.NewGroupNotifier(api, logger.Component(logs, "notifier"))
		}
	}

	srv := web.NewServer(web.Deps{
		BotToken: cfg.Bot.Token,
		Tokens:   web.NewRedisTokens(redisClient),
		Salons:   salon.NewStore(dbPool),
		Users:    user.NewStore(dbPool),
		Catalog:  catalog.NewStore(dbPool),
		Carts:    cart.NewStore(dbPool),
		Orders:   order.NewStore(dbPool),
		Notifier: notifier,
		Log:      logger.Component(logs, "web"),
	})

	server := &http.Server{Addr: cfg.Web.Addr, Handler: srv.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logs.WithField("addr", cfg.Web.Addr).Info("web api started")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logs.WithError(err).Fatal("web api stopped")
	}
}
