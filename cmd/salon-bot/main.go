// README: Entry point; loads config, wires stores and the checkout machine, starts the bot.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"salonbot/internal/bot"
	"salonbot/internal/config"
	"salonbot/internal/geo"
	"salonbot/internal/infra"
	"salonbot/internal/logger"
	"salonbot/internal/modules/cart"
	"salonbot/internal/modules/catalog"
	"salonbot/internal/modules/checkout"
	"salonbot/internal/modules/order"
	"salonbot/internal/modules/salon"
	"salonbot/internal/modules/user"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
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

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		logs.WithError(err).Fatal("telegram init")
	}
	api.Debug = cfg.Bot.Debug

	var geocoder geo.Geocoder
	if cfg.Geo.MapsAPIKey != "" {
		geocoder, err = geo.NewMapsGeocoder(cfg.Geo.MapsAPIKey)
		if err != nil {
			logs.WithError(err).Fatal("maps init")
		}
	}

	salonStore := salon.NewStore(dbPool)
	userStore := user.NewStore(dbPool)
	catalogStore := catalog.NewStore(dbPool)
	cartStore := cart.NewStore(dbPool)
	orderStore := order.NewStore(dbPool)

	notifier := bot.NewGroupNotifier(api, logger.Component(logs, "notifier"))

	machine := checkout.NewMachine(checkout.Deps{
		Carts:    cartStore,
		Salons:   salonStore,
		Users:    userStore,
		Orders:   orderStore,
		Geocoder: geocoder,
		Notifier: notifier,
		Log:      logger.Component(logs, "checkout"),
	})

	b := bot.New(bot.Deps{
		API:      api,
		Machine:  machine,
		Sessions: checkout.NewRedisStore(redisClient),
		Salons:   salonStore,
		Users:    userStore,
		Catalog:  catalogStore,
		Carts:    cartStore,
		Orders:   orderStore,
		Log:      logger.Component(logs, "bot"),
	})

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logs.WithError(err).Fatal("bot stopped")
	}
}
