package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/potluckhq/potluck-manager/internal/handler"
	internalLog "github.com/potluckhq/potluck-manager/internal/log"
	"github.com/potluckhq/potluck-manager/internal/server"
	"github.com/potluckhq/potluck-manager/pkg/config"
	"github.com/potluckhq/potluck-manager/pkg/dateparse"
	"github.com/potluckhq/potluck-manager/pkg/discord"
	"github.com/potluckhq/potluck-manager/pkg/eventsync"
	"github.com/potluckhq/potluck-manager/pkg/guild"
	"github.com/potluckhq/potluck-manager/pkg/potluck"
	"github.com/potluckhq/potluck-manager/pkg/storage"

	"github.com/bwmarrin/discordgo"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.New()

	logger := slog.New(internalLog.New(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(logger)

	err := handler.RegisterValidation()
	if err != nil {
		return err
	}

	db, err := storage.NewDatabase(cfg.Postgresql, logger)
	if err != nil {
		return err
	}

	defaultLocation, err := time.LoadLocation(cfg.Potluck.DefaultTimezone)
	if err != nil {
		return err
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return err
	}
	session.Identify.Intents |= discordgo.IntentGuildScheduledEvents

	guildRepository := guild.NewRepository(db)
	guildService := guild.NewService(logger, guildRepository, defaultLocation)
	guildHandler := guild.NewHandler(guildService)

	resolver := dateparse.NewResolver(defaultLocation, logger)

	messenger := discord.NewMessenger(session)
	potluckRepository := potluck.NewRepository(db)
	reconciler := potluck.NewReconciler(logger, potluckRepository, messenger, cfg.Potluck.EditWindow)
	potluckService := potluck.NewService(logger, potluckRepository, reconciler, cfg.Potluck.RefreshDelay)
	potluckHandler := potluck.NewHandler(potluckService)

	provider := discord.NewProvider(session)
	eventService := eventsync.NewService(logger, provider, potluckRepository, potluckService, reconciler, guildService)
	eventHandler := eventsync.NewHandler(eventService, potluckService, guildService, resolver)

	gateway := discord.NewGateway(logger, eventService)
	gateway.Register(session)

	err = session.Open()
	if err != nil {
		return err
	}
	defer func(session *discordgo.Session) {
		err := session.Close()
		if err != nil {
			logger.Error("Failed to close gateway session", "error", err)
		}
	}(session)

	r := server.GetEngine(logger, cfg.BasePath, potluckHandler, guildHandler, eventHandler)
	return r.Run()
}
