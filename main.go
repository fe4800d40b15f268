package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"marketplace/internal/auth"
	"marketplace/internal/bazaar"
	"marketplace/internal/cart"
	"marketplace/internal/catalog"
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/events"
	"marketplace/internal/handlers"
	"marketplace/internal/logging"
	"marketplace/internal/orders"
	"marketplace/internal/server"
	"marketplace/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	log := logging.New(cfg.LogLevel, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	gin.SetMode(gin.ReleaseMode)

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	db := client.Database(cfg.DBName)
	log.Info().Str("db", db.Name()).Msg("mongo connected")

	if err := database.EnsureIndexes(db, log); err != nil {
		log.Warn().Err(err).Msg("index setup incomplete")
	}

	st := store.New(db)

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, log)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaOrderTopic).Msg("order events enabled")
	}

	authSvc := auth.NewService(st.Users, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.BcryptCost, log)
	composer := orders.NewComposer(st.Orders, st.Carts, st.Products, st.Users, publisher, log)

	router := server.NewRouter(server.Deps{
		Auth:      authSvc,
		Carts:     cart.NewManager(st.Carts, st.Products, st.Users, log),
		Orders:    composer,
		Catalog:   catalog.NewService(st.Products, st.Categories, log),
		Bazaars:   bazaar.NewService(st.Bazaars, st.BazaarCategories, log),
		Uploads:   handlers.NewUploads(cfg.PublicDir),
		DB:        st,
		PublicDir: cfg.PublicDir,
		Origins:   cfg.CORSOrigins,
		Log:       log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repairDone := make(chan struct{})
	go func() {
		defer close(repairDone)
		composer.RunRepair(ctx, cfg.RepairInterval, cfg.RepairGrace)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	<-repairDone
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("publisher close")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
}
