package settlement

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-settlement/internal/cache"
	"github.com/magabrotheeeer/subscription-settlement/internal/config"
	"github.com/magabrotheeeer/subscription-settlement/internal/ledger"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/keybox"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/ratelimit"
	"github.com/magabrotheeeer/subscription-settlement/internal/migrations"
	"github.com/magabrotheeeer/subscription-settlement/internal/rabbitmq"
	settlementservice "github.com/magabrotheeeer/subscription-settlement/internal/services/settlement"
	"github.com/magabrotheeeer/subscription-settlement/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	rabbit *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.SettlementQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	masterKey, err := hex.DecodeString(cfg.SigningMasterKey)
	if err != nil {
		return nil, fmt.Errorf("signing master key is not valid hex: %w", err)
	}
	if len(masterKey) != keybox.KeySize {
		return nil, fmt.Errorf("signing master key must be %d bytes, got %d", keybox.KeySize, len(masterKey))
	}

	ledgerClient := ledger.NewClient(cfg.RPCURL)

	settlementService := settlementservice.New(db, ledgerClient, ledgerClient, publisher, cacheRedis,
		settlementservice.Config{
			OperatorAddress: cfg.OperatorAddress,
			FeeReserve:      cfg.FeeReserve,
			MasterKey:       masterKey,
		}, logger)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	limiters := ratelimit.NewPerUser(5, 10)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, settlementService, db, jwtMaker, limiters)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		rabbit: rabbitConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.rabbit.Close(); cerr != nil {
			a.logger.Warn("failed to close rabbitmq connection", slog.Any("err", cerr))
		}
		if cerr := a.db.DB.Close(); cerr != nil {
			a.logger.Warn("failed to close database connection", slog.Any("err", cerr))
		}
		return err
	}
}
