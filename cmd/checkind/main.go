package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parasol-labs/checkin/adapters/chain"
	"github.com/parasol-labs/checkin/adapters/events"
	"github.com/parasol-labs/checkin/adapters/provider"
	"github.com/parasol-labs/checkin/adapters/store"
	"github.com/parasol-labs/checkin/adapters/tokenizer"
	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/service"
	transport "github.com/parasol-labs/checkin/transport/http"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	redisURL := envOr("REDIS_URL", "redis://localhost:6379/0")
	rpcURL := envOr("RPC_URL", "https://api.devnet.solana.com")
	providerURL := os.Getenv("WALLET_PROVIDER_URL")
	providerKey := os.Getenv("WALLET_PROVIDER_API_KEY")
	listenAddr := envOr("LISTEN_ADDR", ":9000")

	if providerURL == "" || providerKey == "" {
		logger.Fatal("WALLET_PROVIDER_URL and WALLET_PROVIDER_API_KEY are required")
	}

	// Access tokens only need to outlive the process, so a fresh signing
	// key per start is acceptable: a restart logs API clients out, the
	// provider session in Redis survives.
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		logger.Fatal("failed to generate signing key", zap.Error(err))
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal("failed to parse Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		logger.Fatal("failed to create Redis publisher", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionStore := store.NewRedisStore(redisClient)
	chainClient := chain.NewClient(rpcURL, logger.Named("chain"))
	walletProvider := provider.NewHTTPProvider(providerURL, providerKey, logger.Named("provider"))
	jwtTokenizer := tokenizer.NewJWTTokenizer(signKey)
	eventPub := events.NewWatermillPublisher(publisher)

	// Restore the provider session persisted by a previous run.
	if session, err := sessionStore.LoadSession(ctx); err == nil {
		walletProvider.SetSessionToken(session.Token)
	} else if !errors.Is(err, core.ErrNoSession) {
		logger.Warn("failed to restore session", zap.Error(err))
	}

	authService := service.NewAuthService(walletProvider, sessionStore, jwtTokenizer, eventPub, logger.Named("auth"))
	bootstrapService := service.NewBootstrapService(walletProvider, sessionStore, logger.Named("bootstrap"))
	balanceService := service.NewBalanceService(chainClient, sessionStore, logger.Named("balance"))
	actionService := service.NewActionService(walletProvider, chainClient, sessionStore, logger.Named("actions"))

	// Resolve the account for a restored session and warm the balance
	// once the connection is up.
	go func() {
		if err := bootstrapService.Run(ctx); err != nil {
			if !errors.Is(err, core.ErrNoSession) {
				logger.Warn("startup bootstrap failed", zap.Error(err))
			}
			return
		}
		if err := balanceService.Refresh(ctx); err != nil {
			logger.Warn("startup balance refresh failed", zap.Error(err))
		}
	}()

	handlers := transport.NewHandlers(ctx, authService, bootstrapService, balanceService, actionService, logger.Named("http"))
	router := transport.SetupRouter(handlers, authService)

	logger.Info("starting server", zap.String("addr", listenAddr))
	if err := router.Run(listenAddr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
