package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/merchantloop/adyen-reconciler/internal/cache"
	"github.com/merchantloop/adyen-reconciler/internal/config"
	"github.com/merchantloop/adyen-reconciler/internal/database"
	"github.com/merchantloop/adyen-reconciler/internal/repository"
	"github.com/merchantloop/adyen-reconciler/internal/service"
	"github.com/merchantloop/adyen-reconciler/pkg/adyen"
)

// main is the entrypoint for the reconciler CLI. It replays a stored gateway
// response against an order, e.g. when a response was received out-of-band
// or a reconciliation has to be repeated after an operator fix.
func main() {
	var (
		responsePath = flag.String("response", "", "path to a gateway response JSON file, or - for stdin")
		orderRef     = flag.String("order", "", "increment id of the order the response belongs to")
	)
	flag.Parse()

	if *responsePath == "" || *orderRef == "" {
		fmt.Fprintln(os.Stderr, "usage: reconciler -response <file|-> -order <increment_id>")
		os.Exit(2)
	}

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)

	// 3. Parse the gateway response
	raw, err := readInput(*responsePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read gateway response")
	}
	var resp adyen.PaymentsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Fatal().Err(err).Msg("failed to decode gateway response")
	}

	// 4. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	// 5. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	// 6. Wire repositories and services
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	quoteCache := cache.NewQuoteCache(redisClient)

	vaultSvc := service.NewVaultService(tokenRepo)
	cancelSvc := service.NewCancellationService(orderRepo)
	reconciler := service.NewReconcileService(orderRepo, quoteCache, vaultSvc, cancelSvc)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 7. Load the order and its payment
	order, err := orderRepo.GetByIncrementID(ctx, *orderRef)
	if err != nil {
		log.Fatal().Err(err).Str("order", *orderRef).Msg("failed to load order")
	}
	payment, err := paymentRepo.GetByOrderID(ctx, order.EntityID)
	if err != nil {
		log.Fatal().Err(err).Str("order", *orderRef).Msg("failed to load payment")
	}

	// 8. Reconcile and persist the payment mutations
	ok, err := reconciler.Reconcile(ctx, &resp, payment, order)
	if err != nil {
		log.Fatal().Err(err).Str("order", *orderRef).Msg("reconciliation failed")
	}
	if err := paymentRepo.Update(ctx, payment); err != nil {
		log.Fatal().Err(err).Str("order", *orderRef).Msg("failed to persist payment")
	}

	log.Info().
		Str("order", *orderRef).
		Str("result_code", string(resp.ResultCode)).
		Bool("success", ok).
		Msg("Reconciliation completed")

	if !ok {
		// Completed, but the payment did not succeed.
		os.Exit(3)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
