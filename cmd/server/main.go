package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/transactions-backend/internal/adapter/grpc"
	"github.com/simaogato/transactions-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/transactions-backend/internal/config"
	"github.com/simaogato/transactions-backend/internal/logger"
	"github.com/simaogato/transactions-backend/internal/usecase/ingest"
	"github.com/simaogato/transactions-backend/internal/usecase/listing"
	"github.com/simaogato/transactions-backend/internal/usecase/tagging"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.LogLevel)

	// 2. Setup Database
	// Add 2-second delay to ensure Postgres is up (Simple retry)
	time.Sleep(2 * time.Second)

	db, err := postgres.NewDB(cfg.DBConnStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureSchema(ctx, cfg.TransactionsTable); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to ensure schema")
	}
	cancel()
	log.Info().Str("table", cfg.TransactionsTable).Bool("dry_run", cfg.DryRun).Msg("Schema ready")

	// 3. Initialize Repository and Services (Use Cases)
	transactionRepo := postgres.NewTransactionRepository(db, cfg.TransactionsTable)

	ingestService := ingest.NewService(transactionRepo)
	taggingService := tagging.NewService(transactionRepo)
	listingService := listing.NewService(transactionRepo)

	// 4. Start gRPC Server
	// Logging runs first so rejected requests are logged too
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(log),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)

	grpcAdapter := grpcadapter.NewServer(ingestService, taggingService, listingService)
	grpcadapter.RegisterTransactionServiceServer(grpcServer, grpcAdapter)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("Failed to listen")
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, log)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, log zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	grpcServer.GracefulStop()
	log.Info().Msg("gRPC server stopped")
}
