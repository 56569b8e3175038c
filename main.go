package main

import (
	auction "auction-house/internal/auctionService"
	"auction-house/internal/config"
	"auction-house/internal/database"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/utils"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	utils.ConfigureLogger(cfg.LogLevel, os.Stdout)
	gin.SetMode(cfg.Server.GinMode)

	repo, healthCheck, closeRepo := openRepository(cfg.Database)
	defer closeRepo()

	auctionSvc := auction.NewAuctionService(repo)

	if cfg.SeedData {
		if err := prepopulate(context.Background(), auctionSvc); err != nil {
			utils.Fatal("failed to seed data", map[string]any{"error": err.Error()})
		}
	}

	router := server.SetupRouter(auctionSvc, server.RouterConfig{
		CORSOrigins: cfg.Server.CORSOrigins,
		HealthCheck: healthCheck,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr, "driver": cfg.Database.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Info("shutting down auction server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Error("server shutdown failed", map[string]any{"error": err.Error()})
	}
}

// openRepository selects the storage backend named by the configuration
func openRepository(cfg config.DatabaseConfig) (repository.AuctionDB, func(context.Context) error, func()) {
	if cfg.Driver == config.DriverMemory {
		return repository.NewMemoryRepo(), nil, func() {}
	}

	db, err := database.Open(cfg)
	if err != nil {
		utils.Fatal("failed to open database", map[string]any{"error": err.Error()})
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.Fatal("failed to migrate database", map[string]any{"error": err.Error()})
	}

	repo := repository.NewGormRepo(db)
	return repo, repo.Ping, func() {
		if err := database.Close(db); err != nil {
			utils.Error("failed to close database", map[string]any{"error": err.Error()})
		}
	}
}

// prepopulate adds sample users and listings to an empty store
func prepopulate(ctx context.Context, svc *auction.AuctionService) error {
	existing, err := svc.ListListings(ctx, repository.ListingFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	alice, err := svc.CreateUser(ctx, "alice", "alice@example.com", "alice-password")
	if err != nil {
		return err
	}
	if _, err := svc.CreateUser(ctx, "bob", "bob@example.com", "bob-password"); err != nil {
		return err
	}

	listings := []auction.NewListing{
		{Title: "Wooden train set", Description: "Forty-piece set, complete", StartingPrice: decimal.RequireFromString("25.00"), Category: model.CategoryToys},
		{Title: "Mechanical keyboard", Description: "Brown switches", StartingPrice: decimal.RequireFromString("60.00"), Category: model.CategoryElectronics},
		{Title: "Cordless drill", Description: "18V with two batteries", StartingPrice: decimal.RequireFromString("45.50"), Category: model.CategoryTools},
	}
	for _, l := range listings {
		if _, err := svc.CreateListing(ctx, alice.UserID, l); err != nil {
			return err
		}
	}

	utils.Info("seeded sample data", map[string]any{"listings": len(listings)})
	return nil
}
