package main

import (
	"context"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/config"
	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/db"
	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/handlers"
	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/services"
)

func statusdCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "statusd",
		Short: "Run the payment status store backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadBackend(*configFile)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			gateway := services.NewSSLCommerzService(cfg.SSLCommerzStoreID, cfg.SSLCommerzStorePassword,
				cfg.SSLCommerzBaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, cfg.HTTPTimeout)
			transactions := services.NewTransactionService(store, gateway, cfg.AppURL, cfg.Currency)
			if cfg.ValidatePayments {
				transactions.WithOrderValidator(gateway)
			} else {
				log.Println("Warning: SSLCOMMERZ_VALIDATE is off, success callbacks are not confirmed with the gateway")
			}
			signer := services.NewTokenSigner(cfg.ServiceTokenSecret)
			if !signer.Enabled() {
				log.Println("Warning: SERVICE_TOKEN_SECRET not set, status API is unauthenticated")
			}

			users := handlers.NewUserHandler(services.NewUserService(store))
			router := handlers.NewBackendRouter(handlers.NewBackendHandler(transactions), users, signer)
			return runServer(cmd.Context(), cfg.Port, router)
		},
	}
}

// backendStore is implemented by both the SQLite and the Mongo store.
type backendStore interface {
	services.TransactionStore
	services.UserStore
}

// openStore returns the configured store and a func releasing it.
func openStore(ctx context.Context, cfg *config.BackendConfig) (backendStore, func(), error) {
	if cfg.StoreDriver == config.DriverSQLite {
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using SQLite store at %s", cfg.SQLitePath)
		return db.NewSQLiteStore(sqlDB), func() { sqlDB.Close() }, nil
	}

	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	store := db.NewMongoStore(client.Database(cfg.MongoDB))
	if err := store.EnsureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, err
	}
	return store, func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}, nil
}
