package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/config"
	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/handlers"
	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/services"
)

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web application API (payments, callbacks, certificates)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadApp(*configFile)
			if err != nil {
				return err
			}
			router, err := newAppRouter(cfg)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg.Port, router)
		},
	}
}

func newAppRouter(cfg *config.AppConfig) (http.Handler, error) {
	signer := services.NewTokenSigner(cfg.ServiceTokenSecret)
	backend := services.NewBackendClient(cfg.BackendURL, services.NewNoRedirectClient(cfg.HTTPTimeout), signer, cfg.HTTPTimeout)

	paymentService, err := services.NewPaymentService(backend, cfg.GatewayURL)
	if err != nil {
		return nil, err
	}
	statusService := services.NewStatusService(backend)

	paymentHandler := handlers.NewPaymentHandler(paymentService, statusService, cfg.AppURL)
	certificateHandler := handlers.NewCertificateHandler(statusService, services.NewPDFRenderer())
	profileHandler := handlers.NewProfileHandler(services.NewProfileService(backend))
	return handlers.NewAppRouter(paymentHandler, certificateHandler, profileHandler), nil
}
