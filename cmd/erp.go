package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/beergame/supplytwin/erp"
)

var erpListenAddr string // Overrides BEERGAME_LISTEN_ADDR

var erpCmd = &cobra.Command{
	Use:   "erp",
	Short: "ERP system of record",
}

var erpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ERP HTTP API until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := erp.LoadConfig()
		if err != nil {
			log.WithError(err).Fatal("Failed to load ERP config")
		}
		if erpListenAddr != "" {
			cfg.ListenAddr = erpListenAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := startServer(cfg.ListenAddr, erp.Router(erp.NewSeededStore()))
		<-ctx.Done()
		log.Info("Shutting down ERP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	},
}

func startServer(addr string, handler http.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: handler}
	log.WithFields(log.Fields{"addr": addr}).Info("Starting ERP server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()
	return srv
}

func init() {
	erpServeCmd.Flags().StringVar(&erpListenAddr, "listen", "", "Listen address (default from BEERGAME_LISTEN_ADDR or :8000)")
	erpCmd.AddCommand(erpServeCmd)
}
