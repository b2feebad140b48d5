package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/luiz-custodio/email-send/internal/config"
	"github.com/luiz-custodio/email-send/internal/http/server"
	"github.com/luiz-custodio/email-send/internal/metrics"
	"github.com/luiz-custodio/email-send/internal/observability/logger"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

// shutdownGrace cubre un dispatch en curso de tamaño razonable.
const shutdownGrace = 60 * time.Second

func main() {
	var (
		cfgPath = envOr("EMAILRELAY_CONFIG", "config.yaml")
		addr    string
	)

	root := &cobra.Command{
		Use:           "emailrelay",
		Short:         "API HTTP para envío de emails vía SMTP (STARTTLS + AUTH)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env es opcional: en prod las variables vienen del entorno.
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Archivo YAML de configuración (env EMAILRELAY_CONFIG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Dirección de escucha (pisa server.addr / SERVER_ADDR)")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Prueba la conexión con el relay SMTP (sin enviar nada)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			st := server.NewDispatcher(cfg).CheckConnection(cmd.Context(), server.Credentials(cfg))
			if !st.OK {
				return fmt.Errorf("check falló: %s", st.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.Message)
			return nil
		},
	}

	root.AddCommand(serveCmd, checkCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "emailrelay",
		Version:     version,
	})
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.L()

	if err := metrics.Register(nil); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if !cfg.HasCredentials() {
		log.Warn("EMAIL_ADDRESS/EMAIL_PASSWORD not set; /send-emails will answer 500")
	}

	dispatcher := server.NewDispatcher(cfg)
	srv := server.New(cfg, server.BuildHandler(cfg, dispatcher))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening",
			logger.String("addr", cfg.Server.Addr),
			logger.RelayAddr(dispatcher.Addr()),
			logger.Bool("metrics", cfg.Server.MetricsEnabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
