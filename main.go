package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"library-desk/config"
	"library-desk/console"
	"library-desk/library"
	"library-desk/logger"
)

// Version information - set at build time via ldflags
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "library-desk",
		Short:         "Sign in, browse available books and check them out",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDesk(cmd.Context(), configFile, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (yaml, json or toml)")
	return cmd
}

func runDesk(ctx context.Context, configFile string, in io.Reader, out io.Writer) error {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.NewConfig(configFile)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg.Log, "library-desk")
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting", zap.String("version", Version), zap.String("store", string(cfg.Store.Driver)))
	gw, err := library.OpenGateway(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := gw.Close(context.Background()); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}()

	mgr := library.NewLibraryManager(gw, log)
	return console.New(mgr, in, out).Run(ctx)
}
