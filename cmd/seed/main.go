package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"library-desk/config"
	"library-desk/library"
	"library-desk/logger"
)

func main() {
	if err := newSeedCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newSeedCommand() *cobra.Command {
	var configFile, seedFile string

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Insert users and books into the configured store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return seed(cmd.Context(), configFile, seedFile)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a config file")
	cmd.Flags().StringVar(&seedFile, "file", "", "seed JSON file (built-in sample data when empty)")
	return cmd
}

func seed(ctx context.Context, configFile, seedFile string) error {
	_ = godotenv.Load()

	cfg, err := config.NewConfig(configFile)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg.Log, "seed")
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	data := library.DefaultSeed()
	if seedFile != "" {
		f, err := os.Open(filepath.Clean(seedFile))
		if err != nil {
			return err
		}
		defer f.Close()
		if data, err = library.LoadSeed(f); err != nil {
			return errors.Wrapf(err, "load %s", seedFile)
		}
	}

	gw, err := library.OpenGateway(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer gw.Close(context.Background())
	if !gw.Connected() {
		return library.ErrStoreOffline
	}

	fmt.Printf("Seeding %d users and %d books into the %s store...\n", len(data.Users), len(data.Books), cfg.Store.Driver)
	rep, err := data.Apply(ctx, gw)
	log.Info("seed finished", zap.Int("users", rep.Users), zap.Int("books", rep.Books), zap.Error(err))
	if err != nil {
		return err
	}

	fmt.Printf("\nSeed complete!\n")
	fmt.Printf("Users inserted: %d\n", rep.Users)
	fmt.Printf("Books inserted: %d\n", rep.Books)
	return nil
}
