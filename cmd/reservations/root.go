package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/config"
	"github.com/example/facility-reservations/internal/logging"
	"github.com/example/facility-reservations/internal/persistence/sqlstore"
	"github.com/example/facility-reservations/internal/policy"
	"github.com/example/facility-reservations/internal/secret"
)

// app holds what every subcommand shares. The store is opened lazily so
// commands that fail flag parsing never touch the database.
type app struct {
	cfgFile string
	envFile string

	cfg    config.Config
	policy policy.Policy
	logger *slog.Logger
	store  *sqlstore.Store
	hasher *secret.Hasher
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "reservations",
		Short:        "Facility room reservations",
		Long:         `Serves the reservation API and manages rooms, blocks and office devices.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./reservations.yaml or .toml when present)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newRoomCmd(a),
		newBlockCmd(a),
		newDeviceCmd(a),
		newSeedCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	pol, err := cfg.Policy()
	if err != nil {
		return err
	}
	logger, err := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.policy = pol
	a.logger = logger
	a.hasher = secret.NewHasher(secret.DefaultArgon2idParams)
	return nil
}

// openStore connects and applies pending migrations.
func (a *app) openStore(ctx context.Context) (*sqlstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	dialect, err := a.cfg.Dialect()
	if err != nil {
		return nil, err
	}
	store, err := sqlstore.Open(ctx, dialect, a.cfg.Storage.DSN, sqlstore.Options{
		SerializeCreates: a.cfg.Storage.SerializeCreates,
		Logger:           a.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *app) catalog(ctx context.Context) (*application.CatalogService, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	return application.NewCatalogServiceWithLogger(store, uuid.NewString, time.Now, a.logger), nil
}

func (a *app) devices(ctx context.Context) (*application.DeviceService, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	return application.NewDeviceServiceWithLogger(store, a.hasher, uuid.NewString, time.Now, a.logger), nil
}

// operator identifies the person running an admin command as user@host.
func operator() application.Actor {
	username := "unknown"
	if current, err := user.Current(); err == nil {
		username = current.Username
	}
	hostname := "unknown"
	if h, err := os.Hostname(); err == nil {
		hostname = h
	}
	return application.AdminActor(username + "@" + hostname)
}
