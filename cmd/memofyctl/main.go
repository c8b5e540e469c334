// Command memofyctl administers a Memofy deployment: schema migrations,
// account bootstrap, and the backup queue.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/platform/config"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/platform/logging"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/repositories/database/pgsql"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/pkg/database"
	"github.com/spf13/cobra"
)

// cliActor is recorded as creator of rows written by the CLI.
const cliActor = "memofyctl"

var (
	cfg    *config.Config
	logger *slog.Logger
	flush  = func() {}
	dbPool *pgxpool.Pool
)

func main() {
	err := rootCmd.Execute()
	closeDatabase()
	flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "memofyctl",
	Short:         "Administer a Memofy deployment",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, flush = logging.New(cfg)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(backupCmd)
}

// repositories opens the PostgreSQL pool on first use.
func repositories(ctx context.Context) (portsrepo.RepositoryProvider, error) {
	if cfg.StorageDriver != config.StoragePostgres {
		return portsrepo.RepositoryProvider{}, fmt.Errorf("memofyctl needs STORAGE_DRIVER=%s", config.StoragePostgres)
	}
	if dbPool == nil {
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, true)
		if err != nil {
			return portsrepo.RepositoryProvider{}, fmt.Errorf("connect: %w", err)
		}
		dbPool = pool
	}
	return pgsql.NewRepositoryProvider(dbPool), nil
}

func closeDatabase() {
	if dbPool != nil {
		database.ClosePgxPool(dbPool)
	}
}
