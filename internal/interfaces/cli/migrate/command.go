package migrate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/repogate-inc/repogate/internal/infrastructure/config"
	"github.com/repogate-inc/repogate/internal/infrastructure/database"
	"github.com/repogate-inc/repogate/internal/infrastructure/migration"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputPath: cfg.Logger.OutputPath,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	log.Infow("running schema migration", "environment", env)

	if err := migration.Run(database.Get()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migration completed")
	return nil
}
