package cli

import (
	"founder-connect/internal/app"
	"founder-connect/internal/database/seeder"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx := contextOrBackground(cmd.Context())
		cfg.App.AutoMigrate = false

		c, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		if err := c.Migrate(ctx); err != nil {
			logger.Error("migration failed", zap.Error(err))
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo profiles and posts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx := contextOrBackground(cmd.Context())
		c, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		runner := seeder.Runner{Seeders: seeder.Defaults(), Logger: logger.Named("seed")}
		if err := runner.Run(ctx, c.DB); err != nil {
			logger.Error("seeding failed", zap.Error(err))
			return err
		}
		logger.Info("demo data seeded", zap.String("password", seeder.DemoPassword))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
