package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/medbook-api/internal/config"
	"github.com/jwalitptl/medbook-api/internal/repository/postgres"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeDB, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeDB()

			count, err := migrator.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeDB, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeDB()

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func openMigrator() (*postgres.Migrator, func(), error) {
	cfg, err := config.LoadConfig(configPaths()...)
	if err != nil {
		return nil, nil, err
	}
	if cfg.App.Storage == "memory" {
		return nil, nil, fmt.Errorf("migrations need app.storage=postgres")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewMigrator(db), func() { _ = db.Close() }, nil
}

