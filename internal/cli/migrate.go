package cli

import (
	"fmt"

	"github.com/kiranshivaraju/solverwatch/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply pending database migrations from DATABASE_MIGRATIONS_DIR
(default "migrations").

Examples:
  solverctl migrate
  solverctl migrate version`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{offline: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
			return err
		}
		return printVersion(cmd)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the applied schema version",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{offline: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printVersion(cmd)
	},
}

func init() {
	migrateCmd.AddCommand(migrateVersionCmd)
}

func printVersion(cmd *cobra.Command) error {
	v, dirty, err := store.MigrationVersion(cfg.Database.URL, cfg.Database.MigrationsDir)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d (%s)\n", v, state)
	return nil
}
