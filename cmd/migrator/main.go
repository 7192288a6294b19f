package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/linemk/inventory-system/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions глобальные флаги мигратора
type rootOptions struct {
	ConfigPath     string
	MigrationsPath string
	Table          string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "migrator",
		Short:         "Apply database schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (defaults to CONFIG_PATH or environment)")
	cmd.PersistentFlags().StringVar(&opts.MigrationsPath, "migrations-path", "", "path to migration files")
	cmd.PersistentFlags().StringVar(&opts.Table, "migrations-table", "migrations", "table that tracks applied migrations")

	cmd.AddCommand(newUpCommand(opts))
	cmd.AddCommand(newDownCommand(opts))
	cmd.AddCommand(newVersionCommand(opts))
	cmd.AddCommand(newTablesCommand(opts))

	return cmd
}

func newUpCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrate(opts)
			if err != nil {
				return err
			}
			defer m.Close()

			return report(cmd.OutOrStdout(), m.Up(), "Migrations applied successfully")
		},
	}
}

func newDownCommand(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (one step by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid steps %q: must be a positive integer", args[0])
				}
				steps = n
			}

			m, err := newMigrate(opts)
			if err != nil {
				return err
			}
			defer m.Close()

			if all {
				return report(cmd.OutOrStdout(), m.Down(), "All migrations rolled back")
			}
			return report(cmd.OutOrStdout(), m.Steps(-steps), fmt.Sprintf("Rolled back %d migration(s)", steps))
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "roll back every migration")
	return cmd
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrate(opts)
			if err != nil {
				return err
			}
			defer m.Close()

			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(cmd.OutOrStdout(), "No migrations applied")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
}

// newTablesCommand печатает таблицы схемы public, чтобы быстро проверить результат миграции
func newTablesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the public schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadMigrator(opts.ConfigPath)
			if err != nil {
				return err
			}

			db, err := sql.Open("postgres", cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			return listTables(cmd.OutOrStdout(), db)
		},
	}
}

func listTables(out io.Writer, db *sql.DB) error {
	rows, err := db.Query(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`)
	if err != nil {
		return fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	fmt.Fprintln(out, "Current tables in the database:")
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		fmt.Fprintln(out, " -", tableName)
	}
	return rows.Err()
}

func newMigrate(opts *rootOptions) (*migrate.Migrate, error) {
	cfg, err := config.LoadMigrator(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	migrationsPath := cfg.Migrations.Path
	if opts.MigrationsPath != "" {
		migrationsPath = opts.MigrationsPath
	}

	dsn, err := migrateDSN(cfg.Database.DSN(), opts.Table)
	if err != nil {
		return nil, err
	}

	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// migrateDSN добавляет к строке подключения имя таблицы версий golang-migrate
func migrateDSN(dsn, table string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	q := u.Query()
	q.Set("x-migrations-table", table)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func report(out io.Writer, err error, success string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintln(out, "No migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintln(out, success)
	return nil
}
