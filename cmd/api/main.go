// Package main はTodo APIサーバーを起動します。
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	flagConfig   string
	flagPort     int
	flagDBDriver string
	flagDSN      string
)

var rootCmd = &cobra.Command{
	Use:          "todo-api",
	Short:        "Todo record store HTTP server",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the todos table if it does not exist",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample todos into an empty table",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to a TOML config file (overrides TODO_CONFIG)")
	pf.IntVar(&flagPort, "port", 0, "listen port (overrides PORT)")
	pf.StringVar(&flagDBDriver, "db-driver", "", "database driver: mysql, pgx or sqlite3")
	pf.StringVar(&flagDSN, "dsn", "", "database connection string (overrides DATABASE_URL)")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

// loadConfig は設定を読み込み、フラグで上書きします。
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if flagConfig != "" {
		if err := os.Setenv("TODO_CONFIG", flagConfig); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = flagPort
	}
	if flags.Changed("db-driver") {
		cfg.Database.Driver = flagDBDriver
	}
	if flags.Changed("dsn") {
		cfg.Database.URL = flagDSN
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*log.Logger, error) {
	return logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
}
