// Package main は Todo API を操作するコマンドラインツール todoctl です。
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"todo-manager/backend/internal/client"
	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/logging"
	"todo-manager/backend/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app はサブコマンド間で共有するフラグとクライアントです。
type app struct {
	apiURL  string
	timeout time.Duration
	json    bool
	verbose bool

	api   *client.Client
	store *store.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "todoctl",
		Short:        "Command line client for the todo API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.connect(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.apiURL, "api", "", "API base URL (default from TODO_API_URL or config)")
	pf.DurationVar(&a.timeout, "timeout", 0, "request timeout")
	pf.BoolVar(&a.json, "json", false, "print raw JSON instead of tables")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log retries to stderr")

	root.AddCommand(
		a.listCmd(),
		a.getCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.doneCmd(),
		a.rmCmd(),
		a.statsCmd(),
		a.healthCmd(),
	)
	return root
}

// connect は設定を読み込み、フラグで上書きしてクライアントを作成します。
func (a *app) connect(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api") {
		cfg.Client.APIURL = a.apiURL
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Client.Timeout.Duration = a.timeout
	}

	level := "error"
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.api, err = client.New(cfg.Client.APIURL,
		client.WithTimeout(cfg.Client.Timeout.Duration),
		client.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	a.store = store.New(a.api, logger)
	a.store.Subscribe(func(st store.State) {
		logger.Debug("State changed", "todos", len(st.Todos), "loading", st.Loading, "error", st.Error)
	})
	return nil
}

// reportReverted は直前の変更がサーバーに拒否されて取り消された場合に、その旨を stderr に出力します。
func (a *app) reportReverted(cmd *cobra.Command) {
	muts := a.store.Mutations()
	if len(muts) == 0 {
		return
	}
	m := muts[len(muts)-1]
	if m.Phase != store.PhaseReverted {
		return
	}
	printf(cmd.ErrOrStderr(), "Reverted %s of %s; reloaded %d todos from the server\n",
		m.Kind, m.TodoID, len(a.store.Snapshot().Todos))
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
