package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sitetester-cli/lib/audit"
	"sitetester-cli/lib/cliutil"
	"sitetester-cli/lib/render"
	"sitetester-cli/lib/state"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var sessionsDeleteAll *bool
var historySearch *string
var historyLimit *int

func init() {
	sessionsDeleteAll = sessionsDeleteCmd.Flags().Bool("all", false, "Deletes every session instead of one.")
	historySearch = historyCmd.Flags().String("search", "", "Matches session names fuzzily and ids by substring.")
	historyLimit = historyCmd.Flags().Int("limit", 20, "The maximum number of sessions to show.")

	sessionsCmd.AddCommand(sessionsStopCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsRestartCmd)
	sessionsCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sessionsCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspects and manages audit sessions.",
}

var sessionsStopCmd = &cobra.Command{
	Use:   "stop <session_id>",
	Short: "Stops a running session.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg)
		if err := client.StopSession(cmd.Context(), args[0]); err != nil {
			exitRunError(err)
		}
		fmt.Printf("Stop requested for %s.\n", args[0])
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session_id> | --all",
	Short: "Deletes a session and its results from the backend.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg)
		store, closeStore := openStore(cfg)
		defer closeStore()
		ctx := cmd.Context()

		if *sessionsDeleteAll {
			if err := client.DeleteAllSessions(ctx); err != nil {
				exitRunError(err)
			}
			if err := store.Clear(ctx); err != nil {
				slog.Warn("failed to clear local history", "err", err)
			}
			fmt.Println("All sessions deleted.")
			return
		}

		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "pass a session id or --all")
			os.Exit(1)
		}
		if err := client.DeleteSession(ctx, args[0]); err != nil {
			exitRunError(err)
		}
		if err := store.DeleteSession(ctx, args[0]); err != nil {
			slog.Warn("failed to drop session from local history",
				"session", args[0],
				"err", err,
			)
		}
		fmt.Printf("Session %s deleted.\n", args[0])
	},
}

var sessionsRestartCmd = &cobra.Command{
	Use:   "restart <session_id>",
	Short: "Saves a session's configuration locally so it can be rerun.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg)
		store, closeStore := openStore(cfg)
		defer closeStore()
		ctx := cmd.Context()

		sc, err := client.FetchSessionConfig(ctx, args[0])
		if err != nil {
			exitRunError(err)
		}
		tool, ok := audit.ToolForSessionType(sc.SessionType)
		if !ok {
			fmt.Fprintf(os.Stderr, "sessions of type %q cannot be restarted\n", sc.SessionType)
			os.Exit(1)
		}

		err = store.SaveRestart(ctx, state.RestartConfig{
			SessionID:   sc.SessionID,
			Tool:        tool,
			Name:        sc.Name,
			URLs:        sc.URLs,
			Browsers:    sc.Browsers,
			Resolutions: sc.Resolutions,
		})
		if err != nil {
			cliutil.Fatal("failed to save restart configuration", err)
		}
		fmt.Printf("Saved. Rerun with: sitetester %s --restart %s\n", commandName(tool), sc.SessionID)
		fmt.Printf("Or follow a deep link: sitetester://restart/%s\n", sc.SessionID)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [--search <query>] [--limit <n>]",
	Short: "Shows recent sessions from the local journal.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg)
		store, closeStore := openStore(cfg)
		defer closeStore()

		showHistory(cmd.Context(), client, store, *historySearch, *historyLimit)
	},
}

func showHistory(ctx context.Context, client *audit.Client, store state.Store, query string, limit int) {
	var sessions []state.Session
	var err error
	if query != "" {
		sessions, err = store.SearchSessions(ctx, query)
		if limit > 0 && len(sessions) > limit {
			sessions = sessions[:limit]
		}
	} else {
		sessions, err = store.ListSessions(ctx, limit)
	}
	if err != nil {
		cliutil.Fatal("failed to read session history", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions recorded yet.")
		fmt.Printf("The server's full history lives at %s\n", client.HistoryURL())
		return
	}

	t := render.NewTable(os.Stdout)
	t.AppendHeader(table.Row{"Session", "Tool", "Name", "URLs", "Created"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 40},
	})
	for _, s := range sessions {
		t.AppendRow(table.Row{
			s.SessionID,
			s.Tool,
			s.Name,
			s.URLCount,
			s.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	t.Render()
	fmt.Printf("The server's full history lives at %s\n", client.HistoryURL())
}
