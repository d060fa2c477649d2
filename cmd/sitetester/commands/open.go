package commands

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <sitetester://restart/session_id>",
	Short: "Handles a sitetester:// deep link.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseRestartLink(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		cfg := loadConfig()
		client := newClient(cfg)
		store, closeStore := openStore(cfg)
		defer closeStore()

		ctx := cmd.Context()
		rc := takeRestart(ctx, store, id)
		dispatchRestart(ctx, cfg, client, store, rc, runOptions{})
	},
}

// parseRestartLink pulls the session id out of a
// sitetester://restart/<session_id> uri.
func parseRestartLink(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse link: %w", err)
	}
	if u.Scheme != "sitetester" {
		return "", fmt.Errorf("link %q does not use the sitetester:// scheme", raw)
	}
	if u.Host != "restart" {
		return "", fmt.Errorf("link %q is not a restart link", raw)
	}
	id := strings.Trim(u.Path, "/")
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("link %q does not name a session", raw)
	}
	return id, nil
}
