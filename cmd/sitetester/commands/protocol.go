package commands

import (
	"fmt"
	"os"
	"runtime"
	"sitetester-cli/lib/cliutil"

	"github.com/lqr471814/protocolreg"
	"github.com/spf13/cobra"
)

const protocolHandlerID = "sitetester"

func init() {
	protocolCmd.AddCommand(protocolInstallCmd)
	protocolCmd.AddCommand(protocolUninstallCmd)
	rootCmd.AddCommand(protocolCmd)
}

var protocolCmd = &cobra.Command{
	Use:   "protocol",
	Short: "Manages the OS handler for sitetester:// deep links.",
}

var protocolInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Registers this binary as the handler for sitetester:// links.",
	Run: func(cmd *cobra.Command, args []string) {
		exe, err := os.Executable()
		if err != nil {
			cliutil.Fatal("failed to resolve the sitetester binary path", err)
		}

		switch runtime.GOOS {
		case "linux":
			err := protocolreg.RegisterLinux(protocolHandlerID, protocolreg.LinuxOptions{
				Exec:      fmt.Sprintf("%s open %%u", exe),
				Protocols: []string{"sitetester"},
				Metadata: protocolreg.LinuxMetadataOptions{
					Name: "SiteTester",
				},
			})
			if err != nil {
				cliutil.Fatal("failed to register protocol handler", err)
			}
			fmt.Println("Registered. sitetester://restart/<session_id> links now reopen audits.")
		default:
			fmt.Fprintf(os.Stderr, "protocol registration is not supported on %s\n", runtime.GOOS)
			os.Exit(1)
		}
	},
}

var protocolUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Removes the sitetester:// handler registration.",
	Run: func(cmd *cobra.Command, args []string) {
		switch runtime.GOOS {
		case "linux":
			if err := protocolreg.UnregisterLinux(protocolHandlerID); err != nil {
				cliutil.Fatal("failed to unregister protocol handler", err)
			}
			fmt.Println("Unregistered.")
		default:
			fmt.Fprintf(os.Stderr, "protocol registration is not supported on %s\n", runtime.GOOS)
			os.Exit(1)
		}
	},
}
