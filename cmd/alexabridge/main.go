// Command alexabridge answers Alexa Smart Home directives by reading and
// commanding openHAB items.
//
//	alexabridge serve                   run the HTTP skill endpoint
//	alexabridge discover --token T      print the Discover.Response for an account
//	alexabridge directive [file|-]      handle one directive and print the event
//	alexabridge version                 print build information
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// configEnv names the environment variable holding the default config path.
const configEnv = "ALEXABRIDGE_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "alexabridge",
		Short: "Alexa Smart Home bridge for openHAB",
		Long: `alexabridge translates Alexa Smart Home directives into openHAB REST
calls and renders item state back as Alexa responses.

Configuration is read from --config (or $` + configEnv + `), then
overridden by ALEXABRIDGE_* environment variables. Without a file the
built-in defaults apply.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv(configEnv), "path to the YAML configuration file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newDiscoverCmd(opts))
	cmd.AddCommand(newDirectiveCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "alexabridge %s (commit %s, built %s)\n", version, commit, date)
			return err
		},
	}
}
