package command

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	bridgeURL string
	timeout   time.Duration
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "qbridgectl",
		Short: "qbridgectl - Q-Apps bridge command line interface",
		Long: `qbridgectl builds resource URLs and sends requests to a running bridge.

Use "qbridgectl command --help" to see the flags of a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.bridgeURL, "bridge", envOr("QBRIDGE_URL", "http://localhost:8000"), "bridge server URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "http-timeout", 2*time.Minute, "HTTP timeout")

	root.AddCommand(newURLCmd(), newRequestCmd(opts), newResolveCmd(opts))
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *options) client() *resty.Client {
	return resty.New().
		SetBaseURL(o.bridgeURL).
		SetTimeout(o.timeout).
		SetHeader("Accept", "application/json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
