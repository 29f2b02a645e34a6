package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/internhub_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/internhub_backend/cmd/system"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "internhub",
		Short: "InternHub internship placement backend",
		Long: `InternHub connects students, companies and academic departments around
internship placements: applications, decision letters, test projects,
weekly reports, final evaluations and live messaging.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "config.yaml", "config file path")

	root.AddCommand(systemcmd.NewSystemCommand())
	root.AddCommand(httpcmd.NewHTTPCommand())
	return root
}

// Execute runs the command tree. SIGINT and SIGTERM cancel the context
// handed to one-shot commands; the server manages its own signals.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
