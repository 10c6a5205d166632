// Command contactctl checks the contact backend's mail setup and scores
// submissions offline.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contactctl",
		Short:         "Operate the portfolio contact backend",
		SilenceUsage: true,
	}
	root.AddCommand(newVerifyMailCmd(), newScoreCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
