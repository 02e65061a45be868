package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/repogate-inc/repogate/internal/interfaces/cli/migrate"
	"github.com/repogate-inc/repogate/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "repogate",
		Short: "Repogate - sell access to private GitHub repositories",
		Long:  `Repogate reconciles payment provider webhooks with GitHub collaborator access: completed purchases grant read access, cancellations and refunds revoke it.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
