package commands

import (
	"fmt"

	"github.com/livp123/firesense/internal/model"
	"github.com/livp123/firesense/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Show the current version of firesense`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "firesense %s (model schema %d)\n", version.Version, model.SchemaVersion)
	},
}
