package cli

// root.go - aggregates every subcommand under one cobra root, the same
// RegisterXxx(rootCmd) shape the teacher's cmd/cli package uses across its
// many middleware files, condensed here to the commands this module's
// domain actually needs.

import "github.com/spf13/cobra"

// RootCmd is the top-level command cmd/peer/main.go mounts.
var RootCmd = &cobra.Command{
	Use:   "meridianledger",
	Short: "Inspect and administer a meridianledger peer's on-disk state",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data/kura", "path to the Kura block store directory")
	RootCmd.AddCommand(StatusCmd)
	RootCmd.AddCommand(SubmitTxCmd)
	RootCmd.AddCommand(QueryCmd)
	RootCmd.AddCommand(ConsensusCmd)
	RootCmd.AddCommand(KuraCmd)
	RootCmd.AddCommand(QueueCmd)
}
