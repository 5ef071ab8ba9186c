package cli

// kura.go - low-level inspection of the block store itself, as distinct
// from status.go's higher-level WSV summary: these commands never replay
// instructions, they only read Kura's own records.

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianledger/core/core"
)

// KuraCmd groups block-store inspection subcommands.
var KuraCmd = &cobra.Command{
	Use:   "kura",
	Short: "Inspect the on-disk block store",
}

func init() {
	KuraCmd.AddCommand(kuraHeightCmd)
	KuraCmd.AddCommand(kuraShowCmd)
	KuraCmd.AddCommand(kuraReplayCmd)
}

var kuraHeightCmd = &cobra.Command{
	Use:   "height",
	Short: "Print the last committed block height",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKura()
		if err != nil {
			return err
		}
		defer k.Close()
		height, ok := k.LastHeight()
		if !ok {
			fmt.Println("(empty store)")
			return nil
		}
		fmt.Println(height)
		return nil
	},
}

var kuraShowCmd = &cobra.Command{
	Use:   "show <height>",
	Short: "Print a single committed block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var height uint64
		if _, err := fmt.Sscanf(args[0], "%d", &height); err != nil {
			return fmt.Errorf("invalid height %q", args[0])
		}
		k, err := openKura()
		if err != nil {
			return err
		}
		defer k.Close()
		block, err := k.GetBlock(height)
		if err != nil {
			return err
		}
		fmt.Printf("height:     %d\n", block.Payload.Header.Height)
		fmt.Printf("hash:       %s\n", block.Hash())
		fmt.Printf("prev hash:  %s\n", block.Payload.Header.PreviousBlockHash)
		fmt.Printf("txs:        %d\n", len(block.Payload.Transactions))
		fmt.Printf("rejected:   %d\n", len(block.Rejected))
		fmt.Printf("signatures: %d\n", len(block.Signatures))
		return nil
	},
}

var kuraReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay every block in order, printing a one-line summary each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKura()
		if err != nil {
			return err
		}
		defer k.Close()
		return k.Replay(func(block *core.Block) error {
			fmt.Printf("%-8d %s  txs=%d rejected=%d\n",
				block.Payload.Header.Height, block.Hash(),
				len(block.Payload.Transactions), len(block.Rejected))
			return nil
		})
	},
}
