package cli

// queue.go - a dry-run admission checker. The live Queue only exists inside
// a running peer process, so this command builds an ephemeral one with the
// default admission policy and reports whether a synthetic transaction from
// the given authority would be admitted right now -- useful for sanity
// checking TTL/cap/dedup behaviour before wiring a real client against a
// live node.

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meridianledger/core/core"
)

var queueCount int

// QueueCmd groups queue admission diagnostics.
var QueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Dry-run the Queue's admission policy against synthetic transactions",
}

func init() {
	QueueCmd.AddCommand(queueCheckCmd)
	queueCheckCmd.Flags().IntVar(&queueCount, "count", 1, "number of synthetic transactions to submit from this authority")
}

var queueCheckCmd = &cobra.Command{
	Use:   "check <signatory@domain>",
	Short: "Report how many of --count synthetic transactions the default policy admits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		authority, err := core.ParseAccountId(args[0])
		if err != nil {
			return err
		}
		q := core.NewQueue(core.DefaultQueueConfig)
		admitted, rejected := 0, 0
		for i := 0; i < queueCount; i++ {
			tx := core.AcceptedTransaction{
				Tx: core.Transaction{
					Payload: core.TransactionPayload{
						Authority:   authority,
						CreatedAtMS: time.Now().UnixMilli(),
						Nonce:       uint32(i),
					},
				},
				AcceptedAtMS: time.Now().UnixMilli(),
			}
			if err := q.Push(tx); err != nil {
				rejected++
				fmt.Printf("tx %d: rejected: %v\n", i, err)
				continue
			}
			admitted++
		}
		fmt.Printf("admitted: %d   rejected: %d   queue length: %d\n", admitted, rejected, q.Len())
		return nil
	},
}
