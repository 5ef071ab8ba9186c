package cli

// consensus.go - diagnostic view of the Topology a given view-change index
// would produce over the replayed peer set. This is read-only: it never
// starts a Sumeragi loop (that belongs to cmd/peer's daemon mode), it
// only answers "who would be leader right now".

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianledger/core/core"
)

var consensusViewChangeIndex uint32

// ConsensusCmd reports the current round topology.
var ConsensusCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Show the peer topology and role assignment for a view-change index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, k, err := replayWSV()
		if err != nil {
			return err
		}
		defer k.Close()

		top := core.NewTopology(v.View().Peers, consensusViewChangeIndex)
		if top.N() == 0 {
			fmt.Println("no peers registered")
			return nil
		}
		fmt.Printf("peers: %d   max faults (f): %d   view-change index: %d\n", top.N(), top.MaxFaults(), top.ViewChangeIndex)
		for _, p := range top.Ordered {
			role, err := top.RoleOf(p)
			if err != nil {
				return err
			}
			fmt.Printf("  %-10s %s\n", role, p.Address)
		}
		return nil
	},
}

func init() {
	ConsensusCmd.Flags().Uint32Var(&consensusViewChangeIndex, "view-change-index", 0, "view-change index to rotate the topology by")
}
