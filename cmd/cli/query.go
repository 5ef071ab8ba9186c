package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianledger/core/core"
)

// QueryCmd groups the read-only finder subcommands over a replayed WSV.
var QueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a read-only query against the replayed World State View",
}

func init() {
	QueryCmd.AddCommand(findDomainCmd)
	QueryCmd.AddCommand(findAccountCmd)
	QueryCmd.AddCommand(findAssetCmd)
	QueryCmd.AddCommand(findAssetQuantityCmd)
	QueryCmd.AddCommand(findRolesCmd)
	QueryCmd.AddCommand(findPeersCmd)
}

func runQuery(q core.Query) error {
	v, k, err := replayWSV()
	if err != nil {
		return err
	}
	defer k.Close()

	result, err := q.Execute(v.View())
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var findDomainCmd = &cobra.Command{
	Use:   "find-domain <name>",
	Short: "Find a domain by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(core.FindDomain{Id: args[0]})
	},
}

var findAccountCmd = &cobra.Command{
	Use:   "find-account <signatory@domain>",
	Short: "Find an account by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := core.ParseAccountId(args[0])
		if err != nil {
			return err
		}
		return runQuery(core.FindAccount{Id: id})
	},
}

var findAssetCmd = &cobra.Command{
	Use:   "find-asset <name#domain#signatory@domain>",
	Short: "Find an asset by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := core.ParseAssetId(args[0])
		if err != nil {
			return err
		}
		return runQuery(core.FindAsset{Id: id})
	},
}

var findAssetQuantityCmd = &cobra.Command{
	Use:   "find-asset-quantity <name#domain#signatory@domain>",
	Short: "Find the quantity of an asset, treating a missing asset as zero",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := core.ParseAssetId(args[0])
		if err != nil {
			return err
		}
		return runQuery(core.FindAssetQuantityById{Id: id})
	},
}

var findRolesCmd = &cobra.Command{
	Use:   "find-roles",
	Short: "List every registered role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(core.FindRoles{})
	},
}

var findPeersCmd = &cobra.Command{
	Use:   "find-peers",
	Short: "List every registered peer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(core.FindPeers{})
	},
}
