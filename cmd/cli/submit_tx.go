package cli

// submit_tx.go - one subcommand per instruction kind, the same shape coin.go
// gives mint/transfer/burn/balance: small, explicit verbs instead of a
// generic "apply this JSON blob" command. Each subcommand is a thin
// instruction constructor handed to applyAdminInstruction.

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/meridianledger/core/core"
)

// SubmitTxCmd groups the instruction-submission subcommands.
var SubmitTxCmd = &cobra.Command{
	Use:   "submit-tx",
	Short: "Apply an instruction outside of consensus, for bootstrap and administration",
}

func init() {
	SubmitTxCmd.AddCommand(registerDomainCmd)
	SubmitTxCmd.AddCommand(registerAccountCmd)
	SubmitTxCmd.AddCommand(mintCmd)
	SubmitTxCmd.AddCommand(transferCmd)
	SubmitTxCmd.AddCommand(setKeyValueCmd)
}

var registerDomainCmd = &cobra.Command{
	Use:   "register-domain <name>",
	Short: "Register a new domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		isi := core.RegisterInstruction{Domain: &core.Domain{Id: args[0]}}
		return applyAdminInstruction(isi, core.AccountId{})
	},
}

var registerAccountCmd = &cobra.Command{
	Use:   "register-account <signatory@domain>",
	Short: "Register a new account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := core.ParseAccountId(args[0])
		if err != nil {
			return err
		}
		isi := core.RegisterInstruction{Account: &core.Account{Id: id}}
		return applyAdminInstruction(isi, core.AccountId{})
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint <name#domain#signatory@domain> <amount>",
	Short: "Mint a quantity of an asset into an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		assetID, err := core.ParseAssetId(args[0])
		if err != nil {
			return err
		}
		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		isi := core.MintInstruction{Asset: assetID, Amount: core.NumericFromUint64(amount)}
		return applyAdminInstruction(isi, assetID.Account)
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <name#domain#signatory@domain> <signatory@domain> <amount>",
	Short: "Transfer a quantity of an asset to another account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := core.ParseAssetId(args[0])
		if err != nil {
			return err
		}
		dest, err := core.ParseAccountId(args[1])
		if err != nil {
			return err
		}
		amount, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[2], err)
		}
		isi := core.TransferInstruction{Source: source, Destination: dest, Amount: core.NumericFromUint64(amount)}
		return applyAdminInstruction(isi, source.Account)
	},
}

var setKeyValueCmd = &cobra.Command{
	Use:   "set-key-value <signatory@domain> <key> <value>",
	Short: "Set a metadata key on an account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		acc, err := core.ParseAccountId(args[0])
		if err != nil {
			return err
		}
		isi := core.SetKeyValueInstruction{Account: &acc, Key: args[1], Value: args[2]}
		return applyAdminInstruction(isi, acc)
	},
}
