package cli

// common.go - flags and helpers shared by every subcommand in this package.
// Grounded on the teacher's per-file middleware convention (coin.go,
// consensus.go): a small set of package-scoped globals bound directly to
// RootCmd's persistent flags in root.go, rather than threading a context
// object through every RunE. Here the globals are just the on-disk paths; each command opens its
// own Kura handle and replays the WSV fresh, since the CLI is a short-lived
// diagnostic/administration process, not the long-running peer (that is
// cmd/peer's job).

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meridianledger/core/core"
)

// dataDir is bound to --data-dir on RootCmd in root.go and read by every
// subcommand that needs to open the block store.
var dataDir string

func quietZap() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar()
}

// openKura opens the configured Kura directory. The inspection commands never
// call Append on the handle; applyAdminInstruction below is the one caller
// here that appends. The verify-and-truncate pass on open only ever trims a
// genuinely corrupt tail.
func openKura() (*core.Kura, error) {
	cfg := core.DefaultKuraConfig
	cfg.Dir = dataDir
	k, err := core.OpenKura(cfg, quietZap())
	if err != nil {
		return nil, fmt.Errorf("open kura at %s: %w", dataDir, err)
	}
	return k, nil
}

func replayWSV() (*core.WorldStateView, *core.Kura, error) {
	k, err := openKura()
	if err != nil {
		return nil, nil, err
	}
	v, err := core.ReplayFromKura(k)
	if err != nil {
		k.Close()
		return nil, nil, fmt.Errorf("replay kura: %w", err)
	}
	return v, k, nil
}

// applyAdminInstruction applies a single instruction outside of consensus,
// then appends the result as an unsigned single-transaction block. This is
// the CLI's bootstrap/administration path: it plays the same role
// ApplyGenesis does for the very first block, for every block after it. It
// is not how a live network accepts transactions -- that path is the Queue
// feeding a running Sumeragi, reached only by a real peer process.
func applyAdminInstruction(isi core.Instruction, authority core.AccountId) error {
	v, k, err := replayWSV()
	if err != nil {
		return err
	}
	defer k.Close()

	tx := v.Begin()
	if err := tx.ApplyTrusted(isi, authority); err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	v.Commit(tx)

	nowMS := time.Now().UnixMilli()
	txPayload := core.TransactionPayload{
		Authority:    authority,
		Instructions: core.Executable{Instructions: []core.Instruction{isi}},
		CreatedAtMS:  nowMS,
	}
	accepted := core.AcceptedTransaction{
		Tx:           core.Transaction{Payload: txPayload},
		AcceptedAtMS: nowMS,
	}
	var height uint64
	if last, ok := k.LastHeight(); ok {
		height = last + 1
	}
	block := &core.Block{
		Payload: core.BlockPayload{
			Header: core.BlockHeader{
				Height:      height,
				TimestampMS: nowMS,
			},
			Transactions: []core.AcceptedTransaction{accepted},
		},
	}
	if err := k.Append(block); err != nil {
		return fmt.Errorf("append block: %w", err)
	}
	return nil
}
