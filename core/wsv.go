package core

// wsv.go - the World State View and its transactional mutation scope.
//
// Grounded on ledger.go's memState/WithinBlock pattern: applyBlock there
// clones a working copy of the ledger's maps, lets every transaction in the
// block mutate the clone, and only swaps it into the live ledger once the
// whole block has applied cleanly. StateTransaction below is that same
// clone-scoped-mutation idea, specialised to the WSV's nested maps instead
// of a flat key/value store.

import (
	"fmt"
)

// NewWorld returns an empty World ready to have a genesis block applied.
func NewWorld() *World {
	return &World{
		Domains:    map[string]*Domain{},
		Roles:      map[RoleId]*Role{},
		Triggers:   map[TriggerId]*Trigger{},
		Peers:      map[PeerId]*Peer{},
		Parameters: map[string]string{},
	}
}

// Clone deep-copies the World so a StateTransaction can mutate its own
// private copy without observing or corrupting the live view until commit.
func (w *World) Clone() *World {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := NewWorld()
	out.Height = w.Height
	out.BlockHashes = append([]Hash(nil), w.BlockHashes...)
	for id, d := range w.Domains {
		nd := *d
		nd.Accounts = make(map[AccountId]*Account, len(d.Accounts))
		for aid, a := range d.Accounts {
			na := *a
			na.Signatories = cloneMap(a.Signatories)
			na.Roles = cloneSet(a.Roles)
			na.Permissions = clonePermMap(a.Permissions)
			na.Assets = cloneAssetMap(a.Assets)
			na.Metadata = cloneMetadata(a.Metadata)
			nd.Accounts[aid] = &na
		}
		nd.AssetDefinitions = make(map[AssetDefinitionId]*AssetDefinition, len(d.AssetDefinitions))
		for did, ad := range d.AssetDefinitions {
			nad := *ad
			nad.Metadata = cloneMetadata(ad.Metadata)
			nd.AssetDefinitions[did] = &nad
		}
		nd.Metadata = cloneMetadata(d.Metadata)
		out.Domains[id] = &nd
	}
	for id, r := range w.Roles {
		nr := *r
		nr.Permissions = clonePermMap(r.Permissions)
		out.Roles[id] = &nr
	}
	for id, t := range w.Triggers {
		nt := *t
		out.Triggers[id] = &nt
	}
	for id, p := range w.Peers {
		np := *p
		out.Peers[id] = &np
	}
	for k, v := range w.Parameters {
		out.Parameters[k] = v
	}
	return out
}

func cloneMap(m map[string]PublicKey) map[string]PublicKey {
	out := make(map[string]PublicKey, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSet(m map[RoleId]struct{}) map[RoleId]struct{} {
	out := make(map[RoleId]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func clonePermMap(m map[string]Permission) map[string]Permission {
	out := make(map[string]Permission, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAssetMap(m map[AssetId]Asset) map[AssetId]Asset {
	out := make(map[AssetId]Asset, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneMetadata(m Metadata) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// StateTransaction scopes a set of instruction applications against a
// private World clone. Nothing it does is visible to readers of the live
// WorldStateView until Commit swaps the clone in; discarding the
// StateTransaction without committing it leaves the live view untouched.
type StateTransaction struct {
	world  *World
	events []DataEvent
}

// WorldStateView is the read/write façade Sumeragi and the CLI/query layer
// hold onto. It owns the authoritative World and hands out StateTransactions
// for block application.
type WorldStateView struct {
	live *World
}

// NewWorldStateView wraps an existing World (typically freshly built by
// genesis loading or Kura replay).
func NewWorldStateView(w *World) *WorldStateView {
	return &WorldStateView{live: w}
}

// View returns the live World for read-only access. Callers must not mutate
// it directly; all mutation goes through Begin/Apply/Commit.
func (v *WorldStateView) View() *World { return v.live }

// Begin starts a StateTransaction against a private clone of the live view.
func (v *WorldStateView) Begin() *StateTransaction {
	return &StateTransaction{world: v.live.Clone()}
}

// Commit atomically swaps the transaction's mutated clone in as the new live
// view. It is the caller's responsibility to have either applied a whole
// block's worth of instructions successfully, or to discard the
// StateTransaction instead of committing a partial result.
func (v *WorldStateView) Commit(tx *StateTransaction) {
	v.live = tx.world
}

// Apply executes a single instruction against the transaction's state,
// first checking authorization via the supplied Executor.
func (tx *StateTransaction) Apply(isi Instruction, authority AccountId) error {
	return tx.ApplyWithExecutor(isi, authority, OwnerChainExecutor{})
}

// ApplyWithExecutor is Apply parameterised over the Executor, so another
// Executor implementation can be substituted without StateTransaction
// knowing about it. No instruction in this package installs a different
// executor; OwnerChainExecutor is the only implementation here.
func (tx *StateTransaction) ApplyWithExecutor(isi Instruction, authority AccountId, exec Executor) error {
	if err := exec.Validate(tx.world, authority, isi); err != nil {
		return err
	}
	if err := isi.Execute(tx, authority); err != nil {
		return err
	}
	tx.fireTriggers(authority)
	return nil
}

// ApplyTrusted executes isi with no authorization check, the same trust
// boundary ApplyGenesis uses for the very first block. It exists for callers
// that are themselves the trust boundary -- an operator with direct disk
// access to this peer's Kura directory -- rather than a transaction arriving
// over the network.
func (tx *StateTransaction) ApplyTrusted(isi Instruction, authority AccountId) error {
	if err := isi.Execute(tx, authority); err != nil {
		return err
	}
	tx.fireTriggers(authority)
	return nil
}

func (tx *StateTransaction) emit(ev DataEvent) {
	tx.events = append(tx.events, ev)
}

// fireTriggers evaluates every registered Trigger's EventFilter against the
// events accumulated so far this transaction and executes any whose filter
// matches and whose repeat budget is not exhausted. It is conservative by
// design: a trigger fires at most once per matching event per Apply call.
func (tx *StateTransaction) fireTriggers(authority AccountId) {
	if len(tx.events) == 0 {
		return
	}
	pending := tx.events
	tx.events = nil
	for _, ev := range pending {
		for id, t := range tx.world.Triggers {
			if !matches(t.Filter, ev) {
				continue
			}
			if t.Repeats != 0 && t.firedCount >= t.Repeats {
				continue
			}
			t.firedCount++
			for _, isi := range t.Action.Instructions {
				_ = isi.Execute(tx, t.Technical)
			}
			_ = id
		}
	}
}

func matches(f EventFilter, ev DataEvent) bool {
	if f.DataEntityKind != "" && f.DataEntityKind != ev.Kind {
		return false
	}
	if f.DomainId != "" && f.DomainId != ev.DomainId {
		return false
	}
	if f.AccountId != nil {
		if ev.AccountId == nil || *f.AccountId != *ev.AccountId {
			return false
		}
	}
	return true
}

// --- asset helpers shared by instructions.go -------------------------------

func (tx *StateTransaction) assetOf(acc *Account, id AssetId) (Asset, bool) {
	a, ok := acc.Assets[id]
	return a, ok
}

func (tx *StateTransaction) setAsset(acc *Account, a Asset) {
	if acc.Assets == nil {
		acc.Assets = map[AssetId]Asset{}
	}
	acc.Assets[a.Id] = a
}

func (tx *StateTransaction) deleteAsset(acc *Account, id AssetId) {
	delete(acc.Assets, id)
}

func (tx *StateTransaction) assetsOf(acc *Account) map[AssetId]Asset {
	return acc.Assets
}

func (tx *StateTransaction) assetDefinitionOf(id AssetDefinitionId) (*AssetDefinition, bool) {
	d, ok := tx.world.Domains[id.Domain]
	if !ok {
		return nil, false
	}
	ad, ok := d.AssetDefinitions[id]
	return ad, ok
}

// StateRoot returns a single digest summarising the entire World, used as a
// cheap cross-peer consistency check after block commit.
func (w *World) StateRoot() (Hash, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	type snapshot struct {
		Height  uint64
		Domains map[string]*Domain
		Roles   map[RoleId]*Role
	}
	return hashOf(snapshot{Height: w.Height, Domains: w.Domains, Roles: w.Roles})
}

// ApplyGenesis seeds an empty World from a list of instructions, executed
// with an authority of the zero AccountId and no authorization checks -- the
// genesis block is trusted by construction.
func (v *WorldStateView) ApplyGenesis(instructions []Instruction) error {
	tx := v.Begin()
	for i, isi := range instructions {
		if err := isi.Execute(tx, AccountId{}); err != nil {
			return fmt.Errorf("genesis: instruction %d: %w", i, err)
		}
	}
	v.Commit(tx)
	return nil
}

// ReplayFromKura rebuilds a WorldStateView by replaying every block Kura has
// on disk in height order, from an empty World. It is how a restarted peer
// recovers its WSV before rejoining Sumeragi, and how the CLI's read-only
// inspection commands reconstruct state without running consensus.
// Instructions from already-committed blocks are applied without
// authorization checks: the block's own inclusion in a signed, committed
// Kura entry is the trust boundary, exactly as it was when Sumeragi first
// validated and signed it.
func ReplayFromKura(kura *Kura) (*WorldStateView, error) {
	v := NewWorldStateView(NewWorld())
	err := kura.Replay(func(block *Block) error {
		tx := v.Begin()
		for i, accepted := range block.Payload.Transactions {
			if _, rejected := block.Rejected[i]; rejected {
				continue
			}
			authority := accepted.Tx.Payload.Authority
			for _, isi := range accepted.Tx.Payload.Instructions.Instructions {
				if err := isi.Execute(tx, authority); err != nil {
					return fmt.Errorf("replay: block %d tx %d: %w", block.Payload.Header.Height, i, err)
				}
			}
		}
		h := block.Hash()
		tx.world.Height = block.Payload.Header.Height + 1
		tx.world.BlockHashes = append(tx.world.BlockHashes, h)
		v.Commit(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
