package core

// instructions.go - the fixed instruction set (ISI) that WSV mutations and
// smart contracts are expressed in. Each instruction knows how to resolve an
// implicit "owner" and "domain" for the OwnerChainExecutor (permission.go)
// and how to Execute itself against a StateTransaction.
//
// Semantics for Mint/Burn/Transfer and MintabilityChanged below are ported
// directly from original_source's isi/asset.rs: a missing destination asset
// is treated as a zero-quantity asset rather than a distinct "not found"
// condition, and minting a Mintability::Once asset demotes it to Not on the
// first successful mint.

import (
	"fmt"
	"sort"
)

// Instruction is the common interface every ISI box implements.
type Instruction interface {
	owner(w *World) (AccountId, bool)
	domain(w *World) (string, bool)
	Execute(tx *StateTransaction, authority AccountId) error
}

// ---- Register ----------------------------------------------------------

// RegisterInstruction registers exactly one of its non-nil fields as a new
// WSV entity.
type RegisterInstruction struct {
	Domain          *Domain
	Account         *Account
	AssetDefinition *AssetDefinition
	Asset           *Asset
	Role            *Role
	Peer            *Peer
	Trigger         *Trigger
}

func (r RegisterInstruction) owner(w *World) (AccountId, bool) { return AccountId{}, false }

func (r RegisterInstruction) domain(w *World) (string, bool) {
	switch {
	case r.Account != nil:
		return r.Account.Id.Domain, true
	case r.AssetDefinition != nil:
		return r.AssetDefinition.Id.Domain, true
	case r.Asset != nil:
		return r.Asset.Id.Account.Domain, true
	default:
		return "", false
	}
}

func (r RegisterInstruction) Execute(tx *StateTransaction, authority AccountId) error {
	w := tx.world
	switch {
	case r.Domain != nil:
		if _, ok := w.Domains[r.Domain.Id]; ok {
			return fmt.Errorf("register: domain %s already exists", r.Domain.Id)
		}
		d := *r.Domain
		d.Accounts = map[AccountId]*Account{}
		d.AssetDefinitions = map[AssetDefinitionId]*AssetDefinition{}
		w.Domains[d.Id] = &d
		tx.emit(DataEvent{Kind: "Domain", Action: "Created", DomainId: d.Id})
		return nil
	case r.Account != nil:
		d, ok := w.Domains[r.Account.Id.Domain]
		if !ok {
			return fmt.Errorf("register: domain %s not found", r.Account.Id.Domain)
		}
		if _, ok := d.Accounts[r.Account.Id]; ok {
			return fmt.Errorf("register: account %s already exists", r.Account.Id)
		}
		acc := *r.Account
		if acc.Signatories == nil {
			acc.Signatories = map[string]PublicKey{}
		}
		if acc.Roles == nil {
			acc.Roles = map[RoleId]struct{}{}
		}
		if acc.Permissions == nil {
			acc.Permissions = map[string]Permission{}
		}
		d.Accounts[acc.Id] = &acc
		tx.emit(DataEvent{Kind: "Account", Action: "Created", AccountId: &acc.Id})
		return nil
	case r.AssetDefinition != nil:
		d, ok := w.Domains[r.AssetDefinition.Id.Domain]
		if !ok {
			return fmt.Errorf("register: domain %s not found", r.AssetDefinition.Id.Domain)
		}
		if _, ok := d.AssetDefinitions[r.AssetDefinition.Id]; ok {
			return fmt.Errorf("register: asset definition %s already exists", r.AssetDefinition.Id)
		}
		ad := *r.AssetDefinition
		d.AssetDefinitions[ad.Id] = &ad
		tx.emit(DataEvent{Kind: "AssetDefinition", Action: "Created", AssetDefinitionId: &ad.Id})
		return nil
	case r.Asset != nil:
		acc, ok := w.accountByID(r.Asset.Id.Account)
		if !ok {
			return fmt.Errorf("register: account %s not found", r.Asset.Id.Account)
		}
		if _, ok := tx.assetOf(acc, r.Asset.Id); ok {
			return fmt.Errorf("register: asset %s already exists", r.Asset.Id)
		}
		a := *r.Asset
		tx.setAsset(acc, a)
		return nil
	case r.Role != nil:
		if _, ok := w.Roles[r.Role.Id]; ok {
			return fmt.Errorf("register: role %s already exists", r.Role.Id.Name)
		}
		role := *r.Role
		if role.Permissions == nil {
			role.Permissions = map[string]Permission{}
		}
		w.Roles[role.Id] = &role
		return nil
	case r.Peer != nil:
		if _, ok := w.Peers[r.Peer.Id]; ok {
			return fmt.Errorf("register: peer %s already registered", r.Peer.Id)
		}
		p := *r.Peer
		w.Peers[p.Id] = &p
		return nil
	case r.Trigger != nil:
		if _, ok := w.Triggers[r.Trigger.Id]; ok {
			return fmt.Errorf("register: trigger %s already registered", r.Trigger.Id.Name)
		}
		t := *r.Trigger
		w.Triggers[t.Id] = &t
		return nil
	}
	return fmt.Errorf("register: empty instruction")
}

// ---- Unregister ---------------------------------------------------------

// UnregisterInstruction removes exactly one named entity. Unregistering a
// Domain or an AssetDefinition cascades: nested assets are removed first,
// then (for Domain) accounts, then asset definitions, then the container
// itself -- the reverse dependency order, which is the Open Question
// resolution recorded in DESIGN.md -- emitting one Deleted event per removed
// entity in that order and sweeping every permission, on every role and
// every account, that still names a removed id.
type UnregisterInstruction struct {
	Domain          *string
	Account         *AccountId
	AssetDefinition *AssetDefinitionId
	Asset           *AssetId
	Role            *RoleId
	Peer            *PeerId
	Trigger         *TriggerId
}

func (u UnregisterInstruction) owner(w *World) (AccountId, bool) {
	switch {
	case u.Account != nil:
		if a, ok := w.accountByID(*u.Account); ok {
			return a.Id, true
		}
	case u.Asset != nil:
		return u.Asset.Account, true
	}
	return AccountId{}, false
}

func (u UnregisterInstruction) domain(w *World) (string, bool) {
	switch {
	case u.Domain != nil:
		return *u.Domain, true
	case u.Account != nil:
		return u.Account.Domain, true
	case u.AssetDefinition != nil:
		return u.AssetDefinition.Domain, true
	case u.Asset != nil:
		return u.Asset.Account.Domain, true
	default:
		return "", false
	}
}

func (u UnregisterInstruction) Execute(tx *StateTransaction, authority AccountId) error {
	w := tx.world
	switch {
	case u.Asset != nil:
		acc, ok := w.accountByID(u.Asset.Account)
		if !ok {
			return fmt.Errorf("unregister: account %s not found", u.Asset.Account)
		}
		if _, ok := tx.assetOf(acc, *u.Asset); !ok {
			return fmt.Errorf("unregister: asset %s not found", u.Asset)
		}
		tx.deleteAsset(acc, *u.Asset)
		return nil
	case u.AssetDefinition != nil:
		d, ok := w.Domains[u.AssetDefinition.Domain]
		if !ok {
			return fmt.Errorf("unregister: domain %s not found", u.AssetDefinition.Domain)
		}
		if _, ok := d.AssetDefinitions[*u.AssetDefinition]; !ok {
			return fmt.Errorf("unregister: asset definition %s not found", u.AssetDefinition)
		}
		var removedAssets []AssetId
		for _, dom := range w.Domains {
			for _, acc := range dom.Accounts {
				for assetID := range tx.assetsOf(acc) {
					if assetID.Definition == *u.AssetDefinition {
						removedAssets = append(removedAssets, assetID)
					}
				}
			}
		}
		sort.Slice(removedAssets, func(i, j int) bool { return removedAssets[i].String() < removedAssets[j].String() })

		removedIDs := []string{u.AssetDefinition.String()}
		for _, assetID := range removedAssets {
			acc, ok := w.accountByID(assetID.Account)
			if !ok {
				continue
			}
			tx.deleteAsset(acc, assetID)
			tx.emit(DataEvent{Kind: "Asset", Action: "Deleted", AssetId: &assetID})
			removedIDs = append(removedIDs, assetID.String())
		}

		delete(d.AssetDefinitions, *u.AssetDefinition)
		tx.emit(DataEvent{Kind: "AssetDefinition", Action: "Deleted", AssetDefinitionId: u.AssetDefinition})
		sweepPermissions(w, removedIDs)
		return nil
	case u.Account != nil:
		d, ok := w.Domains[u.Account.Domain]
		if !ok {
			return fmt.Errorf("unregister: domain %s not found", u.Account.Domain)
		}
		acc, ok := d.Accounts[*u.Account]
		if !ok {
			return fmt.Errorf("unregister: account %s not found", u.Account)
		}
		for aid := range tx.assetsOf(acc) {
			tx.deleteAsset(acc, aid)
		}
		delete(d.Accounts, *u.Account)
		return nil
	case u.Domain != nil:
		d, ok := w.Domains[*u.Domain]
		if !ok {
			return fmt.Errorf("unregister: domain %s not found", *u.Domain)
		}

		var removedAssets []AssetId
		var removedAccounts []AccountId
		for aid, acc := range d.Accounts {
			removedAccounts = append(removedAccounts, aid)
			for assetID := range tx.assetsOf(acc) {
				removedAssets = append(removedAssets, assetID)
			}
		}
		sort.Slice(removedAssets, func(i, j int) bool { return removedAssets[i].String() < removedAssets[j].String() })
		sort.Slice(removedAccounts, func(i, j int) bool { return removedAccounts[i].String() < removedAccounts[j].String() })

		var removedDefs []AssetDefinitionId
		for did := range d.AssetDefinitions {
			removedDefs = append(removedDefs, did)
		}
		sort.Slice(removedDefs, func(i, j int) bool { return removedDefs[i].String() < removedDefs[j].String() })

		removedIDs := []string{*u.Domain}
		for _, assetID := range removedAssets {
			acc, ok := w.accountByID(assetID.Account)
			if ok {
				tx.deleteAsset(acc, assetID)
			}
			tx.emit(DataEvent{Kind: "Asset", Action: "Deleted", AssetId: &assetID})
			removedIDs = append(removedIDs, assetID.String())
		}
		for _, aid := range removedAccounts {
			delete(d.Accounts, aid)
			tx.emit(DataEvent{Kind: "Account", Action: "Deleted", AccountId: &aid})
			removedIDs = append(removedIDs, aid.String())
		}
		for _, did := range removedDefs {
			delete(d.AssetDefinitions, did)
			tx.emit(DataEvent{Kind: "AssetDefinition", Action: "Deleted", AssetDefinitionId: &did})
			removedIDs = append(removedIDs, did.String())
		}

		delete(w.Domains, *u.Domain)
		tx.emit(DataEvent{Kind: "Domain", Action: "Deleted", DomainId: *u.Domain})
		sweepPermissions(w, removedIDs)
		return nil
	case u.Role != nil:
		if _, ok := w.Roles[*u.Role]; !ok {
			return fmt.Errorf("unregister: role %s not found", u.Role.Name)
		}
		delete(w.Roles, *u.Role)
		return nil
	case u.Peer != nil:
		if _, ok := w.Peers[*u.Peer]; !ok {
			return fmt.Errorf("unregister: peer %s not found", u.Peer)
		}
		delete(w.Peers, *u.Peer)
		return nil
	case u.Trigger != nil:
		if _, ok := w.Triggers[*u.Trigger]; !ok {
			return fmt.Errorf("unregister: trigger %s not found", u.Trigger.Name)
		}
		delete(w.Triggers, *u.Trigger)
		return nil
	}
	return fmt.Errorf("unregister: empty instruction")
}

// ---- Mint / Burn / Transfer ---------------------------------------------

// MintInstruction increases the quantity of a Numeric asset (or, when the
// target AssetDefinition's Mintable is Once, also flips it to Not -- a
// MintabilityChanged event is emitted exactly once on that transition).
type MintInstruction struct {
	Asset  AssetId
	Amount Numeric
}

func (m MintInstruction) owner(w *World) (AccountId, bool) { return m.Asset.Account, true }
func (m MintInstruction) domain(w *World) (string, bool)   { return m.Asset.Account.Domain, true }

func (m MintInstruction) Execute(tx *StateTransaction, authority AccountId) error {
	w := tx.world
	def, ok := tx.assetDefinitionOf(m.Asset.Definition)
	if !ok {
		return fmt.Errorf("mint: asset definition %s not found", m.Asset.Definition)
	}
	if def.Mintable == MintabilityNot {
		return fmt.Errorf("mint: asset definition %s is not mintable", m.Asset.Definition)
	}
	acc, ok := w.accountByID(m.Asset.Account)
	if !ok {
		return fmt.Errorf("mint: account %s not found", m.Asset.Account)
	}
	current, ok := tx.assetOf(acc, m.Asset)
	if !ok {
		current = Asset{Id: m.Asset, Value: AssetValue{Numeric: NumericZero()}}
	}
	sum, err := current.Value.Numeric.Add(m.Amount)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	current.Value.Numeric = sum
	tx.setAsset(acc, current)
	newTotal, err := def.TotalQuantity.Add(m.Amount)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	def.TotalQuantity = newTotal
	if def.Mintable == MintabilityOnce {
		def.Mintable = MintabilityNot
		tx.emit(DataEvent{Kind: "AssetDefinition", Action: "MintabilityChanged", AssetDefinitionId: &def.Id})
	}
	tx.emit(DataEvent{Kind: "Asset", Action: "Changed", AssetId: &current.Id})
	return nil
}

// BurnInstruction decreases the quantity of a Numeric asset. A missing asset
// record is treated as holding zero, so burning any positive amount from an
// account with no such asset fails with an insufficient-quantity error
// rather than a distinct not-found error.
type BurnInstruction struct {
	Asset  AssetId
	Amount Numeric
}

func (b BurnInstruction) owner(w *World) (AccountId, bool) { return b.Asset.Account, true }
func (b BurnInstruction) domain(w *World) (string, bool)   { return b.Asset.Account.Domain, true }

func (b BurnInstruction) Execute(tx *StateTransaction, authority AccountId) error {
	w := tx.world
	acc, ok := w.accountByID(b.Asset.Account)
	if !ok {
		return fmt.Errorf("burn: account %s not found", b.Asset.Account)
	}
	current, ok := tx.assetOf(acc, b.Asset)
	if !ok {
		current = Asset{Id: b.Asset, Value: AssetValue{Numeric: NumericZero()}}
	}
	remaining, err := current.Value.Numeric.Sub(b.Amount)
	if err != nil {
		return fmt.Errorf("burn: insufficient quantity of %s: %w", b.Asset, err)
	}
	if def, ok := tx.assetDefinitionOf(b.Asset.Definition); ok {
		newTotal, err := def.TotalQuantity.Sub(b.Amount)
		if err != nil {
			return fmt.Errorf("burn: %w", err)
		}
		def.TotalQuantity = newTotal
	}
	if remaining.IsZero() {
		tx.deleteAsset(acc, b.Asset)
		tx.emit(DataEvent{Kind: "Asset", Action: "Changed", AssetId: &b.Asset})
		return nil
	}
	current.Value.Numeric = remaining
	tx.setAsset(acc, current)
	tx.emit(DataEvent{Kind: "Asset", Action: "Changed", AssetId: &current.Id})
	return nil
}

// TransferInstruction moves a Numeric quantity from one account's asset to
// another's. Like Burn, a missing source asset is treated as zero.
type TransferInstruction struct {
	Source      AssetId
	Destination AccountId
	Amount      Numeric
}

func (t TransferInstruction) owner(w *World) (AccountId, bool) { return t.Source.Account, true }
func (t TransferInstruction) domain(w *World) (string, bool)   { return t.Source.Account.Domain, true }

func (t TransferInstruction) Execute(tx *StateTransaction, authority AccountId) error {
	w := tx.world
	srcAcc, ok := w.accountByID(t.Source.Account)
	if !ok {
		return fmt.Errorf("transfer: source account %s not found", t.Source.Account)
	}
	dstAcc, ok := w.accountByID(t.Destination)
	if !ok {
		return fmt.Errorf("transfer: destination account %s not found", t.Destination)
	}
	srcAsset, ok := tx.assetOf(srcAcc, t.Source)
	if !ok {
		srcAsset = Asset{Id: t.Source, Value: AssetValue{Numeric: NumericZero()}}
	}
	remaining, err := srcAsset.Value.Numeric.Sub(t.Amount)
	if err != nil {
		return fmt.Errorf("transfer: insufficient quantity of %s: %w", t.Source, err)
	}
	dstID := AssetId{Definition: t.Source.Definition, Account: t.Destination}
	dstAsset, ok := tx.assetOf(dstAcc, dstID)
	if !ok {
		dstAsset = Asset{Id: dstID, Value: AssetValue{Numeric: NumericZero()}}
	}
	newDst, err := dstAsset.Value.Numeric.Add(t.Amount)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if remaining.IsZero() {
		tx.deleteAsset(srcAcc, t.Source)
	} else {
		srcAsset.Value.Numeric = remaining
		tx.setAsset(srcAcc, srcAsset)
	}
	dstAsset.Value.Numeric = newDst
	tx.setAsset(dstAcc, dstAsset)
	return nil
}

// ---- Grant / Revoke -------------------------------------------------------

// GrantInstruction grants exactly one of Permission or Role to Destination.
type GrantInstruction struct {
	Permission *Permission
	Role       *RoleId
	Destination AccountId
}

func (g GrantInstruction) owner(w *World) (AccountId, bool) { return AccountId{}, false }
func (g GrantInstruction) domain(w *World) (string, bool)   { return g.Destination.Domain, true }

func (g GrantInstruction) Execute(tx *StateTransaction, authority AccountId) error {
	acc, ok := tx.world.accountByID(g.Destination)
	if !ok {
		return fmt.Errorf("grant: account %s not found", g.Destination)
	}
	switch {
	case g.Permission != nil:
		return acc.GrantPermission(*g.Permission)
	case g.Role != nil:
		return acc.GrantRole(*g.Role)
	}
	return fmt.Errorf("grant: empty instruction")
}

// RevokeInstruction revokes exactly one of Permission or Role from
// Destination.
type RevokeInstruction struct {
	Permission  *Permission
	Role        *RoleId
	Destination AccountId
}

func (r RevokeInstruction) owner(w *World) (AccountId, bool) { return AccountId{}, false }
func (r RevokeInstruction) domain(w *World) (string, bool)   { return r.Destination.Domain, true }

func (r RevokeInstruction) Execute(tx *StateTransaction, authority AccountId) error {
	acc, ok := tx.world.accountByID(r.Destination)
	if !ok {
		return fmt.Errorf("revoke: account %s not found", r.Destination)
	}
	switch {
	case r.Permission != nil:
		return acc.RevokePermission(*r.Permission)
	case r.Role != nil:
		return acc.RevokeRole(*r.Role)
	}
	return fmt.Errorf("revoke: empty instruction")
}

// ---- Metadata ------------------------------------------------------------

// SetKeyValueInstruction writes a metadata entry on exactly one target kind.
type SetKeyValueInstruction struct {
	Domain          *string
	Account         *AccountId
	AssetDefinition *AssetDefinitionId
	Asset           *AssetId
	Key             string
	Value           any
}

func (s SetKeyValueInstruction) owner(w *World) (AccountId, bool) {
	if s.Account != nil {
		return *s.Account, true
	}
	if s.Asset != nil {
		return s.Asset.Account, true
	}
	return AccountId{}, false
}

func (s SetKeyValueInstruction) domain(w *World) (string, bool) {
	switch {
	case s.Domain != nil:
		return *s.Domain, true
	case s.Account != nil:
		return s.Account.Domain, true
	case s.AssetDefinition != nil:
		return s.AssetDefinition.Domain, true
	case s.Asset != nil:
		return s.Asset.Account.Domain, true
	default:
		return "", false
	}
}

func (s SetKeyValueInstruction) Execute(tx *StateTransaction, authority AccountId) error {
	w := tx.world
	if s.Asset != nil {
		acc, ok := w.accountByID(s.Asset.Account)
		if !ok {
			return fmt.Errorf("set_key_value: account %s not found", s.Asset.Account)
		}
		asset, ok := tx.assetOf(acc, *s.Asset)
		if !ok {
			return fmt.Errorf("set_key_value: asset %s not found", s.Asset)
		}
		if asset.Value.Store == nil {
			asset.Value.Store = Metadata{}
		}
		if uint32(len(asset.Value.Store)) >= DefaultMetadataLimits.MaxLen {
			if _, exists := asset.Value.Store[s.Key]; !exists {
				return fmt.Errorf("set_key_value: metadata entry limit %d reached", DefaultMetadataLimits.MaxLen)
			}
		}
		asset.Value.Store[s.Key] = s.Value
		tx.setAsset(acc, asset)
		return nil
	}
	md, limits, err := s.resolveMetadata(w)
	if err != nil {
		return err
	}
	if uint32(len(*md)) >= limits.MaxLen {
		if _, exists := (*md)[s.Key]; !exists {
			return fmt.Errorf("set_key_value: metadata entry limit %d reached", limits.MaxLen)
		}
	}
	(*md)[s.Key] = s.Value
	return nil
}

func (s SetKeyValueInstruction) resolveMetadata(w *World) (*Metadata, MetadataLimits, error) {
	switch {
	case s.Domain != nil:
		d, ok := w.Domains[*s.Domain]
		if !ok {
			return nil, MetadataLimits{}, fmt.Errorf("set_key_value: domain %s not found", *s.Domain)
		}
		return &d.Metadata, DefaultMetadataLimits, nil
	case s.Account != nil:
		a, ok := w.accountByID(*s.Account)
		if !ok {
			return nil, MetadataLimits{}, fmt.Errorf("set_key_value: account %s not found", s.Account)
		}
		return &a.Metadata, DefaultMetadataLimits, nil
	case s.AssetDefinition != nil:
		d, ok := w.Domains[s.AssetDefinition.Domain]
		if !ok {
			return nil, MetadataLimits{}, fmt.Errorf("set_key_value: domain %s not found", s.AssetDefinition.Domain)
		}
		ad, ok := d.AssetDefinitions[*s.AssetDefinition]
		if !ok {
			return nil, MetadataLimits{}, fmt.Errorf("set_key_value: asset definition %s not found", s.AssetDefinition)
		}
		return &ad.Metadata, DefaultMetadataLimits, nil
	case s.Asset != nil:
		return nil, MetadataLimits{}, fmt.Errorf("set_key_value: asset metadata is handled directly by Execute")
	}
	return nil, MetadataLimits{}, fmt.Errorf("set_key_value: empty instruction")
}

// RemoveKeyValueInstruction removes a metadata entry from exactly one target
// kind. Removing an absent key is an error, matching SetKeyValue's
// symmetric strictness.
type RemoveKeyValueInstruction struct {
	Domain          *string
	Account         *AccountId
	AssetDefinition *AssetDefinitionId
	Key             string
}

func (r RemoveKeyValueInstruction) owner(w *World) (AccountId, bool) {
	if r.Account != nil {
		return *r.Account, true
	}
	return AccountId{}, false
}

func (r RemoveKeyValueInstruction) domain(w *World) (string, bool) {
	switch {
	case r.Domain != nil:
		return *r.Domain, true
	case r.Account != nil:
		return r.Account.Domain, true
	case r.AssetDefinition != nil:
		return r.AssetDefinition.Domain, true
	default:
		return "", false
	}
}

func (r RemoveKeyValueInstruction) Execute(tx *StateTransaction, authority AccountId) error {
	s := SetKeyValueInstruction{Domain: r.Domain, Account: r.Account, AssetDefinition: r.AssetDefinition}
	md, _, err := s.resolveMetadata(tx.world)
	if err != nil {
		return err
	}
	if _, ok := (*md)[r.Key]; !ok {
		return fmt.Errorf("remove_key_value: key %q not present", r.Key)
	}
	delete(*md, r.Key)
	return nil
}

// ---- Triggers --------------------------------------------------------------

// ExecuteTriggerInstruction fires a registered Trigger out of band, subject
// to the same Repeats budget as event-driven firing: each invocation (direct
// or recursive, via a trigger whose action itself calls ExecuteTrigger)
// consumes one unit of the budget. The action's instructions run natively
// with no fuel limit, so recursion is bounded only by the Repeats budget; a
// trigger whose Repeats is 0 has no bound.
type ExecuteTriggerInstruction struct {
	Trigger TriggerId
}

func (e ExecuteTriggerInstruction) owner(w *World) (AccountId, bool) { return AccountId{}, false }
func (e ExecuteTriggerInstruction) domain(w *World) (string, bool)   { return "", false }

func (e ExecuteTriggerInstruction) Execute(tx *StateTransaction, authority AccountId) error {
	t, ok := tx.world.Triggers[e.Trigger]
	if !ok {
		return fmt.Errorf("execute_trigger: %s not found", e.Trigger.Name)
	}
	if t.Repeats != 0 && t.firedCount >= t.Repeats {
		return fmt.Errorf("execute_trigger: %s exhausted its repeat budget", e.Trigger.Name)
	}
	t.firedCount++
	for _, isi := range t.Action.Instructions {
		if err := tx.Apply(isi, t.Technical); err != nil {
			return fmt.Errorf("execute_trigger: %s: %w", e.Trigger.Name, err)
		}
	}
	return nil
}

// DataEvent is the minimal event shape trigger filters match against and
// that the executor's audit log records.
type DataEvent struct {
	Kind              string
	Action            string
	DomainId          string
	AccountId         *AccountId
	AssetDefinitionId *AssetDefinitionId
	AssetId           *AssetId
}
