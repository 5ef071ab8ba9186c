package core

// queries.go - the fixed set of read-only finders exposed over the WSV.
// Supplemented beyond the distilled spec: it names "arbitrary query
// languages" as a non-goal, which a small closed set of typed finders (one
// Go function per supported lookup, no filter expression tree) does not
// fall under.

import "fmt"

// Query is implemented by every supported finder. Execute never mutates the
// World; it is handed the live view directly rather than a StateTransaction.
type Query interface {
	Execute(w *World) (any, error)
}

// FindDomain looks up a single domain by id.
type FindDomain struct{ Id string }

func (q FindDomain) Execute(w *World) (any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.Domains[q.Id]
	if !ok {
		return nil, fmt.Errorf("find_domain: %s not found", q.Id)
	}
	return d, nil
}

// FindAccount looks up a single account by id.
type FindAccount struct{ Id AccountId }

func (q FindAccount) Execute(w *World) (any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a, ok := w.accountByID(q.Id)
	if !ok {
		return nil, fmt.Errorf("find_account: %s not found", q.Id)
	}
	return a, nil
}

// FindAssetDefinition looks up a single asset definition by id.
type FindAssetDefinition struct{ Id AssetDefinitionId }

func (q FindAssetDefinition) Execute(w *World) (any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.Domains[q.Id.Domain]
	if !ok {
		return nil, fmt.Errorf("find_asset_definition: domain %s not found", q.Id.Domain)
	}
	ad, ok := d.AssetDefinitions[q.Id]
	if !ok {
		return nil, fmt.Errorf("find_asset_definition: %s not found", q.Id)
	}
	return ad, nil
}

// FindAssetsDefinitions lists every registered asset definition.
type FindAssetsDefinitions struct{}

func (q FindAssetsDefinitions) Execute(w *World) (any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*AssetDefinition
	for _, d := range w.Domains {
		for _, ad := range d.AssetDefinitions {
			out = append(out, ad)
		}
	}
	return out, nil
}

// FindAsset looks up a single asset by id.
type FindAsset struct{ Id AssetId }

func (q FindAsset) Execute(w *World) (any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	acc, ok := w.accountByID(q.Id.Account)
	if !ok {
		return nil, fmt.Errorf("find_asset: account %s not found", q.Id.Account)
	}
	a, ok := acc.Assets[q.Id]
	if !ok {
		return nil, fmt.Errorf("find_asset: %s not found", q.Id)
	}
	return a, nil
}

// FindAssetQuantityById returns just the Numeric quantity of an asset,
// treating a missing asset record as zero -- consistent with Burn/Transfer's
// missing-asset-is-zero convention in instructions.go.
type FindAssetQuantityById struct{ Id AssetId }

func (q FindAssetQuantityById) Execute(w *World) (any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	acc, ok := w.accountByID(q.Id.Account)
	if !ok {
		return nil, fmt.Errorf("find_asset_quantity: account %s not found", q.Id.Account)
	}
	a, ok := acc.Assets[q.Id]
	if !ok {
		return NumericZero(), nil
	}
	return a.Value.Numeric, nil
}

// FindTriggers lists every registered trigger.
type FindTriggers struct{}

func (q FindTriggers) Execute(w *World) (any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*Trigger
	for _, t := range w.Triggers {
		out = append(out, t)
	}
	return out, nil
}

// FindRoles lists every registered role.
type FindRoles struct{}

func (q FindRoles) Execute(w *World) (any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*Role
	for _, r := range w.Roles {
		out = append(out, r)
	}
	return out, nil
}

// FindPeers lists every registered peer.
type FindPeers struct{}

func (q FindPeers) Execute(w *World) (any, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*Peer
	for _, p := range w.Peers {
		out = append(out, p)
	}
	return out, nil
}
