package core

import "testing"

func seededWSV(t *testing.T) (*WorldStateView, AccountId, AssetDefinitionId) {
	t.Helper()
	owner := AccountId{Signatory: "alice", Domain: "wonderland"}
	def := AssetDefinitionId{Name: "rose", Domain: "wonderland"}
	v := NewWorldStateView(NewWorld())
	if err := v.ApplyGenesis([]Instruction{
		RegisterInstruction{Domain: &Domain{Id: "wonderland", OwnedBy: owner}},
		RegisterInstruction{Account: &Account{Id: owner}},
		RegisterInstruction{AssetDefinition: &AssetDefinition{Id: def, ValueType: ValueTypeNumeric, Mintable: MintabilityInfinitely, OwnedBy: owner}},
	}); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	return v, owner, def
}

func TestFindDomainAndAccount(t *testing.T) {
	v, owner, _ := seededWSV(t)
	res, err := FindDomain{Id: "wonderland"}.Execute(v.View())
	if err != nil {
		t.Fatalf("find domain: %v", err)
	}
	if res.(*Domain).Id != "wonderland" {
		t.Fatalf("unexpected domain result")
	}

	if _, err := FindDomain{Id: "nowhere"}.Execute(v.View()); err == nil {
		t.Fatalf("expected error for missing domain")
	}

	accRes, err := FindAccount{Id: owner}.Execute(v.View())
	if err != nil {
		t.Fatalf("find account: %v", err)
	}
	if accRes.(*Account).Id != owner {
		t.Fatalf("unexpected account result")
	}
}

func TestFindAssetQuantityDefaultsToZero(t *testing.T) {
	v, owner, def := seededWSV(t)
	assetID := AssetId{Definition: def, Account: owner}
	res, err := FindAssetQuantityById{Id: assetID}.Execute(v.View())
	if err != nil {
		t.Fatalf("find quantity: %v", err)
	}
	qty := res.(Numeric)
	if !qty.IsZero() {
		t.Fatalf("expected zero quantity for an asset never minted, got %s", qty.String())
	}
}

func TestFindAssetQuantityAfterMint(t *testing.T) {
	v, owner, def := seededWSV(t)
	assetID := AssetId{Definition: def, Account: owner}
	tx := v.Begin()
	if err := tx.ApplyTrusted(MintInstruction{Asset: assetID, Amount: NumericFromUint64(7)}, owner); err != nil {
		t.Fatalf("mint: %v", err)
	}
	v.Commit(tx)

	res, err := FindAssetQuantityById{Id: assetID}.Execute(v.View())
	if err != nil {
		t.Fatalf("find quantity: %v", err)
	}
	if res.(Numeric).String() != "7" {
		t.Fatalf("expected 7, got %s", res.(Numeric).String())
	}
}

func TestFindAssetsDefinitionsListsAll(t *testing.T) {
	v, _, def := seededWSV(t)
	res, err := FindAssetsDefinitions{}.Execute(v.View())
	if err != nil {
		t.Fatalf("find asset definitions: %v", err)
	}
	defs := res.([]*AssetDefinition)
	if len(defs) != 1 || defs[0].Id != def {
		t.Fatalf("expected exactly the seeded definition, got %+v", defs)
	}
}

func TestFindPeersAndRoles(t *testing.T) {
	v, _, _ := seededWSV(t)
	peer := PeerId{Address: "127.0.0.1:1"}
	tx := v.Begin()
	if err := tx.ApplyTrusted(RegisterInstruction{Peer: &Peer{Id: peer}}, AccountId{}); err != nil {
		t.Fatalf("register peer: %v", err)
	}
	if err := tx.ApplyTrusted(RegisterInstruction{Role: &Role{Id: RoleId{Name: "admin"}}}, AccountId{}); err != nil {
		t.Fatalf("register role: %v", err)
	}
	v.Commit(tx)

	peersRes, err := FindPeers{}.Execute(v.View())
	if err != nil {
		t.Fatalf("find peers: %v", err)
	}
	if len(peersRes.([]*Peer)) != 1 {
		t.Fatalf("expected 1 registered peer")
	}

	rolesRes, err := FindRoles{}.Execute(v.View())
	if err != nil {
		t.Fatalf("find roles: %v", err)
	}
	if len(rolesRes.([]*Role)) != 1 {
		t.Fatalf("expected 1 registered role")
	}
}
