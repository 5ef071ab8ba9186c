package core

import "testing"

func seedDomainAccount(v *WorldStateView, domainID string, owner AccountId) {
	tx := v.Begin()
	if err := tx.ApplyTrusted(RegisterInstruction{Domain: &Domain{Id: domainID, OwnedBy: owner}}, AccountId{}); err != nil {
		panic(err)
	}
	if err := tx.ApplyTrusted(RegisterInstruction{Account: &Account{Id: owner}}, AccountId{}); err != nil {
		panic(err)
	}
	v.Commit(tx)
}

func TestRegisterUnregisterDomain(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	owner := AccountId{Signatory: "alice", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", owner)

	if _, ok := v.View().Domains["wonderland"]; !ok {
		t.Fatalf("expected domain to be registered")
	}

	tx := v.Begin()
	dom := "wonderland"
	if err := tx.ApplyTrusted(UnregisterInstruction{Domain: &dom}, AccountId{}); err != nil {
		t.Fatalf("unregister domain: %v", err)
	}
	v.Commit(tx)

	if _, ok := v.View().Domains["wonderland"]; ok {
		t.Fatalf("expected domain to be removed")
	}
}

func TestRegisterDomainDuplicateErrors(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	owner := AccountId{Signatory: "alice", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", owner)

	tx := v.Begin()
	err := tx.ApplyTrusted(RegisterInstruction{Domain: &Domain{Id: "wonderland"}}, AccountId{})
	if err == nil {
		t.Fatalf("expected error registering a duplicate domain")
	}
}

func TestMintBurnTransfer(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	alice := AccountId{Signatory: "alice", Domain: "wonderland"}
	bob := AccountId{Signatory: "bob", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", alice)

	tx := v.Begin()
	if err := tx.ApplyTrusted(RegisterInstruction{Account: &Account{Id: bob}}, AccountId{}); err != nil {
		t.Fatalf("register bob: %v", err)
	}
	def := AssetDefinitionId{Name: "rose", Domain: "wonderland"}
	if err := tx.ApplyTrusted(RegisterInstruction{AssetDefinition: &AssetDefinition{
		Id: def, ValueType: ValueTypeNumeric, Mintable: MintabilityInfinitely, OwnedBy: alice,
	}}, AccountId{}); err != nil {
		t.Fatalf("register asset definition: %v", err)
	}
	v.Commit(tx)

	aliceAsset := AssetId{Definition: def, Account: alice}
	tx = v.Begin()
	if err := tx.ApplyTrusted(MintInstruction{Asset: aliceAsset, Amount: NumericFromUint64(100)}, alice); err != nil {
		t.Fatalf("mint: %v", err)
	}
	v.Commit(tx)

	got, ok := v.View().Domains["wonderland"].Accounts[alice].Assets[aliceAsset]
	if !ok {
		t.Fatalf("expected alice to hold the minted asset")
	}
	if got.Value.Numeric.String() != "100" {
		t.Fatalf("expected 100, got %s", got.Value.Numeric.String())
	}

	tx = v.Begin()
	if err := tx.ApplyTrusted(TransferInstruction{Source: aliceAsset, Destination: bob, Amount: NumericFromUint64(40)}, alice); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	v.Commit(tx)

	aliceRemaining := v.View().Domains["wonderland"].Accounts[alice].Assets[aliceAsset]
	if aliceRemaining.Value.Numeric.String() != "60" {
		t.Fatalf("expected alice to retain 60, got %s", aliceRemaining.Value.Numeric.String())
	}
	bobAsset := AssetId{Definition: def, Account: bob}
	bobGot := v.View().Domains["wonderland"].Accounts[bob].Assets[bobAsset]
	if bobGot.Value.Numeric.String() != "40" {
		t.Fatalf("expected bob to receive 40, got %s", bobGot.Value.Numeric.String())
	}

	tx = v.Begin()
	if err := tx.ApplyTrusted(BurnInstruction{Asset: bobAsset, Amount: NumericFromUint64(40)}, bob); err != nil {
		t.Fatalf("burn: %v", err)
	}
	v.Commit(tx)

	if _, ok := v.View().Domains["wonderland"].Accounts[bob].Assets[bobAsset]; ok {
		t.Fatalf("expected fully-burned asset record to be removed")
	}
}

func TestBurnInsufficientQuantityErrors(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	alice := AccountId{Signatory: "alice", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", alice)
	def := AssetDefinitionId{Name: "rose", Domain: "wonderland"}
	assetID := AssetId{Definition: def, Account: alice}

	tx := v.Begin()
	err := tx.ApplyTrusted(BurnInstruction{Asset: assetID, Amount: NumericFromUint64(1)}, alice)
	if err == nil {
		t.Fatalf("expected error burning from an account with no such asset")
	}
}

func TestMintOnceDemotesMintability(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	alice := AccountId{Signatory: "alice", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", alice)
	def := AssetDefinitionId{Name: "crown", Domain: "wonderland"}

	tx := v.Begin()
	if err := tx.ApplyTrusted(RegisterInstruction{AssetDefinition: &AssetDefinition{
		Id: def, ValueType: ValueTypeNumeric, Mintable: MintabilityOnce, OwnedBy: alice,
	}}, AccountId{}); err != nil {
		t.Fatalf("register asset definition: %v", err)
	}
	v.Commit(tx)

	assetID := AssetId{Definition: def, Account: alice}
	tx = v.Begin()
	if err := tx.ApplyTrusted(MintInstruction{Asset: assetID, Amount: NumericFromUint64(1)}, alice); err != nil {
		t.Fatalf("mint: %v", err)
	}
	v.Commit(tx)

	if v.View().Domains["wonderland"].AssetDefinitions[def].Mintable != MintabilityNot {
		t.Fatalf("expected Mintable to demote to Not after first mint")
	}

	tx = v.Begin()
	err := tx.ApplyTrusted(MintInstruction{Asset: assetID, Amount: NumericFromUint64(1)}, alice)
	if err == nil {
		t.Fatalf("expected second mint of a Once asset to fail")
	}
}

func TestUnregisterDomainCascadesAssets(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	alice := AccountId{Signatory: "alice", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", alice)
	def := AssetDefinitionId{Name: "rose", Domain: "wonderland"}

	tx := v.Begin()
	if err := tx.ApplyTrusted(RegisterInstruction{AssetDefinition: &AssetDefinition{
		Id: def, ValueType: ValueTypeNumeric, Mintable: MintabilityInfinitely, OwnedBy: alice,
	}}, AccountId{}); err != nil {
		t.Fatalf("register asset definition: %v", err)
	}
	assetID := AssetId{Definition: def, Account: alice}
	if err := tx.ApplyTrusted(MintInstruction{Asset: assetID, Amount: NumericFromUint64(5)}, alice); err != nil {
		t.Fatalf("mint: %v", err)
	}
	v.Commit(tx)

	tx = v.Begin()
	dom := "wonderland"
	if err := tx.ApplyTrusted(UnregisterInstruction{Domain: &dom}, AccountId{}); err != nil {
		t.Fatalf("unregister domain: %v", err)
	}
	v.Commit(tx)

	if _, ok := v.View().Domains["wonderland"]; ok {
		t.Fatalf("expected domain fully removed")
	}
}

func TestUnregisterDomainEmitsOrderedDeletedEventsAndSweepsPermissions(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	alice := AccountId{Signatory: "alice", Domain: "kingdom"}
	seedDomainAccount(v, "kingdom", alice)
	carol := AccountId{Signatory: "carol", Domain: "kingdom"}

	tx := v.Begin()
	if err := tx.ApplyTrusted(RegisterInstruction{Account: &Account{Id: carol}}, AccountId{}); err != nil {
		t.Fatalf("register carol: %v", err)
	}
	defs := []AssetDefinitionId{
		{Name: "rose", Domain: "kingdom"},
		{Name: "crown", Domain: "kingdom"},
		{Name: "sword", Domain: "kingdom"},
	}
	for _, def := range defs {
		if err := tx.ApplyTrusted(RegisterInstruction{AssetDefinition: &AssetDefinition{
			Id: def, ValueType: ValueTypeNumeric, Mintable: MintabilityInfinitely, OwnedBy: alice,
		}}, AccountId{}); err != nil {
			t.Fatalf("register asset definition %s: %v", def, err)
		}
	}
	v.Commit(tx)

	other := "other"
	bob := AccountId{Signatory: "bob", Domain: "other"}
	seedDomainAccount(v, other, bob)

	mentionsKingdom := []Permission{
		{Name: "can_unregister_domain", Payload: []byte(`{"domain_id":"kingdom"}`)},
		{Name: "can_transfer_assets", Payload: []byte(`{"asset_id":"rose#kingdom#alice@kingdom"}`)},
		{Name: "can_burn_assets", Payload: []byte(`{"asset_id":"crown#kingdom#carol@kingdom"}`)},
		{Name: "can_set_key_value", Payload: []byte(`{"account_id":"alice@kingdom"}`)},
	}
	unrelated := Permission{Name: "can_register", Payload: []byte(`{"domain_id":"other"}`)}

	tx = v.Begin()
	for _, p := range mentionsKingdom {
		if err := tx.ApplyTrusted(GrantInstruction{Permission: &p, Destination: bob}, AccountId{}); err != nil {
			t.Fatalf("grant %s: %v", p.Name, err)
		}
	}
	if err := tx.ApplyTrusted(GrantInstruction{Permission: &unrelated, Destination: bob}, AccountId{}); err != nil {
		t.Fatalf("grant unrelated: %v", err)
	}
	v.Commit(tx)

	aliceRose := AssetId{Definition: defs[0], Account: alice}
	tx = v.Begin()
	if err := tx.ApplyTrusted(MintInstruction{Asset: aliceRose, Amount: NumericFromUint64(5)}, alice); err != nil {
		t.Fatalf("mint: %v", err)
	}
	v.Commit(tx)

	tx = v.Begin()
	dom := "kingdom"
	if err := (UnregisterInstruction{Domain: &dom}).Execute(tx, AccountId{}); err != nil {
		t.Fatalf("unregister domain: %v", err)
	}

	wantKinds := []string{"Asset", "Account", "Account", "AssetDefinition", "AssetDefinition", "AssetDefinition", "Domain"}
	if len(tx.events) != len(wantKinds) {
		t.Fatalf("expected %d Deleted events, got %d: %+v", len(wantKinds), len(tx.events), tx.events)
	}
	for i, kind := range wantKinds {
		if tx.events[i].Kind != kind || tx.events[i].Action != "Deleted" {
			t.Fatalf("event %d: expected Deleted %s, got %s %s", i, kind, tx.events[i].Action, tx.events[i].Kind)
		}
	}
	// accounts sort alphabetically by "signatory@domain": alice before carol.
	if tx.events[1].AccountId.Signatory != "alice" || tx.events[2].AccountId.Signatory != "carol" {
		t.Fatalf("expected accounts deleted alice-then-carol, got %s then %s", tx.events[1].AccountId, tx.events[2].AccountId)
	}
	// definitions sort alphabetically by "name#domain": crown, rose, sword.
	wantDefOrder := []string{"crown", "rose", "sword"}
	for i, name := range wantDefOrder {
		if tx.events[3+i].AssetDefinitionId.Name != name {
			t.Fatalf("expected definition %s at position %d, got %s", name, i, tx.events[3+i].AssetDefinitionId.Name)
		}
	}
	v.Commit(tx)

	if _, ok := v.View().Domains["kingdom"]; ok {
		t.Fatalf("expected kingdom to be fully removed")
	}
	if got := len(v.View().Domains["other"].Accounts[bob].Permissions); got != 1 {
		t.Fatalf("expected only the unrelated permission to survive on bob, found %d", got)
	}
}

func TestUnregisterAssetDefinitionCascadesAcrossDomains(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	alice := AccountId{Signatory: "alice", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", alice)
	dave := AccountId{Signatory: "dave", Domain: "otherland"}
	seedDomainAccount(v, "otherland", dave)

	def := AssetDefinitionId{Name: "rose", Domain: "wonderland"}
	tx := v.Begin()
	if err := tx.ApplyTrusted(RegisterInstruction{AssetDefinition: &AssetDefinition{
		Id: def, ValueType: ValueTypeNumeric, Mintable: MintabilityInfinitely, OwnedBy: alice,
	}}, AccountId{}); err != nil {
		t.Fatalf("register asset definition: %v", err)
	}
	v.Commit(tx)

	aliceAsset := AssetId{Definition: def, Account: alice}
	daveAsset := AssetId{Definition: def, Account: dave}
	tx = v.Begin()
	if err := tx.ApplyTrusted(MintInstruction{Asset: aliceAsset, Amount: NumericFromUint64(3)}, alice); err != nil {
		t.Fatalf("mint alice: %v", err)
	}
	if err := tx.ApplyTrusted(MintInstruction{Asset: daveAsset, Amount: NumericFromUint64(7)}, dave); err != nil {
		t.Fatalf("mint dave: %v", err)
	}
	v.Commit(tx)

	eve := AccountId{Signatory: "eve", Domain: "looking-glass"}
	seedDomainAccount(v, "looking-glass", eve)
	perm := Permission{Name: "can_transfer_assets", Payload: []byte(`{"asset_definition_id":"rose#wonderland"}`)}
	tx = v.Begin()
	if err := tx.ApplyTrusted(GrantInstruction{Permission: &perm, Destination: eve}, AccountId{}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	v.Commit(tx)

	tx = v.Begin()
	if err := (UnregisterInstruction{AssetDefinition: &def}).Execute(tx, AccountId{}); err != nil {
		t.Fatalf("unregister asset definition: %v", err)
	}

	if len(tx.events) != 3 {
		t.Fatalf("expected 2 asset-deleted events plus 1 definition-deleted event, got %d: %+v", len(tx.events), tx.events)
	}
	if tx.events[0].Kind != "Asset" || tx.events[0].Action != "Deleted" || *tx.events[0].AssetId != aliceAsset {
		t.Fatalf("expected alice's asset deleted first, got %+v", tx.events[0])
	}
	if tx.events[1].Kind != "Asset" || tx.events[1].Action != "Deleted" || *tx.events[1].AssetId != daveAsset {
		t.Fatalf("expected dave's cross-domain asset deleted second, got %+v", tx.events[1])
	}
	if tx.events[2].Kind != "AssetDefinition" || tx.events[2].Action != "Deleted" || *tx.events[2].AssetDefinitionId != def {
		t.Fatalf("expected the definition itself deleted last, got %+v", tx.events[2])
	}
	v.Commit(tx)

	if _, ok := v.View().Domains["wonderland"].Accounts[alice].Assets[aliceAsset]; ok {
		t.Fatalf("expected alice's asset removed")
	}
	if _, ok := v.View().Domains["otherland"].Accounts[dave].Assets[daveAsset]; ok {
		t.Fatalf("expected dave's asset removed even though it lives in a different domain than the definition")
	}
	if _, ok := v.View().Domains["wonderland"].AssetDefinitions[def]; ok {
		t.Fatalf("expected definition removed")
	}
	if got := len(v.View().Domains["looking-glass"].Accounts[eve].Permissions); got != 0 {
		t.Fatalf("expected eve's permission naming the removed definition to be swept, found %d left", got)
	}
}

func TestRegisterMintBurnEmitOneCreatedAndTwoChangedEvents(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	alice := AccountId{Signatory: "alice", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", alice)
	def := AssetDefinitionId{Name: "rose", Domain: "wonderland"}
	asset := AssetId{Definition: def, Account: alice}

	var all []DataEvent
	run := func(isi Instruction, authority AccountId) {
		tx := v.Begin()
		if err := isi.Execute(tx, authority); err != nil {
			t.Fatalf("execute %T: %v", isi, err)
		}
		all = append(all, tx.events...)
		v.Commit(tx)
	}

	run(RegisterInstruction{AssetDefinition: &AssetDefinition{
		Id: def, ValueType: ValueTypeNumeric, Mintable: MintabilityInfinitely, OwnedBy: alice,
	}}, AccountId{})
	run(RegisterInstruction{Asset: &Asset{Id: asset, Value: AssetValue{Numeric: NumericZero()}}}, alice)
	run(MintInstruction{Asset: asset, Amount: NumericFromUint64(100)}, alice)
	run(BurnInstruction{Asset: asset, Amount: NumericFromUint64(40)}, alice)

	var created, changed int
	for _, ev := range all {
		switch ev.Action {
		case "Created":
			created++
		case "Changed":
			changed++
		}
	}
	if created != 1 || changed != 2 {
		t.Fatalf("expected one Created and two Changed events, got %d Created and %d Changed: %+v", created, changed, all)
	}

	got := v.View().Domains["wonderland"].Accounts[alice].Assets[asset]
	if got.Value.Numeric.String() != "60" {
		t.Fatalf("expected alice to hold 60 after mint(100)/burn(40), got %s", got.Value.Numeric.String())
	}
}

func TestGrantRevokeInstructions(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	alice := AccountId{Signatory: "alice", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", alice)
	perm := Permission{Name: "can_mint_assets", Payload: []byte("null")}

	tx := v.Begin()
	if err := tx.ApplyTrusted(GrantInstruction{Permission: &perm, Destination: alice}, AccountId{}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	v.Commit(tx)

	if !v.View().HasPermission(v.View().Domains["wonderland"].Accounts[alice], perm) {
		t.Fatalf("expected alice to hold the granted permission")
	}

	tx = v.Begin()
	if err := tx.ApplyTrusted(RevokeInstruction{Permission: &perm, Destination: alice}, AccountId{}); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	v.Commit(tx)

	if v.View().HasPermission(v.View().Domains["wonderland"].Accounts[alice], perm) {
		t.Fatalf("expected permission to be revoked")
	}
}

func TestSetRemoveKeyValueDomain(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	alice := AccountId{Signatory: "alice", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", alice)
	dom := "wonderland"

	tx := v.Begin()
	if err := tx.ApplyTrusted(SetKeyValueInstruction{Domain: &dom, Key: "motto", Value: "curiouser"}, AccountId{}); err != nil {
		t.Fatalf("set_key_value: %v", err)
	}
	v.Commit(tx)

	if v.View().Domains["wonderland"].Metadata["motto"] != "curiouser" {
		t.Fatalf("expected metadata entry to be set")
	}

	tx = v.Begin()
	if err := tx.ApplyTrusted(RemoveKeyValueInstruction{Domain: &dom, Key: "motto"}, AccountId{}); err != nil {
		t.Fatalf("remove_key_value: %v", err)
	}
	v.Commit(tx)

	if _, ok := v.View().Domains["wonderland"].Metadata["motto"]; ok {
		t.Fatalf("expected metadata entry to be removed")
	}

	tx = v.Begin()
	err := tx.ApplyTrusted(RemoveKeyValueInstruction{Domain: &dom, Key: "motto"}, AccountId{})
	if err == nil {
		t.Fatalf("expected removing an absent key to error")
	}
}

func TestExecuteTriggerRespectsRepeats(t *testing.T) {
	v := NewWorldStateView(NewWorld())
	alice := AccountId{Signatory: "alice", Domain: "wonderland"}
	seedDomainAccount(v, "wonderland", alice)
	def := AssetDefinitionId{Name: "rose", Domain: "wonderland"}
	assetID := AssetId{Definition: def, Account: alice}

	tx := v.Begin()
	if err := tx.ApplyTrusted(RegisterInstruction{AssetDefinition: &AssetDefinition{
		Id: def, ValueType: ValueTypeNumeric, Mintable: MintabilityInfinitely, OwnedBy: alice,
	}}, AccountId{}); err != nil {
		t.Fatalf("register asset definition: %v", err)
	}
	trigID := TriggerId{Name: "reward"}
	if err := tx.ApplyTrusted(RegisterInstruction{Trigger: &Trigger{
		Id:        trigID,
		Repeats:   1,
		Technical: alice,
		Action: Executable{Instructions: []Instruction{
			MintInstruction{Asset: assetID, Amount: NumericFromUint64(1)},
		}},
	}}, AccountId{}); err != nil {
		t.Fatalf("register trigger: %v", err)
	}
	v.Commit(tx)

	tx = v.Begin()
	if err := tx.ApplyTrusted(ExecuteTriggerInstruction{Trigger: trigID}, alice); err != nil {
		t.Fatalf("execute trigger: %v", err)
	}
	v.Commit(tx)

	tx = v.Begin()
	err := tx.ApplyTrusted(ExecuteTriggerInstruction{Trigger: trigID}, alice)
	if err == nil {
		t.Fatalf("expected second execution to exhaust repeat budget")
	}
}
