package core

// permission.go - permission tokens, role membership and the default
// executor. Grant/Revoke semantics are ported from access_control.go's
// AccessController: granting an already-held permission is an error rather
// than a silent no-op, and revoking an absent one is likewise an error. That
// Go precedent is the grounding for treating duplicate Grant as rejected
// here instead of idempotent.

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// permissionKey canonicalizes a Permission into a comparable string: its
// name plus the canonical JSON of its payload, so that two payloads that
// differ only in field order or numeric formatting compare equal.
func permissionKey(p Permission) (string, error) {
	var payload any
	if len(p.Payload) > 0 {
		if err := json.Unmarshal(p.Payload, &payload); err != nil {
			return "", fmt.Errorf("permission: invalid payload: %w", err)
		}
	}
	canon, err := canonicalJSON(payload)
	if err != nil {
		return "", err
	}
	return p.Name + "\x00" + string(canon), nil
}

// GrantPermission adds perm to account's direct permission set. It returns
// an error if an equal permission (same name, canonically-equal payload) is
// already held directly by the account.
func (a *Account) GrantPermission(perm Permission) error {
	key, err := permissionKey(perm)
	if err != nil {
		return err
	}
	if a.Permissions == nil {
		a.Permissions = make(map[string]Permission)
	}
	if _, ok := a.Permissions[key]; ok {
		return fmt.Errorf("permission: %s already granted to %s", perm.Name, a.Id)
	}
	a.Permissions[key] = perm
	return nil
}

// RevokePermission removes perm from account's direct permission set. It
// returns an error if the account does not directly hold it (permissions
// held transitively via a role are not affected and cannot be revoked this
// way -- the role must be revoked instead).
func (a *Account) RevokePermission(perm Permission) error {
	key, err := permissionKey(perm)
	if err != nil {
		return err
	}
	if _, ok := a.Permissions[key]; !ok {
		return fmt.Errorf("permission: %s not held by %s", perm.Name, a.Id)
	}
	delete(a.Permissions, key)
	return nil
}

// GrantRole assigns role to account. Returns an error if already assigned.
func (a *Account) GrantRole(role RoleId) error {
	if a.Roles == nil {
		a.Roles = make(map[RoleId]struct{})
	}
	if _, ok := a.Roles[role]; ok {
		return fmt.Errorf("permission: role %s already granted to %s", role.Name, a.Id)
	}
	a.Roles[role] = struct{}{}
	return nil
}

// RevokeRole removes role from account. Returns an error if not assigned.
func (a *Account) RevokeRole(role RoleId) error {
	if _, ok := a.Roles[role]; !ok {
		return fmt.Errorf("permission: role %s not held by %s", role.Name, a.Id)
	}
	delete(a.Roles, role)
	return nil
}

// HasPermission reports whether account holds perm either directly or via
// any of its granted roles.
func (w *World) HasPermission(acc *Account, perm Permission) bool {
	key, err := permissionKey(perm)
	if err != nil {
		return false
	}
	if _, ok := acc.Permissions[key]; ok {
		return true
	}
	for rid := range acc.Roles {
		role, ok := w.Roles[rid]
		if !ok {
			continue
		}
		if _, ok := role.Permissions[key]; ok {
			return true
		}
	}
	return false
}

// Executor decides whether an authority is allowed to run a given
// instruction against the current world state. The default implementation
// below is a native Go owner-chain checker; a WASM-backed implementation
// (driven through the host interface in wasmhost.go) can satisfy the same
// interface once a custom executor module is installed on-chain.
type Executor interface {
	Validate(w *World, authority AccountId, isi Instruction) error
}

// OwnerChainExecutor authorizes an instruction if the authority is the
// target's owner, the owner of the target's domain, or holds an explicit
// permission token naming the instruction's required permission.
type OwnerChainExecutor struct{}

// requiredPermission returns the permission name an instruction requires
// when no ownership relationship grants it implicitly.
func requiredPermission(isi Instruction) string {
	switch isi.(type) {
	case RegisterInstruction:
		return "can_register"
	case UnregisterInstruction:
		return "can_unregister"
	case MintInstruction:
		return "can_mint_assets"
	case BurnInstruction:
		return "can_burn_assets"
	case TransferInstruction:
		return "can_transfer_assets"
	case GrantInstruction:
		return "can_grant_permission"
	case RevokeInstruction:
		return "can_revoke_permission"
	case SetKeyValueInstruction:
		return "can_set_key_value"
	case RemoveKeyValueInstruction:
		return "can_remove_key_value"
	case ExecuteTriggerInstruction:
		return "can_execute_trigger"
	default:
		return "can_execute_instruction"
	}
}

// Validate implements Executor.
func (OwnerChainExecutor) Validate(w *World, authority AccountId, isi Instruction) error {
	acc, ok := w.accountByID(authority)
	if !ok {
		return fmt.Errorf("permission: unknown authority %s", authority)
	}
	if owner, ok := isi.owner(w); ok && owner == authority {
		return nil
	}
	if dom, ok := isi.domain(w); ok {
		if d, ok := w.Domains[dom]; ok && d.OwnedBy == authority {
			return nil
		}
	}
	need := requiredPermission(isi)
	tok := Permission{Name: need, Payload: []byte("null")}
	if w.HasPermission(acc, tok) {
		return nil
	}
	return fmt.Errorf("permission: %s is not authorized to execute %T (needs %s)", authority, isi, need)
}

// permissionMentions reports whether perm's payload names id. Permission
// payloads are free-form JSON (e.g. {"asset_id":"rose#wonderland#alice@wonderland"}
// or {"domain_id":"kingdom"}), so "names" is tested as literal containment of
// id's string form in the raw payload bytes, the same textual test a
// canonical-JSON id substring survives regardless of which key it is filed
// under.
func permissionMentions(perm Permission, id string) bool {
	return bytes.Contains(perm.Payload, []byte(id))
}

// sweepPermissions removes every permission, in every role and on every
// account across the whole World, whose payload mentions any of ids. It
// backs the permission cascade that Unregister<Domain>/Unregister<AssetDefinition>
// and executor-upgrade permission-kind removal all require: once an entity
// is gone, nothing may keep holding a permission that still names it.
func sweepPermissions(w *World, ids []string) {
	if len(ids) == 0 {
		return
	}
	sweepOne := func(perms map[string]Permission) {
		for key, perm := range perms {
			for _, id := range ids {
				if permissionMentions(perm, id) {
					delete(perms, key)
					break
				}
			}
		}
	}
	for _, role := range w.Roles {
		sweepOne(role.Permissions)
	}
	for _, d := range w.Domains {
		for _, acc := range d.Accounts {
			sweepOne(acc.Permissions)
		}
	}
}

func (w *World) accountByID(id AccountId) (*Account, bool) {
	d, ok := w.Domains[id.Domain]
	if !ok {
		return nil, false
	}
	a, ok := d.Accounts[id]
	return a, ok
}
