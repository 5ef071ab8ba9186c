package core

// types.go - centralised struct definitions referenced across modules. This
// file declares only data structures (no business logic) to keep the
// dependency graph between wsv.go, sumeragi.go, kura.go and queue.go acyclic.

import (
	"encoding/hex"
	"sync"
	"time"
)

// PublicKey identifies a peer or account signatory. The concrete algorithm is
// opaque to the core: Sumeragi and the WSV only ever compare, hash and store
// it, never interpret its bytes. Payload is hex-encoded rather than raw
// bytes so PublicKey (and PeerId, which embeds it) stay comparable and can
// be used as map keys -- World.Peers and the loopback network fabric both
// key on PeerId directly.
type PublicKey struct {
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	Payload   string `json:"payload" yaml:"payload"`
}

func (pk PublicKey) String() string {
	return pk.Algorithm + "#" + pk.Payload
}

// NewPublicKey hex-encodes raw key bytes into a PublicKey.
func NewPublicKey(algorithm string, raw []byte) PublicKey {
	return PublicKey{Algorithm: algorithm, Payload: hex.EncodeToString(raw)}
}

// Bytes decodes Payload back to raw key bytes.
func (pk PublicKey) Bytes() ([]byte, error) {
	return hex.DecodeString(pk.Payload)
}

// Hash is a 32-byte Blake2b-256 digest.
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether the hash is the all-zero sentinel used for genesis
// parent hashes.
func (h Hash) IsZero() bool { return h == Hash{} }

// AccountId uniquely identifies an account within a domain.
type AccountId struct {
	Signatory string `json:"signatory"`
	Domain    string `json:"domain"`
}

func (a AccountId) String() string { return a.Signatory + "@" + a.Domain }

// AssetDefinitionId identifies an asset type registered under a domain.
type AssetDefinitionId struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func (a AssetDefinitionId) String() string { return a.Name + "#" + a.Domain }

// AssetId identifies an asset instance owned by a specific account.
type AssetId struct {
	Definition AssetDefinitionId `json:"definition"`
	Account    AccountId         `json:"account"`
}

func (a AssetId) String() string { return a.Definition.String() + "#" + a.Account.String() }

// TriggerId names a registered event trigger.
type TriggerId struct {
	Name string `json:"name"`
}

// RoleId names a registered role.
type RoleId struct {
	Name string `json:"name"`
}

// PeerId identifies a network peer by its public key and advertised address.
type PeerId struct {
	Address   string    `json:"address"`
	PublicKey PublicKey `json:"public_key"`
}

func (p PeerId) String() string { return p.PublicKey.String() + "@" + p.Address }

// ValueType enumerates the shapes an AssetDefinition's value may take.
type ValueType string

const (
	ValueTypeNumeric ValueType = "Numeric"
	ValueTypeStore   ValueType = "Store"
)

// Mintability constrains how many times an asset definition may be minted.
type Mintability string

const (
	MintabilityInfinitely Mintability = "Infinitely"
	MintabilityOnce       Mintability = "Once"
	MintabilityNot        Mintability = "Not"
)

// Metadata is a canonicalizable key/value bag attached to most domain
// entities. JSON-encoding with sorted keys gives it a stable hash pre-image;
// see codec.go's canonicalJSON.
type Metadata map[string]any

// MetadataLimits bounds the size of a Metadata value to keep block payloads
// and WSV growth predictable.
type MetadataLimits struct {
	MaxLen   uint32
	MaxEntryByteSize uint32
}

// DefaultMetadataLimits mirrors the conservative defaults used by the
// reference genesis.
var DefaultMetadataLimits = MetadataLimits{MaxLen: 256, MaxEntryByteSize: 16 * 1024}

// Domain groups accounts and asset definitions under an administrative
// boundary.
type Domain struct {
	Id               string                       `json:"id"`
	Accounts         map[AccountId]*Account       `json:"-"`
	AssetDefinitions map[AssetDefinitionId]*AssetDefinition `json:"-"`
	Metadata         Metadata                     `json:"metadata"`
	Logo             string                       `json:"logo,omitempty"`
	OwnedBy          AccountId                    `json:"owned_by"`
}

// Account holds signatories, assigned roles and the permission tokens
// granted directly to it (as opposed to via a role).
type Account struct {
	Id          AccountId             `json:"id"`
	Signatories map[string]PublicKey  `json:"-"`
	Roles       map[RoleId]struct{}   `json:"-"`
	Permissions map[string]Permission `json:"-"`
	Assets      map[AssetId]Asset     `json:"-"`
	Metadata    Metadata              `json:"metadata"`
}

// AssetDefinition describes an asset type: its value shape, mintability and
// the domain authorized to administer it.
type AssetDefinition struct {
	Id          AssetDefinitionId `json:"id"`
	ValueType   ValueType         `json:"value_type"`
	Mintable    Mintability       `json:"mintable"`
	OwnedBy     AccountId         `json:"owned_by"`
	TotalQuantity Numeric         `json:"total_quantity"`
	Metadata    Metadata          `json:"metadata"`
}

// AssetValue is the tagged union of what an Asset may hold.
type AssetValue struct {
	Numeric Numeric  `json:"numeric,omitempty"`
	Store   Metadata `json:"store,omitempty"`
}

// Asset is a specific quantity (or key/value store) of an AssetDefinition
// owned by an Account.
type Asset struct {
	Id    AssetId    `json:"id"`
	Value AssetValue `json:"value"`
}

// Role is a named bundle of permission tokens that can be granted to
// accounts as a unit.
type Role struct {
	Id          RoleId                 `json:"id"`
	Permissions map[string]Permission  `json:"permissions"`
}

// Permission is a (name, canonicalized-payload) pair. Equality between two
// Permissions is defined over the canonical JSON form of Payload, not Go
// struct equality, so field order or numeric formatting never affects grants.
type Permission struct {
	Name    string `json:"name"`
	Payload []byte `json:"payload"`
}

// EventFilter narrows which data events a Trigger reacts to. Only a small,
// fixed set of filter shapes are supported; arbitrary predicate languages are
// explicitly out of scope.
type EventFilter struct {
	DataEntityKind string `json:"data_entity_kind"` // "Domain"|"Account"|"Asset"|"Trigger"
	DomainId       string `json:"domain_id,omitempty"`
	AccountId      *AccountId `json:"account_id,omitempty"`
}

// Trigger binds an EventFilter to an Executable payload that runs once per
// matching event, up to Repeats times.
type Trigger struct {
	Id         TriggerId   `json:"id"`
	Action     Executable  `json:"action"`
	Filter     EventFilter `json:"filter"`
	Repeats    uint32      `json:"repeats"` // 0 == unlimited
	Technical  AccountId   `json:"technical_account"`
	firedCount uint32
}

// Executable is the payload a Trigger (or a transaction) carries: either a
// WASM module or a flat list of instructions.
type Executable struct {
	WasmModule   []byte        `json:"wasm,omitempty"`
	Instructions []Instruction `json:"instructions,omitempty"`
}

// TransactionPayload is the signable body of a transaction.
type TransactionPayload struct {
	Authority     AccountId  `json:"authority"`
	Instructions  Executable `json:"instructions"`
	CreatedAtMS   int64      `json:"created_at_ms"`
	TimeToLiveMS  uint64     `json:"ttl_ms"`
	Nonce         uint32     `json:"nonce"`
	Metadata      Metadata   `json:"metadata"`
}

// Transaction is a signed TransactionPayload as submitted by a client.
type Transaction struct {
	Payload   TransactionPayload `json:"payload"`
	Signature []byte             `json:"signature"`
	hash      *Hash
}

// AcceptedTransaction is a Transaction that has passed stateless
// verification (signature check, size limits) and is eligible for queue
// admission.
type AcceptedTransaction struct {
	Tx        Transaction `json:"tx"`
	AcceptedAtMS int64    `json:"accepted_at_ms"`
}

// TransactionRejectionReason records why a transaction did not make it into
// a committed block in the form the client receives back.
type TransactionRejectionReason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BlockHeader is the canonically-hashed portion of a block.
type BlockHeader struct {
	Height            uint64 `json:"height"`
	TimestampMS       int64  `json:"timestamp_ms"`
	PreviousBlockHash Hash   `json:"previous_block_hash"`
	TransactionsHash  Hash   `json:"transactions_hash"`
	ViewChangeIndex   uint32 `json:"view_change_index"`
	ConsensusEstimationMS int64 `json:"consensus_estimation_ms"`
}

// BlockPayload is the header plus its ordered transactions, as distributed
// during the block-creation round before it has enough signatures to commit.
type BlockPayload struct {
	Header       BlockHeader           `json:"header"`
	Transactions []AcceptedTransaction `json:"transactions"`
	CommitTopology []PeerId            `json:"commit_topology"`
}

// BlockSignature pairs a topology index with the signature that peer
// produced over the block payload hash.
type BlockSignature struct {
	PeerTopologyIndex uint32 `json:"peer_topology_index"`
	Signature         []byte `json:"signature"`
}

// Block is a committed BlockPayload plus the signatures that committed it and
// the rejected-transaction ledger kept alongside the accepted ones.
type Block struct {
	Payload    BlockPayload                          `json:"payload"`
	Signatures []BlockSignature                      `json:"signatures"`
	Rejected   map[int]TransactionRejectionReason     `json:"rejected,omitempty"`
	hash       *Hash
}

// Peer is the WSV-resident record of a network member (as opposed to PeerId,
// the wire identifier).
type Peer struct {
	Id PeerId `json:"id"`
}

// World is the top level of the World State View: everything reachable from
// it is covered by a single StateTransaction's atomicity guarantee.
type World struct {
	mu           sync.RWMutex
	Domains      map[string]*Domain
	Roles        map[RoleId]*Role
	Triggers     map[TriggerId]*Trigger
	Peers        map[PeerId]*Peer
	Parameters   map[string]string
	Height       uint64
	BlockHashes  []Hash
}

// Address is kept as a fixed-width binary identifier for callers (like the
// WASM host) that need a compact, fixed-size authority reference rather than
// the human-readable AccountId form.
type Address [20]byte

func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// now is the single indirection point for wall-clock reads so tests can
// substitute a deterministic clock without reaching into package internals.
var now = time.Now
