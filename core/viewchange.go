package core

// viewchange.go - view-change proof accumulation, ported from
// original_source's crates/iroha_core/src/sumeragi/view_change.rs, the only
// source with exact semantics for how partial proofs accumulate signatures
// and when a view change becomes "finished" (i.e. adopted by the topology).
//
// A ViewChangeProof at index i asserts "the round at view-change index i is
// stuck, advance to i+1". Proofs accumulate signatures from peers who
// independently detect the same timeout; once more than f peers have signed
// a given index, that view change is finished and the topology rotates.
// Inserting a proof whose index is exactly one behind the already-finished
// frontier is a no-op: it is simply late gossip about a view change the
// local peer has already moved past.

import (
	"fmt"
	"sync"
)

// ViewChangeProof is the unsigned claim that consensus is stuck at
// ViewChangeIndex for BlockHeight and should advance.
type ViewChangeProof struct {
	BlockHeight     uint64 `json:"block_height"`
	ViewChangeIndex uint32 `json:"view_change_index"`
	Reason          string `json:"reason"`
}

// SignedViewChangeProof is a ViewChangeProof plus the set of peer signatures
// gathered for it so far. Signatures are keyed by the signer's
// PeerTopologyIndex so merges can deduplicate.
type SignedViewChangeProof struct {
	Proof      ViewChangeProof  `json:"proof"`
	Signatures []BlockSignature `json:"signatures"`
}

func (p *SignedViewChangeProof) mergeFrom(other SignedViewChangeProof) {
	have := make(map[uint32]struct{}, len(p.Signatures))
	for _, s := range p.Signatures {
		have[s.PeerTopologyIndex] = struct{}{}
	}
	for _, s := range other.Signatures {
		if _, ok := have[s.PeerTopologyIndex]; ok {
			continue
		}
		p.Signatures = append(p.Signatures, s)
		have[s.PeerTopologyIndex] = struct{}{}
	}
}

// ProofBuilder constructs a single-signature SignedViewChangeProof for the
// local peer to broadcast when it independently detects a stuck round.
type ProofBuilder struct {
	Self      PeerId
	SelfIndex uint32
	Signer    Signer
}

// Signer produces a signature over an arbitrary message; it is satisfied by
// whatever key-management component a deployment wires in (kept external to
// core, same as the WASM host's signature verification hooks).
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// Build produces a SignedViewChangeProof signed by the local peer.
func (b ProofBuilder) Build(height uint64, viewChangeIndex uint32, reason string) (SignedViewChangeProof, error) {
	proof := ViewChangeProof{BlockHeight: height, ViewChangeIndex: viewChangeIndex, Reason: reason}
	h, err := hashOf(proof)
	if err != nil {
		return SignedViewChangeProof{}, err
	}
	sig, err := b.Signer.Sign(h[:])
	if err != nil {
		return SignedViewChangeProof{}, fmt.Errorf("view_change: sign: %w", err)
	}
	return SignedViewChangeProof{
		Proof:      proof,
		Signatures: []BlockSignature{{PeerTopologyIndex: b.SelfIndex, Signature: sig}},
	}, nil
}

// ProofChain accumulates SignedViewChangeProofs for a single block height
// across successive view-change indices and reports when enough signatures
// have landed to finish a view change.
type ProofChain struct {
	mu           sync.Mutex
	height       uint64
	proofs       map[uint32]*SignedViewChangeProof
	finishedUpTo uint32 // number of view changes finished so far == current view-change index
}

// NewProofChain starts an empty chain for the given block height.
func NewProofChain(height uint64) *ProofChain {
	return &ProofChain{height: height, proofs: map[uint32]*SignedViewChangeProof{}}
}

// CurrentViewChangeIndex returns the number of view changes finished so far
// at this height -- the index Sumeragi should use to build its Topology.
func (pc *ProofChain) CurrentViewChangeIndex() uint32 {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.finishedUpTo
}

// InsertProof merges proof into the chain. It returns whether inserting it
// caused one or more additional view changes to become finished.
func (pc *ProofChain) InsertProof(topology Topology, proof SignedViewChangeProof) (advanced bool, err error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if proof.Proof.BlockHeight != pc.height {
		return false, fmt.Errorf("view_change: proof height %d does not match chain height %d", proof.Proof.BlockHeight, pc.height)
	}
	idx := proof.Proof.ViewChangeIndex
	// A proof for the view change immediately preceding the current
	// frontier is late gossip about something already superseded.
	if idx+1 == pc.finishedUpTo {
		return false, nil
	}
	if idx < pc.finishedUpTo {
		return false, nil
	}
	existing, ok := pc.proofs[idx]
	if !ok {
		cp := proof
		cp.Signatures = append([]BlockSignature(nil), proof.Signatures...)
		pc.proofs[idx] = &cp
	} else {
		existing.mergeFrom(proof)
	}

	before := pc.finishedUpTo
	for {
		cur, ok := pc.proofs[pc.finishedUpTo]
		if !ok {
			break
		}
		if len(cur.Signatures) <= topology.MaxFaults() {
			break
		}
		pc.finishedUpTo++
	}
	return pc.finishedUpTo > before, nil
}
