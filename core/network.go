package core

// network.go - the transport-facing seam Sumeragi talks through. Concrete
// peer transport (libp2p, QUIC, whatever a deployment chooses) lives outside
// this module per the component boundary; NetworkHandle is deliberately a
// plain interface with no concrete socket implementation wired in here.
// LoopbackNetwork, adapted from connection_pool.go's pooled-connection
// bookkeeping (map keyed by peer, mutex-guarded, explicit Close), is an
// in-process implementation: network_test.go exercises it with two peers,
// while sumeragi_test.go and cmd/peer run it with a single peer.

import (
	"context"
	"fmt"
	"sync"
)

// SumeragiMessage is the envelope exchanged between Sumeragi instances.
// Exactly one of the payload fields is populated.
type SumeragiMessage struct {
	From         PeerId
	BlockCreated *BlockPayload
	BlockSigned  *BlockSignature
	BlockCommitted *Block
	ViewChangeProof *SignedViewChangeProof
}

// NetworkHandle is everything Sumeragi needs from the transport layer: send
// a message to one peer, broadcast to the whole topology, and receive
// whatever arrives for this peer.
type NetworkHandle interface {
	Send(ctx context.Context, to PeerId, msg SumeragiMessage) error
	Broadcast(ctx context.Context, to []PeerId, msg SumeragiMessage) error
	Inbox() <-chan SumeragiMessage
	Close() error
}

// LoopbackNetwork connects a fixed set of in-process peers via buffered
// channels. It never drops or reorders messages, so it models a
// synchronous, reliable network; tests that need to exercise view-change
// inject failures by having a peer simply not call Send/Broadcast rather
// than by corrupting LoopbackNetwork's delivery.
type LoopbackNetwork struct {
	mu      sync.Mutex
	self    PeerId
	peers   map[PeerId]chan SumeragiMessage
	inbox   chan SumeragiMessage
	closed  bool
}

// NewLoopbackFabric builds a fully-connected set of LoopbackNetwork handles,
// one per id in ids, all wired to each other.
func NewLoopbackFabric(ids []PeerId, bufSize int) map[PeerId]*LoopbackNetwork {
	boxes := make(map[PeerId]chan SumeragiMessage, len(ids))
	for _, id := range ids {
		boxes[id] = make(chan SumeragiMessage, bufSize)
	}
	out := make(map[PeerId]*LoopbackNetwork, len(ids))
	for _, id := range ids {
		out[id] = &LoopbackNetwork{self: id, peers: boxes, inbox: boxes[id]}
	}
	return out
}

func (n *LoopbackNetwork) Send(ctx context.Context, to PeerId, msg SumeragiMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return fmt.Errorf("network: %s is closed", n.self)
	}
	ch, ok := n.peers[to]
	if !ok {
		return fmt.Errorf("network: unknown peer %s", to)
	}
	msg.From = n.self
	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *LoopbackNetwork) Broadcast(ctx context.Context, to []PeerId, msg SumeragiMessage) error {
	for _, p := range to {
		if p == n.self {
			continue
		}
		if err := n.Send(ctx, p, msg); err != nil {
			return err
		}
	}
	return nil
}

func (n *LoopbackNetwork) Inbox() <-chan SumeragiMessage { return n.inbox }

func (n *LoopbackNetwork) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}
