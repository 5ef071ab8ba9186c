package core

// topology.go - deterministic peer ordering and role assignment for a
// Sumeragi round. Every honest peer must derive the same Topology from the
// same WSV peer set and view-change index, since role assignment is never
// itself voted on -- it is a pure function both of on-chain state and of how
// many times the current round has already view-changed.

import (
	"fmt"
	"sort"
)

// Role identifies a peer's responsibility within a consensus round.
type Role int

const (
	RoleValidator Role = iota
	RoleLeader
	RoleProxyTail
	RoleObserver
)

func (r Role) String() string {
	switch r {
	case RoleLeader:
		return "Leader"
	case RoleProxyTail:
		return "ProxyTail"
	case RoleObserver:
		return "Observer"
	default:
		return "Validator"
	}
}

// Topology is the ordered peer list for one round, rotated by
// ViewChangeIndex positions so that each failed view promotes the next peer
// to Leader.
type Topology struct {
	Ordered         []PeerId
	ViewChangeIndex uint32
}

// NewTopology builds a Topology from the WSV's registered peer set. Peers
// are ordered by their string representation for a total, deterministic
// order that does not depend on map iteration.
func NewTopology(peers map[PeerId]*Peer, viewChangeIndex uint32) Topology {
	ids := make([]PeerId, 0, len(peers))
	for id := range peers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return Topology{Ordered: ids, ViewChangeIndex: viewChangeIndex}
}

// N returns the total peer count in this round.
func (t Topology) N() int { return len(t.Ordered) }

// MaxFaults returns f, the maximum number of simultaneous Byzantine peers
// the topology can tolerate under the standard N = 3f+1 bound. A topology
// whose size does not satisfy that bound has f computed as floor((N-1)/3),
// the largest f for which 3f+1 <= N.
func (t Topology) MaxFaults() int {
	n := t.N()
	if n == 0 {
		return 0
	}
	return (n - 1) / 3
}

// rotated returns the peer order shifted left by the view-change index, so
// index 0 after rotation is always the current round's leader candidate.
func (t Topology) rotated() []PeerId {
	n := t.N()
	if n == 0 {
		return nil
	}
	shift := int(t.ViewChangeIndex) % n
	out := make([]PeerId, n)
	for i := range out {
		out[i] = t.Ordered[(i+shift)%n]
	}
	return out
}

// RoleOf returns the role assigned to peer under this topology.
func (t Topology) RoleOf(peer PeerId) (Role, error) {
	order := t.rotated()
	f := t.MaxFaults()
	for i, p := range order {
		if p != peer {
			continue
		}
		switch {
		case i == 0:
			return RoleLeader, nil
		case i == 1 && f >= 1:
			return RoleProxyTail, nil
		case i <= 2*f:
			return RoleValidator, nil
		default:
			return RoleObserver, nil
		}
	}
	return 0, fmt.Errorf("topology: %s is not a member of this round", peer)
}

// PeerByRole returns the single peer holding the given role, an error if the
// role is not unique (Validator/Observer) or absent.
func (t Topology) PeerByRole(role Role) (PeerId, error) {
	order := t.rotated()
	if len(order) == 0 {
		return PeerId{}, fmt.Errorf("topology: empty")
	}
	switch role {
	case RoleLeader:
		return order[0], nil
	case RoleProxyTail:
		if t.MaxFaults() < 1 {
			return PeerId{}, fmt.Errorf("topology: no proxy tail below 4 peers")
		}
		return order[1], nil
	default:
		return PeerId{}, fmt.Errorf("topology: role %s is not unique", role)
	}
}

// VotingPeers returns the peers whose signatures count toward the 2f+1
// commit threshold: the leader, the validators and the proxy tail.
func (t Topology) VotingPeers() []PeerId {
	f := t.MaxFaults()
	order := t.rotated()
	n := len(order)
	limit := 2*f + 1
	if limit > n {
		limit = n
	}
	return append([]PeerId(nil), order[:limit]...)
}

// IndexOf returns peer's position within the rotated order, used to tag
// BlockSignature.PeerTopologyIndex.
func (t Topology) IndexOf(peer PeerId) (int, bool) {
	for i, p := range t.rotated() {
		if p == peer {
			return i, true
		}
	}
	return 0, false
}
