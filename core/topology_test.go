package core

import "testing"

func makePeers(n int) map[PeerId]*Peer {
	peers := map[PeerId]*Peer{}
	for i := 0; i < n; i++ {
		id := PeerId{Address: string(rune('a' + i)), PublicKey: PublicKey{Algorithm: "ed25519", Payload: string(rune('a' + i))}}
		peers[id] = &Peer{Id: id}
	}
	return peers
}

func TestTopologyMaxFaults(t *testing.T) {
	top := NewTopology(makePeers(4), 0)
	if top.N() != 4 {
		t.Fatalf("expected 4 peers, got %d", top.N())
	}
	if f := top.MaxFaults(); f != 1 {
		t.Fatalf("expected f=1 for n=4, got %d", f)
	}
}

func TestTopologyDeterministicOrdering(t *testing.T) {
	peers := makePeers(4)
	a := NewTopology(peers, 0)
	b := NewTopology(peers, 0)
	for i := range a.Ordered {
		if a.Ordered[i] != b.Ordered[i] {
			t.Fatalf("expected identical ordering from identical peer sets")
		}
	}
}

func TestTopologyRoleOfLeaderRotates(t *testing.T) {
	peers := makePeers(4)
	top0 := NewTopology(peers, 0)
	leader0, err := top0.PeerByRole(RoleLeader)
	if err != nil {
		t.Fatalf("peer by role: %v", err)
	}
	top1 := NewTopology(peers, 1)
	leader1, err := top1.PeerByRole(RoleLeader)
	if err != nil {
		t.Fatalf("peer by role: %v", err)
	}
	if leader0 == leader1 {
		t.Fatalf("expected view change to rotate the leader")
	}
	role, err := top0.RoleOf(leader0)
	if err != nil {
		t.Fatalf("role of: %v", err)
	}
	if role != RoleLeader {
		t.Fatalf("expected RoleLeader, got %s", role)
	}
}

func TestTopologyRoleOfUnknownPeerErrors(t *testing.T) {
	top := NewTopology(makePeers(4), 0)
	unknown := PeerId{Address: "ghost"}
	if _, err := top.RoleOf(unknown); err == nil {
		t.Fatalf("expected error for a peer not in the topology")
	}
}

func TestTopologyVotingPeersSize(t *testing.T) {
	top := NewTopology(makePeers(4), 0)
	voters := top.VotingPeers()
	if len(voters) != 2*top.MaxFaults()+1 {
		t.Fatalf("expected %d voting peers, got %d", 2*top.MaxFaults()+1, len(voters))
	}
}

func TestTopologyIndexOf(t *testing.T) {
	peers := makePeers(4)
	top := NewTopology(peers, 0)
	leader, _ := top.PeerByRole(RoleLeader)
	idx, ok := top.IndexOf(leader)
	if !ok || idx != 0 {
		t.Fatalf("expected leader at rotated index 0, got %d ok=%v", idx, ok)
	}
}
