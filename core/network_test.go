package core

import (
	"context"
	"testing"
	"time"
)

func TestLoopbackFabricDeliversMessages(t *testing.T) {
	a := PeerId{Address: "a", PublicKey: PublicKey{Algorithm: "ed25519", Payload: "aa"}}
	b := PeerId{Address: "b", PublicKey: PublicKey{Algorithm: "ed25519", Payload: "bb"}}
	fabric := NewLoopbackFabric([]PeerId{a, b}, 4)

	msg := SumeragiMessage{BlockSigned: &BlockSignature{PeerTopologyIndex: 1}}
	if err := fabric[a].Send(context.Background(), b, msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case got := <-fabric[b].Inbox():
		if got.From != a {
			t.Fatalf("expected From to be set to sender, got %v", got.From)
		}
		if got.BlockSigned.PeerTopologyIndex != 1 {
			t.Fatalf("expected payload to round-trip")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message delivery")
	}
}

func TestLoopbackBroadcastSkipsSelf(t *testing.T) {
	a := PeerId{Address: "a", PublicKey: PublicKey{Algorithm: "ed25519", Payload: "aa"}}
	b := PeerId{Address: "b", PublicKey: PublicKey{Algorithm: "ed25519", Payload: "bb"}}
	fabric := NewLoopbackFabric([]PeerId{a, b}, 4)

	msg := SumeragiMessage{BlockSigned: &BlockSignature{PeerTopologyIndex: 0}}
	if err := fabric[a].Broadcast(context.Background(), []PeerId{a, b}, msg); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	select {
	case <-fabric[a].Inbox():
		t.Fatalf("expected broadcast to skip the sender's own inbox")
	default:
	}
	select {
	case <-fabric[b].Inbox():
	default:
		t.Fatalf("expected the other peer to receive the broadcast")
	}
}

func TestLoopbackNetworkClosedRejectsSend(t *testing.T) {
	a := PeerId{Address: "a"}
	b := PeerId{Address: "b"}
	fabric := NewLoopbackFabric([]PeerId{a, b}, 4)
	if err := fabric[a].Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := fabric[a].Send(context.Background(), b, SumeragiMessage{}); err == nil {
		t.Fatalf("expected send on a closed network to error")
	}
}

func TestLoopbackSendUnknownPeerErrors(t *testing.T) {
	a := PeerId{Address: "a"}
	fabric := NewLoopbackFabric([]PeerId{a}, 4)
	ghost := PeerId{Address: "ghost"}
	if err := fabric[a].Send(context.Background(), ghost, SumeragiMessage{}); err == nil {
		t.Fatalf("expected send to an unknown peer to error")
	}
}
