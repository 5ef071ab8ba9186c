package core

import "testing"

func TestEd25519SignVerifyRoundTrip(t *testing.T) {
	signer, pub, err := NewEd25519Signer()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	msg := []byte("hello iroha")
	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !VerifyEd25519(pub, msg, sig) {
		t.Fatalf("expected signature to verify against the matching public key")
	}
}

func TestEd25519VerifyRejectsTamperedMessage(t *testing.T) {
	signer, pub, err := NewEd25519Signer()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	sig, err := signer.Sign([]byte("original"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if VerifyEd25519(pub, []byte("tampered"), sig) {
		t.Fatalf("expected verification to fail for a tampered message")
	}
}

func TestEd25519VerifyRejectsWrongAlgorithm(t *testing.T) {
	_, pub, err := NewEd25519Signer()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	pub.Algorithm = "secp256k1"
	if VerifyEd25519(pub, []byte("msg"), []byte("sig")) {
		t.Fatalf("expected verification to reject a non-ed25519-tagged key")
	}
}

func TestPublicKeyComparable(t *testing.T) {
	_, pub1, err := NewEd25519Signer()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	_, pub2, err := NewEd25519Signer()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	peers := map[PeerId]bool{}
	peers[PeerId{Address: "a", PublicKey: pub1}] = true
	peers[PeerId{Address: "b", PublicKey: pub2}] = true
	if len(peers) != 2 {
		t.Fatalf("expected PeerId to be usable as a map key")
	}
}
