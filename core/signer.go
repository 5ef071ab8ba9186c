package core

// signer.go - the default Signer implementation peers use to sign blocks and
// view-change proofs. original_source uses Ed25519 by default for peer keys,
// so this does too; no third-party signing library in the pack covers
// Ed25519 without also pulling in BLS aggregation machinery this module has
// no use for (see DESIGN.md's dropped-dependency notes on herumi/bls-eth),
// so this is written directly against the standard library's crypto/ed25519.
import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Ed25519Signer signs messages with a held private key.
type Ed25519Signer struct {
	private ed25519.PrivateKey
}

// NewEd25519Signer generates a fresh key pair and returns the signer along
// with the corresponding PublicKey to register in the WSV's Peer set.
func NewEd25519Signer() (*Ed25519Signer, PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, PublicKey{}, fmt.Errorf("signer: generate key: %w", err)
	}
	return &Ed25519Signer{private: priv}, NewPublicKey("ed25519", pub), nil
}

// Sign implements Signer.
func (s *Ed25519Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.private, message), nil
}

// VerifyEd25519 checks a signature produced by the holder of pk's private
// key. Kept alongside Ed25519Signer since both directions of this ABI belong
// together; callers validating peer-to-peer gossip use this directly rather
// than reconstructing a Signer.
func VerifyEd25519(pk PublicKey, message, signature []byte) bool {
	raw, err := pk.Bytes()
	if err != nil || pk.Algorithm != "ed25519" || len(raw) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(raw), message, signature)
}
