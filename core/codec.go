package core

// codec.go - canonical encoding and hashing. Wire payloads are hashed over a
// compact, deterministic encoding rather than raw json.Marshal output, since
// Go map iteration order and struct field order are not guaranteed stable
// across versions; canonicalJSON fixes both before hashing.

import (
	"bytes"
	"encoding/json"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// hashOf returns the Blake2b-256 digest of the canonical encoding of v.
func hashOf(v any) (Hash, error) {
	b, err := canonicalJSON(v)
	if err != nil {
		return Hash{}, err
	}
	return blake2b.Sum256(b), nil
}

// canonicalJSON re-encodes v with object keys sorted lexicographically at
// every nesting level, so that two semantically-equal values (in particular,
// two Metadata maps built in different insertion order, or two Permission
// payloads) always produce byte-identical output.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		// json.Number preserves shortest-round-trip numeric formatting;
		// everything else (string, bool, nil) marshals unambiguously.
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}

// canonicalEqual reports whether two arbitrary JSON-able values are equal
// under canonical encoding -- the definition of Permission payload equality
// used throughout the permission/executor model.
func canonicalEqual(a, b any) bool {
	ab, errA := canonicalJSON(a)
	bb, errB := canonicalJSON(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Hash computes the transaction's hash, memoizing it since transactions are
// hashed repeatedly during queue admission, block assembly and signature
// verification.
func (tx *Transaction) Hash() Hash {
	if tx.hash != nil {
		return *tx.hash
	}
	h, err := hashOf(tx.Payload)
	if err != nil {
		// Payload contains only json-marshalable fields; a failure here
		// indicates a programming error, not a runtime condition the
		// caller can recover from.
		panic("core: transaction payload is not hashable: " + err.Error())
	}
	tx.hash = &h
	return h
}

// Hash computes the block's hash over its header, which already commits to
// the transaction set via TransactionsHash.
func (b *Block) Hash() Hash {
	if b.hash != nil {
		return *b.hash
	}
	h, err := hashOf(b.Payload.Header)
	if err != nil {
		panic("core: block header is not hashable: " + err.Error())
	}
	b.hash = &h
	return h
}

// transactionsHash folds an ordered transaction list into a single digest for
// the block header's TransactionsHash field.
func transactionsHash(txs []AcceptedTransaction) Hash {
	hashes := make([]Hash, len(txs))
	for i := range txs {
		hashes[i] = txs[i].Tx.Hash()
	}
	h, err := hashOf(hashes)
	if err != nil {
		panic("core: transaction hash list is not hashable: " + err.Error())
	}
	return h
}
