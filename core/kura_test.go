package core

import (
	"testing"

	"go.uber.org/zap"

	"github.com/meridianledger/core/internal/testutil"
)

func openTestKura(t *testing.T) (*Kura, *testutil.Sandbox) {
	t.Helper()
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	t.Cleanup(func() { sb.Cleanup() })
	logger, _ := zap.NewDevelopment()
	cfg := KuraConfig{Dir: sb.Root, BlocksPerFile: 4}
	k, err := OpenKura(cfg, logger.Sugar())
	if err != nil {
		t.Fatalf("open kura: %v", err)
	}
	t.Cleanup(func() { k.Close() })
	return k, sb
}

func blockAt(height uint64) *Block {
	return &Block{Payload: BlockPayload{Header: BlockHeader{Height: height, TimestampMS: int64(height)}}}
}

func TestKuraAppendAndGetBlock(t *testing.T) {
	k, _ := openTestKura(t)
	if err := k.Append(blockAt(0)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := k.Append(blockAt(1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := k.GetBlock(1)
	if err != nil {
		t.Fatalf("get block: %v", err)
	}
	if got.Payload.Header.Height != 1 {
		t.Fatalf("expected height 1, got %d", got.Payload.Header.Height)
	}
	last, ok := k.LastHeight()
	if !ok || last != 1 {
		t.Fatalf("expected last height 1, got %d ok=%v", last, ok)
	}
}

func TestKuraAppendOutOfOrderRejected(t *testing.T) {
	k, _ := openTestKura(t)
	if err := k.Append(blockAt(0)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := k.Append(blockAt(5)); err == nil {
		t.Fatalf("expected out-of-order append to be rejected")
	}
}

func TestKuraReplayVisitsInOrder(t *testing.T) {
	k, _ := openTestKura(t)
	for h := uint64(0); h < 5; h++ {
		if err := k.Append(blockAt(h)); err != nil {
			t.Fatalf("append %d: %v", h, err)
		}
	}
	var seen []uint64
	if err := k.Replay(func(b *Block) error {
		seen = append(seen, b.Payload.Header.Height)
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 blocks replayed, got %d", len(seen))
	}
	for i, h := range seen {
		if h != uint64(i) {
			t.Fatalf("expected in-order replay, got %v", seen)
		}
	}
}

func TestKuraReopenPreservesState(t *testing.T) {
	k, sb := openTestKura(t)
	for h := uint64(0); h < 3; h++ {
		if err := k.Append(blockAt(h)); err != nil {
			t.Fatalf("append %d: %v", h, err)
		}
	}
	if err := k.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	reopened, err := OpenKura(KuraConfig{Dir: sb.Root, BlocksPerFile: 4}, logger.Sugar())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	last, ok := reopened.LastHeight()
	if !ok || last != 2 {
		t.Fatalf("expected last height 2 after reopen, got %d ok=%v", last, ok)
	}
}
