package core

// queue.go - bounded, admission-controlled FIFO of accepted transactions
// awaiting inclusion in a block. Modelled after the teacher's TxPool
// (common_structs.go's lookup/queue pair plus a mutex), generalised with a
// per-authority cap, TTL expiry and hash-based dedup.

import (
	"fmt"
	"sync"
	"time"
)

// QueueConfig bounds the Queue's admission behaviour.
type QueueConfig struct {
	MaxTransactionsInQueue     int
	MaxTransactionsPerUser     int
	TransactionTimeToLive      time.Duration
	FutureThreshold            time.Duration
}

// DefaultQueueConfig mirrors the reference node's conservative defaults.
var DefaultQueueConfig = QueueConfig{
	MaxTransactionsInQueue: 65_536,
	MaxTransactionsPerUser: 4_096,
	TransactionTimeToLive:  24 * time.Hour,
	FutureThreshold:        1 * time.Second,
}

// Queue is safe for concurrent use by the submission path (Push) and the
// single-threaded Sumeragi loop (Pop) concurrently.
type Queue struct {
	cfg QueueConfig

	mu        sync.Mutex
	order     []Hash
	byHash    map[Hash]AcceptedTransaction
	byAuth    map[AccountId]int
}

// NewQueue constructs an empty Queue with the given admission policy.
func NewQueue(cfg QueueConfig) *Queue {
	return &Queue{
		cfg:    cfg,
		byHash: map[Hash]AcceptedTransaction{},
		byAuth: map[AccountId]int{},
	}
}

// Push admits tx into the queue, or rejects it per the configured bounds.
// Admission failures are always the caller's fault (duplicate, over quota,
// expired, too far in the future) rather than a transient condition, so they
// are reported as plain errors rather than a retryable signal.
func (q *Queue) Push(tx AcceptedTransaction) error {
	h := tx.Tx.Hash()
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, dup := q.byHash[h]; dup {
		return fmt.Errorf("queue: transaction %s already queued", h)
	}
	if len(q.order) >= q.cfg.MaxTransactionsInQueue {
		return fmt.Errorf("queue: full (%d transactions)", q.cfg.MaxTransactionsInQueue)
	}
	auth := tx.Tx.Payload.Authority
	if q.byAuth[auth] >= q.cfg.MaxTransactionsPerUser {
		return fmt.Errorf("queue: %s exceeded per-account cap of %d", auth, q.cfg.MaxTransactionsPerUser)
	}
	createdAt := time.UnixMilli(tx.Tx.Payload.CreatedAtMS)
	nowT := time.UnixMilli(tx.AcceptedAtMS)
	if createdAt.After(nowT.Add(q.cfg.FutureThreshold)) {
		return fmt.Errorf("queue: transaction timestamp is too far in the future")
	}
	ttl := time.Duration(tx.Tx.Payload.TimeToLiveMS) * time.Millisecond
	if ttl == 0 {
		ttl = q.cfg.TransactionTimeToLive
	}
	if nowT.After(createdAt.Add(ttl)) {
		return fmt.Errorf("queue: transaction already expired")
	}

	q.order = append(q.order, h)
	q.byHash[h] = tx
	q.byAuth[auth]++
	return nil
}

// Pop removes and returns up to max live (non-expired) transactions in FIFO
// order, dropping any it finds expired along the way. It never blocks: an
// empty queue returns an empty slice immediately, matching Sumeragi's
// single-threaded, non-blocking main loop.
func (q *Queue) Pop(max int, asOf time.Time) []AcceptedTransaction {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]AcceptedTransaction, 0, max)
	remaining := q.order[:0]
	for _, h := range q.order {
		tx, ok := q.byHash[h]
		if !ok {
			continue
		}
		createdAt := time.UnixMilli(tx.Tx.Payload.CreatedAtMS)
		ttl := time.Duration(tx.Tx.Payload.TimeToLiveMS) * time.Millisecond
		if ttl == 0 {
			ttl = q.cfg.TransactionTimeToLive
		}
		if asOf.After(createdAt.Add(ttl)) {
			delete(q.byHash, h)
			q.byAuth[tx.Tx.Payload.Authority]--
			continue
		}
		if len(out) < max {
			out = append(out, tx)
			delete(q.byHash, h)
			q.byAuth[tx.Tx.Payload.Authority]--
		} else {
			remaining = append(remaining, h)
		}
	}
	q.order = remaining
	return out
}

// Requeue returns previously popped transactions to the front of the queue,
// used when a view change aborts a block before it commits so the dropped
// leader's selection is not lost.
func (q *Queue) Requeue(txs []AcceptedTransaction) {
	q.mu.Lock()
	defer q.mu.Unlock()
	prefix := make([]Hash, 0, len(txs))
	for _, tx := range txs {
		h := tx.Tx.Hash()
		if _, ok := q.byHash[h]; ok {
			continue
		}
		q.byHash[h] = tx
		q.byAuth[tx.Tx.Payload.Authority]++
		prefix = append(prefix, h)
	}
	q.order = append(prefix, q.order...)
}

// Len reports the number of transactions currently admitted.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Has reports whether a transaction with the given hash is currently queued.
func (q *Queue) Has(h Hash) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byHash[h]
	return ok
}
