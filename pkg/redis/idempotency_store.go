package redis

import (
	"context"
	"encoding/json"
	"time"
)

// IdempotencyRecord holds the cached outcome of a completed request
type IdempotencyRecord struct {
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
	RequestHash string          `json:"requestHash"`
}

// IdempotencyStore handles idempotency key claims and cached responses in Redis
type IdempotencyStore struct {
	retention time.Duration
}

const processingMarker = "processing"

var (
	setIdemValue    = Set
	getIdemValue    = Get
	delIdemValue    = Del
	setIdemIfAbsent = SetNX
)

// NewIdempotencyStore creates a new idempotency store. Records are retained
// for the given duration after the first request completes.
func NewIdempotencyStore(retention time.Duration) *IdempotencyStore {
	return &IdempotencyStore{retention: retention}
}

// Claim attempts to mark a key as in-flight. Returns true if this caller won
// the claim, false if another request holds or completed it.
func (s *IdempotencyStore) Claim(ctx context.Context, key string) (bool, error) {
	return setIdemIfAbsent(ctx, "idempotency:"+key, processingMarker, s.retention)
}

// Get retrieves the cached record for a key. Returns (nil, false, nil) when
// the key is unknown, and inFlight=true when the first request has not yet
// completed.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (record *IdempotencyRecord, inFlight bool, err error) {
	raw, err := getIdemValue(ctx, "idempotency:"+key)
	if err != nil {
		if err == Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	if raw == processingMarker {
		return nil, true, nil
	}

	var rec IdempotencyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false, err
	}

	return &rec, false, nil
}

// Complete stores the response for a claimed key
func (s *IdempotencyStore) Complete(ctx context.Context, key string, record *IdempotencyRecord) error {
	jsonData, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return setIdemValue(ctx, "idempotency:"+key, jsonData, s.retention)
}

// Release removes the claim for a key, allowing a retry. Called when the
// first request fails before producing a cacheable response.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return delIdemValue(ctx, "idempotency:"+key)
}
