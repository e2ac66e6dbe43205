// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vivat7on/filmindex/internal/platform/constants"
	"github.com/vivat7on/filmindex/internal/platform/errkind"
)

// RedisDeadLetter records partial bulk-indexing failures in Redis so an
// operator can inspect what was dropped without grepping logs. Entries
// expire on their own: this is a diagnostic aid, not a queue the engine
// itself ever reads back from.
type RedisDeadLetter struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeadLetter builds a [RedisDeadLetter] backed by client, with
// entries expiring after ttl.
func NewRedisDeadLetter(client *redis.Client, ttl time.Duration) *RedisDeadLetter {
	return &RedisDeadLetter{client: client, ttl: ttl}
}

type deadLetterRecord struct {
	Index      string    `json:"index"`
	DocID      string    `json:"doc_id"`
	Cause      string    `json:"cause"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Record stores a failed document under its own key, built from the index
// name and the document id, with the failure cause attached for later
// inspection.
func (r *RedisDeadLetter) Record(ctx context.Context, index, docID, cause string) error {
	record := deadLetterRecord{Index: index, DocID: docID, Cause: cause, RecordedAt: time.Now()}

	payload, err := json.Marshal(record)
	if err != nil {
		return errkind.Fatalf("deadletter.record", err, "failed to marshal record for %s", docID)
	}

	key := constants.RedisPrefixDeadLetter + index + ":" + docID
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return errkind.Transientf("deadletter.record", err, "failed to write dead-letter record for %s", docID)
	}

	return nil
}
