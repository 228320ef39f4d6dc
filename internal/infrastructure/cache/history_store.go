package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vetolabs/veto-backend/internal/domain/values"
	"github.com/vetolabs/veto-backend/internal/domain/wallet"
)

// Key prefix for per-pair transfer history
const historyPairPrefix = "veto:history:pair:"

// Retention for history entries. Detectors never look back further than a
// day, so older entries only waste memory.
const historyTTL = 48 * time.Hour

// HistoryStore keeps recent transfer records in Redis sorted sets keyed by
// unordered address pair, scored by submission time. Lookups are windowed
// range queries; writes trim expired entries as they go.
type HistoryStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewHistoryStore creates a Redis-backed transfer history store
func NewHistoryStore(client *redis.Client, logger *zap.Logger) *HistoryStore {
	return &HistoryStore{client: client, logger: logger}
}

// RecentTransfers returns transfers between the pair in either direction
// submitted within the window, newest first.
func (s *HistoryStore) RecentTransfers(ctx context.Context, sender, receiver values.Address, window time.Duration) ([]wallet.TransferRecord, error) {
	key := pairKey(sender, receiver)
	cutoff := time.Now().Add(-window).UnixNano()

	raw, err := s.client.ZRevRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("querying transfer history: %w", err)
	}

	records := make([]wallet.TransferRecord, 0, len(raw))
	for _, entry := range raw {
		var rec wallet.TransferRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			// Skip corrupt entries rather than failing the lookup
			s.logger.Warn("skipping corrupt history entry",
				zap.String("key", key), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Record stores a submitted transfer for future lookups
func (s *HistoryStore) Record(ctx context.Context, rec wallet.TransferRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding transfer record: %w", err)
	}

	key := pairKey(rec.Sender, rec.Receiver)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(rec.SubmittedAt.UnixNano()),
		Member: string(data),
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf",
		strconv.FormatInt(time.Now().Add(-historyTTL).UnixNano(), 10))
	pipe.Expire(ctx, key, historyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording transfer: %w", err)
	}

	return nil
}

// pairKey is direction-independent so one lookup sees transfers both ways
// between the two addresses. Direction stays available on the records
// themselves.
func pairKey(a, b values.Address) string {
	lo, hi := a.String(), b.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	return historyPairPrefix + lo + ":" + hi
}
