package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anayy09/Navigator-AI-Console/internal/identity"
	"github.com/anayy09/Navigator-AI-Console/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Daily request limits per identity kind.
const (
	// AccountDailyLimit caps authenticated accounts per calendar day.
	AccountDailyLimit int64 = 10
	// AnonDailyLimit caps anonymous identities per rolling 24h window.
	AnonDailyLimit int64 = 2
)

// anonCounterTTL is the expiry window refreshed on each allowed anonymous hit.
const anonCounterTTL = 24 * time.Hour

// CounterStore provides atomic counters with expiry for anonymous identities.
type CounterStore interface {
	// Get returns the current count for key, zero when absent.
	Get(ctx context.Context, key string) (int64, error)
	// IncrementWithExpiry atomically increments key, refreshes its expiry
	// window, and returns the new count.
	IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool  `json:"allowed"`   // Whether the request may proceed.
	Remaining int64 `json:"remaining"` // Requests left in the window, floored at 0.
}

// Gate combines the account and anonymous counters into a single
// allow-or-deny decision taken before relaying upstream.
type Gate struct {
	db       *gorm.DB
	counters CounterStore
}

// NewGate constructs a Gate over the relational store and counter store.
func NewGate(db *gorm.DB, counters CounterStore) *Gate {
	return &Gate{db: db, counters: counters}
}

// CheckAndIncrement applies the daily quota for the identity.
//
// The two paths intentionally order their increment and bound check
// differently: accounts increment first and then compare (the denied 11th
// request leaves the stored counter at 11), while anonymous identities are
// checked first and denied requests never touch the counter.
func (g *Gate) CheckAndIncrement(ctx context.Context, id identity.Identity) (Decision, error) {
	if id.IsAccount() {
		return g.checkAccount(ctx, id.UserID)
	}
	return g.checkAnonymous(ctx, id.Key)
}

// checkAccount upserts today's counter for the account and compares the
// post-increment value against the limit.
func (g *Gate) checkAccount(ctx context.Context, userID uint64) (Decision, error) {
	day := DayUTC(time.Now())
	row := models.UsageLog{UserID: userID, Day: day, Hits: 1}
	if errUpsert := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{"hits": gorm.Expr("usage_logs.hits + 1"), "updated_at": time.Now().UTC()}),
	}).Create(&row).Error; errUpsert != nil {
		return Decision{}, fmt.Errorf("quota: upsert usage log: %w", errUpsert)
	}

	// On conflict the insert does not report the incremented value; read it back.
	if errFind := g.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		First(&row).Error; errFind != nil {
		return Decision{}, fmt.Errorf("quota: read usage log: %w", errFind)
	}

	return Decision{
		Allowed:   row.Hits <= AccountDailyLimit,
		Remaining: floorZero(AccountDailyLimit - row.Hits),
	}, nil
}

// checkAnonymous reads the counter first and only increments when the
// request is allowed.
func (g *Gate) checkAnonymous(ctx context.Context, key string) (Decision, error) {
	counterKey := anonCounterKey(key)
	current, errGet := g.counters.Get(ctx, counterKey)
	if errGet != nil {
		return Decision{}, fmt.Errorf("quota: read counter: %w", errGet)
	}
	if current >= AnonDailyLimit {
		return Decision{Allowed: false, Remaining: 0}, nil
	}

	count, errIncr := g.counters.IncrementWithExpiry(ctx, counterKey, anonCounterTTL)
	if errIncr != nil {
		return Decision{}, fmt.Errorf("quota: increment counter: %w", errIncr)
	}
	return Decision{Allowed: true, Remaining: floorZero(AnonDailyLimit - count)}, nil
}

// Usage reports the identity's current count and limit without incrementing.
func (g *Gate) Usage(ctx context.Context, id identity.Identity) (used, limit int64, err error) {
	if id.IsAccount() {
		var row models.UsageLog
		errFind := g.db.WithContext(ctx).
			Where("user_id = ? AND day = ?", id.UserID, DayUTC(time.Now())).
			First(&row).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return 0, AccountDailyLimit, nil
			}
			return 0, 0, fmt.Errorf("quota: read usage log: %w", errFind)
		}
		return row.Hits, AccountDailyLimit, nil
	}

	count, errGet := g.counters.Get(ctx, anonCounterKey(id.Key))
	if errGet != nil {
		return 0, 0, fmt.Errorf("quota: read counter: %w", errGet)
	}
	return count, AnonDailyLimit, nil
}

// DayUTC truncates a time to UTC midnight, the key granularity for
// account counters.
func DayUTC(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// anonCounterKey namespaces anonymous counter keys.
func anonCounterKey(key string) string {
	return "anon:" + key
}

// floorZero clamps negative remainders to zero.
func floorZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
