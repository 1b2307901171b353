package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	dbpkg "github.com/anayy09/Navigator-AI-Console/internal/db"
	"github.com/anayy09/Navigator-AI-Console/internal/identity"
	"github.com/anayy09/Navigator-AI-Console/internal/quota"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// fakeCounterStore implements quota.CounterStore in memory.
type fakeCounterStore struct {
	counts map[string]int64
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: map[string]int64{}}
}

func (s *fakeCounterStore) Get(_ context.Context, key string) (int64, error) {
	return s.counts[key], nil
}

func (s *fakeCounterStore) IncrementWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.counts[key]++
	return s.counts[key], nil
}

// newTestDB opens a migrated in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := dbpkg.Open(":memory:")
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

// newTestGate builds a gate over an in-memory database and fake counters.
func newTestGate(t *testing.T) (*quota.Gate, *gorm.DB, *fakeCounterStore) {
	t.Helper()
	conn := newTestDB(t)
	counters := newFakeCounterStore()
	return quota.NewGate(conn, counters), conn, counters
}

// withIdentity injects a fixed identity, standing in for the resolver
// middleware.
func withIdentity(id identity.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("identity", id)
		c.Set("identityKey", id.Key)
		c.Next()
	}
}

func anonIdentity(key string) identity.Identity {
	return identity.Identity{Kind: identity.KindAnonymous, Key: key}
}

func accountIdentity(userID uint64) identity.Identity {
	return identity.Identity{Kind: identity.KindAccount, Key: fmt.Sprintf("user:%d", userID), UserID: userID}
}

// decodeJSONBody unmarshals a recorded response body into out.
func decodeJSONBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if errDecode := json.Unmarshal(w.Body.Bytes(), out); errDecode != nil {
		t.Fatalf("decode response %s: %v", w.Body.String(), errDecode)
	}
}
