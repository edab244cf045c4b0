package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

func TestSweepEvictsStaleEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Heartbeat(ctx, "1", domain.Profile{Name: "Stale"}, 10); err != nil {
		t.Fatalf("heartbeat 1: %v", err)
	}
	if _, err := store.Heartbeat(ctx, "2", domain.Profile{Name: "Fresh"}, 20); err != nil {
		t.Fatalf("heartbeat 2: %v", err)
	}

	// Backdate player 1 past the TTL.
	old := time.Now().UTC().Add(-10 * time.Minute).Unix()
	if err := store.client.ZAdd(ctx, presenceIndexKey, redis.Z{Score: float64(old), Member: "1"}).Err(); err != nil {
		t.Fatalf("backdating: %v", err)
	}

	removed, err := store.SweepPresence(ctx, domain.PresenceTTL)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	online, err := store.OnlinePlayers(ctx, domain.PresenceTTL)
	if err != nil {
		t.Fatalf("online: %v", err)
	}
	if len(online) != 1 || online[0].PlayerID != "2" {
		t.Errorf("online = %+v, want only player 2", online)
	}

	exists, err := store.client.Exists(ctx, store.presenceEntryKey("1")).Result()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists != 0 {
		t.Error("evicted presence entry hash should be deleted")
	}
}

func TestHeartbeatPreservesJoinedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Heartbeat(ctx, "9", domain.Profile{Name: "A"}, 0); err != nil {
		t.Fatalf("first heartbeat: %v", err)
	}
	if err := store.client.HSet(ctx, store.presenceEntryKey("9"), "joined_at", "100").Err(); err != nil {
		t.Fatalf("seeding joined_at: %v", err)
	}

	if _, err := store.Heartbeat(ctx, "9", domain.Profile{Name: "A"}, 5); err != nil {
		t.Fatalf("second heartbeat: %v", err)
	}

	joined, err := store.client.HGet(ctx, store.presenceEntryKey("9"), "joined_at").Result()
	if err != nil {
		t.Fatalf("reading joined_at: %v", err)
	}
	if joined != "100" {
		t.Errorf("joined_at = %s, want the original 100", joined)
	}
}

func TestLazySweepOnRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Heartbeat(ctx, "1", domain.Profile{Name: "Stale"}, 0); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	old := time.Now().UTC().Add(-domain.PresenceTTL - time.Minute).Unix()
	if err := store.client.ZAdd(ctx, presenceIndexKey, redis.Z{Score: float64(old), Member: "1"}).Err(); err != nil {
		t.Fatalf("backdating: %v", err)
	}

	// No explicit sweep between backdating and the read.
	online, err := store.OnlinePlayers(ctx, domain.PresenceTTL)
	if err != nil {
		t.Fatalf("online: %v", err)
	}
	if len(online) != 0 {
		t.Errorf("online = %+v, want empty after lazy eviction", online)
	}
}
