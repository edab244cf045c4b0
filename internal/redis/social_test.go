package redis

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

func TestClaimUsernameConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.ClaimUsername(ctx, "1", "nova"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := store.ClaimUsername(ctx, "2", "nova"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("second claim err = %v, want ErrUsernameTaken", err)
	}

	owner, err := store.UsernameOwner(ctx, "nova")
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner != "1" {
		t.Errorf("owner = %q, want the first claimant", owner)
	}
	if name, _ := store.PlayerUsername(ctx, "2"); name != "" {
		t.Errorf("loser's reverse key = %q, want empty", name)
	}
}

func TestClaimUsernameReclaimIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.ClaimUsername(ctx, "1", "nova"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.ClaimUsername(ctx, "1", "nova"); err != nil {
		t.Fatalf("reclaim of own name: %v", err)
	}
}

func TestClaimUsernameReleasesPrevious(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.ClaimUsername(ctx, "1", "nova"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := store.ClaimUsername(ctx, "1", "vega"); err != nil {
		t.Fatalf("rename claim: %v", err)
	}

	if owner, _ := store.UsernameOwner(ctx, "nova"); owner != "" {
		t.Errorf("released name owner = %q, want free", owner)
	}
	if name, _ := store.PlayerUsername(ctx, "1"); name != "vega" {
		t.Errorf("player username = %q, want vega", name)
	}

	// The released name is claimable again.
	if err := store.ClaimUsername(ctx, "2", "nova"); err != nil {
		t.Fatalf("claiming released name: %v", err)
	}
}

func TestAddFriendsSymmetricIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.AddFriends(ctx, "1", "2"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddFriends(ctx, "1", "2"); err != nil {
		t.Fatalf("repeat add: %v", err)
	}
	if err := store.AddFriends(ctx, "1", "3"); err != nil {
		t.Fatalf("second friend: %v", err)
	}

	friends, err := store.Friends(ctx, "1")
	if err != nil {
		t.Fatalf("friends of 1: %v", err)
	}
	sort.Strings(friends)
	if len(friends) != 2 || friends[0] != "2" || friends[1] != "3" {
		t.Errorf("friends of 1 = %v, want [2 3]", friends)
	}

	back, err := store.Friends(ctx, "2")
	if err != nil {
		t.Fatalf("friends of 2: %v", err)
	}
	if len(back) != 1 || back[0] != "1" {
		t.Errorf("friends of 2 = %v, want the symmetric [1]", back)
	}
}
