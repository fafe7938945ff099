// AngelaMos | 2026
// redis_test.go

package core

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestEventLedgerFirstDelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ledger := NewEventLedger(client, "webhook:test", time.Hour)
	ctx := context.Background()

	first, err := ledger.FirstDelivery(ctx, "evt_1")
	if err != nil {
		t.Fatalf("FirstDelivery returned error: %v", err)
	}
	if !first {
		t.Fatal("expected first delivery to be reported as new")
	}

	again, err := ledger.FirstDelivery(ctx, "evt_1")
	if err != nil {
		t.Fatalf("FirstDelivery returned error: %v", err)
	}
	if again {
		t.Fatal("expected replayed delivery to be reported as seen")
	}

	if err := ledger.Forget(ctx, "evt_1"); err != nil {
		t.Fatalf("Forget returned error: %v", err)
	}
	retried, err := ledger.FirstDelivery(ctx, "evt_1")
	if err != nil {
		t.Fatalf("FirstDelivery returned error: %v", err)
	}
	if !retried {
		t.Fatal("expected forgotten event to be accepted again")
	}
}

func TestEventLedgerExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ledger := NewEventLedger(client, "webhook:test", time.Minute)
	ctx := context.Background()

	if _, err := ledger.FirstDelivery(ctx, "evt_2"); err != nil {
		t.Fatalf("FirstDelivery returned error: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	first, err := ledger.FirstDelivery(ctx, "evt_2")
	if err != nil {
		t.Fatalf("FirstDelivery returned error: %v", err)
	}
	if !first {
		t.Fatal("expected expired event to be accepted again")
	}
}
