package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/scrib/dbopen"
)

func TestLeaseExcludesSecondHolder(t *testing.T) {
	// WHAT: two holders on one lease row; the second cannot acquire while
	// the first holds an unexpired lease.
	db := dbopen.OpenMemory(t)
	ctx := context.Background()

	first := NewLease(db, "update", time.Minute)
	if err := first.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	second := NewLease(db, "update", time.Minute)
	second.holder = "other-host-999" // simulate a different process

	ok, err := first.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire = %v, %v", ok, err)
	}
	ok, err = second.TryAcquire(ctx)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Error("second holder acquired a held lease")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	ok, err = second.TryAcquire(ctx)
	if err != nil || !ok {
		t.Errorf("acquire after release = %v, %v", ok, err)
	}
}

func TestLeaseReentrantForSameHolder(t *testing.T) {
	db := dbopen.OpenMemory(t)
	ctx := context.Background()

	l := NewLease(db, "update", time.Minute)
	if err := l.EnsureTable(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		ok, err := l.TryAcquire(ctx)
		if err != nil || !ok {
			t.Fatalf("acquire #%d = %v, %v", i+1, ok, err)
		}
	}
}

func TestLeaseExpiryAllowsTakeover(t *testing.T) {
	// WHAT: an expired lease can be claimed by a new holder, so a crashed
	// process never blocks updates forever.
	db := dbopen.OpenMemory(t)
	ctx := context.Background()

	crashed := NewLease(db, "update", 10*time.Millisecond)
	if err := crashed.EnsureTable(ctx); err != nil {
		t.Fatal(err)
	}
	crashed.holder = "crashed-host-1"
	if ok, err := crashed.TryAcquire(ctx); err != nil || !ok {
		t.Fatalf("crashed acquire = %v, %v", ok, err)
	}

	time.Sleep(20 * time.Millisecond)

	next := NewLease(db, "update", time.Minute)
	next.holder = "next-host-2"
	ok, err := next.TryAcquire(ctx)
	if err != nil || !ok {
		t.Errorf("takeover after expiry = %v, %v", ok, err)
	}
}

func TestLeaseReleaseByNonHolderIsNoop(t *testing.T) {
	db := dbopen.OpenMemory(t)
	ctx := context.Background()

	owner := NewLease(db, "update", time.Minute)
	if err := owner.EnsureTable(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, _ := owner.TryAcquire(ctx); !ok {
		t.Fatal("owner acquire failed")
	}

	stranger := NewLease(db, "update", time.Minute)
	stranger.holder = "stranger-3"
	if err := stranger.Release(ctx); err != nil {
		t.Fatalf("stranger release: %v", err)
	}

	// Owner's lease must still exclude the stranger.
	if ok, _ := stranger.TryAcquire(ctx); ok {
		t.Error("stranger acquired after releasing someone else's lease")
	}
}

func TestLeaseRenewExtendsExpiry(t *testing.T) {
	db := dbopen.OpenMemory(t)
	ctx := context.Background()

	l := NewLease(db, "update", 50*time.Millisecond)
	if err := l.EnsureTable(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, _ := l.TryAcquire(ctx); !ok {
		t.Fatal("acquire failed")
	}

	// Renew halfway through, then check past the original expiry.
	time.Sleep(30 * time.Millisecond)
	if err := l.Renew(ctx); err != nil {
		t.Fatalf("Renew: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	other := NewLease(db, "update", time.Minute)
	other.holder = "other-4"
	if ok, _ := other.TryAcquire(ctx); ok {
		t.Error("renewed lease was taken over")
	}
}
