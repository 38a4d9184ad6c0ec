package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

func newBoard(t *testing.T) (*services.BulletinService, *services.MemoryLedger, *repos.BulletinRepo) {
	t.Helper()
	db := memdb(t)
	repo := repos.NewBulletinRepo(db)
	ledger := services.NewMemoryLedger()
	board := &services.BulletinService{
		Messages:      repo,
		Ledger:        ledger,
		PostDuration:  time.Hour,
		RenewDuration: 2 * time.Hour,
		RenewPrice:    dec("100"),
	}
	return board, ledger, repo
}

func TestBulletinPostIsFree(t *testing.T) {
	board, ledger, _ := newBoard(t)

	msg, err := board.Post("u-alice", "Alice", "selling cheap stone, shop #1")
	if err != nil {
		t.Fatal(err)
	}
	if msg.ExpireAt != msg.CreatedAt+3600 {
		t.Fatalf("want expiry createdAt+3600, got created=%d expire=%d", msg.CreatedAt, msg.ExpireAt)
	}
	// No charge for posting.
	if !ledger.Balance("u-alice").IsZero() {
		t.Fatalf("posting must be free, balance %s", ledger.Balance("u-alice"))
	}

	if _, err := board.Post("u-alice", "Alice", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank content: want ErrValidation, got %v", err)
	}
}

func TestBulletinRenewIsAdditiveAndPaid(t *testing.T) {
	board, ledger, _ := newBoard(t)
	ctx := context.Background()

	msg, err := board.Post("u-alice", "Alice", "hello")
	if err != nil {
		t.Fatal(err)
	}

	ledger.Credit("u-alice", dec("250"))
	r1, err := board.Renew(ctx, msg.ID, "u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if r1.ExpireAt != msg.ExpireAt+7200 {
		t.Fatalf("want expiry +7200, got %d -> %d", msg.ExpireAt, r1.ExpireAt)
	}
	// Second renewal stacks on top of the first.
	r2, err := board.Renew(ctx, msg.ID, "u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if r2.ExpireAt != msg.ExpireAt+14400 {
		t.Fatalf("renewals must stack, got %d -> %d", msg.ExpireAt, r2.ExpireAt)
	}
	if !ledger.Balance("u-alice").Equal(dec("50")) {
		t.Fatalf("want balance 50 after two renewals, got %s", ledger.Balance("u-alice"))
	}

	// Third renewal cannot be afforded.
	if _, err := board.Renew(ctx, msg.ID, "u-alice"); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
}

func TestBulletinRenewExpiredMessage(t *testing.T) {
	board, ledger, repo := newBoard(t)
	ctx := context.Background()

	// Already lapsed an hour ago; renewal still extends from the stored
	// expiry, not from now.
	past := time.Now().Unix() - 3600
	id, err := repo.Insert("u-alice", "Alice", "old news", past-3600, past)
	if err != nil {
		t.Fatal(err)
	}
	ledger.Credit("u-alice", dec("100"))

	renewed, err := board.Renew(ctx, id, "u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if renewed.ExpireAt != past+7200 {
		t.Fatalf("want expiry %d, got %d", past+7200, renewed.ExpireAt)
	}
}

func TestBulletinRenewOwnerOnly(t *testing.T) {
	board, ledger, _ := newBoard(t)
	ctx := context.Background()

	msg, _ := board.Post("u-alice", "Alice", "hello")
	ledger.Credit("u-bob", dec("100"))

	if _, err := board.Renew(ctx, msg.ID, "u-bob"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if _, err := board.Renew(ctx, 9999, "u-alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestBulletinActiveAndSweep(t *testing.T) {
	board, _, repo := newBoard(t)

	now := time.Now().Unix()
	if _, err := repo.Insert("u-alice", "Alice", "expired", now-7200, now-3600); err != nil {
		t.Fatal(err)
	}
	live, err := board.Post("u-bob", "Bob", "still on")
	if err != nil {
		t.Fatal(err)
	}

	active, err := board.Active()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != live.ID {
		t.Fatalf("want only the live message, got %+v", active)
	}

	n, err := board.Sweep()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 swept, got %d", n)
	}
	// Expired renewable state is gone after the sweep.
	if _, err := repo.ByID(live.ID); err != nil {
		t.Fatalf("live message must survive the sweep: %v", err)
	}
}

func TestBulletinDeleteAuthorOrAdmin(t *testing.T) {
	board, _, _ := newBoard(t)

	msg, _ := board.Post("u-alice", "Alice", "hello")
	if err := board.Delete(msg.ID, "u-bob", false); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("stranger delete: want ErrValidation, got %v", err)
	}
	if err := board.Delete(msg.ID, "u-admin", true); err != nil {
		t.Fatal(err)
	}
	if err := board.Delete(msg.ID, "u-alice", false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}
