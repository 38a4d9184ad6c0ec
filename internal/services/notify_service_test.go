package services_test

import (
	"testing"

	"bazaar/internal/repos"
	"bazaar/internal/services"
)

// fakePresence marks a fixed set of recipients reachable and records
// live sends.
type fakePresence struct {
	online map[string]bool
	sent   []string
}

func (p *fakePresence) Online(recipient string) bool { return p.online[recipient] }
func (p *fakePresence) Send(recipient, text string) error {
	p.sent = append(p.sent, recipient+": "+text)
	return nil
}

func TestNotifyQueuesForOfflineRecipients(t *testing.T) {
	db := memdb(t)
	svc := &services.NotifyService{Notifications: repos.NewNotificationRepo(db)}

	svc.Push("u-bob", "first")
	svc.Push("u-bob", "second")
	svc.Push("u-alice", "other")

	got, err := svc.Drain("u-bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Message != "first" || got[1].Message != "second" {
		t.Fatalf("want FIFO [first second], got %+v", got)
	}

	// Drained messages are gone.
	again, err := svc.Drain("u-bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Fatalf("second drain must be empty, got %+v", again)
	}

	// Other recipients untouched.
	if n, _ := svc.Pending("u-alice"); n != 1 {
		t.Fatalf("want 1 pending for u-alice, got %d", n)
	}
}

func TestDrainRemovesOnlyReturnedRows(t *testing.T) {
	db := memdb(t)
	svc := &services.NotifyService{Notifications: repos.NewNotificationRepo(db)}

	svc.Push("u-bob", "early")
	got, err := svc.Drain("u-bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 drained, got %+v", got)
	}

	// Rows enqueued after a drain's read set must survive untouched and
	// come out, in order, on the next drain.
	svc.Push("u-bob", "late-1")
	svc.Push("u-bob", "late-2")
	if n, _ := svc.Pending("u-bob"); n != 2 {
		t.Fatalf("want 2 still queued, got %d", n)
	}
	got, err = svc.Drain("u-bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Message != "late-1" || got[1].Message != "late-2" {
		t.Fatalf("want [late-1 late-2], got %+v", got)
	}
}

func TestNotifySendsLiveWhenOnline(t *testing.T) {
	db := memdb(t)
	p := &fakePresence{online: map[string]bool{"u-bob": true}}
	svc := &services.NotifyService{Notifications: repos.NewNotificationRepo(db), Presence: p}

	svc.Push("u-bob", "hello")
	if len(p.sent) != 1 {
		t.Fatalf("want 1 live send, got %+v", p.sent)
	}
	if n, _ := svc.Pending("u-bob"); n != 0 {
		t.Fatalf("live sends must not queue, got %d pending", n)
	}
}
