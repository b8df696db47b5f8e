package auth

import (
	"testing"
	"time"

	"github.com/synageion/synageion/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := NewStore()
	s.SetClock(clk.Now)
	return s, clk
}

func TestStoreCreateGetDestroy(t *testing.T) {
	s, _ := newTestStore()
	sess := s.Create(7, "alice1", models.RoleSales)
	if sess.ID == "" {
		t.Fatal("expected session id")
	}
	got, ok := s.Get(sess.ID)
	if !ok {
		t.Fatal("session not found")
	}
	if got.Username != "alice1" || got.Role != models.RoleSales || got.UserID != 7 {
		t.Fatalf("unexpected session: %+v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	s.Destroy(sess.ID)
	if _, ok := s.Get(sess.ID); ok {
		t.Fatal("session survived Destroy")
	}
	s.Destroy("unknown")
}

func TestStoreReturnsCopies(t *testing.T) {
	s, _ := newTestStore()
	sess := s.Create(1, "bob1", models.RoleBuyer)
	sess.Role = models.RoleAdministrator
	got, _ := s.Get(sess.ID)
	if got.Role != models.RoleBuyer {
		t.Fatalf("store entry mutated through returned copy: %s", got.Role)
	}
}

func TestGuardSlidingWindow(t *testing.T) {
	s, clk := newTestStore()
	g := NewGuard(30 * time.Minute)
	sess := s.Create(1, "alice1", models.RoleSales)

	clk.Advance(29 * time.Minute)
	cur, _ := s.Get(sess.ID)
	if g.Check(cur, clk.Now()) != Active {
		t.Fatal("expected active at minute 29")
	}
	cur, _ = s.Touch(sess.ID)

	clk.Advance(2 * time.Minute) // minute 31 since login, 2 since last touch
	if g.Check(cur, clk.Now()) != Active {
		t.Fatal("touched session expired at minute 31")
	}

	clk.Advance(29 * time.Minute)
	if g.Check(cur, clk.Now()) != Expired {
		t.Fatal("expected expiry after 31 idle minutes")
	}
}

func TestGuardBoundary(t *testing.T) {
	g := NewGuard(30 * time.Minute)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sess := Session{LastActivity: start}
	if g.Check(sess, start.Add(30*time.Minute)) != Active {
		t.Fatal("exactly the timeout should still be active")
	}
	if g.Check(sess, start.Add(30*time.Minute+time.Second)) != Expired {
		t.Fatal("past the timeout should be expired")
	}
}

func TestNewGuardDefault(t *testing.T) {
	if NewGuard(0).Timeout != DefaultTimeout {
		t.Fatalf("expected default timeout")
	}
	if Expired.String() != "expired" || Active.String() != "active" {
		t.Fatal("unexpected state names")
	}
}

func TestStorePrune(t *testing.T) {
	s, clk := newTestStore()
	g := NewGuard(10 * time.Minute)
	old := s.Create(1, "old1", models.RoleSales)
	clk.Advance(8 * time.Minute)
	fresh := s.Create(2, "fresh", models.RoleBuyer)
	clk.Advance(5 * time.Minute)

	if n := s.Prune(g); n != 1 {
		t.Fatalf("Prune() = %d, want 1", n)
	}
	if _, ok := s.Get(old.ID); ok {
		t.Fatal("idle session not pruned")
	}
	if _, ok := s.Get(fresh.ID); !ok {
		t.Fatal("fresh session pruned")
	}
}
