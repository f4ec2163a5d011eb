package chat

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistry_AdmitRejectsDuplicateUsername(t *testing.T) {
	r := NewRegistry(16)

	s1 := &Session{}
	s2 := &Session{}

	if err := r.Admit("alice", s1); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := r.Admit("alice", s2); err != ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	// The original session must be left untouched.
	snap := r.Snapshot()
	if len(snap) != 1 || snap[0] != s1 {
		t.Fatalf("unexpected snapshot after rejected admit: %v", snap)
	}
}

func TestRegistry_AdmitValidatesUsername(t *testing.T) {
	r := NewRegistry(16)

	for _, name := range []string{"", "   ", "this_username_is_way_too_long"} {
		if err := r.Admit(name, &Session{}); err != ErrUsernameInvalid {
			t.Fatalf("Admit(%q): expected ErrUsernameInvalid, got %v", name, err)
		}
	}
}

func TestRegistry_ConcurrentAdmitsSameUsername(t *testing.T) {
	r := NewRegistry(16)

	const attempts = 32
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Admit("alice", &Session{})
		}()
	}
	wg.Wait()
	close(errs)

	admitted := 0
	for err := range errs {
		if err == nil {
			admitted++
		} else if err != ErrUsernameTaken {
			t.Fatalf("unexpected admit error: %v", err)
		}
	}
	if admitted != 1 {
		t.Fatalf("expected exactly 1 successful admit, got %d", admitted)
	}
	if r.Len() != 1 {
		t.Fatalf("expected registry len 1, got %d", r.Len())
	}
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := NewRegistry(16)

	if err := r.Admit("bob", &Session{}); err != nil {
		t.Fatalf("admit: %v", err)
	}

	r.Remove("bob")
	r.Remove("bob")
	r.Remove("never_joined")

	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d sessions", r.Len())
	}
}

func TestRegistry_UsernamesSorted(t *testing.T) {
	r := NewRegistry(16)

	for _, name := range []string{"carol", "alice", "bob"} {
		if err := r.Admit(name, &Session{}); err != nil {
			t.Fatalf("admit(%s): %v", name, err)
		}
	}

	got := fmt.Sprintf("%v", r.Usernames())
	if got != "[alice bob carol]" {
		t.Fatalf("unexpected usernames: %s", got)
	}
}
