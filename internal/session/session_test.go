package session

import (
	"context"
	"io"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"campanile/auth-session/internal/auth"
	"campanile/auth-session/internal/crypto"
	"campanile/auth-session/internal/logging"
	"campanile/auth-session/internal/model"
	"campanile/auth-session/internal/repository"
)

// Sessions only come out of a successful login, so the tests run one
// against an in-memory credential source.
type memStore struct {
	creds map[string]model.Credential
}

func (m *memStore) FindByUsername(_ context.Context, username string) (model.Credential, error) {
	cred, ok := m.creds[username]
	if !ok {
		return model.Credential{}, repository.ErrNotFound
	}
	return cred, nil
}

func (m *memStore) TouchLastLogin(context.Context, int64) error { return nil }

func login(t *testing.T, role string) *auth.Session {
	t.Helper()
	hash, err := crypto.HashPasswordCost("pw", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store := &memStore{creds: map[string]model.Credential{
		"u": {UserID: 1, Username: "u", Role: role, PasswordHash: hash},
	}}
	svc := auth.NewService(store, logging.NewWithWriter(io.Discard, "error", "text"), auth.WithCost(bcrypt.MinCost))
	sess, err := svc.Login(context.Background(), "u", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return sess
}

func TestManagerSetCurrentClear(t *testing.T) {
	m := NewManager()
	if m.Current() != nil {
		t.Fatalf("fresh manager should have no session")
	}

	first := login(t, "student")
	m.Set(first)
	if m.Current() != first {
		t.Fatalf("expected the stored session back")
	}

	// A new login overwrites, no merging.
	second := login(t, "admin")
	m.Set(second)
	if m.Current() != second {
		t.Fatalf("expected last-write-wins")
	}

	m.Clear()
	if m.Current() != nil {
		t.Fatalf("clear should empty the slot")
	}
}

func TestManagerConcurrentReaders(t *testing.T) {
	m := NewManager()
	a := login(t, "student")
	b := login(t, "admin")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// A read sees nil or one of the published sessions,
				// never anything else.
				if cur := m.Current(); cur != nil && cur != a && cur != b {
					t.Errorf("torn read: %p", cur)
					return
				}
			}
		}()
	}
	for i := 0; i < 1000; i++ {
		switch i % 3 {
		case 0:
			m.Set(a)
		case 1:
			m.Set(b)
		default:
			m.Clear()
		}
	}
	close(stop)
	wg.Wait()
}

func TestGate(t *testing.T) {
	m := NewManager()

	cases := []struct {
		name     string
		required model.Role
		session  *auth.Session
		want     bool
	}{
		{"admin gate denies student", model.RoleAdmin, login(t, "student"), false},
		{"student gate denies no session", model.RoleStudent, nil, false},
		{"any-role gate denies no session", model.RoleUnknown, nil, false},
		{"any-role gate grants student", model.RoleUnknown, login(t, "student"), true},
		{"any-role gate grants admin", model.RoleUnknown, login(t, "admin"), true},
		{"exact match grants", model.RoleInstructor, login(t, "instructor"), true},
		{"synonym resolves before comparison", model.RoleInstructor, login(t, "Teacher"), true},
		{"unrecognized stored role only passes any-role", model.RoleStudent, login(t, "registrar"), false},
	}
	for _, tc := range cases {
		if tc.session != nil {
			m.Set(tc.session)
		} else {
			m.Clear()
		}
		gate := NewGate(tc.required, m)
		if got := gate.Allow(); got != tc.want {
			t.Fatalf("%s: Allow() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestGateDenialLeavesSessionAlone(t *testing.T) {
	m := NewManager()
	sess := login(t, "student")
	m.Set(sess)

	if NewGate(model.RoleAdmin, m).Allow() {
		t.Fatalf("student must not pass the admin gate")
	}
	if m.Current() != sess {
		t.Fatalf("denial must not clear the session")
	}
}
