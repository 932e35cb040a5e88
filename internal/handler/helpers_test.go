package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/msomdec/approval-gate/internal/domain"
	"github.com/msomdec/approval-gate/internal/handler"
	"github.com/msomdec/approval-gate/internal/repository/sqlite"
	"github.com/msomdec/approval-gate/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Registration
	err  error
}

func (n *recordingNotifier) NotifyRegistration(ctx context.Context, reg domain.Registration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, reg)
	return nil
}

func (n *recordingNotifier) fail(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type testEnv struct {
	srv      *httptest.Server
	accounts *service.AccountService
	tokens   *service.JWTIssuer
	notifier *recordingNotifier
}

func newTestUsers(t *testing.T) domain.UserRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db.Users()
}

func newTestEnv(t *testing.T, opts ...service.AccountOption) *testEnv {
	t.Helper()
	return newTestEnvWithUsers(t, newTestUsers(t), opts...)
}

func newTestEnvWithUsers(t *testing.T, users domain.UserRepository, opts ...service.AccountOption) *testEnv {
	t.Helper()
	notifier := &recordingNotifier{}
	tokens := service.NewJWTIssuer(testJWTSecret)
	// Use cost 4 for fast tests.
	accounts := service.NewAccountService(users, service.NewBcryptHasher(4), tokens, notifier, opts...)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, accounts, tokens)

	srv := httptest.NewServer(handler.Wrap(mux, nil))
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, accounts: accounts, tokens: tokens, notifier: notifier}
}

// adminToken creates an admin account and returns a token for it.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	if _, err := e.accounts.CreateAdmin(ctx, "root", "root@example.com", "555-0199", "admin-password"); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	res, err := e.accounts.Login(ctx, "root", "admin-password")
	if err != nil {
		t.Fatalf("admin Login: %v", err)
	}
	return res.Token
}

// do sends a JSON request and decodes the JSON response into out when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}
