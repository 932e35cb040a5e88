package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msomdec/approval-gate/internal/config"
	"github.com/msomdec/approval-gate/internal/domain"
	"github.com/msomdec/approval-gate/internal/notify"
	"github.com/msomdec/approval-gate/internal/repository"
	"github.com/msomdec/approval-gate/internal/service"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		StoreDriver:  config.DriverSQLite,
		DatabasePath: filepath.Join(t.TempDir(), "ctl.db"),
		JWTSecret:    "test-secret-for-approvalctl-0123456789",
		BcryptCost:   4,
		AdminEmail:   "admin@example.com",
		PhoneRegion:  "US",
	}
}

func stubPassword(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}

func TestRun_Usage(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	if err := run(context.Background(), cfg, nil, &out); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := run(context.Background(), cfg, []string{"frobnicate"}, &out); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error for unknown command, got %v", err)
	}
}

func TestRun_CreateAdminListApprove(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	stubPassword(t, "admin-password", "admin-password")
	var out bytes.Buffer
	err := run(ctx, cfg, []string{"create-admin", "-username", "root", "-email", "root@example.com", "-phone", "555-0199"}, &out)
	if err != nil {
		t.Fatalf("create-admin: %v", err)
	}
	if !strings.Contains(out.String(), "created admin root") {
		t.Fatalf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := run(ctx, cfg, []string{"list-pending"}, &out); err != nil {
		t.Fatalf("list-pending: %v", err)
	}
	if !strings.Contains(out.String(), "no pending registrations") {
		t.Fatalf("admin must not be listed as pending: %q", out.String())
	}

	out.Reset()
	err = run(ctx, cfg, []string{"approve", "00000000-0000-0000-0000-000000000000"}, &out)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("approve unknown: expected ErrNotFound, got %v", err)
	}
}

func TestRun_CreateAdminPasswordMismatch(t *testing.T) {
	cfg := testConfig(t)
	stubPassword(t, "one", "two")

	var out bytes.Buffer
	err := run(context.Background(), cfg, []string{"create-admin", "-username", "root", "-email", "root@example.com", "-phone", "555-0199"}, &out)
	if err == nil || !strings.Contains(err.Error(), "do not match") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestRun_CreateAdminMissingFields(t *testing.T) {
	cfg := testConfig(t)
	stubPassword(t, "pw", "pw")

	var out bytes.Buffer
	err := run(context.Background(), cfg, []string{"create-admin", "-username", "root"}, &out)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRun_ApprovePending(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	accounts := service.NewAccountService(store.Users(), service.NewBcryptHasher(4),
		service.NewJWTIssuer(cfg.JWTSecret), notify.NewLogNotifier(cfg.AdminEmail))
	user, err := accounts.Register(ctx, "alice", "alice@example.com", "555-0100", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	store.Close()

	var out bytes.Buffer
	if err := run(ctx, cfg, []string{"list-pending"}, &out); err != nil {
		t.Fatalf("list-pending: %v", err)
	}
	if !strings.Contains(out.String(), user.ID) || !strings.Contains(out.String(), "alice@example.com") {
		t.Fatalf("expected alice in pending list: %q", out.String())
	}

	out.Reset()
	if err := run(ctx, cfg, []string{"approve", user.ID}, &out); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !strings.Contains(out.String(), "approved alice") {
		t.Fatalf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := run(ctx, cfg, []string{"list-pending"}, &out); err != nil {
		t.Fatalf("list-pending: %v", err)
	}
	if !strings.Contains(out.String(), "no pending registrations") {
		t.Fatalf("expected empty pending list: %q", out.String())
	}
}
