package db

import (
	"context"
	"strings"
	"testing"
)

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Errorf("expected nil tx on bare context, got %v", tx)
	}
}

func TestWithTx_RequiresConnection(t *testing.T) {
	_, _, err := WithTx(context.Background())
	if err == nil {
		t.Fatal("expected error when context carries no connection")
	}
	if !strings.Contains(err.Error(), "no database connection") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRunInTx_PropagatesSetupError(t *testing.T) {
	called := false
	err := RunInTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected error when transaction cannot be started")
	}
	if called {
		t.Error("expected fn not to run without a transaction")
	}
}

func TestConnFromContext_Empty(t *testing.T) {
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Errorf("expected nil conn on bare context, got %v", conn)
	}
}

func TestTenantFromContext(t *testing.T) {
	if tn := TenantFromContext(context.Background()); tn != nil {
		t.Errorf("expected nil tenant on bare context, got %v", tn)
	}

	want := &Tenant{ID: "city_general", Schema: "tenant_city_general", Active: true}
	ctx := context.WithValue(context.Background(), TenantKey, want)
	if got := TenantFromContext(ctx); got != want {
		t.Errorf("expected bound tenant, got %v", got)
	}
}

func TestTenantIDPattern(t *testing.T) {
	valid := []string{"default", "city_general", "Hospital2", "a"}
	for _, id := range valid {
		if !tenantIDPattern.MatchString(id) {
			t.Errorf("expected %q to be a valid tenant id", id)
		}
	}
	invalid := []string{"", "city-general", "x; DROP SCHEMA shared", "a b", "tenant.one"}
	for _, id := range invalid {
		if tenantIDPattern.MatchString(id) {
			t.Errorf("expected %q to be rejected", id)
		}
	}
}
