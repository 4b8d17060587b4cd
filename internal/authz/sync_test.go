package authz_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/driftboard/driftboard/internal/authz"
	_ "github.com/driftboard/driftboard/testing"
)

func newSyncer(store authz.Store, ops ...authz.ProtectedOperation) *authz.Syncer {
	registry := authz.NewRegistry()
	registry.Register(ops...)
	return authz.NewSyncer(store, registry, nil, nil)
}

func TestSyncGeneratesMissingPermissions(t *testing.T) {
	store := newFakeStore()
	syncer := newSyncer(store,
		authz.ProtectedOperation{Name: "Gerenciar Times", Category: "teams"},
		authz.ProtectedOperation{Name: "Criar Perfis", Category: "profiles"},
	)

	report, err := syncer.Run(context.Background())
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if report.GeneratedPermissions != 2 {
		t.Fatalf("expected 2 generated, got %d", report.GeneratedPermissions)
	}
	if report.ExistingPermissions != 0 {
		t.Fatalf("expected 0 existing, got %d", report.ExistingPermissions)
	}
	if !reflect.DeepEqual(report.Categories, []string{"teams", "profiles"}) {
		t.Fatalf("expected categories in declaration order, got %v", report.Categories)
	}
	if report.DetectedFunctions != 2 {
		t.Fatalf("expected 2 detected categories, got %d", report.DetectedFunctions)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}

	perm, err := store.GetPermissionByName(context.Background(), "Gerenciar Times")
	if err != nil {
		t.Fatalf("expected permission in catalog: %v", err)
	}
	if perm.Slug != "manage-times" {
		t.Fatalf("expected canonical slug, got %q", perm.Slug)
	}
	if perm.Description == "" {
		t.Fatal("expected generated description")
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	store := newFakeStore()
	syncer := newSyncer(store,
		authz.ProtectedOperation{Name: "Gerenciar Times", Category: "teams"},
		authz.ProtectedOperation{Name: "Criar Perfis", Category: "profiles"},
	)

	if _, err := syncer.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := syncer.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.GeneratedPermissions != 0 {
		t.Fatalf("expected no generation on unchanged registry, got %d", report.GeneratedPermissions)
	}
	if report.ExistingPermissions != 2 {
		t.Fatalf("expected 2 existing, got %d", report.ExistingPermissions)
	}
}

func TestSyncReportsOrphansWithoutDeleting(t *testing.T) {
	store := newFakeStore()
	if _, err := store.CreatePermission(context.Background(), "Permissão Legada", "manage-legado", "legacy", ""); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	syncer := newSyncer(store, authz.ProtectedOperation{Name: "Gerenciar Times", Category: "teams"})

	report, err := syncer.Run(context.Background())
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if !reflect.DeepEqual(report.OrphanedPermissions, []string{"Permissão Legada"}) {
		t.Fatalf("expected orphan report, got %v", report.OrphanedPermissions)
	}
	if _, err := store.GetPermissionByName(context.Background(), "Permissão Legada"); err != nil {
		t.Fatal("orphaned permission must never be deleted")
	}
}

func TestSyncIsolatesPerItemFailures(t *testing.T) {
	store := newFakeStore()
	store.createErr["Criar Perfis"] = errors.New("deadlock detected")
	syncer := newSyncer(store,
		authz.ProtectedOperation{Name: "Gerenciar Times", Category: "teams"},
		authz.ProtectedOperation{Name: "Criar Perfis", Category: "profiles"},
		authz.ProtectedOperation{Name: "Criar Tarefas", Category: "tasks"},
	)

	report, err := syncer.Run(context.Background())
	if err != nil {
		t.Fatalf("a failed item must not abort the run: %v", err)
	}
	if report.GeneratedPermissions != 2 {
		t.Fatalf("expected the other items to land, got %d", report.GeneratedPermissions)
	}
	if len(report.Failures) != 1 || report.Failures[0].Name != "Criar Perfis" {
		t.Fatalf("expected single failure for Criar Perfis, got %v", report.Failures)
	}
}

func TestSyncTreatsDuplicateRaceAsExisting(t *testing.T) {
	store := newFakeStore()
	store.createErr["Gerenciar Times"] = authz.ErrDuplicateLink
	syncer := newSyncer(store, authz.ProtectedOperation{Name: "Gerenciar Times", Category: "teams"})

	report, err := syncer.Run(context.Background())
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if report.GeneratedPermissions != 0 || report.ExistingPermissions != 1 {
		t.Fatalf("expected duplicate race counted as existing, got %+v", report)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("duplicate race is not a failure: %v", report.Failures)
	}
}

func TestSyncFailsWhenCatalogUnavailable(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection refused")
	syncer := newSyncer(store, authz.ProtectedOperation{Name: "Gerenciar Times", Category: "teams"})

	if _, err := syncer.Run(context.Background()); err == nil {
		t.Fatal("expected error when the catalog cannot be listed")
	}
}

func TestRegistryDeduplicatesAndKeepsOrder(t *testing.T) {
	registry := authz.NewRegistry()
	registry.Register(
		authz.ProtectedOperation{Name: "Gerenciar Times", Category: "teams"},
		authz.ProtectedOperation{Name: "Criar Perfis", Category: "profiles"},
	)
	registry.Register(
		authz.ProtectedOperation{Name: "Gerenciar Times", Category: "other"},
		authz.ProtectedOperation{Name: "  "},
	)

	ops := registry.Operations()
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	if ops[0].Name != "Gerenciar Times" || ops[0].Category != "teams" {
		t.Fatalf("first declaration must win, got %+v", ops[0])
	}
	if ops[1].Name != "Criar Perfis" {
		t.Fatalf("expected declaration order preserved, got %+v", ops[1])
	}
}
