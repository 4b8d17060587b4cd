package authz_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/driftboard/driftboard/internal/authz"
	_ "github.com/driftboard/driftboard/testing"
)

type recordingAudit struct {
	mu      sync.Mutex
	denials []string
	done    chan struct{}
}

func (a *recordingAudit) RecordDenial(ctx context.Context, principalID int64, permission, action string) {
	a.mu.Lock()
	a.denials = append(a.denials, permission)
	a.mu.Unlock()
	select {
	case a.done <- struct{}{}:
	default:
	}
}

func newService(t *testing.T, store authz.Store, audit authz.AuditHook) (*authz.Service, *authz.Invalidator) {
	t.Helper()
	cache, _ := newTestCache(t)
	service := authz.NewService(authz.NewResolver(store), cache, audit, nil, nil)
	return service, authz.NewInvalidator(cache)
}

func TestHasPermissionDenyByDefault(t *testing.T) {
	service, _ := newService(t, newFakeStore(), nil)

	ok, err := service.HasPermission(context.Background(), 1, "Criar Tarefas")
	if err != nil {
		t.Fatalf("unknown principal must not error: %v", err)
	}
	if ok {
		t.Fatal("expected deny for principal with no grants")
	}
}

func TestRequirePermissionReturnsDenialAndAudits(t *testing.T) {
	store := newFakeStore()
	store.userProfiles[1] = int64p(1)
	store.addPermission(1, "Visualizar Tarefas", "tasks")
	audit := &recordingAudit{done: make(chan struct{}, 1)}
	service, _ := newService(t, store, audit)

	if err := service.RequirePermission(context.Background(), 1, "Visualizar Tarefas", "list tasks"); err != nil {
		t.Fatalf("expected grant, got %v", err)
	}

	err := service.RequirePermission(context.Background(), 1, "Excluir Tarefas", "delete task")
	if err == nil {
		t.Fatal("expected denial")
	}
	if !authz.IsDenied(err) {
		t.Fatalf("expected DeniedError, got %T", err)
	}
	var denied *authz.DeniedError
	if !errors.As(err, &denied) || denied.Permission != "Excluir Tarefas" {
		t.Fatalf("denial must name the missing permission, got %+v", denied)
	}

	select {
	case <-audit.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected audit hook to receive the denial")
	}
	audit.mu.Lock()
	defer audit.mu.Unlock()
	if len(audit.denials) != 1 || audit.denials[0] != "Excluir Tarefas" {
		t.Fatalf("unexpected audit trail: %v", audit.denials)
	}
}

type panickingAudit struct{}

func (panickingAudit) RecordDenial(ctx context.Context, principalID int64, permission, action string) {
	panic("audit sink offline")
}

func TestDenialSurvivesPanickingAuditHook(t *testing.T) {
	service, _ := newService(t, newFakeStore(), panickingAudit{})

	err := service.RequirePermission(context.Background(), 1, "Criar Tarefas", "")
	if !authz.IsDenied(err) {
		t.Fatalf("expected denial despite hook panic, got %v", err)
	}
	// Give the hook goroutine a moment; a panic escaping it would crash
	// the test binary.
	time.Sleep(50 * time.Millisecond)
}

func TestHasAnyPermission(t *testing.T) {
	store := newFakeStore()
	store.userProfiles[1] = int64p(1)
	store.addPermission(1, "Visualizar Tarefas", "tasks")
	service, _ := newService(t, store, nil)
	ctx := context.Background()

	ok, err := service.HasAnyPermission(ctx, 1, []string{"Excluir Tarefas", "Visualizar Tarefas"})
	if err != nil || !ok {
		t.Fatalf("expected any-of grant, ok=%v err=%v", ok, err)
	}
	ok, err = service.HasAnyPermission(ctx, 1, []string{"Excluir Tarefas", "Criar Quadros"})
	if err != nil || ok {
		t.Fatalf("expected any-of deny, ok=%v err=%v", ok, err)
	}
	ok, err = service.HasAnyPermission(ctx, 1, nil)
	if err != nil || !ok {
		t.Fatalf("empty list is vacuously true, ok=%v err=%v", ok, err)
	}
}

func TestHasAllPermissions(t *testing.T) {
	store := newFakeStore()
	store.userProfiles[1] = int64p(1)
	store.addPermission(1, "Criar Tarefas", "tasks")
	store.addPermission(1, "Editar Tarefas", "tasks")
	service, _ := newService(t, store, nil)
	ctx := context.Background()

	ok, err := service.HasAllPermissions(ctx, 1, []string{"Criar Tarefas", "Editar Tarefas"})
	if err != nil || !ok {
		t.Fatalf("expected all-of grant, ok=%v err=%v", ok, err)
	}
	ok, err = service.HasAllPermissions(ctx, 1, []string{"Criar Tarefas", "Excluir Tarefas"})
	if err != nil || ok {
		t.Fatalf("expected all-of deny, ok=%v err=%v", ok, err)
	}
}

func TestCapabilitiesProbes(t *testing.T) {
	store := newFakeStore()
	store.userProfiles[1] = int64p(1)
	store.addPermission(1, "Criar Tarefas", "tasks")
	store.addPermission(1, "Visualizar Tarefas", "tasks")
	service, _ := newService(t, store, nil)

	caps, err := service.Capabilities(context.Background(), 1, "Tarefas")
	if err != nil {
		t.Fatalf("capabilities: %v", err)
	}
	want := authz.Capabilities{CanCreate: true, CanView: true}
	if caps != want {
		t.Fatalf("expected %+v, got %+v", want, caps)
	}
}

func TestNoStaleReadAfterProfileChange(t *testing.T) {
	store := newFakeStore()
	store.userProfiles[1] = int64p(1)
	service, invalidator := newService(t, store, nil)
	ctx := context.Background()

	// Prime the cache with the empty resolution.
	ok, err := service.HasPermission(ctx, 1, "Criar Tarefas")
	if err != nil || ok {
		t.Fatalf("expected initial deny, ok=%v err=%v", ok, err)
	}

	// Link the permission, then fire the synchronous invalidation hook
	// exactly as the mutating request would before returning.
	store.addPermission(1, "Criar Tarefas", "tasks")
	if err := invalidator.ProfileChanged(ctx, 1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	ok, err = service.HasPermission(ctx, 1, "Criar Tarefas")
	if err != nil {
		t.Fatalf("resolve after invalidation: %v", err)
	}
	if !ok {
		t.Fatal("stale deny after invalidation")
	}
}

func TestLinkUnlinkRoundTrip(t *testing.T) {
	store := newFakeStore()
	store.userProfiles[1] = int64p(1)
	store.addPermission(1, "Visualizar Tarefas", "tasks")
	service, invalidator := newService(t, store, nil)
	ctx := context.Background()

	before, err := service.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	store.addPermission(1, "Excluir Tarefas", "tasks")
	if err := invalidator.ProfileChanged(ctx, 1); err != nil {
		t.Fatalf("invalidate after link: %v", err)
	}
	during, err := service.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !during.Has("Excluir Tarefas") {
		t.Fatal("expected linked permission visible")
	}

	store.unlinkPermission(1, "Excluir Tarefas")
	if err := invalidator.ProfileChanged(ctx, 1); err != nil {
		t.Fatalf("invalidate after unlink: %v", err)
	}
	after, err := service.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(before.Permissions, after.Permissions) {
		t.Fatalf("expected set restored to %v, got %v", before.Permissions, after.Permissions)
	}
}

func TestTeamMembershipChangeInvalidatesPrincipal(t *testing.T) {
	store := newFakeStore()
	service, invalidator := newService(t, store, nil)
	ctx := context.Background()

	ok, err := service.HasPermission(ctx, 2, "Visualizar Analytics")
	if err != nil || ok {
		t.Fatalf("expected initial deny, ok=%v err=%v", ok, err)
	}

	// User joins a team whose profile grants the permission.
	store.userTeams[2] = []authz.TeamMembership{{UserID: 2, TeamID: 4}}
	store.teamProfiles[4] = []int64{8}
	store.addPermission(8, "Visualizar Analytics", "analytics")
	if err := invalidator.PrincipalChanged(ctx, 2); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	ok, err = service.HasPermission(ctx, 2, "Visualizar Analytics")
	if err != nil || !ok {
		t.Fatalf("expected grant through new membership, ok=%v err=%v", ok, err)
	}
}

func TestTeamChangeEvictsAllMembers(t *testing.T) {
	store := newFakeStore()
	store.userTeams[1] = []authz.TeamMembership{{UserID: 1, TeamID: 4}}
	store.userTeams[2] = []authz.TeamMembership{{UserID: 2, TeamID: 4}}
	store.teamProfiles[4] = []int64{8}
	store.addPermission(8, "Visualizar Quadros", "boards")
	service, invalidator := newService(t, store, nil)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		if ok, err := service.HasPermission(ctx, id, "Visualizar Quadros"); err != nil || !ok {
			t.Fatalf("expected grant for member %d, ok=%v err=%v", id, ok, err)
		}
	}

	// Unlink the profile from the team, then invalidate the team scope.
	store.teamProfiles[4] = nil
	if err := invalidator.TeamChanged(ctx, 4); err != nil {
		t.Fatalf("invalidate team: %v", err)
	}

	for _, id := range []int64{1, 2} {
		if ok, err := service.HasPermission(ctx, id, "Visualizar Quadros"); err != nil || ok {
			t.Fatalf("expected stale grant evicted for member %d, ok=%v err=%v", id, ok, err)
		}
	}
}
