package teams_test

import (
	"context"
	"errors"
	"testing"

	"github.com/driftboard/driftboard/internal/teams"
	_ "github.com/driftboard/driftboard/testing"
)

type stubRepo struct {
	teams.RepositoryPort
	addMemberRole string
	linkErr       error
}

func (r *stubRepo) DeleteTeam(ctx context.Context, id int64) error { return nil }

func (r *stubRepo) LinkProfile(ctx context.Context, teamID, profileID int64) error {
	return r.linkErr
}

func (r *stubRepo) UnlinkProfile(ctx context.Context, teamID, profileID int64) error { return nil }

func (r *stubRepo) AddMember(ctx context.Context, teamID, userID int64, role string) error {
	r.addMemberRole = role
	return nil
}

func (r *stubRepo) RemoveMember(ctx context.Context, teamID, userID int64) error { return nil }

type recordingHook struct {
	teamIDs      []int64
	principalIDs []int64
}

func (h *recordingHook) TeamChanged(ctx context.Context, teamID int64) error {
	h.teamIDs = append(h.teamIDs, teamID)
	return nil
}

func (h *recordingHook) PrincipalChanged(ctx context.Context, principalID int64) error {
	h.principalIDs = append(h.principalIDs, principalID)
	return nil
}

func TestTeamWideMutationsEvictTeamScope(t *testing.T) {
	hook := &recordingHook{}
	svc := teams.NewService(&stubRepo{}, hook)
	ctx := context.Background()

	if err := svc.LinkProfile(ctx, 4, 8); err != nil {
		t.Fatalf("link profile: %v", err)
	}
	if err := svc.UnlinkProfile(ctx, 4, 8); err != nil {
		t.Fatalf("unlink profile: %v", err)
	}
	if err := svc.DeleteTeam(ctx, 4); err != nil {
		t.Fatalf("delete team: %v", err)
	}
	if len(hook.teamIDs) != 3 {
		t.Fatalf("expected 3 team evictions, got %v", hook.teamIDs)
	}
	if len(hook.principalIDs) != 0 {
		t.Fatalf("team-wide mutations must not evict single principals, got %v", hook.principalIDs)
	}
}

func TestMembershipMutationsEvictOnlyTheUser(t *testing.T) {
	hook := &recordingHook{}
	repo := &stubRepo{}
	svc := teams.NewService(repo, hook)
	ctx := context.Background()

	if err := svc.AddMember(ctx, 4, 2, ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if repo.addMemberRole != "member" {
		t.Fatalf("expected default role, got %q", repo.addMemberRole)
	}
	if err := svc.RemoveMember(ctx, 4, 2); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if len(hook.principalIDs) != 2 || hook.principalIDs[0] != 2 || hook.principalIDs[1] != 2 {
		t.Fatalf("expected principal 2 evicted twice, got %v", hook.principalIDs)
	}
	if len(hook.teamIDs) != 0 {
		t.Fatalf("membership changes must not evict the whole team, got %v", hook.teamIDs)
	}
}

func TestFailedMutationSkipsEviction(t *testing.T) {
	hook := &recordingHook{}
	svc := teams.NewService(&stubRepo{linkErr: errors.New("team not found")}, hook)

	if err := svc.LinkProfile(context.Background(), 4, 8); err == nil {
		t.Fatal("expected repository error")
	}
	if len(hook.teamIDs) != 0 {
		t.Fatalf("failed mutation must not evict, got %v", hook.teamIDs)
	}
}

func TestCreateTeamRequiresName(t *testing.T) {
	svc := teams.NewService(&stubRepo{}, &recordingHook{})

	if _, err := svc.CreateTeam(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected validation error")
	}
}
