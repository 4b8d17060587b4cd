package profiles_test

import (
	"context"
	"errors"
	"testing"

	"github.com/driftboard/driftboard/internal/profiles"
	_ "github.com/driftboard/driftboard/testing"
)

type stubRepo struct {
	profiles.RepositoryPort
	deleteErr error
	linkErr   error
}

func (r *stubRepo) CreateProfile(ctx context.Context, name, color string, isDefault bool) (profiles.Profile, error) {
	return profiles.Profile{ID: 1, Name: name, Color: color, IsDefault: isDefault}, nil
}

func (r *stubRepo) UpdateProfile(ctx context.Context, id int64, name, color string, isDefault bool) (profiles.Profile, error) {
	return profiles.Profile{ID: id, Name: name, Color: color, IsDefault: isDefault}, nil
}

func (r *stubRepo) DeleteProfile(ctx context.Context, id int64) error { return r.deleteErr }

func (r *stubRepo) LinkPermission(ctx context.Context, profileID, permissionID int64) error {
	return r.linkErr
}

func (r *stubRepo) UnlinkPermission(ctx context.Context, profileID, permissionID int64) error {
	return nil
}

type recordingHook struct {
	profileIDs []int64
	err        error
}

func (h *recordingHook) ProfileChanged(ctx context.Context, profileID int64) error {
	h.profileIDs = append(h.profileIDs, profileID)
	return h.err
}

func TestGrantMutationsFireInvalidation(t *testing.T) {
	hook := &recordingHook{}
	svc := profiles.NewService(&stubRepo{}, hook)
	ctx := context.Background()

	if err := svc.LinkPermission(ctx, 7, 3); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := svc.UnlinkPermission(ctx, 7, 3); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if err := svc.DeleteProfile(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(hook.profileIDs) != 3 {
		t.Fatalf("expected 3 evictions, got %v", hook.profileIDs)
	}
	for _, id := range hook.profileIDs {
		if id != 7 {
			t.Fatalf("eviction targeted wrong profile: %v", hook.profileIDs)
		}
	}
}

func TestMetadataMutationsSkipInvalidation(t *testing.T) {
	hook := &recordingHook{}
	svc := profiles.NewService(&stubRepo{}, hook)
	ctx := context.Background()

	if _, err := svc.CreateProfile(ctx, "Colaborador", "#2d7ff9", false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, 1, "Colaborador Senior", "#2d7ff9", false); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(hook.profileIDs) != 0 {
		t.Fatalf("rename/create must not evict, got %v", hook.profileIDs)
	}
}

func TestLinkFailureSkipsInvalidation(t *testing.T) {
	hook := &recordingHook{}
	svc := profiles.NewService(&stubRepo{linkErr: errors.New("profile not found")}, hook)

	if err := svc.LinkPermission(context.Background(), 7, 3); err == nil {
		t.Fatal("expected repository error")
	}
	if len(hook.profileIDs) != 0 {
		t.Fatalf("failed mutation must not evict, got %v", hook.profileIDs)
	}
}

func TestInvalidationFailureFailsMutation(t *testing.T) {
	hook := &recordingHook{err: errors.New("redis down")}
	svc := profiles.NewService(&stubRepo{}, hook)

	if err := svc.LinkPermission(context.Background(), 7, 3); err == nil {
		t.Fatal("mutation must fail when eviction fails")
	}
}

func TestCreateProfileRequiresName(t *testing.T) {
	svc := profiles.NewService(&stubRepo{}, &recordingHook{})

	if _, err := svc.CreateProfile(context.Background(), "   ", "", false); err == nil {
		t.Fatal("expected validation error")
	}
}
