package users_test

import (
	"errors"
	"testing"

	"cinelog/models"
	"cinelog/services/users"
)

func TestServiceInitialisesDefaultUser(t *testing.T) {
	svc, err := users.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	list := svc.List()
	if len(list) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(list))
	}

	if list[0].ID != models.DefaultUserID {
		t.Fatalf("expected default user id %q, got %q", models.DefaultUserID, list[0].ID)
	}
	if list[0].Name != models.DefaultUserName {
		t.Fatalf("expected default user name %q, got %q", models.DefaultUserName, list[0].Name)
	}
}

func TestServiceCreateRenameAndDelete(t *testing.T) {
	svc, err := users.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	created, err := svc.Create("Evening Watcher")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected created user to have id")
	}

	renamed, err := svc.Rename(created.ID, "Night Owl")
	if err != nil {
		t.Fatalf("rename returned error: %v", err)
	}
	if renamed.Name != "Night Owl" {
		t.Fatalf("expected renamed user to have updated name, got %q", renamed.Name)
	}

	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if svc.Exists(created.ID) {
		t.Fatalf("expected user to be deleted")
	}
}

func TestDeleteLastUserFails(t *testing.T) {
	svc, err := users.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	list := svc.List()
	if len(list) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(list))
	}

	if err := svc.Delete(list[0].ID); !errors.Is(err, users.ErrLastUser) {
		t.Fatalf("expected ErrLastUser, got %v", err)
	}
}

func TestServicePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	svc, err := users.NewService(dir)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	created, err := svc.Create("Second Profile")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if _, err := svc.SetColor(created.ID, "#AA3366"); err != nil {
		t.Fatalf("set color returned error: %v", err)
	}

	reloaded, err := users.NewService(dir)
	if err != nil {
		t.Fatalf("failed to reload service: %v", err)
	}

	user, ok := reloaded.Get(created.ID)
	if !ok {
		t.Fatalf("expected user to survive reload")
	}
	if user.Name != "Second Profile" || user.Color != "#AA3366" {
		t.Fatalf("unexpected user after reload: %+v", user)
	}
}

func TestCreateRequiresName(t *testing.T) {
	svc, err := users.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if _, err := svc.Create("   "); !errors.Is(err, users.ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}
