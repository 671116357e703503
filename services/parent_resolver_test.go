package services

import (
	"context"
	"testing"

	"famstore/models"
)

func strPtr(s string) *string { return &s }

func seedOwner(users *fakeUserRepo, items *fakeItemRepo, ownerID, rootID string) {
	users.add(models.User{ID: ownerID, Email: ownerID + "@example.com", RootFolderID: rootID, IsActive: true})
	items.items[rootID] = models.Item{ID: rootID, OwnerID: ownerID, Name: "Home", Kind: models.ItemKindFolder}
}

func TestParseParentRef(t *testing.T) {
	cases := []struct {
		raw  string
		want ParentRef
	}{
		{"", ParentRef{Root: true}},
		{"root", ParentRef{Root: true}},
		{"0190a1b2-0000-7000-8000-000000000001", ParentRef{ID: "0190a1b2-0000-7000-8000-000000000001"}},
	}
	for _, tc := range cases {
		if got := ParseParentRef(tc.raw); got != tc.want {
			t.Fatalf("ParseParentRef(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestResolveRootRef(t *testing.T) {
	users := newFakeUserRepo()
	items := newFakeItemRepo()
	seedOwner(users, items, "owner-1", "root-1")

	r := parentResolver{users: users, items: items}
	got, err := r.resolve(context.Background(), nil, "owner-1", ParentRef{Root: true})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if got != "root-1" {
		t.Fatalf("resolved %q, want root-1", got)
	}
}

func TestResolveMissingParent(t *testing.T) {
	users := newFakeUserRepo()
	items := newFakeItemRepo()
	seedOwner(users, items, "owner-1", "root-1")

	r := parentResolver{users: users, items: items}
	_, err := r.resolve(context.Background(), nil, "owner-1", ParentRef{ID: "no-such-id"})
	appErr, ok := err.(*AppError)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.HTTPCode != 400 {
		t.Fatalf("expected HTTP 400, got %d", appErr.HTTPCode)
	}
}

func TestResolveFileParent(t *testing.T) {
	users := newFakeUserRepo()
	items := newFakeItemRepo()
	seedOwner(users, items, "owner-1", "root-1")
	items.items["file-1"] = models.Item{
		ID: "file-1", OwnerID: "owner-1", ParentID: strPtr("root-1"),
		Name: "a.txt", Kind: models.ItemKindFile,
	}

	r := parentResolver{users: users, items: items}
	_, err := r.resolve(context.Background(), nil, "owner-1", ParentRef{ID: "file-1"})
	appErr, ok := err.(*AppError)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.HTTPCode != 400 {
		t.Fatalf("expected HTTP 400, got %d", appErr.HTTPCode)
	}
}

// A folder id belonging to someone else must look exactly like a
// missing folder.
func TestResolveForeignParent(t *testing.T) {
	users := newFakeUserRepo()
	items := newFakeItemRepo()
	seedOwner(users, items, "owner-1", "root-1")
	seedOwner(users, items, "owner-2", "root-2")

	r := parentResolver{users: users, items: items}
	_, err := r.resolve(context.Background(), nil, "owner-1", ParentRef{ID: "root-2"})
	appErr, ok := err.(*AppError)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.HTTPCode != 400 {
		t.Fatalf("expected HTTP 400, got %d", appErr.HTTPCode)
	}
}
