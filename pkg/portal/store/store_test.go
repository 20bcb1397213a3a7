package store

import (
	"context"
	"errors"
	"testing"

	"github.com/otymus27/portal-hrg/pkg/portal/models"
)

func createTestStore(t *testing.T) *GORMStore {
	t.Helper()
	s, err := New(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createTestUser(t *testing.T, s *GORMStore, username string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	u := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         string(role),
		Enabled:      true,
	}
	if _, err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

func createTestFolder(t *testing.T, s *GORMStore, name, path string, parentID *string, owner *models.User) *models.Folder {
	t.Helper()
	f := &models.Folder{
		Name:     name,
		Path:     path,
		ParentID: parentID,
		OwnerID:  owner.ID,
		ACL:      []models.User{*owner},
	}
	if _, err := s.CreateFolder(context.Background(), f); err != nil {
		t.Fatalf("failed to create folder %s: %v", name, err)
	}
	return f
}

func TestUserCRUD(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		u := createTestUser(t, s, "alice", models.RoleAdmin)
		got, err := s.GetUser(ctx, "alice")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if got.ID != u.ID || got.GetRole() != models.RoleAdmin {
			t.Errorf("unexpected user: %+v", got)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		u := &models.User{Username: "alice", PasswordHash: "x", Role: string(models.RoleBasic), Enabled: true}
		_, err := s.CreateUser(ctx, u)
		if !errors.Is(err, models.ErrDuplicateUser) {
			t.Errorf("expected ErrDuplicateUser, got %v", err)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.GetUser(ctx, "nobody")
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("validate credentials", func(t *testing.T) {
		u, err := s.ValidateCredentials(ctx, "alice", "secret123")
		if err != nil {
			t.Fatalf("ValidateCredentials failed: %v", err)
		}
		if u.Username != "alice" {
			t.Errorf("unexpected user %q", u.Username)
		}
		if _, err := s.ValidateCredentials(ctx, "alice", "wrong"); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("disabled user cannot log in", func(t *testing.T) {
		u := createTestUser(t, s, "dormant", models.RoleBasic)
		u.Enabled = false
		if err := s.UpdateUser(ctx, u); err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		if _, err := s.ValidateCredentials(ctx, "dormant", "secret123"); !errors.Is(err, models.ErrUserDisabled) {
			t.Errorf("expected ErrUserDisabled, got %v", err)
		}
	})

	t.Run("get by ids skips missing", func(t *testing.T) {
		u := createTestUser(t, s, "bob", models.RoleBasic)
		users, err := s.GetUsersByIDs(ctx, []string{u.ID, "no-such-id"})
		if err != nil {
			t.Fatalf("GetUsersByIDs failed: %v", err)
		}
		if len(users) != 1 || users[0].ID != u.ID {
			t.Errorf("expected only bob, got %d users", len(users))
		}
	})

	t.Run("delete", func(t *testing.T) {
		createTestUser(t, s, "temp", models.RoleBasic)
		if err := s.DeleteUser(ctx, "temp"); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		if _, err := s.GetUser(ctx, "temp"); !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound after delete, got %v", err)
		}
	})
}

func TestEnsureAdminUser(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created, err := s.EnsureAdminUser(ctx, "root", "bootstrap-pass")
	if err != nil {
		t.Fatalf("EnsureAdminUser failed: %v", err)
	}
	if !created {
		t.Error("expected admin to be created on first call")
	}

	created, err = s.EnsureAdminUser(ctx, "root", "bootstrap-pass")
	if err != nil {
		t.Fatalf("EnsureAdminUser second call failed: %v", err)
	}
	if created {
		t.Error("expected no-op on second call")
	}

	u, err := s.GetUser(ctx, "root")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.GetRole() != models.RoleAdmin {
		t.Errorf("expected admin role, got %s", u.Role)
	}
}

func TestFolderCRUD(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner", models.RoleManager)

	t.Run("create and get with ACL", func(t *testing.T) {
		f := createTestFolder(t, s, "Reports", "/srv/portal/Reports", nil, owner)
		got, err := s.GetFolder(ctx, f.ID)
		if err != nil {
			t.Fatalf("GetFolder failed: %v", err)
		}
		if got.Name != "Reports" || len(got.ACL) != 1 || got.ACL[0].ID != owner.ID {
			t.Errorf("unexpected folder: %+v", got)
		}
	})

	t.Run("path conflict", func(t *testing.T) {
		f := &models.Folder{Name: "Reports2", Path: "/srv/portal/Reports", OwnerID: owner.ID}
		if _, err := s.CreateFolder(ctx, f); !errors.Is(err, models.ErrNameConflict) {
			t.Errorf("expected ErrNameConflict, got %v", err)
		}
	})

	t.Run("get by path", func(t *testing.T) {
		got, err := s.GetFolderByPath(ctx, "/srv/portal/Reports")
		if err != nil {
			t.Fatalf("GetFolderByPath failed: %v", err)
		}
		if got.Name != "Reports" {
			t.Errorf("unexpected folder %q", got.Name)
		}
		if _, err := s.GetFolderByPath(ctx, "/srv/portal/missing"); !errors.Is(err, models.ErrFolderNotFound) {
			t.Errorf("expected ErrFolderNotFound, got %v", err)
		}
	})

	t.Run("list children", func(t *testing.T) {
		parent, err := s.GetFolderByPath(ctx, "/srv/portal/Reports")
		if err != nil {
			t.Fatalf("GetFolderByPath failed: %v", err)
		}
		createTestFolder(t, s, "2025", "/srv/portal/Reports/2025", &parent.ID, owner)
		createTestFolder(t, s, "2024", "/srv/portal/Reports/2024", &parent.ID, owner)

		children, err := s.ListChildFolders(ctx, parent.ID)
		if err != nil {
			t.Fatalf("ListChildFolders failed: %v", err)
		}
		if len(children) != 2 {
			t.Fatalf("expected 2 children, got %d", len(children))
		}
	})

	t.Run("replace ACL", func(t *testing.T) {
		reader := createTestUser(t, s, "reader", models.RoleBasic)
		folder, err := s.GetFolderByPath(ctx, "/srv/portal/Reports")
		if err != nil {
			t.Fatalf("GetFolderByPath failed: %v", err)
		}
		if err := s.ReplaceFolderACL(ctx, folder.ID, []models.User{*reader}); err != nil {
			t.Fatalf("ReplaceFolderACL failed: %v", err)
		}
		got, err := s.GetFolder(ctx, folder.ID)
		if err != nil {
			t.Fatalf("GetFolder failed: %v", err)
		}
		if len(got.ACL) != 1 || got.ACL[0].ID != reader.ID {
			t.Errorf("ACL not replaced: %+v", got.ACL)
		}
	})
}

func TestListRootFoldersVisibleTo(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner", models.RoleManager)
	outsider := createTestUser(t, s, "outsider", models.RoleBasic)

	createTestFolder(t, s, "Shared", "/srv/portal/Shared", nil, owner)
	createTestFolder(t, s, "Private", "/srv/portal/Private", nil, owner)

	visible, err := s.ListRootFoldersVisibleTo(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListRootFoldersVisibleTo failed: %v", err)
	}
	if len(visible) != 2 {
		t.Errorf("expected 2 roots for owner, got %d", len(visible))
	}

	visible, err = s.ListRootFoldersVisibleTo(ctx, outsider.ID)
	if err != nil {
		t.Fatalf("ListRootFoldersVisibleTo failed: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("expected 0 roots for outsider, got %d", len(visible))
	}
}

func TestRewritePathPrefix(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner", models.RoleManager)

	root := createTestFolder(t, s, "Docs", "/srv/portal/Docs", nil, owner)
	child := createTestFolder(t, s, "Legal", "/srv/portal/Docs/Legal", &root.ID, owner)
	grand := createTestFolder(t, s, "2025", "/srv/portal/Docs/Legal/2025", &child.ID, owner)

	file := &models.File{
		Name:     "contract.pdf",
		Path:     "/srv/portal/Docs/Legal/2025/contract.pdf",
		FolderID: grand.ID,
		OwnerID:  owner.ID,
		Size:     100,
	}
	if _, err := s.CreateFile(ctx, file); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	if err := s.RewritePathPrefix(ctx, root.ID, "/srv/portal/Docs", "/srv/portal/Documents"); err != nil {
		t.Fatalf("RewritePathPrefix failed: %v", err)
	}

	for id, want := range map[string]string{
		root.ID:  "/srv/portal/Documents",
		child.ID: "/srv/portal/Documents/Legal",
		grand.ID: "/srv/portal/Documents/Legal/2025",
	} {
		got, err := s.GetFolder(ctx, id)
		if err != nil {
			t.Fatalf("GetFolder failed: %v", err)
		}
		if got.Path != want {
			t.Errorf("folder path = %q, want %q", got.Path, want)
		}
	}

	gotFile, err := s.GetFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if gotFile.Path != "/srv/portal/Documents/Legal/2025/contract.pdf" {
		t.Errorf("file path not rewritten: %q", gotFile.Path)
	}
}

func TestFileCRUD(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner", models.RoleManager)
	folder := createTestFolder(t, s, "Inbox", "/srv/portal/Inbox", nil, owner)

	t.Run("create and get", func(t *testing.T) {
		f := &models.File{Name: "a.txt", Path: "/srv/portal/Inbox/a.txt", FolderID: folder.ID, OwnerID: owner.ID, Size: 10}
		if _, err := s.CreateFile(ctx, f); err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		got, err := s.GetFileByPath(ctx, "/srv/portal/Inbox/a.txt")
		if err != nil {
			t.Fatalf("GetFileByPath failed: %v", err)
		}
		if got.Name != "a.txt" {
			t.Errorf("unexpected file %q", got.Name)
		}
	})

	t.Run("path conflict", func(t *testing.T) {
		f := &models.File{Name: "dup.txt", Path: "/srv/portal/Inbox/a.txt", FolderID: folder.ID, OwnerID: owner.ID, Size: 5}
		if _, err := s.CreateFile(ctx, f); !errors.Is(err, models.ErrNameConflict) {
			t.Errorf("expected ErrNameConflict, got %v", err)
		}
	})

	t.Run("delete missing", func(t *testing.T) {
		if err := s.DeleteFile(ctx, "no-such-id"); !errors.Is(err, models.ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound, got %v", err)
		}
	})
}

func TestListFilesPage(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "owner", models.RoleManager)
	folder := createTestFolder(t, s, "Bulk", "/srv/portal/Bulk", nil, owner)

	seed := []struct {
		name string
		size int64
	}{
		{"alpha.pdf", 300},
		{"beta.txt", 100},
		{"gamma.pdf", 200},
		{"delta.txt", 400},
	}
	for _, sf := range seed {
		f := &models.File{Name: sf.name, Path: "/srv/portal/Bulk/" + sf.name, FolderID: folder.ID, OwnerID: owner.ID, Size: sf.size}
		if _, err := s.CreateFile(ctx, f); err != nil {
			t.Fatalf("CreateFile %s failed: %v", sf.name, err)
		}
	}

	t.Run("first page sorted by name", func(t *testing.T) {
		files, total, err := s.ListFilesPage(ctx, folder.ID, 1, 2, "name", false, "")
		if err != nil {
			t.Fatalf("ListFilesPage failed: %v", err)
		}
		if total != 4 {
			t.Errorf("total = %d, want 4", total)
		}
		if len(files) != 2 || files[0].Name != "alpha.pdf" || files[1].Name != "beta.txt" {
			t.Errorf("unexpected page: %v", fileNames(files))
		}
	})

	t.Run("second page", func(t *testing.T) {
		files, _, err := s.ListFilesPage(ctx, folder.ID, 2, 2, "name", false, "")
		if err != nil {
			t.Fatalf("ListFilesPage failed: %v", err)
		}
		if len(files) != 2 || files[0].Name != "delta.txt" {
			t.Errorf("unexpected page: %v", fileNames(files))
		}
	})

	t.Run("extension filter", func(t *testing.T) {
		files, total, err := s.ListFilesPage(ctx, folder.ID, 1, 10, "name", false, ".pdf")
		if err != nil {
			t.Fatalf("ListFilesPage failed: %v", err)
		}
		if total != 2 || len(files) != 2 {
			t.Errorf("expected 2 pdf files, got total=%d len=%d", total, len(files))
		}
	})

	t.Run("sort by size descending", func(t *testing.T) {
		files, _, err := s.ListFilesPage(ctx, folder.ID, 1, 10, "size", true, "")
		if err != nil {
			t.Fatalf("ListFilesPage failed: %v", err)
		}
		if files[0].Name != "delta.txt" || files[len(files)-1].Name != "beta.txt" {
			t.Errorf("unexpected order: %v", fileNames(files))
		}
	})
}

func fileNames(files []*models.File) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}
