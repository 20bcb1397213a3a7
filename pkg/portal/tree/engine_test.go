package tree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/otymus27/portal-hrg/pkg/portal/models"
	"github.com/otymus27/portal-hrg/pkg/portal/storage"
	"github.com/otymus27/portal-hrg/pkg/portal/store"
)

type testEnv struct {
	engine  *Engine
	catalog *store.GORMStore
	root    string
	admin   *models.User
	manager *models.User
	basic   *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalog, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() { _ = catalog.Close() })

	root := t.TempDir()
	gw, err := storage.NewLocal(storage.DefaultConfig(root))
	if err != nil {
		t.Fatalf("failed to create gateway: %v", err)
	}

	env := &testEnv{
		engine:  New(catalog, gw, root),
		catalog: catalog,
		root:    root,
	}
	env.admin = env.createUser(t, "admin", models.RoleAdmin)
	env.manager = env.createUser(t, "manager", models.RoleManager)
	env.basic = env.createUser(t, "basic", models.RoleBasic)
	return env
}

func (env *testEnv) createUser(t *testing.T, username string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := store.HashPassword("secret123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	u := &models.User{Username: username, PasswordHash: hash, Role: string(role), Enabled: true}
	if _, err := env.catalog.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

func (env *testEnv) mustCreate(t *testing.T, principal *models.User, name string, parentID *string, aclIDs ...string) *models.Folder {
	t.Helper()
	f, err := env.engine.Create(context.Background(), principal, CreateRequest{
		Name:       name,
		ParentID:   parentID,
		ACLUserIDs: aclIDs,
	})
	if err != nil {
		t.Fatalf("Create %s failed: %v", name, err)
	}
	return f
}

func (env *testEnv) mustUpload(t *testing.T, principal *models.User, folderID, name, content string) *models.File {
	t.Helper()
	f, err := env.engine.Upload(context.Background(), principal, folderID, UploadRequest{
		Name:        name,
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	})
	if err != nil {
		t.Fatalf("Upload %s failed: %v", name, err)
	}
	return f
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func TestCreateFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("admin creates root folder", func(t *testing.T) {
		f := env.mustCreate(t, env.admin, "Reports", nil)
		if f.Path != filepath.Join(env.root, "Reports") {
			t.Errorf("unexpected path %q", f.Path)
		}
		if !dirExists(f.Path) {
			t.Error("physical directory missing")
		}
		if len(f.ACL) != 1 || f.ACL[0].ID != env.admin.ID {
			t.Errorf("expected creator-only ACL, got %+v", f.ACL)
		}
	})

	t.Run("non-admin cannot create at root", func(t *testing.T) {
		_, err := env.engine.Create(ctx, env.manager, CreateRequest{Name: "Rogue"})
		if !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
		if dirExists(filepath.Join(env.root, "Rogue")) {
			t.Error("directory created despite denial")
		}
	})

	t.Run("nested create with granted ACL", func(t *testing.T) {
		parent := env.mustCreate(t, env.admin, "Shared", nil, env.admin.ID, env.manager.ID)
		child, err := env.engine.Create(ctx, env.manager, CreateRequest{Name: "Minutes", ParentID: &parent.ID})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if child.ParentID == nil || *child.ParentID != parent.ID {
			t.Error("parent not recorded")
		}
		if !dirExists(filepath.Join(parent.Path, "Minutes")) {
			t.Error("physical directory missing")
		}
	})

	t.Run("name is sanitized on disk", func(t *testing.T) {
		f := env.mustCreate(t, env.admin, "Q3 Report/2025", nil)
		if filepath.Base(f.Path) != "Q3_Report_2025" {
			t.Errorf("unexpected sanitized name %q", filepath.Base(f.Path))
		}
		if f.Name != "Q3 Report/2025" {
			t.Errorf("display name changed: %q", f.Name)
		}
	})

	t.Run("blank name rejected", func(t *testing.T) {
		_, err := env.engine.Create(ctx, env.admin, CreateRequest{Name: "   "})
		if !errors.Is(err, models.ErrInvalidName) {
			t.Errorf("expected ErrInvalidName, got %v", err)
		}
	})

	t.Run("occupied path rejected", func(t *testing.T) {
		env.mustCreate(t, env.admin, "Taken", nil)
		_, err := env.engine.Create(ctx, env.admin, CreateRequest{Name: "Taken"})
		if !errors.Is(err, models.ErrNameConflict) {
			t.Errorf("expected ErrNameConflict, got %v", err)
		}
	})

	t.Run("unknown ACL id rejected", func(t *testing.T) {
		_, err := env.engine.Create(ctx, env.admin, CreateRequest{Name: "ACLTest", ACLUserIDs: []string{"no-such-user"}})
		if !errors.Is(err, models.ErrInvalidReference) {
			t.Errorf("expected ErrInvalidReference, got %v", err)
		}
		if dirExists(filepath.Join(env.root, "ACLTest")) {
			t.Error("directory left behind after invalid reference")
		}
	})

	t.Run("missing parent", func(t *testing.T) {
		bogus := "no-such-folder"
		_, err := env.engine.Create(ctx, env.admin, CreateRequest{Name: "Orphan", ParentID: &bogus})
		if !errors.Is(err, models.ErrFolderNotFound) {
			t.Errorf("expected ErrFolderNotFound, got %v", err)
		}
	})
}

func TestRenameFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent := env.mustCreate(t, env.admin, "Projects", nil)
	child := env.mustCreate(t, env.admin, "Alpha", &parent.ID)
	file := env.mustUpload(t, env.admin, child.ID, "notes.txt", "hello")

	renamed, err := env.engine.Rename(ctx, env.admin, parent.ID, "Portfolio")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Name != "Portfolio" {
		t.Errorf("name = %q", renamed.Name)
	}
	if !dirExists(filepath.Join(env.root, "Portfolio")) || dirExists(filepath.Join(env.root, "Projects")) {
		t.Error("physical directory not renamed")
	}

	// Descendant catalog paths must follow the new prefix.
	gotChild, err := env.catalog.GetFolder(ctx, child.ID)
	if err != nil {
		t.Fatalf("GetFolder failed: %v", err)
	}
	if gotChild.Path != filepath.Join(env.root, "Portfolio", "Alpha") {
		t.Errorf("child path = %q", gotChild.Path)
	}
	gotFile, err := env.catalog.GetFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if gotFile.Path != filepath.Join(env.root, "Portfolio", "Alpha", "notes.txt") {
		t.Errorf("file path = %q", gotFile.Path)
	}

	t.Run("conflicting sibling", func(t *testing.T) {
		env.mustCreate(t, env.admin, "Archive", nil)
		if _, err := env.engine.Rename(ctx, env.admin, renamed.ID, "Archive"); !errors.Is(err, models.ErrNameConflict) {
			t.Errorf("expected ErrNameConflict, got %v", err)
		}
	})

	t.Run("permission denied", func(t *testing.T) {
		if _, err := env.engine.Rename(ctx, env.basic, renamed.ID, "Hijack"); !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})
}

func TestMoveFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.mustCreate(t, env.admin, "A", nil)
	b := env.mustCreate(t, env.admin, "B", nil)
	sub := env.mustCreate(t, env.admin, "Sub", &a.ID)
	env.mustUpload(t, env.admin, sub.ID, "doc.txt", "payload")

	t.Run("move under another folder", func(t *testing.T) {
		moved, err := env.engine.Move(ctx, env.admin, sub.ID, &b.ID)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if moved.ParentID == nil || *moved.ParentID != b.ID {
			t.Error("parent not updated")
		}
		if !dirExists(filepath.Join(b.Path, "Sub")) {
			t.Error("directory not moved")
		}
		if dirExists(filepath.Join(a.Path, "Sub")) {
			t.Error("old directory still present")
		}
		if _, err := os.Stat(filepath.Join(b.Path, "Sub", "doc.txt")); err != nil {
			t.Errorf("file did not travel with folder: %v", err)
		}
	})

	t.Run("move to root", func(t *testing.T) {
		moved, err := env.engine.Move(ctx, env.admin, sub.ID, nil)
		if err != nil {
			t.Fatalf("Move to root failed: %v", err)
		}
		if moved.ParentID != nil {
			t.Error("expected nil parent at root")
		}
		if !dirExists(filepath.Join(env.root, "Sub")) {
			t.Error("directory not at root")
		}
	})

	t.Run("cycle rejected", func(t *testing.T) {
		inner := env.mustCreate(t, env.admin, "Inner", &a.ID)
		if _, err := env.engine.Move(ctx, env.admin, a.ID, &inner.ID); !errors.Is(err, models.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := env.engine.Move(ctx, env.admin, a.ID, &a.ID); !errors.Is(err, models.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for self-move, got %v", err)
		}
	})
}

func TestCopyFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	src := env.mustCreate(t, env.admin, "Templates", nil, env.admin.ID, env.manager.ID)
	nested := env.mustCreate(t, env.admin, "Letters", &src.ID)
	env.mustUpload(t, env.admin, src.ID, "readme.txt", "root file")
	env.mustUpload(t, env.admin, nested.ID, "cover.txt", "nested file")
	dest := env.mustCreate(t, env.admin, "Workspace", nil, env.admin.ID, env.manager.ID)

	t.Run("deep copy", func(t *testing.T) {
		dup, err := env.engine.Copy(ctx, env.manager, src.ID, &dest.ID)
		if err != nil {
			t.Fatalf("Copy failed: %v", err)
		}
		if dup.Name != "Templates" {
			t.Errorf("name = %q", dup.Name)
		}
		if dup.OwnerID != env.manager.ID {
			t.Error("copy not owned by acting principal")
		}
		if len(dup.ACL) != 2 {
			t.Errorf("ACL not mirrored: %d entries", len(dup.ACL))
		}
		for _, p := range []string{
			filepath.Join(dest.Path, "Templates", "readme.txt"),
			filepath.Join(dest.Path, "Templates", "Letters", "cover.txt"),
		} {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("missing copied file %s: %v", p, err)
			}
		}

		tree, err := env.engine.Subtree(ctx, env.admin, dup.ID, models.TreeFilter{})
		if err != nil {
			t.Fatalf("Subtree failed: %v", err)
		}
		if len(tree.Files) != 1 || len(tree.Subfolders) != 1 || len(tree.Subfolders[0].Files) != 1 {
			t.Errorf("catalog mirror incomplete: %d files, %d subfolders", len(tree.Files), len(tree.Subfolders))
		}
	})

	t.Run("suffix on name collision", func(t *testing.T) {
		dup2, err := env.engine.Copy(ctx, env.admin, src.ID, &dest.ID)
		if err != nil {
			t.Fatalf("second Copy failed: %v", err)
		}
		if dup2.Name != "Templates (2)" {
			t.Errorf("expected \"Templates (2)\", got %q", dup2.Name)
		}
		dup3, err := env.engine.Copy(ctx, env.admin, src.ID, &dest.ID)
		if err != nil {
			t.Fatalf("third Copy failed: %v", err)
		}
		if dup3.Name != "Templates (3)" {
			t.Errorf("expected \"Templates (3)\", got %q", dup3.Name)
		}
	})

	t.Run("copy into own subtree rejected", func(t *testing.T) {
		if _, err := env.engine.Copy(ctx, env.admin, src.ID, &nested.ID); !errors.Is(err, models.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("non-admin needs destination", func(t *testing.T) {
		if _, err := env.engine.Copy(ctx, env.manager, src.ID, nil); !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})
}

func TestDeleteFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustCreate(t, env.admin, "Doomed", nil)
	child := env.mustCreate(t, env.admin, "Child", &root.ID)
	env.mustUpload(t, env.admin, root.ID, "top.txt", "x")
	env.mustUpload(t, env.admin, child.ID, "deep.txt", "y")

	if err := env.engine.Delete(ctx, env.admin, root.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if dirExists(root.Path) {
		t.Error("directory still on disk")
	}
	if _, err := env.catalog.GetFolder(ctx, root.ID); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("expected ErrFolderNotFound, got %v", err)
	}
	if _, err := env.catalog.GetFolder(ctx, child.ID); !errors.Is(err, models.ErrFolderNotFound) {
		t.Errorf("child row survived cascade: %v", err)
	}
}

func TestDeleteBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	full := env.mustCreate(t, env.admin, "Full", nil)
	env.mustUpload(t, env.admin, full.ID, "keep.txt", "z")
	empty := env.mustCreate(t, env.admin, "Empty", nil)

	t.Run("non-cascade fails on populated folder", func(t *testing.T) {
		err := env.engine.DeleteBatch(ctx, env.admin, []string{full.ID}, false)
		if !errors.Is(err, models.ErrFolderNotEmpty) {
			t.Errorf("expected ErrFolderNotEmpty, got %v", err)
		}
		if !dirExists(full.Path) {
			t.Error("folder deleted despite failure")
		}
	})

	t.Run("non-cascade deletes empty folder", func(t *testing.T) {
		if err := env.engine.DeleteBatch(ctx, env.admin, []string{empty.ID}, false); err != nil {
			t.Fatalf("DeleteBatch failed: %v", err)
		}
		if dirExists(empty.Path) {
			t.Error("empty folder still on disk")
		}
	})

	t.Run("cascade deletes populated folder", func(t *testing.T) {
		if err := env.engine.DeleteBatch(ctx, env.admin, []string{full.ID}, true); err != nil {
			t.Fatalf("DeleteBatch cascade failed: %v", err)
		}
		if dirExists(full.Path) {
			t.Error("folder still on disk after cascade")
		}
	})
}

func TestReplaceContents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	src := env.mustCreate(t, env.admin, "Source", nil)
	srcSub := env.mustCreate(t, env.admin, "Fresh", &src.ID)
	env.mustUpload(t, env.admin, src.ID, "new.txt", "new content")
	env.mustUpload(t, env.admin, srcSub.ID, "inner.txt", "inner")

	dst := env.mustCreate(t, env.admin, "Target", nil)
	env.mustUpload(t, env.admin, dst.ID, "old.txt", "stale")
	env.mustCreate(t, env.admin, "Stale", &dst.ID)

	result, err := env.engine.ReplaceContents(ctx, env.admin, src.ID, dst.ID)
	if err != nil {
		t.Fatalf("ReplaceContents failed: %v", err)
	}
	if result.ID != dst.ID {
		t.Error("destination identity changed")
	}

	tree, err := env.engine.Subtree(ctx, env.admin, dst.ID, models.TreeFilter{})
	if err != nil {
		t.Fatalf("Subtree failed: %v", err)
	}
	if len(tree.Files) != 1 || tree.Files[0].Name != "new.txt" {
		t.Errorf("destination files not replaced: %+v", tree.Files)
	}
	if len(tree.Subfolders) != 1 || tree.Subfolders[0].Folder.Name != "Fresh" {
		t.Errorf("destination subfolders not replaced")
	}
	if _, err := os.Stat(filepath.Join(dst.Path, "old.txt")); !os.IsNotExist(err) {
		t.Error("stale file still on disk")
	}
	if _, err := os.Stat(filepath.Join(dst.Path, "Fresh", "inner.txt")); err != nil {
		t.Errorf("copied nested file missing: %v", err)
	}

	// Source untouched.
	if _, err := os.Stat(filepath.Join(src.Path, "new.txt")); err != nil {
		t.Errorf("source file disturbed: %v", err)
	}
}

func TestUpdatePermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder := env.mustCreate(t, env.admin, "Grants", nil, env.admin.ID)

	t.Run("add users", func(t *testing.T) {
		updated, err := env.engine.UpdatePermissions(ctx, env.admin, folder.ID, []string{env.manager.ID, env.basic.ID}, nil)
		if err != nil {
			t.Fatalf("UpdatePermissions failed: %v", err)
		}
		if len(updated.ACL) != 3 {
			t.Errorf("expected 3 ACL entries, got %d", len(updated.ACL))
		}
	})

	t.Run("remove user", func(t *testing.T) {
		updated, err := env.engine.UpdatePermissions(ctx, env.admin, folder.ID, nil, []string{env.basic.ID})
		if err != nil {
			t.Fatalf("UpdatePermissions failed: %v", err)
		}
		for _, u := range updated.ACL {
			if u.ID == env.basic.ID {
				t.Error("removed user still in ACL")
			}
		}
	})

	t.Run("user in both lists ends without access", func(t *testing.T) {
		updated, err := env.engine.UpdatePermissions(ctx, env.admin, folder.ID, []string{env.basic.ID}, []string{env.basic.ID})
		if err != nil {
			t.Fatalf("UpdatePermissions failed: %v", err)
		}
		for _, u := range updated.ACL {
			if u.ID == env.basic.ID {
				t.Error("user granted despite simultaneous removal")
			}
		}
	})

	t.Run("unknown grant id rejected", func(t *testing.T) {
		if _, err := env.engine.UpdatePermissions(ctx, env.admin, folder.ID, []string{"ghost"}, nil); !errors.Is(err, models.ErrInvalidReference) {
			t.Errorf("expected ErrInvalidReference, got %v", err)
		}
	})

	t.Run("unknown revoke id rejected", func(t *testing.T) {
		if _, err := env.engine.UpdatePermissions(ctx, env.admin, folder.ID, nil, []string{"ghost"}); !errors.Is(err, models.ErrInvalidReference) {
			t.Errorf("expected ErrInvalidReference, got %v", err)
		}
	})

	t.Run("list users", func(t *testing.T) {
		users, err := env.engine.ListUsersForFolder(ctx, env.admin, folder.ID)
		if err != nil {
			t.Fatalf("ListUsersForFolder failed: %v", err)
		}
		if len(users) == 0 {
			t.Error("expected ACL members")
		}
	})
}

func TestTreeListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shared := env.mustCreate(t, env.admin, "Shared", nil, env.admin.ID, env.basic.ID)
	private := env.mustCreate(t, env.admin, "Private", nil, env.admin.ID)
	visible := env.mustCreate(t, env.admin, "Open", &shared.ID, env.admin.ID, env.basic.ID)
	env.mustCreate(t, env.admin, "Restricted", &shared.ID, env.admin.ID)
	env.mustUpload(t, env.admin, shared.ID, "big.pdf", strings.Repeat("a", 100))
	env.mustUpload(t, env.admin, shared.ID, "small.txt", "b")

	t.Run("admin sees all roots", func(t *testing.T) {
		roots, err := env.engine.ListRootFolders(ctx, env.admin)
		if err != nil {
			t.Fatalf("ListRootFolders failed: %v", err)
		}
		if len(roots) != 2 {
			t.Errorf("expected 2 roots, got %d", len(roots))
		}
	})

	t.Run("basic user sees granted roots only", func(t *testing.T) {
		roots, err := env.engine.ListRootFolders(ctx, env.basic)
		if err != nil {
			t.Fatalf("ListRootFolders failed: %v", err)
		}
		if len(roots) != 1 || roots[0].ID != shared.ID {
			t.Errorf("unexpected roots for basic user: %d", len(roots))
		}
	})

	t.Run("inaccessible branches pruned per level", func(t *testing.T) {
		trees, err := env.engine.FullTree(ctx, env.basic, models.TreeFilter{})
		if err != nil {
			t.Fatalf("FullTree failed: %v", err)
		}
		if len(trees) != 1 {
			t.Fatalf("expected 1 tree, got %d", len(trees))
		}
		if len(trees[0].Subfolders) != 1 || trees[0].Subfolders[0].Folder.ID != visible.ID {
			t.Errorf("restricted subfolder leaked or visible one pruned")
		}
	})

	t.Run("subtree of denied folder", func(t *testing.T) {
		if _, err := env.engine.Subtree(ctx, env.basic, private.ID, models.TreeFilter{}); !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("extension filter", func(t *testing.T) {
		tree, err := env.engine.Subtree(ctx, env.admin, shared.ID, models.TreeFilter{Extension: ".pdf"})
		if err != nil {
			t.Fatalf("Subtree failed: %v", err)
		}
		if len(tree.Files) != 1 || tree.Files[0].Name != "big.pdf" {
			t.Errorf("filter did not apply: %+v", tree.Files)
		}
	})

	t.Run("size filter", func(t *testing.T) {
		min := int64(50)
		tree, err := env.engine.Subtree(ctx, env.admin, shared.ID, models.TreeFilter{MinSize: &min})
		if err != nil {
			t.Fatalf("Subtree failed: %v", err)
		}
		if len(tree.Files) != 1 || tree.Files[0].Name != "big.pdf" {
			t.Errorf("size filter did not apply: %+v", tree.Files)
		}
	})

	t.Run("depth cap", func(t *testing.T) {
		deep := env.mustCreate(t, env.admin, "Deep", &visible.ID)
		_ = deep
		tree, err := env.engine.Subtree(ctx, env.admin, shared.ID, models.TreeFilter{MaxDepth: 1})
		if err != nil {
			t.Fatalf("Subtree failed: %v", err)
		}
		for _, sub := range tree.Subfolders {
			if len(sub.Subfolders) != 0 {
				t.Error("descendants past depth cap included")
			}
		}
	})

	t.Run("sort by name descending", func(t *testing.T) {
		trees, err := env.engine.FullTree(ctx, env.admin, models.TreeFilter{SortBy: models.SortByName, Descending: true})
		if err != nil {
			t.Fatalf("FullTree failed: %v", err)
		}
		if trees[0].Folder.Name != "Shared" {
			t.Errorf("unexpected order: first is %q", trees[0].Folder.Name)
		}
	})
}

func TestConcurrentMutations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent := env.mustCreate(t, env.admin, "Busy", nil)

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		name := string(rune('a' + i))
		go func(n string) {
			_, err := env.engine.Create(ctx, env.admin, CreateRequest{Name: n, ParentID: &parent.ID})
			done <- err
		}(name)
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent create failed: %v", err)
		}
	}

	children, err := env.catalog.ListChildFolders(ctx, parent.ID)
	if err != nil {
		t.Fatalf("ListChildFolders failed: %v", err)
	}
	if len(children) != 10 {
		t.Errorf("expected 10 children, got %d", len(children))
	}
}
