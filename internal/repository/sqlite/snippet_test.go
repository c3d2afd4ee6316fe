package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the test.
// Benefits:
// - Fast: no disk I/O
// - Isolated: each test gets its own database
// - Clean: automatically destroyed when the connection closes
//
// newTestDB is a "test helper" — the `t.Helper()` call tells Go's test
// framework to report errors at the CALLER's line number, not inside this
// function, which makes failure output much clearer.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	// t.Cleanup registers a function to run when the test finishes.
	// Like defer, but scoped to the test — even works in subtests.
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestAuthor inserts a user to own snippets — the author_id foreign
// key means every snippet needs one.
func createTestAuthor(t *testing.T, db *DB, name string) *model.User {
	t.Helper()
	user := &model.User{
		Name:  name,
		Email: name + "@example.com",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test author: %v", err)
	}
	return user
}

// createTestSnippet creates a public snippet and fails the test if it errors.
func createTestSnippet(t *testing.T, db *DB, authorID, title, code string) *model.Snippet {
	t.Helper()
	snippet := &model.Snippet{
		Title:      title,
		Code:       code,
		Language:   "python",
		Visibility: model.VisibilityPublic,
		AuthorID:   authorID,
	}
	if err := db.CreateSnippet(context.Background(), snippet); err != nil {
		t.Fatalf("failed to create test snippet: %v", err)
	}
	return snippet
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateSnippet(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")

	snippet := &model.Snippet{
		Title:    "Hello World",
		Code:     "print('hello')",
		Language: "python",
		AuthorID: author.ID,
		Tags:     []string{"beginner", "print"},
	}

	if err := db.CreateSnippet(context.Background(), snippet); err != nil {
		t.Fatalf("CreateSnippet() error = %v", err)
	}

	// Verify the snippet was modified in-place (pointer receiver!)
	if snippet.ID == "" {
		t.Error("CreateSnippet() did not set snippet.ID")
	}
	if snippet.CreatedAt.IsZero() {
		t.Error("CreateSnippet() did not set snippet.CreatedAt")
	}
	if snippet.Version != 1 {
		t.Errorf("new snippet Version = %d, want 1", snippet.Version)
	}
	if snippet.Views != 0 || snippet.Likes != 0 {
		t.Errorf("new snippet counters = (%d views, %d likes), want zeros",
			snippet.Views, snippet.Likes)
	}
}

func TestCreateSnippet_VerifyPersistence(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")

	original := &model.Snippet{
		Title:      "round trip",
		Code:       "print('hi')",
		Language:   "python",
		Visibility: model.VisibilityUnlisted,
		AuthorID:   author.ID,
		Tags:       []string{"a", "b"},
	}
	if err := db.CreateSnippet(context.Background(), original); err != nil {
		t.Fatalf("CreateSnippet() error = %v", err)
	}

	found, err := db.GetSnippetByID(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetSnippetByID() error = %v", err)
	}

	if found.Title != original.Title {
		t.Errorf("Title = %q, want %q", found.Title, original.Title)
	}
	if found.Visibility != model.VisibilityUnlisted {
		t.Errorf("Visibility = %q, want %q", found.Visibility, model.VisibilityUnlisted)
	}
	if len(found.Tags) != 2 || found.Tags[0] != "a" || found.Tags[1] != "b" {
		t.Errorf("Tags = %v, want [a b]", found.Tags)
	}
	// The author projection comes from the users join
	if found.Author == nil || found.Author.Name != "alice" {
		t.Errorf("Author = %+v, want name alice", found.Author)
	}
	if len(found.LikedBy) != 0 {
		t.Errorf("new snippet LikedBy = %v, want empty", found.LikedBy)
	}
}

// =========================================================================
// GET BY ID TESTS
// =========================================================================

func TestGetSnippetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetSnippetByID(context.Background(), "nonexistent-id")

	// We want our custom NotFound error, not a raw sql.ErrNoRows
	if err == nil {
		t.Fatal("GetSnippetByID() should have returned an error for nonexistent ID")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSnippetByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LISTING TESTS
// =========================================================================

func TestListPublic_ExcludesPrivateAndUnlisted(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	ctx := context.Background()

	createTestSnippet(t, db, author.ID, "public one", "a = 1")
	for _, vis := range []model.Visibility{model.VisibilityPrivate, model.VisibilityUnlisted} {
		s := &model.Snippet{
			Title:      "hidden " + string(vis),
			Code:       "b = 2",
			Language:   "python",
			Visibility: vis,
			AuthorID:   author.ID,
		}
		if err := db.CreateSnippet(ctx, s); err != nil {
			t.Fatalf("CreateSnippet(%s): %v", vis, err)
		}
	}

	snippets, total, err := db.ListPublic(ctx, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(snippets) != 1 || snippets[0].Title != "public one" {
		t.Errorf("ListPublic() = %v, want only the public snippet", snippets)
	}
}

func TestListPublic_Pagination(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")

	for i := 0; i < 5; i++ {
		createTestSnippet(t, db, author.ID, "snippet", "code")
	}

	page1, total, err := db.ListPublic(context.Background(),
		repository.ListOptions{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("ListPublic() page 1 error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5 regardless of paging", total)
	}
	if len(page1) != 2 {
		t.Errorf("Page 1: got %d items, want 2", len(page1))
	}

	page3, total, err := db.ListPublic(context.Background(),
		repository.ListOptions{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("ListPublic() page 3 error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page3) != 1 {
		t.Errorf("Page 3: got %d items, want 1 (only 5 total)", len(page3))
	}
}

func TestListPublic_Filters(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	ctx := context.Background()

	seed := []struct {
		title    string
		language string
		tags     []string
	}{
		{"binary search", "go", []string{"algorithms", "search"}},
		{"bubble sort", "go", []string{"algorithms", "sorting"}},
		{"quick search tips", "python", []string{"search"}},
	}
	for _, s := range seed {
		snippet := &model.Snippet{
			Title:      s.title,
			Code:       "code",
			Language:   s.language,
			Visibility: model.VisibilityPublic,
			AuthorID:   author.ID,
			Tags:       s.tags,
		}
		if err := db.CreateSnippet(ctx, snippet); err != nil {
			t.Fatalf("seeding %q: %v", s.title, err)
		}
	}

	t.Run("query matches title substring", func(t *testing.T) {
		got, total, err := db.ListPublic(ctx, repository.ListOptions{Limit: 10, Query: "search"})
		if err != nil {
			t.Fatalf("ListPublic() error = %v", err)
		}
		if total != 2 || len(got) != 2 {
			t.Errorf("query=search: total=%d len=%d, want 2/2", total, len(got))
		}
	})

	t.Run("language exact match", func(t *testing.T) {
		got, total, err := db.ListPublic(ctx, repository.ListOptions{Limit: 10, Language: "python"})
		if err != nil {
			t.Fatalf("ListPublic() error = %v", err)
		}
		if total != 1 || len(got) != 1 || got[0].Title != "quick search tips" {
			t.Errorf("language=python returned %v (total %d)", got, total)
		}
	})

	t.Run("tag matches exactly, not substring", func(t *testing.T) {
		got, total, err := db.ListPublic(ctx, repository.ListOptions{Limit: 10, Tag: "sorting"})
		if err != nil {
			t.Fatalf("ListPublic() error = %v", err)
		}
		if total != 1 || len(got) != 1 || got[0].Title != "bubble sort" {
			t.Errorf("tag=sorting returned %v (total %d)", got, total)
		}

		// "sort" is a substring of "sorting" but not a tag of anything
		_, total, err = db.ListPublic(ctx, repository.ListOptions{Limit: 10, Tag: "sort"})
		if err != nil {
			t.Fatalf("ListPublic() error = %v", err)
		}
		if total != 0 {
			t.Errorf("tag=sort matched %d snippets, want 0 (no substring matching)", total)
		}
	})

	t.Run("filters combine", func(t *testing.T) {
		got, total, err := db.ListPublic(ctx, repository.ListOptions{
			Limit: 10, Query: "search", Language: "go",
		})
		if err != nil {
			t.Fatalf("ListPublic() error = %v", err)
		}
		if total != 1 || len(got) != 1 || got[0].Title != "binary search" {
			t.Errorf("query=search language=go returned %v (total %d)", got, total)
		}
	})
}

func TestListPublic_SortPopular(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	fans := []*model.User{
		createTestAuthor(t, db, "fan1"),
		createTestAuthor(t, db, "fan2"),
	}
	ctx := context.Background()

	quiet := createTestSnippet(t, db, author.ID, "quiet", "a")
	popular := createTestSnippet(t, db, author.ID, "popular", "b")
	for _, fan := range fans {
		if _, _, err := db.ToggleLike(ctx, popular.ID, fan.ID); err != nil {
			t.Fatalf("ToggleLike: %v", err)
		}
	}

	got, _, err := db.ListPublic(ctx, repository.ListOptions{
		Sort: repository.SortPopular, Limit: 10,
	})
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != popular.ID || got[1].ID != quiet.ID {
		t.Errorf("popular sort order = %v, want [popular quiet]",
			[]string{got[0].Title, got[1].Title})
	}
}

func TestListPublic_SortCommented(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	ctx := context.Background()

	quiet := createTestSnippet(t, db, author.ID, "quiet", "a")
	discussed := createTestSnippet(t, db, author.ID, "discussed", "b")
	for i := 0; i < 3; i++ {
		comment := &model.Comment{
			Content:   "interesting",
			AuthorID:  author.ID,
			SnippetID: discussed.ID,
		}
		if err := db.CreateComment(ctx, comment); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}

	got, _, err := db.ListPublic(ctx, repository.ListOptions{
		Sort: repository.SortCommented, Limit: 10,
	})
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != discussed.ID || got[1].ID != quiet.ID {
		t.Errorf("commented sort order = %v, want [discussed quiet]",
			[]string{got[0].Title, got[1].Title})
	}
}

func TestListByAuthor_IncludesAllVisibilities(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	other := createTestAuthor(t, db, "bob")
	ctx := context.Background()

	for _, vis := range []model.Visibility{
		model.VisibilityPublic, model.VisibilityPrivate, model.VisibilityUnlisted,
	} {
		s := &model.Snippet{
			Title:      string(vis),
			Code:       "x",
			Language:   "python",
			Visibility: vis,
			AuthorID:   author.ID,
		}
		if err := db.CreateSnippet(ctx, s); err != nil {
			t.Fatalf("CreateSnippet(%s): %v", vis, err)
		}
	}
	createTestSnippet(t, db, other.ID, "someone else's", "y")

	mine, err := db.ListByAuthor(ctx, author.ID)
	if err != nil {
		t.Fatalf("ListByAuthor() error = %v", err)
	}
	if len(mine) != 3 {
		t.Errorf("ListByAuthor() returned %d snippets, want 3 (all visibilities)", len(mine))
	}
	for _, s := range mine {
		if s.AuthorID != author.ID {
			t.Errorf("ListByAuthor() leaked snippet owned by %s", s.AuthorID)
		}
	}
}

// =========================================================================
// UPDATE + VERSION HISTORY TESTS
// =========================================================================

func TestUpdateSnippet_WithSnapshot(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	ctx := context.Background()

	snippet := createTestSnippet(t, db, author.ID, "versioned", "print('v1')")

	snapshot := &model.SnippetVersion{
		Code:      snippet.Code,
		UpdatedAt: snippet.UpdatedAt,
		Version:   snippet.Version,
	}
	snippet.Code = "print('v2')"
	snippet.Version = 2

	if err := db.UpdateSnippet(ctx, snippet, snapshot); err != nil {
		t.Fatalf("UpdateSnippet() error = %v", err)
	}

	found, err := db.GetSnippetByID(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("GetSnippetByID() after update error = %v", err)
	}
	if found.Code != "print('v2')" {
		t.Errorf("Code = %q, want print('v2')", found.Code)
	}
	if found.Version != 2 {
		t.Errorf("Version = %d, want 2", found.Version)
	}

	// The displaced code must be in the history
	versions, err := db.Versions(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("Versions() error = %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("Versions() returned %d entries, want 1", len(versions))
	}
	if versions[0].Code != "print('v1')" || versions[0].Version != 1 {
		t.Errorf("history entry = %+v, want v1 with original code", versions[0])
	}
}

func TestUpdateSnippet_MetadataOnlyKeepsHistoryEmpty(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	ctx := context.Background()

	snippet := createTestSnippet(t, db, author.ID, "old title", "same code")
	snippet.Title = "new title"

	// nil snapshot = metadata-only edit, no history entry
	if err := db.UpdateSnippet(ctx, snippet, nil); err != nil {
		t.Fatalf("UpdateSnippet() error = %v", err)
	}

	versions, err := db.Versions(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("Versions() error = %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("Versions() returned %d entries after metadata edit, want 0", len(versions))
	}
}

func TestUpdateSnippet_NotFound(t *testing.T) {
	db := newTestDB(t)

	snippet := &model.Snippet{ID: "nonexistent", Title: "t", Code: "c", Language: "python"}
	err := db.UpdateSnippet(context.Background(), snippet, nil)

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateSnippet() error = %v, want ErrNotFound", err)
	}
}

func TestVersions_OrderedOldestFirst(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	ctx := context.Background()

	snippet := createTestSnippet(t, db, author.ID, "multi", "v1")
	for i, code := range []string{"v2", "v3"} {
		snapshot := &model.SnippetVersion{
			Code:      snippet.Code,
			UpdatedAt: snippet.UpdatedAt,
			Version:   snippet.Version,
		}
		snippet.Code = code
		snippet.Version = i + 2
		if err := db.UpdateSnippet(ctx, snippet, snapshot); err != nil {
			t.Fatalf("UpdateSnippet(%s): %v", code, err)
		}
	}

	versions, err := db.Versions(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("Versions() error = %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("Versions() returned %d entries, want 2", len(versions))
	}
	if versions[0].Version != 1 || versions[1].Version != 2 {
		t.Errorf("version order = [%d %d], want [1 2]", versions[0].Version, versions[1].Version)
	}
}

// =========================================================================
// DELETE + CASCADE TESTS
// =========================================================================

func TestDeleteSnippet_Cascades(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	fan := createTestAuthor(t, db, "bob")
	ctx := context.Background()

	snippet := createTestSnippet(t, db, author.ID, "doomed", "v1")

	// Attach one of everything: a comment, a like, a history entry
	comment := &model.Comment{Content: "nice", AuthorID: fan.ID, SnippetID: snippet.ID}
	if err := db.CreateComment(ctx, comment); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if _, _, err := db.ToggleLike(ctx, snippet.ID, fan.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	snapshot := &model.SnippetVersion{Code: "v1", UpdatedAt: snippet.UpdatedAt, Version: 1}
	snippet.Code = "v2"
	snippet.Version = 2
	if err := db.UpdateSnippet(ctx, snippet, snapshot); err != nil {
		t.Fatalf("UpdateSnippet: %v", err)
	}

	if err := db.DeleteSnippet(ctx, snippet.ID); err != nil {
		t.Fatalf("DeleteSnippet() error = %v", err)
	}

	// The snippet and everything attached to it must be gone
	if _, err := db.GetSnippetByID(ctx, snippet.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSnippetByID() after delete: error = %v, want ErrNotFound", err)
	}
	comments, err := db.ListBySnippet(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("ListBySnippet() after delete: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("orphaned comments survived the cascade: %v", comments)
	}
	versions, err := db.Versions(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("Versions() after delete: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("orphaned versions survived the cascade: %v", versions)
	}
}

func TestDeleteSnippet_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.DeleteSnippet(context.Background(), "nonexistent-id")

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteSnippet() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// COUNTER TESTS
// =========================================================================

func TestIncrementViews(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	ctx := context.Background()

	snippet := createTestSnippet(t, db, author.ID, "watched", "x")

	for i := 0; i < 3; i++ {
		if err := db.IncrementViews(ctx, snippet.ID); err != nil {
			t.Fatalf("IncrementViews() error = %v", err)
		}
	}

	found, err := db.GetSnippetByID(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("GetSnippetByID() error = %v", err)
	}
	if found.Views != 3 {
		t.Errorf("Views = %d, want 3", found.Views)
	}
}

func TestIncrementViews_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.IncrementViews(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("IncrementViews() error = %v, want ErrNotFound", err)
	}
}

func TestToggleLike_SetSemantics(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	fan := createTestAuthor(t, db, "bob")
	ctx := context.Background()

	snippet := createTestSnippet(t, db, author.ID, "likeable", "x")

	// First toggle: like
	liked, likes, err := db.ToggleLike(ctx, snippet.ID, fan.ID)
	if err != nil {
		t.Fatalf("ToggleLike() first error = %v", err)
	}
	if !liked || likes != 1 {
		t.Errorf("first toggle = (liked=%v, likes=%d), want (true, 1)", liked, likes)
	}

	// The set must contain the fan now
	found, err := db.GetSnippetByID(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("GetSnippetByID() error = %v", err)
	}
	if len(found.LikedBy) != 1 || found.LikedBy[0] != fan.ID {
		t.Errorf("LikedBy = %v, want [%s]", found.LikedBy, fan.ID)
	}

	// Second toggle: unlike, back to zero
	liked, likes, err = db.ToggleLike(ctx, snippet.ID, fan.ID)
	if err != nil {
		t.Fatalf("ToggleLike() second error = %v", err)
	}
	if liked || likes != 0 {
		t.Errorf("second toggle = (liked=%v, likes=%d), want (false, 0)", liked, likes)
	}

	found, _ = db.GetSnippetByID(ctx, snippet.ID)
	if len(found.LikedBy) != 0 {
		t.Errorf("LikedBy after unlike = %v, want empty", found.LikedBy)
	}
}

func TestToggleLike_TwoUsersIndependent(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	fan1 := createTestAuthor(t, db, "bob")
	fan2 := createTestAuthor(t, db, "carol")
	ctx := context.Background()

	snippet := createTestSnippet(t, db, author.ID, "shared", "x")

	if _, _, err := db.ToggleLike(ctx, snippet.ID, fan1.ID); err != nil {
		t.Fatalf("ToggleLike(fan1): %v", err)
	}
	_, likes, err := db.ToggleLike(ctx, snippet.ID, fan2.ID)
	if err != nil {
		t.Fatalf("ToggleLike(fan2): %v", err)
	}
	if likes != 2 {
		t.Errorf("likes after two users = %d, want 2", likes)
	}

	// fan1 unliking must not touch fan2's like
	_, likes, err = db.ToggleLike(ctx, snippet.ID, fan1.ID)
	if err != nil {
		t.Fatalf("ToggleLike(fan1 again): %v", err)
	}
	if likes != 1 {
		t.Errorf("likes after fan1 unlikes = %d, want 1", likes)
	}
}

func TestToggleLike_NotFound(t *testing.T) {
	db := newTestDB(t)
	fan := createTestAuthor(t, db, "bob")

	_, _, err := db.ToggleLike(context.Background(), "nonexistent-id", fan.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ToggleLike() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// FULL LIFECYCLE TEST
// =========================================================================

// TestSnippetLifecycle walks create → read → update (with versioning) →
// delete end to end. This kind of test catches issues individual unit tests
// miss, like transactions interfering with each other.
func TestSnippetLifecycle(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	ctx := context.Background()

	snippet := &model.Snippet{
		Title:       "lifecycle",
		Description: "testing all operations",
		Code:        "print('v1')",
		Language:    "python",
		Visibility:  model.VisibilityPublic,
		AuthorID:    author.ID,
	}
	if err := db.CreateSnippet(ctx, snippet); err != nil {
		t.Fatalf("CreateSnippet: %v", err)
	}

	found, err := db.GetSnippetByID(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("GetSnippetByID: %v", err)
	}

	snapshot := &model.SnippetVersion{
		Code: found.Code, UpdatedAt: found.UpdatedAt, Version: found.Version,
	}
	found.Code = "print('v2')"
	found.Version = 2
	if err := db.UpdateSnippet(ctx, found, snapshot); err != nil {
		t.Fatalf("UpdateSnippet: %v", err)
	}

	versions, err := db.Versions(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("Versions returned %d, want 1", len(versions))
	}

	if err := db.DeleteSnippet(ctx, snippet.ID); err != nil {
		t.Fatalf("DeleteSnippet: %v", err)
	}
	if _, err := db.GetSnippetByID(ctx, snippet.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSnippetByID after delete: error = %v, want ErrNotFound", err)
	}

	_, total, err := db.ListPublic(ctx, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListPublic after delete: %v", err)
	}
	if total != 0 {
		t.Errorf("ListPublic after delete total = %d, want 0", total)
	}
}

func TestListPublic_SortLatest(t *testing.T) {
	db := newTestDB(t)
	author := createTestAuthor(t, db, "alice")
	ctx := context.Background()

	older := createTestSnippet(t, db, author.ID, "older", "a")
	time.Sleep(5 * time.Millisecond)
	newer := createTestSnippet(t, db, author.ID, "newer", "b")

	got, _, err := db.ListPublic(ctx, repository.ListOptions{
		Sort: repository.SortLatest, Limit: 10,
	})
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Errorf("latest sort order = %v, want [newer older]",
			[]string{got[0].Title, got[1].Title})
	}
}
