package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

// testStore returns an initialized store backed by a temp file.
func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "test.db"))
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addBook(t *testing.T, s *Store, id, title string) {
	t.Helper()
	book := &Book{ID: id, Title: title, CreatedAt: time.Now()}
	if err := s.SaveBook(context.Background(), book); err != nil {
		t.Fatalf("SaveBook(%s) failed: %v", id, err)
	}
}

func addChapter(t *testing.T, s *Store, id, bookID, title, text string, position int) {
	t.Helper()
	ch := &Chapter{ID: id, BookID: bookID, Title: title, Text: text, Position: position}
	if err := s.SaveChapter(context.Background(), ch); err != nil {
		t.Fatalf("SaveChapter(%s) failed: %v", id, err)
	}
}

func TestInit_Idempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "test.db"))
	defer s.Close()

	for i := 0; i < 3; i++ {
		if err := s.Init(context.Background()); err != nil {
			t.Fatalf("Init() call %d failed: %v", i, err)
		}
	}
	if !s.IsInitialized() {
		t.Error("IsInitialized() = false after Init")
	}
}

func TestInit_Concurrent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "test.db"))
	defer s.Close()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Init(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("concurrent Init() %d failed: %v", i, err)
		}
	}

	// The single initialization must leave a usable schema.
	addBook(t, s, "b1", "First Book")
	books, err := s.Books(context.Background())
	if err != nil {
		t.Fatalf("Books() failed: %v", err)
	}
	if len(books) != 1 {
		t.Errorf("len(books) = %d, want 1", len(books))
	}
}

func TestOperations_BeforeInit(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "test.db"))

	_, err := s.Books(context.Background())
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Books() before Init: err = %v, want ErrNotInitialized", err)
	}
	if s.IsInitialized() {
		t.Error("IsInitialized() = true before Init")
	}
}

func TestBooks_CRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Draft One")
	addBook(t, s, "b2", "Draft Two")

	book, err := s.Book(ctx, "b1")
	if err != nil {
		t.Fatalf("Book(b1) failed: %v", err)
	}
	if book.Title != "Draft One" {
		t.Errorf("title = %q, want %q", book.Title, "Draft One")
	}

	// Upsert with the same id updates in place.
	if err := s.SaveBook(ctx, &Book{ID: "b1", Title: "Renamed"}); err != nil {
		t.Fatalf("SaveBook(update) failed: %v", err)
	}
	book, err = s.Book(ctx, "b1")
	if err != nil {
		t.Fatalf("Book(b1) after update failed: %v", err)
	}
	if book.Title != "Renamed" {
		t.Errorf("title after update = %q, want %q", book.Title, "Renamed")
	}

	if err := s.DeleteBook(ctx, "b1"); err != nil {
		t.Fatalf("DeleteBook(b1) failed: %v", err)
	}
	if _, err := s.Book(ctx, "b1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Book(b1) after delete: err = %v, want ErrNotFound", err)
	}

	if err := s.DeleteBook(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteBook(missing): err = %v, want ErrNotFound", err)
	}
}

func TestDeleteBook_Cascades(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	if err := s.CreatePart(ctx, &Part{ID: "p1", BookID: "b1", Name: "Part I", Position: 0}); err != nil {
		t.Fatalf("CreatePart() failed: %v", err)
	}
	addChapter(t, s, "c1", "b1", "One", "some text", 0)
	if err := s.SaveSummary(ctx, &Summary{ChapterID: "c1", Summary: "short"}); err != nil {
		t.Fatalf("SaveSummary() failed: %v", err)
	}
	if err := s.SaveReview(ctx, &Review{ID: "r1", ChapterID: "c1", ReviewText: "nice"}); err != nil {
		t.Fatalf("SaveReview() failed: %v", err)
	}
	page := &WikiPage{ID: "w1", BookID: "b1", PageName: "Alice", PageType: PageTypeCharacter}
	if err := s.SaveWikiPage(ctx, page); err != nil {
		t.Fatalf("SaveWikiPage() failed: %v", err)
	}
	if err := s.AddChapterWikiMention(ctx, "c1", "w1"); err != nil {
		t.Fatalf("AddChapterWikiMention() failed: %v", err)
	}

	if err := s.DeleteBook(ctx, "b1"); err != nil {
		t.Fatalf("DeleteBook() failed: %v", err)
	}

	for table, query := range map[string]string{
		"parts":                 `SELECT COUNT(*) FROM parts`,
		"chapters":              `SELECT COUNT(*) FROM chapters`,
		"chapter_summaries":     `SELECT COUNT(*) FROM chapter_summaries`,
		"chapter_reviews":       `SELECT COUNT(*) FROM chapter_reviews`,
		"wiki_pages":            `SELECT COUNT(*) FROM wiki_pages`,
		"chapter_wiki_mentions": `SELECT COUNT(*) FROM chapter_wiki_mentions`,
	} {
		var n int
		if err := s.db.QueryRow(query).Scan(&n); err != nil {
			t.Fatalf("count %s failed: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s rows after book delete = %d, want 0", table, n)
		}
	}
}

func TestParts_PositionConflict(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	if err := s.CreatePart(ctx, &Part{ID: "p1", BookID: "b1", Name: "Part I", Position: 0}); err != nil {
		t.Fatalf("CreatePart(p1) failed: %v", err)
	}

	err := s.CreatePart(ctx, &Part{ID: "p2", BookID: "b1", Name: "Part II", Position: 0})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("CreatePart with duplicate position: err = %v, want ErrValidation", err)
	}

	// Same position in another book is fine.
	addBook(t, s, "b2", "Other")
	if err := s.CreatePart(ctx, &Part{ID: "p3", BookID: "b2", Name: "Part I", Position: 0}); err != nil {
		t.Errorf("CreatePart in other book failed: %v", err)
	}
}

func TestDeletePart_ReassignsChapters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	if err := s.CreatePart(ctx, &Part{ID: "p1", BookID: "b1", Name: "Part I", Position: 0}); err != nil {
		t.Fatalf("CreatePart() failed: %v", err)
	}
	partID := "p1"
	ch := &Chapter{ID: "c1", BookID: "b1", Text: "text", PartID: &partID, Position: 0}
	if err := s.SaveChapter(ctx, ch); err != nil {
		t.Fatalf("SaveChapter() failed: %v", err)
	}

	if err := s.DeletePart(ctx, "p1"); err != nil {
		t.Fatalf("DeletePart() failed: %v", err)
	}

	got, err := s.Chapter(ctx, "c1")
	if err != nil {
		t.Fatalf("Chapter(c1) failed: %v", err)
	}
	if got.PartID != nil {
		t.Errorf("chapter part_id = %v, want nil after part delete", *got.PartID)
	}
}

func TestSaveChapter_RecomputesWordCount(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	ch := &Chapter{ID: "c1", BookID: "b1", Text: "one two three", WordCount: 999}
	if err := s.SaveChapter(ctx, ch); err != nil {
		t.Fatalf("SaveChapter() failed: %v", err)
	}

	got, err := s.Chapter(ctx, "c1")
	if err != nil {
		t.Fatalf("Chapter() failed: %v", err)
	}
	if got.WordCount != 3 {
		t.Errorf("word_count = %d, want 3 (caller value must be ignored)", got.WordCount)
	}
}

func TestSaveChapter_MissingOwners(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	err := s.SaveChapter(ctx, &Chapter{ID: "c1", BookID: "missing", Text: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SaveChapter with missing book: err = %v, want ErrNotFound", err)
	}

	addBook(t, s, "b1", "Book")
	partID := "missing-part"
	err = s.SaveChapter(ctx, &Chapter{ID: "c1", BookID: "b1", Text: "x", PartID: &partID})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SaveChapter with missing part: err = %v, want ErrNotFound", err)
	}
}

func TestChapters_ReadingOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	if err := s.CreatePart(ctx, &Part{ID: "p1", BookID: "b1", Name: "Part I", Position: 0}); err != nil {
		t.Fatalf("CreatePart(p1) failed: %v", err)
	}
	if err := s.CreatePart(ctx, &Part{ID: "p2", BookID: "b1", Name: "Part II", Position: 1}); err != nil {
		t.Fatalf("CreatePart(p2) failed: %v", err)
	}

	p1, p2 := "p1", "p2"
	chapters := []*Chapter{
		{ID: "loose", BookID: "b1", Text: "x", Position: 0},
		{ID: "p2c0", BookID: "b1", Text: "x", PartID: &p2, Position: 3, PositionInPart: 0},
		{ID: "p1c1", BookID: "b1", Text: "x", PartID: &p1, Position: 2, PositionInPart: 1},
		{ID: "p1c0", BookID: "b1", Text: "x", PartID: &p1, Position: 1, PositionInPart: 0},
	}
	for _, ch := range chapters {
		if err := s.SaveChapter(ctx, ch); err != nil {
			t.Fatalf("SaveChapter(%s) failed: %v", ch.ID, err)
		}
	}

	got, err := s.Chapters(ctx, "b1")
	if err != nil {
		t.Fatalf("Chapters() failed: %v", err)
	}
	want := []string{"p1c0", "p1c1", "p2c0", "loose"}
	if len(got) != len(want) {
		t.Fatalf("len(chapters) = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("chapters[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestUpdateChapterOrders_Applies(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	if err := s.CreatePart(ctx, &Part{ID: "p1", BookID: "b1", Name: "Part I", Position: 0}); err != nil {
		t.Fatalf("CreatePart() failed: %v", err)
	}
	for i, id := range []string{"c1", "c2", "c3"} {
		addChapter(t, s, id, "b1", "", "x", i)
	}

	err := s.UpdateChapterOrders(ctx, "b1",
		[]string{"c3", "c1", "c2"},
		map[string][]string{"p1": {"c3", "c1"}})
	if err != nil {
		t.Fatalf("UpdateChapterOrders() failed: %v", err)
	}

	got, err := s.Chapters(ctx, "b1")
	if err != nil {
		t.Fatalf("Chapters() failed: %v", err)
	}
	want := []string{"c3", "c1", "c2"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("chapters[%d] = %s, want %s", i, got[i].ID, id)
		}
	}

	// c3 and c1 joined the part with contiguous in-part positions.
	if got[0].PartID == nil || *got[0].PartID != "p1" || got[0].PositionInPart != 0 {
		t.Errorf("c3 part placement = (%v, %d), want (p1, 0)", got[0].PartID, got[0].PositionInPart)
	}
	if got[1].PartID == nil || *got[1].PartID != "p1" || got[1].PositionInPart != 1 {
		t.Errorf("c1 part placement = (%v, %d), want (p1, 1)", got[1].PartID, got[1].PositionInPart)
	}
	// c2 was in no part list and is uncategorized.
	if got[2].PartID != nil {
		t.Errorf("c2 part_id = %v, want nil", *got[2].PartID)
	}
}

func TestUpdateChapterOrders_AtomicOnFailure(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	for i, id := range []string{"c1", "c2"} {
		addChapter(t, s, id, "b1", "", "x", i)
	}

	// Last id does not exist; nothing may change.
	err := s.UpdateChapterOrders(ctx, "b1", []string{"c2", "c1", "ghost"}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateChapterOrders with unknown chapter: err = %v, want ErrNotFound", err)
	}

	got, err := s.Chapters(ctx, "b1")
	if err != nil {
		t.Fatalf("Chapters() failed: %v", err)
	}
	if got[0].ID != "c1" || got[1].ID != "c2" {
		t.Errorf("order after failed reorder = [%s %s], want [c1 c2]", got[0].ID, got[1].ID)
	}
}

func TestUpdateChapterOrders_RejectsBadInput(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	addChapter(t, s, "c1", "b1", "", "x", 0)

	err := s.UpdateChapterOrders(ctx, "b1", []string{"c1", "c1"}, nil)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate chapter in order: err = %v, want ErrValidation", err)
	}

	err = s.UpdateChapterOrders(ctx, "b1", []string{"c1"}, map[string][]string{
		"p1": {"c1"}, "p2": {"c1"},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("chapter in two parts: err = %v, want ErrValidation", err)
	}
}

func TestSummary_ReplaceSemantics(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	addChapter(t, s, "c1", "b1", "", "x", 0)

	first := &Summary{
		ChapterID:  "c1",
		Summary:    "first",
		Characters: []string{"Alice"},
		Beats:      []string{"meeting"},
		SpoilersOK: true,
	}
	if err := s.SaveSummary(ctx, first); err != nil {
		t.Fatalf("SaveSummary(first) failed: %v", err)
	}
	second := &Summary{ChapterID: "c1", Summary: "second"}
	if err := s.SaveSummary(ctx, second); err != nil {
		t.Fatalf("SaveSummary(second) failed: %v", err)
	}

	got, err := s.Summary(ctx, "c1")
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if got == nil {
		t.Fatal("Summary() = nil, want replacement row")
	}
	if got.Summary != "second" {
		t.Errorf("summary = %q, want %q", got.Summary, "second")
	}
	if len(got.Characters) != 0 {
		t.Errorf("characters = %v, want empty (replace, not merge)", got.Characters)
	}
	if got.SpoilersOK {
		t.Error("spoilers_ok = true, want false after replace")
	}

	missing, err := s.Summary(ctx, "missing")
	if err != nil {
		t.Fatalf("Summary(missing) failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Summary(missing) = %+v, want nil", missing)
	}
}

func TestProfiles_DeleteCascadesReviews(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	addChapter(t, s, "c1", "b1", "", "x", 0)

	id, err := s.CreateProfile(ctx, &Profile{Name: "Grumpy Editor"})
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}

	linked := &Review{ID: "r1", ChapterID: "c1", ReviewText: "linked", ProfileID: &id}
	if err := s.SaveReview(ctx, linked); err != nil {
		t.Fatalf("SaveReview(linked) failed: %v", err)
	}
	if err := s.SaveReview(ctx, &Review{ID: "r2", ChapterID: "c1", ReviewText: "standalone"}); err != nil {
		t.Fatalf("SaveReview(standalone) failed: %v", err)
	}

	if err := s.DeleteProfile(ctx, id); err != nil {
		t.Fatalf("DeleteProfile() failed: %v", err)
	}

	reviews, err := s.Reviews(ctx, "c1")
	if err != nil {
		t.Fatalf("Reviews() failed: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("len(reviews) = %d, want 1 (profile reviews cascade)", len(reviews))
	}
	if reviews[0].ID != "r2" {
		t.Errorf("surviving review = %s, want r2", reviews[0].ID)
	}
}

func TestReviews_OrderAndDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	addChapter(t, s, "c1", "b1", "", "x", 0)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		r := &Review{
			ID:         fmt.Sprintf("r%d", i),
			ChapterID:  "c1",
			ReviewText: "text",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveReview(ctx, r); err != nil {
			t.Fatalf("SaveReview(r%d) failed: %v", i, err)
		}
	}

	reviews, err := s.Reviews(ctx, "c1")
	if err != nil {
		t.Fatalf("Reviews() failed: %v", err)
	}
	if len(reviews) != 3 {
		t.Fatalf("len(reviews) = %d, want 3", len(reviews))
	}
	if reviews[0].ID != "r2" {
		t.Errorf("newest review = %s, want r2", reviews[0].ID)
	}

	if err := s.DeleteReview(ctx, "r1"); err != nil {
		t.Fatalf("DeleteReview(r1) failed: %v", err)
	}
	if err := s.DeleteReview(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteReview(r1) twice: err = %v, want ErrNotFound", err)
	}
}

func TestWikiPage_NameUniquePerBook(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	addBook(t, s, "b2", "Other")

	alice := &WikiPage{ID: "w1", BookID: "b1", PageName: "Alice", PageType: PageTypeCharacter}
	if err := s.SaveWikiPage(ctx, alice); err != nil {
		t.Fatalf("SaveWikiPage(Alice) failed: %v", err)
	}

	// Case-insensitive collision within the book.
	dup := &WikiPage{ID: "w2", BookID: "b1", PageName: "ALICE", PageType: PageTypeCharacter}
	if err := s.SaveWikiPage(ctx, dup); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate page name: err = %v, want ErrValidation", err)
	}

	// Same name in another book is fine.
	other := &WikiPage{ID: "w3", BookID: "b2", PageName: "alice", PageType: PageTypeCharacter}
	if err := s.SaveWikiPage(ctx, other); err != nil {
		t.Errorf("same name in other book failed: %v", err)
	}

	// Updating the existing page under its own name is not a collision.
	alice.Summary = "the protagonist"
	if err := s.SaveWikiPage(ctx, alice); err != nil {
		t.Errorf("self-update failed: %v", err)
	}
}

func TestWikiUpdates_AppendOnlyLog(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	addChapter(t, s, "c1", "b1", "", "x", 0)
	page := &WikiPage{ID: "w1", BookID: "b1", PageName: "Alice", PageType: PageTypeCharacter}
	if err := s.SaveWikiPage(ctx, page); err != nil {
		t.Fatalf("SaveWikiPage() failed: %v", err)
	}

	for i, kind := range []string{"created", "updated"} {
		u := &WikiUpdate{
			WikiPageID:    "w1",
			ChapterID:     "c1",
			UpdateType:    kind,
			ChangeSummary: fmt.Sprintf("change %d", i),
		}
		if err := s.TrackWikiUpdate(ctx, u); err != nil {
			t.Fatalf("TrackWikiUpdate(%s) failed: %v", kind, err)
		}
	}

	updates, err := s.WikiUpdates(ctx, "w1")
	if err != nil {
		t.Fatalf("WikiUpdates() failed: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("len(updates) = %d, want 2", len(updates))
	}
}

func TestMentions_Idempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	addChapter(t, s, "c1", "b1", "", "x", 0)
	page := &WikiPage{ID: "w1", BookID: "b1", PageName: "Alice", PageType: PageTypeCharacter}
	if err := s.SaveWikiPage(ctx, page); err != nil {
		t.Fatalf("SaveWikiPage() failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.AddChapterWikiMention(ctx, "c1", "w1"); err != nil {
			t.Fatalf("AddChapterWikiMention() call %d failed: %v", i, err)
		}
	}

	mentions, err := s.MentionsForChapter(ctx, "c1")
	if err != nil {
		t.Fatalf("MentionsForChapter() failed: %v", err)
	}
	if len(mentions) != 1 {
		t.Errorf("len(mentions) = %d, want 1", len(mentions))
	}
}

func TestWordCount(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"Alice met Bob. Bob smiled.", 5},
		{"tabs\tand\nnewlines count", 4},
	}
	for _, tc := range cases {
		if got := WordCount(tc.text); got != tc.want {
			t.Errorf("WordCount(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestSearchBook_MatchesChaptersAndWiki(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	addChapter(t, s, "c1", "b1", "The Meeting", "Alice met Bob at the harbor.", 0)
	addChapter(t, s, "c2", "b1", "Elsewhere", "Nothing relevant here.", 1)
	page := &WikiPage{
		ID: "w1", BookID: "b1", PageName: "Harbor District",
		PageType: PageTypeLocation, Content: "A foggy port.",
	}
	if err := s.SaveWikiPage(ctx, page); err != nil {
		t.Fatalf("SaveWikiPage() failed: %v", err)
	}

	result, err := s.SearchBook(ctx, "b1", "HARBOR")
	if err != nil {
		t.Fatalf("SearchBook() failed: %v", err)
	}
	if len(result.Chapters) != 1 || result.Chapters[0].ID != "c1" {
		t.Errorf("chapter matches = %v, want [c1]", result.Chapters)
	}
	if len(result.WikiPages) != 1 || result.WikiPages[0].ID != "w1" {
		t.Errorf("wiki matches = %v, want [w1]", result.WikiPages)
	}

	empty, err := s.SearchBook(ctx, "b1", "")
	if err != nil {
		t.Fatalf("SearchBook(empty) failed: %v", err)
	}
	if len(empty.Chapters) != 0 || len(empty.WikiPages) != 0 {
		t.Error("empty term should match nothing")
	}
}

func TestReplaceInChapter_UpdatesWordCount(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	addChapter(t, s, "c1", "b1", "", "Alice met Bob. Bob smiled.", 0)

	before, err := s.Chapter(ctx, "c1")
	if err != nil {
		t.Fatalf("Chapter() failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := s.ReplaceInChapter(ctx, "c1", "bob", "Charlotte"); err != nil {
		t.Fatalf("ReplaceInChapter() failed: %v", err)
	}

	ch, err := s.Chapter(ctx, "c1")
	if err != nil {
		t.Fatalf("Chapter() failed: %v", err)
	}
	if ch.Text != "Alice met Charlotte. Charlotte smiled." {
		t.Errorf("text = %q", ch.Text)
	}
	if ch.WordCount != 5 {
		t.Errorf("word_count = %d, want 5", ch.WordCount)
	}
	if !ch.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("updated_at = %v, want after %v", ch.UpdatedAt, before.UpdatedAt)
	}

	// No-op when the term does not occur.
	if err := s.ReplaceInChapter(ctx, "c1", "zeppelin", "balloon"); err != nil {
		t.Fatalf("ReplaceInChapter(no match) failed: %v", err)
	}
}

func TestReplaceInWikiPage(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	page := &WikiPage{
		ID: "w1", BookID: "b1", PageName: "Alice",
		PageType: PageTypeCharacter, Content: "Alice lives in the old city.",
		Summary: "About Alice.",
	}
	if err := s.SaveWikiPage(ctx, page); err != nil {
		t.Fatalf("SaveWikiPage() failed: %v", err)
	}

	before, err := s.WikiPage(ctx, "w1")
	if err != nil {
		t.Fatalf("WikiPage() failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := s.ReplaceInWikiPage(ctx, "w1", "alice", "Mara"); err != nil {
		t.Fatalf("ReplaceInWikiPage() failed: %v", err)
	}

	got, err := s.WikiPage(ctx, "w1")
	if err != nil {
		t.Fatalf("WikiPage() failed: %v", err)
	}
	if got.Content != "Mara lives in the old city." {
		t.Errorf("content = %q", got.Content)
	}
	if got.Summary != "About Alice." {
		t.Errorf("summary = %q, want untouched", got.Summary)
	}
	if !got.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("updated_at = %v, want after %v", got.UpdatedAt, before.UpdatedAt)
	}
}

func TestReplaceFold_NonASCII(t *testing.T) {
	// 'İ' (U+0130) lowercases to a different byte width, so matching must
	// never carry offsets from a lowercased copy back into the original.
	cases := []struct {
		s, old, new string
		want        string
		changed     bool
	}{
		{"Alice met Bob. Bob smiled.", "bob", "Carol", "Alice met Carol. Carol smiled.", true},
		{"İİİabc", "abc", "x", "İİİx", true},
		{"İİİİab", "ab", "x", "İİİİx", true},
		{"İstanbul, İstanbul", "istanbul", "here", "here, here", true},
		{"Ärger und ärger", "ärger", "Freude", "Freude und Freude", true},
		{"no match here", "zeppelin", "balloon", "no match here", false},
		{"", "a", "b", "", false},
		{"text", "", "x", "text", false},
	}
	for _, tc := range cases {
		got, changed := replaceFold(tc.s, tc.old, tc.new)
		if got != tc.want || changed != tc.changed {
			t.Errorf("replaceFold(%q, %q, %q) = (%q, %v), want (%q, %v)",
				tc.s, tc.old, tc.new, got, changed, tc.want, tc.changed)
		}
		if !utf8.ValidString(got) {
			t.Errorf("replaceFold(%q, %q, %q) produced invalid UTF-8: %q",
				tc.s, tc.old, tc.new, got)
		}
	}
}

func TestSearchBook_NonASCIICaseFolding(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	addBook(t, s, "b1", "Book")
	addChapter(t, s, "c1", "b1", "Streit", "Ärger im Hafenviertel.", 0)

	for _, term := range []string{"ärger", "ÄRGER"} {
		result, err := s.SearchBook(ctx, "b1", term)
		if err != nil {
			t.Fatalf("SearchBook(%q) failed: %v", term, err)
		}
		if len(result.Chapters) != 1 || result.Chapters[0].ID != "c1" {
			t.Errorf("SearchBook(%q) chapters = %v, want [c1]", term, result.Chapters)
		}
	}
}
