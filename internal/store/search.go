package store

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// SearchResult holds the chapters and wiki pages of one book matching a
// search term.
type SearchResult struct {
	Chapters  []*Chapter  `json:"chapters"`
	WikiPages []*WikiPage `json:"wiki_pages"`
}

// SearchBook finds chapters and wiki pages containing term as a
// case-insensitive substring. Chapters match on title or text; wiki pages
// match on page name, summary, or content. An empty term matches nothing.
//
// Matching happens in Go so case folding is Unicode-aware and agrees with
// ReplaceInChapter; SQLite's lower() only folds ASCII.
func (s *Store) SearchBook(ctx context.Context, bookID, term string) (*SearchResult, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := s.requireRow(ctx, "books", bookID); err != nil {
		return nil, err
	}

	result := &SearchResult{}
	if term == "" {
		return result, nil
	}
	needle := strings.ToLower(term)

	chapters, err := s.Chapters(ctx, bookID)
	if err != nil {
		return nil, err
	}
	for _, ch := range chapters {
		if containsFold(ch.Title, needle) || containsFold(ch.Text, needle) {
			result.Chapters = append(result.Chapters, ch)
		}
	}

	pages, err := s.WikiPages(ctx, bookID)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if containsFold(p.PageName, needle) || containsFold(p.Summary, needle) ||
			containsFold(p.Content, needle) {
			result.WikiPages = append(result.WikiPages, p)
		}
	}
	return result, nil
}

// ReplaceInChapter replaces every case-insensitive occurrence of searchTerm
// in a chapter's text with replaceTerm, recomputes the word count, and
// bumps updated_at. A term that is not present leaves the chapter untouched.
func (s *Store) ReplaceInChapter(ctx context.Context, chapterID, searchTerm, replaceTerm string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	chapter, err := s.chapterByID(ctx, chapterID)
	if err != nil {
		return err
	}

	replaced, changed := replaceFold(chapter.Text, searchTerm, replaceTerm)
	if !changed {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE chapters SET text = ?, word_count = ?, updated_at = ? WHERE id = ?
	`, replaced, WordCount(replaced), formatTime(time.Now()), chapterID)
	if err != nil {
		return fmt.Errorf("failed to replace in chapter %s: %w", chapterID, err)
	}
	return nil
}

// ReplaceInWikiPage replaces every case-insensitive occurrence of
// searchTerm in a wiki page's content with replaceTerm and bumps
// updated_at. A term that is not present leaves the page untouched.
func (s *Store) ReplaceInWikiPage(ctx context.Context, wikiPageID, searchTerm, replaceTerm string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	page, err := s.wikiPageByID(ctx, wikiPageID)
	if err != nil {
		return err
	}

	replaced, changed := replaceFold(page.Content, searchTerm, replaceTerm)
	if !changed {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE wiki_pages SET content = ?, updated_at = ? WHERE id = ?
	`, replaced, formatTime(time.Now()), wikiPageID)
	if err != nil {
		return fmt.Errorf("failed to replace in wiki page %s: %w", wikiPageID, err)
	}
	return nil
}

// replaceFold replaces all case-insensitive occurrences of old with new,
// reporting whether anything changed. The walk is rune-aware: lowercasing
// can change a rune's byte width (e.g. 'İ'), so offsets into a lowercased
// copy of the whole string must never be applied to the original.
func replaceFold(s, old, new string) (string, bool) {
	if old == "" {
		return s, false
	}
	needle := strings.ToLower(old)

	var b strings.Builder
	changed := false
	for i := 0; i < len(s); {
		if n := foldMatchLen(s[i:], needle); n > 0 {
			b.WriteString(new)
			i += n
			changed = true
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
	}
	if !changed {
		return s, false
	}
	return b.String(), true
}

// foldMatchLen returns the byte length of the prefix of s whose lowercase
// form equals needle, or 0 when no prefix matches. needle must already be
// lowercase.
func foldMatchLen(s, needle string) int {
	n := 0
	for _, want := range needle {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 || unicode.ToLower(r) != want {
			return 0
		}
		n += size
	}
	return n
}

// containsFold reports whether s contains needle case-insensitively.
// needle must already be lowercase.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}
