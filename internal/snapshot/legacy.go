package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gennitdev/storykeep/internal/store"
)

// ImportLegacyExport understands the free-form JSON dumps produced by the
// old hosted-database export, from before the snapshot format was
// versioned. Those dumps have loose conventions: camelCase or snake_case
// keys, ids as strings or numbers, and entity arrays optionally wrapped in
// a {"rows": [...]} envelope.
//
// The adapter normalizes a legacy dump into a version 1 document and hands
// it to the regular Import path, so the usual migrations and the
// single-transaction replace apply unchanged.
func ImportLegacyExport(ctx context.Context, s *store.Store, data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	doc := map[string]any{
		"schema_version": 1,
		"exported_at":    time.Now().UTC().Format(time.RFC3339),
		"books":          convertLegacyRows(raw, convertLegacyBook, "books"),
		"chapters":       convertLegacyRows(raw, convertLegacyChapter, "chapters"),
		"summaries":      convertLegacyRows(raw, convertLegacySummary, "summaries", "chapterSummaries", "chapter_summaries"),
		"reviews":        convertLegacyRows(raw, convertLegacyReview, "reviews", "chapterReviews", "chapter_reviews"),
		"profiles":       convertLegacyRows(raw, convertLegacyProfile, "profiles", "aiProfiles", "customReviewerProfiles", "reviewer_profiles"),
		"wiki_pages":     convertLegacyRows(raw, convertLegacyWikiPage, "wikiPages", "wiki_pages"),
		"wiki_updates":   convertLegacyRows(raw, convertLegacyWikiUpdate, "wikiUpdates", "wikiUpdateLog", "wiki_updates", "wiki_update_log"),
		"mentions":       convertLegacyRows(raw, convertLegacyMention, "mentions", "chapterWikiMentions", "chapter_wiki_mentions"),
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return Import(ctx, s, normalized)
}

// legacyRows pulls an entity array out of the dump under any of its known
// key spellings, unwrapping a {"rows": [...]} envelope when present.
func legacyRows(raw map[string]any, keys ...string) []any {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if rows, ok := v.([]any); ok {
			return rows
		}
		if env, ok := v.(map[string]any); ok {
			if rows, ok := env["rows"].([]any); ok {
				return rows
			}
		}
	}
	return nil
}

func convertLegacyRows(raw map[string]any, convert func(map[string]any) map[string]any, keys ...string) []any {
	rows := legacyRows(raw, keys...)
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, convert(row))
	}
	return out
}

// legacyString reads a field under any of its key spellings, stringifying
// numeric ids along the way.
func legacyString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := row[key].(type) {
		case string:
			return v
		case float64:
			if v == float64(int64(v)) {
				return strconv.FormatInt(int64(v), 10)
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func legacyBool(row map[string]any, keys ...string) bool {
	for _, key := range keys {
		switch v := row[key].(type) {
		case bool:
			return v
		case float64:
			return v != 0
		}
	}
	return false
}

func legacyInt(row map[string]any, keys ...string) int {
	for _, key := range keys {
		if v, ok := row[key].(float64); ok {
			return int(v)
		}
	}
	return 0
}

func legacyList(row map[string]any, keys ...string) []string {
	for _, key := range keys {
		switch v := row[key].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case string:
			// Some dumps stored lists as embedded JSON text.
			var out []string
			if err := json.Unmarshal([]byte(v), &out); err == nil {
				return out
			}
		}
	}
	return nil
}

func legacyTime(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := row[key].(string); ok && v != "" {
			return v
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func convertLegacyBook(row map[string]any) map[string]any {
	return map[string]any{
		"id":         legacyString(row, "id", "bookId", "book_id"),
		"title":      legacyString(row, "title", "name"),
		"created_at": legacyTime(row, "created_at", "createdAt"),
	}
}

func convertLegacyChapter(row map[string]any) map[string]any {
	return map[string]any{
		"id":         legacyString(row, "id", "chapterId", "chapter_id"),
		"book_id":    legacyString(row, "book_id", "bookId"),
		"title":      legacyString(row, "title"),
		"text":       legacyString(row, "text", "content", "body"),
		"position":   legacyInt(row, "position", "order", "sortOrder", "sort_order"),
		"created_at": legacyTime(row, "created_at", "createdAt"),
		"updated_at": legacyTime(row, "updated_at", "updatedAt", "created_at", "createdAt"),
	}
}

func convertLegacySummary(row map[string]any) map[string]any {
	return map[string]any{
		"chapter_id":  legacyString(row, "chapter_id", "chapterId"),
		"summary":     legacyString(row, "summary", "text"),
		"pov":         legacyString(row, "pov"),
		"characters":  legacyList(row, "characters"),
		"beats":       legacyList(row, "beats", "plotPoints", "plot_points"),
		"spoilers_ok": legacyBool(row, "spoilers_ok", "spoilersOk", "spoilersOK"),
		"updated_at":  legacyTime(row, "updated_at", "updatedAt"),
	}
}

func convertLegacyReview(row map[string]any) map[string]any {
	out := map[string]any{
		"id":           legacyString(row, "id", "reviewId", "review_id"),
		"chapter_id":   legacyString(row, "chapter_id", "chapterId"),
		"review_text":  legacyString(row, "review_text", "reviewText", "text"),
		"prompt_used":  legacyString(row, "prompt_used", "promptUsed"),
		"profile_name": legacyString(row, "profile_name", "profileName"),
		"tone_key":     legacyString(row, "tone_key", "toneKey", "tone"),
		"created_at":   legacyTime(row, "created_at", "createdAt"),
		"updated_at":   legacyTime(row, "updated_at", "updatedAt", "created_at", "createdAt"),
	}
	if id := legacyString(row, "profile_id", "profileId"); id != "" {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			out["profile_id"] = n
		}
	}
	return out
}

func convertLegacyProfile(row map[string]any) map[string]any {
	out := map[string]any{
		"name":        legacyString(row, "name"),
		"description": legacyString(row, "description"),
		"created_at":  legacyTime(row, "created_at", "createdAt"),
		"updated_at":  legacyTime(row, "updated_at", "updatedAt", "created_at", "createdAt"),
	}
	if id := legacyString(row, "id", "profileId", "profile_id"); id != "" {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			out["id"] = n
		}
	}
	return out
}

func convertLegacyWikiPage(row map[string]any) map[string]any {
	pageType := legacyString(row, "page_type", "pageType", "type")
	switch pageType {
	case store.PageTypeCharacter, store.PageTypeLocation, store.PageTypeConcept, store.PageTypeOther:
	default:
		pageType = store.PageTypeOther
	}
	return map[string]any{
		"id":            legacyString(row, "id", "pageId", "page_id"),
		"book_id":       legacyString(row, "book_id", "bookId"),
		"page_name":     legacyString(row, "page_name", "pageName", "name"),
		"page_type":     pageType,
		"content":       legacyString(row, "content", "body"),
		"summary":       legacyString(row, "summary"),
		"aliases":       legacyList(row, "aliases"),
		"tags":          legacyList(row, "tags"),
		"is_major":      legacyBool(row, "is_major", "isMajor"),
		"created_by_ai": legacyBool(row, "created_by_ai", "createdByAi", "createdByAI"),
		"created_at":    legacyTime(row, "created_at", "createdAt"),
		"updated_at":    legacyTime(row, "updated_at", "updatedAt", "created_at", "createdAt"),
	}
}

func convertLegacyWikiUpdate(row map[string]any) map[string]any {
	return map[string]any{
		"wiki_page_id":        legacyString(row, "wiki_page_id", "wikiPageId"),
		"chapter_id":          legacyString(row, "chapter_id", "chapterId"),
		"update_type":         legacyString(row, "update_type", "updateType"),
		"change_summary":      legacyString(row, "change_summary", "changeSummary"),
		"contradiction_notes": legacyString(row, "contradiction_notes", "contradictionNotes"),
		"created_at":          legacyTime(row, "created_at", "createdAt"),
	}
}

func convertLegacyMention(row map[string]any) map[string]any {
	return map[string]any{
		"chapter_id":   legacyString(row, "chapter_id", "chapterId"),
		"wiki_page_id": legacyString(row, "wiki_page_id", "wikiPageId"),
	}
}
