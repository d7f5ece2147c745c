package store

import (
	"fmt"
	"time"
)

// Book is the root of a writer's project. Deleting a book cascades to its
// chapters, parts, and wiki pages.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks required Book fields.
func (b *Book) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("%w: book id is required", ErrValidation)
	}
	if b.Title == "" {
		return fmt.Errorf("%w: book title is required", ErrValidation)
	}
	return nil
}

// Part is an optional grouping of chapters within a book. Position is the
// ordering key and is unique per book.
type Part struct {
	ID       string `json:"id"`
	BookID   string `json:"book_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Validate checks required Part fields.
func (p *Part) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: part id is required", ErrValidation)
	}
	if p.BookID == "" {
		return fmt.Errorf("%w: part book_id is required", ErrValidation)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: part name is required", ErrValidation)
	}
	return nil
}

// Chapter holds a markdown body plus ordering state. PartID nil means the
// chapter is uncategorized. PositionInPart is meaningful only when PartID
// is set; chapters within a part are contiguously ordered from 0.
// WordCount is derived from Text and recomputed on every save.
type Chapter struct {
	ID             string    `json:"id"`
	BookID         string    `json:"book_id"`
	PartID         *string   `json:"part_id,omitempty"`
	Title          string    `json:"title,omitempty"`
	Text           string    `json:"text"`
	WordCount      int       `json:"word_count"`
	Position       int       `json:"position"`
	PositionInPart int       `json:"position_in_part"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks required Chapter fields.
func (c *Chapter) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: chapter id is required", ErrValidation)
	}
	if c.BookID == "" {
		return fmt.Errorf("%w: chapter book_id is required", ErrValidation)
	}
	return nil
}

// Summary is the single live AI (or manually edited) summary of a chapter,
// keyed 1:1 by chapter id. Saving replaces any previous summary outright.
type Summary struct {
	ChapterID  string    `json:"chapter_id"`
	Summary    string    `json:"summary"`
	POV        string    `json:"pov,omitempty"`
	Characters []string  `json:"characters,omitempty"`
	Beats      []string  `json:"beats,omitempty"`
	SpoilersOK bool      `json:"spoilers_ok"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks required Summary fields.
func (s *Summary) Validate() error {
	if s.ChapterID == "" {
		return fmt.Errorf("%w: summary chapter_id is required", ErrValidation)
	}
	return nil
}

// Review is one AI beta-reader review of a chapter. A chapter can hold many
// reviews; each is independently deletable. ProfileID links the custom
// reviewer persona that produced it, when one was used.
type Review struct {
	ID          string    `json:"id"`
	ChapterID   string    `json:"chapter_id"`
	ReviewText  string    `json:"review_text"`
	PromptUsed  string    `json:"prompt_used,omitempty"`
	ProfileID   *int64    `json:"profile_id,omitempty"`
	ProfileName string    `json:"profile_name,omitempty"`
	ToneKey     string    `json:"tone_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks required Review fields.
func (r *Review) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: review id is required", ErrValidation)
	}
	if r.ChapterID == "" {
		return fmt.Errorf("%w: review chapter_id is required", ErrValidation)
	}
	return nil
}

// Profile is a user-defined AI reviewer persona. Deleting one cascades to
// delete every review it produced.
type Profile struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks required Profile fields.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: profile name is required", ErrValidation)
	}
	return nil
}

// Wiki page types.
const (
	PageTypeCharacter = "character"
	PageTypeLocation  = "location"
	PageTypeConcept   = "concept"
	PageTypeOther     = "other"
)

// WikiPage is one entry in a book's story wiki. PageName is unique per book,
// compared case-insensitively.
type WikiPage struct {
	ID          string    `json:"id"`
	BookID      string    `json:"book_id"`
	PageName    string    `json:"page_name"`
	PageType    string    `json:"page_type"`
	Content     string    `json:"content,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Aliases     []string  `json:"aliases,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	IsMajor     bool      `json:"is_major"`
	CreatedByAI bool      `json:"created_by_ai"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks required WikiPage fields and the page type enum.
func (w *WikiPage) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("%w: wiki page id is required", ErrValidation)
	}
	if w.BookID == "" {
		return fmt.Errorf("%w: wiki page book_id is required", ErrValidation)
	}
	if w.PageName == "" {
		return fmt.Errorf("%w: wiki page_name is required", ErrValidation)
	}
	switch w.PageType {
	case PageTypeCharacter, PageTypeLocation, PageTypeConcept, PageTypeOther:
	default:
		return fmt.Errorf("%w: invalid page_type %q", ErrValidation, w.PageType)
	}
	return nil
}

// WikiUpdate is an append-only log record linking a wiki page update to the
// chapter that triggered it. Records are never mutated after insert.
type WikiUpdate struct {
	ID                 int64     `json:"id"`
	WikiPageID         string    `json:"wiki_page_id"`
	ChapterID          string    `json:"chapter_id"`
	UpdateType         string    `json:"update_type"`
	ChangeSummary      string    `json:"change_summary,omitempty"`
	ContradictionNotes string    `json:"contradiction_notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Validate checks required WikiUpdate fields.
func (u *WikiUpdate) Validate() error {
	if u.WikiPageID == "" {
		return fmt.Errorf("%w: wiki update wiki_page_id is required", ErrValidation)
	}
	if u.ChapterID == "" {
		return fmt.Errorf("%w: wiki update chapter_id is required", ErrValidation)
	}
	if u.UpdateType == "" {
		return fmt.Errorf("%w: wiki update update_type is required", ErrValidation)
	}
	return nil
}

// Mention is a many-to-many join between a chapter and a wiki page. It has
// no payload beyond its existence.
type Mention struct {
	ChapterID  string `json:"chapter_id"`
	WikiPageID string `json:"wiki_page_id"`
}
