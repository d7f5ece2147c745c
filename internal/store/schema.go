package store

// schemaSQL creates every table and index. All statements are idempotent so
// the schema pass is safe to repeat against an existing database.
//
// Ownership rules live in the schema itself:
//   - children of a book cascade on book delete
//   - deleting a part sets its chapters' part_id to NULL (never deletes them)
//   - deleting a reviewer profile cascades to the reviews it produced
const schemaSQL = `
CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS parts (
	id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL,
	name TEXT NOT NULL,
	position INTEGER NOT NULL,
	UNIQUE (book_id, position),
	FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS chapters (
	id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL,
	part_id TEXT,
	title TEXT,
	text TEXT NOT NULL DEFAULT '',
	word_count INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL DEFAULT 0,
	position_in_part INTEGER,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE CASCADE,
	FOREIGN KEY (part_id) REFERENCES parts(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS chapter_summaries (
	chapter_id TEXT PRIMARY KEY,
	summary TEXT NOT NULL,
	pov TEXT NOT NULL DEFAULT '',
	characters TEXT NOT NULL DEFAULT '[]',  -- JSON array
	beats TEXT NOT NULL DEFAULT '[]',       -- JSON array
	spoilers_ok INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (chapter_id) REFERENCES chapters(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS reviewer_profiles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chapter_reviews (
	id TEXT PRIMARY KEY,
	chapter_id TEXT NOT NULL,
	review_text TEXT NOT NULL,
	prompt_used TEXT,
	profile_id INTEGER,
	profile_name TEXT,
	tone_key TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (chapter_id) REFERENCES chapters(id) ON DELETE CASCADE,
	FOREIGN KEY (profile_id) REFERENCES reviewer_profiles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS wiki_pages (
	id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL,
	page_name TEXT NOT NULL,
	page_type TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	aliases TEXT NOT NULL DEFAULT '[]',  -- JSON array
	tags TEXT NOT NULL DEFAULT '[]',     -- JSON array
	is_major INTEGER NOT NULL DEFAULT 0,
	created_by_ai INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (book_id, page_name COLLATE NOCASE),
	FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE CASCADE
);

-- Append-only: rows are never updated or individually deleted.
CREATE TABLE IF NOT EXISTS wiki_update_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	wiki_page_id TEXT NOT NULL,
	chapter_id TEXT NOT NULL,
	update_type TEXT NOT NULL,
	change_summary TEXT,
	contradiction_notes TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY (wiki_page_id) REFERENCES wiki_pages(id) ON DELETE CASCADE,
	FOREIGN KEY (chapter_id) REFERENCES chapters(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS chapter_wiki_mentions (
	chapter_id TEXT NOT NULL,
	wiki_page_id TEXT NOT NULL,
	PRIMARY KEY (chapter_id, wiki_page_id),
	FOREIGN KEY (chapter_id) REFERENCES chapters(id) ON DELETE CASCADE,
	FOREIGN KEY (wiki_page_id) REFERENCES wiki_pages(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_parts_book ON parts(book_id);
CREATE INDEX IF NOT EXISTS idx_chapters_book ON chapters(book_id);
CREATE INDEX IF NOT EXISTS idx_chapters_part ON chapters(part_id);
CREATE INDEX IF NOT EXISTS idx_reviews_chapter ON chapter_reviews(chapter_id);
CREATE INDEX IF NOT EXISTS idx_reviews_profile ON chapter_reviews(profile_id);
CREATE INDEX IF NOT EXISTS idx_wiki_book ON wiki_pages(book_id);
CREATE INDEX IF NOT EXISTS idx_wiki_log_page ON wiki_update_log(wiki_page_id);
CREATE INDEX IF NOT EXISTS idx_wiki_log_chapter ON wiki_update_log(chapter_id);
CREATE INDEX IF NOT EXISTS idx_mentions_page ON chapter_wiki_mentions(wiki_page_id);
`
