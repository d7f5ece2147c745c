// Package api is a JSON client for the hosted StoryKeep backend. The
// local store is the source of truth; the backend is an optional
// collaborator reached for account-scoped features.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gennitdev/storykeep/internal/store"
)

// TokenFunc supplies the current bearer token. It returns ok=false when
// the user is signed out; requests are then sent unauthenticated and the
// backend decides what anonymous callers may do.
type TokenFunc func() (token string, ok bool)

// Client calls the StoryKeep backend over HTTP.
type Client struct {
	baseURL    string
	token      TokenFunc
	httpClient *http.Client
}

// APIError represents a backend error response.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a backend client. token may be nil for an
// always-anonymous client.
func NewClient(baseURL string, token TokenFunc) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateBook registers a book with the backend.
func (c *Client) CreateBook(ctx context.Context, book store.Book) (store.Book, error) {
	var out store.Book
	err := c.do(ctx, http.MethodPost, "/books", book, &out)
	return out, err
}

// Chapters lists a book's chapters from the backend.
func (c *Client) Chapters(ctx context.Context, bookID string) ([]store.Chapter, error) {
	var resp struct {
		Items []store.Chapter `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/books/%s/chapters", bookID), nil, &resp)
	return resp.Items, err
}

// SaveChapter creates or updates a chapter on the backend.
func (c *Client) SaveChapter(ctx context.Context, ch store.Chapter) (store.Chapter, error) {
	var out store.Chapter
	err := c.do(ctx, http.MethodPost, "/chapters", ch, &out)
	return out, err
}

// GenerateSummary asks the backend to summarize a chapter.
func (c *Client) GenerateSummary(ctx context.Context, chapterID string) (store.Summary, error) {
	var out store.Summary
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/chapters/%s/summary", chapterID), nil, &out)
	return out, err
}

// ReviewRequest configures AI review generation.
type ReviewRequest struct {
	ChapterID string `json:"chapter_id"`
	ToneKey   string `json:"tone_key,omitempty"`
	ProfileID *int64 `json:"profile_id,omitempty"`
}

// GenerateReview asks the backend to produce a chapter review.
func (c *Client) GenerateReview(ctx context.Context, req ReviewRequest) (store.Review, error) {
	var out store.Review
	err := c.do(ctx, http.MethodPost, "/reviews", req, &out)
	return out, err
}

// Reviews lists a chapter's reviews from the backend.
func (c *Client) Reviews(ctx context.Context, chapterID string) ([]store.Review, error) {
	var resp struct {
		Items []store.Review `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/chapters/%s/reviews", chapterID), nil, &resp)
	return resp.Items, err
}

// DeleteReview removes a review on the backend.
func (c *Client) DeleteReview(ctx context.Context, reviewID string) error {
	return c.do(ctx, http.MethodDelete, "/reviews/"+reviewID, nil, nil)
}

// WikiPages lists a book's wiki pages from the backend.
func (c *Client) WikiPages(ctx context.Context, bookID string) ([]store.WikiPage, error) {
	var resp struct {
		Items []store.WikiPage `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/books/%s/wiki", bookID), nil, &resp)
	return resp.Items, err
}

// SaveWikiPage creates or updates a wiki page on the backend.
func (c *Client) SaveWikiPage(ctx context.Context, page store.WikiPage) (store.WikiPage, error) {
	var out store.WikiPage
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/books/%s/wiki", page.BookID), page, &out)
	return out, err
}

// DeleteWikiPage removes a wiki page on the backend.
func (c *Client) DeleteWikiPage(ctx context.Context, pageID string) error {
	return c.do(ctx, http.MethodDelete, "/wiki/"+pageID, nil, nil)
}

// SaveProfile creates or updates a reviewer profile on the backend.
func (c *Client) SaveProfile(ctx context.Context, p store.Profile) (store.Profile, error) {
	var out store.Profile
	err := c.do(ctx, http.MethodPost, "/ai-profiles", p, &out)
	return out, err
}

// DeleteProfile removes a reviewer profile on the backend.
func (c *Client) DeleteProfile(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/ai-profiles/%d", id), nil, nil)
}

// SavePart creates or updates a part on the backend.
func (c *Client) SavePart(ctx context.Context, p store.Part) (store.Part, error) {
	var out store.Part
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/books/%s/parts", p.BookID), p, &out)
	return out, err
}

// DeletePart removes a part on the backend; its chapters become
// uncategorized there just as they do locally.
func (c *Client) DeletePart(ctx context.Context, partID string) error {
	return c.do(ctx, http.MethodDelete, "/parts/"+partID, nil, nil)
}

// ReorderRequest mirrors the local chapter reorder payload.
type ReorderRequest struct {
	ChapterOrder []string            `json:"chapter_order"`
	PartUpdates  map[string][]string `json:"part_updates,omitempty"`
}

// ReorderChapters pushes a chapter ordering to the backend.
func (c *Client) ReorderChapters(ctx context.Context, bookID string, req ReorderRequest) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/books/%s/chapter-order", bookID), req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return err
		}
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Code: strings.TrimSpace(errResp.Code)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) addAuthHeader(req *http.Request) {
	if c.token == nil {
		return
	}
	token, ok := c.token()
	if !ok || strings.TrimSpace(token) == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}
