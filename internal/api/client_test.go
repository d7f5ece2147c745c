package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gennitdev/storykeep/internal/store"
)

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(store.Book{ID: "b1", Title: "Book"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, func() (string, bool) { return "tok123", true })
	book, err := c.CreateBook(context.Background(), store.Book{ID: "b1", Title: "Book"})
	if err != nil {
		t.Fatalf("CreateBook() failed: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok123")
	}
	if book.ID != "b1" {
		t.Errorf("book id = %q, want b1", book.ID)
	}
}

func TestClient_AnonymousWhenSignedOut(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(struct {
			Items []store.Chapter `json:"items"`
		}{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, func() (string, bool) { return "", false })
	if _, err := c.Chapters(context.Background(), "b1"); err != nil {
		t.Fatalf("Chapters() failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want unset", gotAuth)
	}
}

func TestClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "not yours", "code": "FORBIDDEN"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	err := c.DeleteReview(context.Background(), "r1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", apiErr.Status)
	}
	if apiErr.Message != "not yours" || apiErr.Code != "FORBIDDEN" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestClient_ErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	err := c.DeleteProfile(context.Background(), 9)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Message == "" {
		t.Error("message is empty, want status text fallback")
	}
}
