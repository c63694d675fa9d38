package gamesvc

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/achgithub/turnlink-backend/internal/store"
)

func TestPaginationParamsDefaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/games", nil)
	limit, token := paginationParams(r)
	if limit != 0 {
		t.Errorf("expected limit 0 (let the store apply its default), got %d", limit)
	}
	if token != "" {
		t.Errorf("expected empty token, got %q", token)
	}
}

func TestPaginationParamsParsed(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/games?limit=25&nextToken=abc", nil)
	limit, token := paginationParams(r)
	if limit != 25 {
		t.Errorf("expected limit 25, got %d", limit)
	}
	if token != "abc" {
		t.Errorf("expected token 'abc', got %q", token)
	}
}

func TestPaginationParamsIgnoresGarbageLimit(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/games?limit=not-a-number", nil)
	limit, _ := paginationParams(r)
	if limit != 0 {
		t.Errorf("expected garbage limit to fall back to 0, got %d", limit)
	}
}

func TestWriteStoreErrorMapsKinds(t *testing.T) {
	cases := []struct {
		kind store.ErrorKind
		want int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrConflict, http.StatusConflict},
		{store.ErrForbidden, http.StatusForbidden},
		{store.ErrBadRequest, http.StatusBadRequest},
	}

	for _, c := range cases {
		w := httptest.NewRecorder()
		writeStoreError(w, &store.Error{Kind: c.kind, Message: "boom"})
		if w.Code != c.want {
			t.Errorf("kind %v: expected status %d, got %d", c.kind, c.want, w.Code)
		}
	}
}

func TestWriteStoreErrorFallsBackTo500(t *testing.T) {
	w := httptest.NewRecorder()
	writeStoreError(w, errNotAStoreError{})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for a non-store error, got %d", w.Code)
	}
}

type errNotAStoreError struct{}

func (errNotAStoreError) Error() string { return "unexpected" }
