package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestFromClassifiesTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"illegal id", IllegalID("series id", "a/b"), http.StatusBadRequest, "illegal_id"},
		{"validation", Validation("a", "b"), http.StatusBadRequest, "validation_failed"},
		{"not found", NotFound("series", "x"), http.StatusNotFound, "not_found"},
		{"conflict", Conflict("id %s in use", "x"), http.StatusConflict, "conflict"},
		{"upstream", Upstream("GET x", 503, []byte("down")), http.StatusBadGateway, "upstream_failure"},
		{"wrapped upstream", fmt.Errorf("load: %w", Upstream("GET x", 500, nil)), http.StatusBadGateway, "upstream_failure"},
		{"inconsistent", Inconsistent("missing version"), http.StatusInternalServerError, "internal_inconsistency"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := From(tc.err)
			if got.Status != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, got.Status)
			}
			if got.Code != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, got.Code)
			}
		})
	}
}

func TestValidationErrorDetails(t *testing.T) {
	got := From(fmt.Errorf("create: %w", Validation("first", "second")))
	if len(got.Details) != 2 || got.Details[0] != "first" {
		t.Fatalf("details: got=%v", got.Details)
	}
	if !errors.Is(got, ErrValidation) {
		t.Fatalf("expected errors.Is ErrValidation")
	}
}

func TestSanitizeBodyStripsControlCharacters(t *testing.T) {
	got := SanitizeBody("line1\nline2\r\n\tend\x00")
	if got != "line1 line2 end" {
		t.Fatalf("sanitize: got=%q", got)
	}
	long := SanitizeBody(strings.Repeat("a", maxBodyChars+10))
	if !strings.HasSuffix(long, "...") || len(long) != maxBodyChars+3 {
		t.Fatalf("truncate: len=%d", len(long))
	}
}

func TestUpstreamErrorMessage(t *testing.T) {
	err := Upstream("GET ClassificationSubsetSeries/x", 500, []byte("oops\n"))
	if !strings.Contains(err.Error(), "status code 500") || !strings.Contains(err.Error(), "oops") {
		t.Fatalf("message: %q", err.Error())
	}
	if err.HTTPStatusCode() != 500 {
		t.Fatalf("HTTPStatusCode: got=%d", err.HTTPStatusCode())
	}
}
