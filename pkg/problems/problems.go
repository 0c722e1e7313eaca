// Package problems renders application/problem+json responses and owns the
// mapping from internal error classes to HTTP statuses. Handlers and
// middleware funnel every pipeline error through WriteError; nothing internal
// (DSNs, driver errors) reaches the response body.
package problems

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
)

// Problem is an RFC 7807 response body.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Base returns the base URL for problem type identifiers.
// Order of precedence:
// 1. PROBLEM_BASE_URL (exact base, e.g. https://mydomain.com/problems)
// 2. BASE_PUBLIC_URL + "/problems" (if set)
// 3. https://example.com/problems (fallback)
func Base() string {
	if b := os.Getenv("PROBLEM_BASE_URL"); b != "" {
		return strings.TrimRight(b, "/")
	}
	if b := os.Getenv("BASE_PUBLIC_URL"); b != "" {
		return strings.TrimRight(b, "/") + "/problems"
	}
	return "https://example.com/problems"
}

// Type builds a full problem type URL for the given slug.
func Type(slug string) string { return Base() + "/" + slug }

// Classifier errors. Packages mark their sentinel errors with one of these via
// errors.Join / fmt.Errorf("%w") so the boundary can map them without
// importing every package.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("upstream unavailable")
)

// Write renders p with the problem+json media type.
func Write(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// WriteError maps err onto a problem response via the classifier errors.
// Unrecognized errors become an opaque 500.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		Write(w, Problem{Type: Type("unauthorized"), Title: "Unauthorized", Status: http.StatusUnauthorized})
	case errors.Is(err, ErrForbidden):
		Write(w, Problem{Type: Type("forbidden"), Title: "Forbidden", Status: http.StatusForbidden})
	case errors.Is(err, ErrNotFound):
		Write(w, Problem{Type: Type("not-found"), Title: "Not Found", Status: http.StatusNotFound})
	case errors.Is(err, ErrUnavailable):
		Write(w, Problem{Type: Type("upstream-unavailable"), Title: "Upstream Unavailable", Status: http.StatusBadGateway})
	default:
		Write(w, Problem{Type: Type("internal"), Title: "Internal Error", Status: http.StatusInternalServerError})
	}
}
