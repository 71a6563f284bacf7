package errors

import (
	"net/http"
	"testing"
)

func TestToStatusCode(t *testing.T) {
	cases := map[string]int{
		CodeBadRequest:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeUnavailable:  http.StatusServiceUnavailable,
		CodeInternal:     http.StatusInternalServerError,
		"whatever":       http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToStatusCode(code); got != want {
			t.Fatalf("ToStatusCode(%q) = %d, want %d", code, got, want)
		}
	}
}
