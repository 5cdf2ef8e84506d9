package http

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	err := NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/1").
		Body(map[string]int{"id": 1}).
		Write(rr)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if rr.Code != http.StatusCreated || rr.Header().Get("Location") != "/api/transactions/1" {
		t.Fatalf("unexpected response %d %v", rr.Code, rr.Header())
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content type %q", rr.Header().Get("Content-Type"))
	}
	if strings.TrimSpace(rr.Body.String()) != `{"id":1}` {
		t.Fatalf("body %q", rr.Body)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		b    *JSONResponseBuilder
		code int
	}{
		{BadRequestError("bad"), http.StatusBadRequest},
		{UnprocessableEntityError("bad"), http.StatusUnprocessableEntity},
		{InternalServerError("bad"), http.StatusInternalServerError},
		{NotImplementedError("bad"), http.StatusNotImplemented},
		{ServiceUnavailableError("bad"), http.StatusServiceUnavailable},
		{TooManyRequestsError("bad"), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		if err := tt.b.Write(rr); err != nil {
			t.Fatalf("write: %v", err)
		}
		if rr.Code != tt.code || !strings.Contains(rr.Body.String(), `"error":"bad"`) {
			t.Fatalf("got %d %s, want %d", rr.Code, rr.Body, tt.code)
		}
	}
}

func TestWriteEncodingFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := NewJSONResponse().Body(math.Inf(1)).Write(rr); err == nil {
		t.Fatal("expected encoding error")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
}
