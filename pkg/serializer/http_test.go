package serializer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondJSON(rec, http.StatusOK, testDoc{Name: "system_info", Value: 1})

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var result testDoc
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Body is not JSON: %v", err)
	}
	if result.Name != "system_info" {
		t.Errorf("Unexpected body: %+v", result)
	}
}

func TestRespondJSON_EncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()

	// A channel cannot be encoded; the handler must fall back to a 500
	// instead of a partial body.
	RespondJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestRespondRawJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondRawJSON(rec, http.StatusOK, []byte(`{"error":"Unknown collector: x"}`))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"Unknown collector: x"}` {
		t.Errorf("Raw payload must pass through unmodified, got %q", got)
	}
}
