package toolrunner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDispatchSuccess(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"trades":[],"total":0}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	result, err := c.Dispatch(context.Background(), ToolFilterTrades, map[string]any{"max_results": 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/mentor/filter_trades" {
		t.Errorf("expected /api/mentor/filter_trades, got %s", gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got %s", gotContentType)
	}
	if gotBody["max_results"] != float64(5) {
		t.Errorf("expected max_results 5 in payload, got %v", gotBody["max_results"])
	}
	if string(result) != `{"trades":[],"total":0}` {
		t.Errorf("expected verbatim body, got %s", result)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unknown tool must not reach the tool runner")
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	result, err := c.Dispatch(context.Background(), "get_coffee", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != `{"error":"Unknown tool: get_coffee"}` {
		t.Errorf("unexpected payload: %s", result)
	}
}

func TestDispatchRunnerError(t *testing.T) {
	t.Run("json error body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"db_error","detail":"database is locked"}`))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL})
		_, err := c.Dispatch(context.Background(), ToolFilterTrades, nil)
		if err == nil || err.Error() != "db_error: database is locked" {
			t.Errorf("expected runner error fields, got %v", err)
		}
	})

	t.Run("json error body without fields", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL})
		_, err := c.Dispatch(context.Background(), ToolFilterLosses, nil)
		if err == nil || err.Error() != "tool_error: unknown error" {
			t.Errorf("expected defaulted error fields, got %v", err)
		}
	})

	t.Run("non-json error body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("Bad Gateway"))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL})
		_, err := c.Dispatch(context.Background(), ToolGetSummaryData, map[string]any{})
		if err == nil || !strings.HasPrefix(err.Error(), "tool_http_502: Bad Gateway") {
			t.Errorf("expected tool_http_502, got %v", err)
		}
	})

	t.Run("non-json success body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>surprise</html>"))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL})
		_, err := c.Dispatch(context.Background(), ToolGetSummaryData, map[string]any{})
		if err == nil || !strings.HasPrefix(err.Error(), "tool_response_not_json:") {
			t.Errorf("expected tool_response_not_json, got %v", err)
		}
	})

	t.Run("long body is truncated to 200 bytes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(strings.Repeat("x", 500)))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL})
		_, err := c.Dispatch(context.Background(), ToolFilterTrades, nil)
		if err == nil {
			t.Fatal("expected error")
		}
		want := "tool_http_500: " + strings.Repeat("x", 200)
		if err.Error() != want {
			t.Errorf("expected truncated snippet, got %d chars: %v", len(err.Error()), err)
		}
	})
}

func TestDispatchEndpointDataFallback(t *testing.T) {
	t.Run("fallback succeeds", func(t *testing.T) {
		calls := 0
		var fallbackBody map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"payload_too_large","detail":"too many fields"}`))
				return
			}
			if err := json.NewDecoder(r.Body).Decode(&fallbackBody); err != nil {
				t.Errorf("decode fallback body: %v", err)
			}
			w.Write([]byte(`{"keys":["winRate","avgLoss"]}`))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL})
		args := map[string]any{"name": "summary", "fields": []any{"a", "b", "c"}, "max_results": 50}
		result, err := c.Dispatch(context.Background(), ToolGetEndpointData, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if calls != 2 {
			t.Errorf("expected exactly one fallback call, got %d total calls", calls)
		}
		if string(result) != `{"keys":["winRate","avgLoss"]}` {
			t.Errorf("expected fallback body, got %s", result)
		}

		want := map[string]any{"name": "summary", "keys_only": true}
		if len(fallbackBody) != len(want) || fallbackBody["name"] != "summary" || fallbackBody["keys_only"] != true {
			t.Errorf("expected minimized fallback args %v, got %v", want, fallbackBody)
		}
	})

	t.Run("fallback also fails", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"endpoint_error","detail":"still broken"}`))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL})
		_, err := c.Dispatch(context.Background(), ToolGetEndpointData, map[string]any{"name": "x"})
		if err == nil || err.Error() != "endpoint_error: still broken" {
			t.Errorf("expected fallback error fields, got %v", err)
		}
		if calls != 2 {
			t.Errorf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("no fallback for other tools", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"nope","detail":"broken"}`))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL})
		_, err := c.Dispatch(context.Background(), ToolFilterLosses, map[string]any{})
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})
}

func TestClientPathNormalization(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", PathPrefix: "api/mentor///"})
	if _, err := c.Dispatch(context.Background(), ToolGetSummaryData, map[string]any{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/mentor/get_summary_data" {
		t.Errorf("expected normalized path, got %s", gotPath)
	}
}
