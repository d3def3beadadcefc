package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCallbackHandler(t *testing.T) {
	t.Run("captures the redirect URL", func(t *testing.T) {
		handler := NewCallbackHandler("/callback", "state123")

		req := httptest.NewRequest("GET", "/callback?code=abc&state=state123", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if err := result.Error(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(result.RedirectURL, "code=abc") {
			t.Errorf("expected code in redirect URL, got %s", result.RedirectURL)
		}
	})

	t.Run("rejects a mismatched state", func(t *testing.T) {
		handler := NewCallbackHandler("/callback", "state123")

		req := httptest.NewRequest("GET", "/callback?code=abc&state=wrong", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected state error")
		}
	})

	t.Run("rejects a denied authorization", func(t *testing.T) {
		handler := NewCallbackHandler("/callback", "state123")

		req := httptest.NewRequest("GET", "/callback?error=access_denied&state=state123", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected authorization error")
		}
	})

	t.Run("processes only one callback", func(t *testing.T) {
		handler := NewCallbackHandler("/callback", "state123")

		first := httptest.NewRequest("GET", "/callback?code=abc&state=state123", nil)
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest("GET", "/callback?code=def&state=state123", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", rec.Code)
		}
	})

	t.Run("defaults the callback path", func(t *testing.T) {
		handler := NewCallbackHandler("", "state123")
		routes := handler.Routes()
		if len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("unexpected routes: %v", routes)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("filters by method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("GET", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("applies middleware in order", func(t *testing.T) {
		var calls []string

		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					calls = append(calls, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle("GET", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ping", nil))

		if len(calls) != 3 || calls[0] != "first" || calls[1] != "second" || calls[2] != "handler" {
			t.Errorf("unexpected call order: %v", calls)
		}
	})
}
