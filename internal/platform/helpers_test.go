package platform

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeGraph routes "METHOD /path" to a handler and records every call.
type fakeGraph struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []string
	srv    *httptest.Server
}

func newFakeGraph(t *testing.T, routes map[string]http.HandlerFunc) *fakeGraph {
	t.Helper()
	fg := &fakeGraph{routes: routes}
	fg.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		fg.mu.Lock()
		fg.calls = append(fg.calls, key)
		h, ok := fg.routes[key]
		fg.mu.Unlock()
		if !ok {
			t.Errorf("unexpected request %s", key)
			http.Error(w, `{"error":{"message":"not found","code":100}}`, http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(fg.srv.Close)
	return fg
}

func (fg *fakeGraph) count(key string) int {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	n := 0
	for _, c := range fg.calls {
		if c == key {
			n++
		}
	}
	return n
}

func (fg *fakeGraph) total() int {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	return len(fg.calls)
}

func writeJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
