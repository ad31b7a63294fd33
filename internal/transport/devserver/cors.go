package devserver

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// corsMaxAge lets a browser reuse a preflight answer for ten minutes.
const corsMaxAge = "600"

// corsPolicy opens the emulator to browser clients on any origin. Every
// response, errors included, carries the allow headers. A preflight is
// answered here with the methods routed for its path and never reaches a
// handler.
type corsPolicy struct {
	// path -> "GET, OPTIONS"
	methods map[string]string
}

func newCORSPolicy() *corsPolicy {
	return &corsPolicy{methods: make(map[string]string)}
}

// learn records the methods served by each route. Call it after all routes
// are registered and before the router serves requests.
func (c *corsPolicy) learn(routes chi.Routes) error {
	byPath := make(map[string][]string)
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		byPath[route] = append(byPath[route], method)
		return nil
	})
	if err != nil {
		return err
	}

	for path, methods := range byPath {
		sort.Strings(methods)
		c.methods[path] = strings.Join(append(methods, http.MethodOptions), ", ")
	}
	return nil
}

func (c *corsPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		methods, ok := c.methods[r.URL.Path]
		if !ok {
			writeMsg(w, http.StatusNotFound, "not found")
			return
		}
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Max-Age", corsMaxAge)
		w.WriteHeader(http.StatusNoContent)
	})
}
