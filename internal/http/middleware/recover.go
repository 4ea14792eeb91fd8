package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/hlog"
)

// Recoverer turns a handler panic into a logged 500 with a JSON error body
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			hlog.FromRequest(r).Error().
				Interface("panic", p).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"internal error"}` + "\n"))
		}()
		next.ServeHTTP(w, r)
	})
}
