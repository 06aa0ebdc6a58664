package middleware

import (
	stdhttp "net/http"
	"runtime/debug"

	jsoniter "github.com/json-iterator/go"

	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/logger"
	pnet "unievents/internal/platform/net"
)

// RecoverJSON turns a panic into the usual 500 envelope and logs the stack
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == stdhttp.ErrAbortHandler {
				panic(v)
			}
			reqID := pnet.RequestID(r.Context())
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}
			status, body := pnet.Error(perr.PanicErrf("panic recovered"), reqID)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			_ = jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(body)
		}()
		next.ServeHTTP(w, r)
	})
}
