package middleware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	perr "unievents/internal/platform/errors"
	pnet "unievents/internal/platform/net"
	"unievents/internal/platform/net/middleware"
)

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestAccessLog_PassesThroughAndFlushes(t *testing.T) {
	t.Parallel()
	var flushed bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "data: 1\n\n")
		f, ok := w.(http.Flusher)
		if !ok {
			t.Error("access log hides http.Flusher")
			return
		}
		f.Flush()
		flushed = true
	})

	rec := httptest.NewRecorder()
	middleware.AccessLog(middleware.AccessLogOptions{Slow: time.Nanosecond})(next).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	if !flushed || !rec.Flushed || rec.Body.String() != "data: 1\n\n" {
		t.Fatalf("flushed=%v recorder=%v body=%q", flushed, rec.Flushed, rec.Body.String())
	}
}

func TestAccessLog_KeepsStatus(t *testing.T) {
	t.Parallel()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "ok")
	})
	rec := httptest.NewRecorder()
	middleware.AccessLog(middleware.AccessLogOptions{})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	if rec.Code != http.StatusCreated || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

type authFunc func(*http.Request) (string, error)

func (f authFunc) Parse(r *http.Request) (string, error) { return f(r) }

func TestAuth(t *testing.T) {
	t.Parallel()

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = pnet.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	write := func(w http.ResponseWriter, status int, _ any) { w.WriteHeader(status) }

	cases := []struct {
		name   string
		port   middleware.AuthPort
		status int
		user   string
	}{
		{"nil port", nil, http.StatusNoContent, ""},
		{"accepted", authFunc(func(*http.Request) (string, error) { return "u-1", nil }), http.StatusNoContent, "u-1"},
		{"rejected", authFunc(func(*http.Request) (string, error) { return "", perr.Unauthorizedf("bad token") }), http.StatusUnauthorized, ""},
		{"foreign error", authFunc(func(*http.Request) (string, error) { return "", errors.New("x") }), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		seen = ""
		rec := httptest.NewRecorder()
		middleware.Auth(tc.port, write)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != tc.status || seen != tc.user {
			t.Fatalf("%s: status=%d user=%q", tc.name, rec.Code, seen)
		}
	}
}

func TestRecoverJSON(t *testing.T) {
	t.Parallel()
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kaboom") }),
		middleware.RequestID(), middleware.RecoverJSON)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "rid-7")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"kind":"panic"`, `"request_id":"rid-7"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body %s lacks %s", body, want)
		}
	}
	if rec.Header().Get("X-Request-ID") != "rid-7" {
		t.Fatalf("header = %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestRequestID_ReachesContext(t *testing.T) {
	t.Parallel()
	var got string
	h := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = pnet.RequestID(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got == "" || rec.Header().Get("X-Request-ID") != got {
		t.Fatalf("context id %q, header %q", got, rec.Header().Get("X-Request-ID"))
	}
}

func TestDefaults_KeepStreamsFlushable(t *testing.T) {
	t.Parallel()
	var ok bool
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, ok = w.(http.Flusher)
	}), middleware.Defaults(middleware.AccessLogOptions{})...)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !ok {
		t.Fatal("defaults hide http.Flusher")
	}
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()
	h := middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"https://app.example"}})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }))

	req := httptest.NewRequest(http.MethodOptions, "/v1/events", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch) {
		t.Fatalf("allow methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestTimeout_CancelsContext(t *testing.T) {
	t.Parallel()
	h := middleware.Timeout(20 * time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d", rec.Code)
	}
}
