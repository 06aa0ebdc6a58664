package httpkit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"unievents/internal/core/live"
	"unievents/internal/modkit/httpkit"
	perrs "unievents/internal/platform/errors"
	phttp "unievents/internal/platform/net/http"
)

func serve(r httpkit.Router, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, req)
	return rec
}

func bearer(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func TestJWT(t *testing.T) {
	t.Parallel()
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer   abc  ", "abc", true},
		{"BEARER x.y.z", "x.y.z", true},
		{"", "", false},
		{"Bearer", "", false},
		{"Bearer    ", "", false},
		{"Basic abc", "", false},
		{"Bearerabc", "", false},
	}
	for _, tc := range cases {
		got, err := httpkit.JWT(bearer("/", tc.header))
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("%q: got %q err %v", tc.header, got, err)
		}
		if err != nil && !perrs.IsCode(err, perrs.ErrorCodeUnauthorized) {
			t.Fatalf("%q: code %v", tc.header, perrs.CodeOf(err))
		}
	}
}

func TestProtected(t *testing.T) {
	t.Parallel()
	port := httpkit.NewPortFunc(func(tok string) (string, error) {
		switch tok {
		case "good":
			return "u-1", nil
		case "expired":
			return "", perrs.Unauthorizedf("token has expired")
		}
		return "", errors.New("bad signature")
	})

	r := phttp.AdaptChi(chi.NewRouter())
	httpkit.Protected(r, port, func(pr httpkit.Router) {
		pr.Get("/me", httpkit.Call(func(req *http.Request) (any, error) { return httpkit.User(req) }))
	})
	r.Get("/anon", httpkit.Call(func(req *http.Request) (any, error) { return httpkit.User(req) }))

	cases := []struct {
		path, auth string
		status     int
		want       string
	}{
		{"/me", "Bearer good", http.StatusOK, `"u-1"`},
		{"/me", "Bearer expired", http.StatusUnauthorized, "token has expired"},
		{"/me", "Bearer forged", http.StatusUnauthorized, "invalid bearer token"},
		{"/me", "", http.StatusUnauthorized, "missing bearer token"},
		{"/anon", "Bearer good", http.StatusUnauthorized, `"kind":"not_signed_in"`},
	}
	for _, tc := range cases {
		rec := serve(r, bearer(tc.path, tc.auth))
		if rec.Code != tc.status || !strings.Contains(rec.Body.String(), tc.want) {
			t.Fatalf("%s %q = %d %s", tc.path, tc.auth, rec.Code, rec.Body.String())
		}
	}

	if _, err := (&httpkit.Port{}).Parse(bearer("/", "Bearer x")); !perrs.IsCode(err, perrs.ErrorCodeUnauthorized) {
		t.Fatalf("nil parser = %v", err)
	}
}

func TestMountAPI_OneShotAndLive(t *testing.T) {
	t.Parallel()
	r := phttp.AdaptChi(chi.NewRouter())
	httpkit.MountAPIV1(r, httpkit.CommonStack("https://app.example"), func(api httpkit.Router) {
		httpkit.OneShot(api, 20*time.Millisecond, func(g httpkit.Router) {
			g.Get("/slow", func(_ http.ResponseWriter, req *http.Request) { <-req.Context().Done() })
		})
		api.Get("/live", httpkit.Live(func(*http.Request) (<-chan live.Update[int], error) {
			ch := make(chan live.Update[int], 2)
			ch <- live.Update[int]{Value: 1}
			ch <- live.Update[int]{Value: 2}
			close(ch)
			return ch, nil
		}))
		api.Get("/live-fail", httpkit.LiveValues(func(*http.Request) (<-chan bool, error) {
			return nil, perrs.InvalidArgf("event id is required")
		}))
	})

	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/slow", nil)); rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("slow = %d", rec.Code)
	}
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/live", nil))
	if rec.Header().Get("Content-Type") != "text/event-stream" || strings.Count(rec.Body.String(), "event: update") != 2 {
		t.Fatalf("live = %q", rec.Body.String())
	}
	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/live-fail", nil)); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("live-fail = %d", rec.Code)
	}

	pre := httptest.NewRequest(http.MethodOptions, "/api/v1/live", nil)
	pre.Header.Set("Origin", "https://app.example")
	pre.Header.Set("Access-Control-Request-Method", http.MethodGet)
	if rec := serve(r, pre); rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("preflight headers = %v", rec.Header())
	}
}

func TestDeadline_DefaultsWhenZero(t *testing.T) {
	t.Parallel()
	var deadline time.Time
	h := httpkit.Deadline(0)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deadline, _ = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	if d := time.Until(deadline); d < 20*time.Second || d > httpkit.DefaultDeadline {
		t.Fatalf("deadline in %v", d)
	}
}
