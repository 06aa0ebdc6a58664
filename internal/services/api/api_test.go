package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"unievents/internal/modkit/httpkit"
	"unievents/internal/modkit/module"
	perr "unievents/internal/platform/errors"
	phttp "unievents/internal/platform/net/http"
	"unievents/internal/platform/store"
	"unievents/internal/services/api"
	evmod "unievents/internal/services/api/events/module"
)

func TestMount_AllModules(t *testing.T) {
	module.Reset()
	t.Cleanup(module.Reset)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st, err := store.Open(ctx, store.Config{Backend: store.BackendMemory}, store.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	auth := httpkit.NewPortFunc(func(tok string) (string, error) {
		if tok == "good" {
			return "u-1", nil
		}
		return "", perr.Unauthorizedf("token rejected")
	})

	r := phttp.AdaptChi(chi.NewRouter())
	mods := api.Mount(ctx, r, api.Options{Store: st, Auth: auth, Origins: []string{"https://app.example"}})
	if len(mods) != 6 {
		t.Fatalf("modules = %d", len(mods))
	}
	if _, ok := module.PortsAs[evmod.Ports]("events"); !ok {
		t.Fatal("events ports not registered")
	}

	cases := []struct {
		method, path, body, token string
		status                    int
	}{
		{http.MethodGet, "/api/v1/meta/health", "", "", http.StatusOK},
		{http.MethodGet, "/api/v1/meta/ready", "", "", http.StatusOK},
		{http.MethodGet, "/api/v1/departments", "", "", http.StatusOK},
		{http.MethodGet, "/api/v1/categories", "", "", http.StatusOK},
		{http.MethodGet, "/api/v1/events", "", "", http.StatusOK},
		{http.MethodPost, "/api/v1/browse", `{}`, "", http.StatusCreated},
		{http.MethodGet, "/api/v1/me/events", "", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/me/events", "", "good", http.StatusOK},
		{http.MethodPost, "/api/v1/categories", `{"items":[{"name":"Taller"}]}`, "good", http.StatusCreated},
		{http.MethodGet, "/debug/pprof/", "", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s %s = %d %s", tc.method, tc.path, rec.Code, rec.Body.String())
		}
	}
}
