package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"limitedseller/lib/platforms/market/core"
	"limitedseller/lib/telemetry"
)

type MarketParams struct {
	Name string
	// defaults to 7
	UserId int64
	// defaults to "seller"
	Username string
	// defaults to "csrf"
	CsrfToken string
}

type MarketResult struct {
	Client *core.Client
	Server *httptest.Server
}

// SetupMarket serves `mux` (plus the login endpoints) on a local server and
// returns an authenticated client pointed at it.
func SetupMarket(t testing.TB, mux *http.ServeMux, params MarketParams) (MarketResult, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))

	if params.UserId == 0 {
		params.UserId = 7
	}
	if params.Username == "" {
		params.Username = "seller"
	}
	if params.CsrfToken == "" {
		params.CsrfToken = "csrf"
	}

	mux.HandleFunc("POST /v2/logout", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-csrf-token", params.CsrfToken)
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("GET /v1/users/authenticated", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id": %d, "name": %q}`, params.UserId, params.Username)
	})
	server := httptest.NewServer(mux)

	client, err := core.NewClient(core.ClientOptions{
		Endpoints: core.Single(server.URL),
		Cookie:    "cookie",
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Authenticate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	return MarketResult{Client: client, Server: server}, func() {
		server.Close()
		cleanup()
	}
}
