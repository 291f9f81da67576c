package inventory

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"limitedseller/lib/platforms/market/core"
	"limitedseller/lib/testutil"

	"github.com/stretchr/testify/require"
)

func newAuthenticatedClient(t testing.TB, mux *http.ServeMux) *Client {
	res, cleanup := testutil.SetupMarket(t, mux, testutil.MarketParams{Name: "platforms/market/inventory"})
	t.Cleanup(cleanup)
	return NewClient(res.Client)
}

func TestClientFetch(t *testing.T) {
	mux := http.NewServeMux()
	var queries []string
	mux.HandleFunc("GET /v2/users/7/inventory/13", func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		require.Equal(t, "100", r.URL.Query().Get("limit"))
		require.Equal(t, "Asc", r.URL.Query().Get("sortOrder"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			w.Write([]byte(`{
				"data": [
					{"assetId": 10, "name": "Sparkle Time Fedora", "assetDetails": {"isLimited": true, "isLimitedUnique": false}},
					{"assetId": 11, "name": "Plain Shirt", "assetDetails": {"isLimited": false, "isLimitedUnique": false}}
				],
				"nextPageCursor": "page2"
			}`))
		case "page2":
			w.Write([]byte(`{
				"data": [
					{"assetId": 12, "name": "UGC Hat", "assetDetails": {"isLimited": false, "isLimitedUnique": true}},
					{"assetId": 13, "name": "Gear"}
				],
				"nextPageCursor": null
			}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	client := newAuthenticatedClient(t, mux)

	items, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Item{
		{AssetId: 10, Name: "Sparkle Time Fedora", IsLimited: true},
		{AssetId: 12, Name: "UGC Hat", IsLimitedUnique: true},
	}, items)
	require.Len(t, queries, 2)
}

func TestClientFetchStopsOnNonSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2/users/7/inventory/13", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{"data": [{"assetId": 1, "name": "a", "assetDetails": {"isLimited": true}}], "nextPageCursor": "next"}`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors": [{"code": 0, "message": "TooManyRequests"}]}`))
	})
	client := newAuthenticatedClient(t, mux)

	items, err := client.Fetch(context.Background())
	require.Len(t, items, 1)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusTooManyRequests, statusErr.Status)
}

func TestFetchPageRequiresSession(t *testing.T) {
	c, err := core.NewClient(core.ClientOptions{Endpoints: core.Single("http://127.0.0.1:1"), Cookie: "cookie"})
	require.NoError(t, err)

	_, err = NewClient(c).FetchPage(context.Background(), "")
	require.Error(t, err)
}
