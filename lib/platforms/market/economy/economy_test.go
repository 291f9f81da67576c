package economy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"limitedseller/lib/testutil"

	"github.com/stretchr/testify/require"
)

func newTestClient(t testing.TB, mux *http.ServeMux) *Client {
	res, cleanup := testutil.SetupMarket(t, mux, testutil.MarketParams{Name: "platforms/market/economy"})
	t.Cleanup(cleanup)
	return NewClient(res.Client)
}

func TestLowestAsk(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2/assets/{id}/resellers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "10" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.PathValue("id") {
		case "1":
			w.Write([]byte(`{"data": [{"price": 120, "seller": {"id": 1}}, {"price": 150}]}`))
		case "2":
			w.Write([]byte(`{"data": []}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client := newTestClient(t, mux)

	testCases := []struct {
		assetId int64
		price   int64
		ok      bool
	}{
		{assetId: 1, price: 120, ok: true},
		{assetId: 2, ok: false},
		{assetId: 3, ok: false},
	}
	for _, tc := range testCases {
		price, ok, err := client.LowestAsk(context.Background(), tc.assetId)
		require.NoError(t, err)
		require.Equal(t, tc.ok, ok, "asset %d", tc.assetId)
		require.Equal(t, tc.price, price, "asset %d", tc.assetId)
	}
}

func TestListPatchesFirstCopy(t *testing.T) {
	mux := http.NewServeMux()
	var patched atomic.Int64
	mux.HandleFunc("GET /v1/assets/55/resellable-copies", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"userAssetId": 900, "serialNumber": 3}, {"userAssetId": 901}]}`))
	})
	mux.HandleFunc("PATCH /v1/assets/55/resellable-copies/{copy}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("copy") != "900" || r.Header.Get("x-csrf-token") != "csrf" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var body setPriceRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		patched.Store(body.Price)
		w.Write([]byte(`{}`))
	})
	client := newTestClient(t, mux)

	err := client.List(context.Background(), 55, 105)
	require.NoError(t, err)
	require.Equal(t, int64(105), patched.Load())
}

func TestListFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/assets/{id}/resellable-copies", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			w.Write([]byte(`{"data": []}`))
		case "2":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.Write([]byte(`{"data": [{"userAssetId": 77}]}`))
		}
	})
	mux.HandleFunc("PATCH /v1/assets/3/resellable-copies/77", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	client := newTestClient(t, mux)

	testCases := []struct {
		assetId int64
		reason  Reason
		status  int
	}{
		{assetId: 1, reason: ReasonNoResellableCopy},
		{assetId: 2, reason: ReasonResolveFailed, status: http.StatusUnauthorized},
		{assetId: 3, reason: ReasonRemoteRejected, status: http.StatusForbidden},
	}
	for _, tc := range testCases {
		err := client.List(context.Background(), tc.assetId, 100)
		var listingErr *ListingError
		require.True(t, errors.As(err, &listingErr), "asset %d", tc.assetId)
		require.Equal(t, tc.reason, listingErr.Reason)
		require.Equal(t, tc.status, listingErr.Status)
	}
}
