package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/textsearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "cosmetic dentist in Mayfair", q.Get("query"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Empty(t, q.Get("pagetoken"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TextSearchResponse{
			Status: StatusOK,
			Results: []Place{{
				PlaceID:          "ChIJ1",
				Name:             "Mayfair Smile Studio",
				FormattedAddress: "1 Curzon St, London",
				Rating:           4.9,
				UserRatingsTotal: 312,
			}},
			NextPageToken: "token-2",
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{Query: "cosmetic dentist in Mayfair", Language: "en"})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "ChIJ1", resp.Results[0].PlaceID)
	assert.Equal(t, "Mayfair Smile Studio", resp.Results[0].Name)
	assert.InDelta(t, 4.9, resp.Results[0].Rating, 0.001)
	assert.Equal(t, 312, resp.Results[0].UserRatingsTotal)
	assert.Equal(t, "token-2", resp.NextPageToken)
}

func TestTextSearch_PageTokenOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "token-2", q.Get("pagetoken"))
		assert.Equal(t, "test-key", q.Get("key"))
		assert.False(t, q.Has("query"))
		assert.False(t, q.Has("language"))
		_ = json.NewEncoder(w).Encode(TextSearchResponse{Status: StatusOK})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), TextSearchRequest{Query: "ignored", Language: "en", PageToken: "token-2"})
	require.NoError(t, err)
}

func TestTextSearch_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(TextSearchResponse{Status: StatusZeroResults})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{Query: "dentist in Nowhere"})

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestTextSearch_APIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(TextSearchResponse{Status: "REQUEST_DENIED", ErrorMessage: "The provided API key is invalid."})
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), TextSearchRequest{Query: "dentist"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestTextSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), TextSearchRequest{Query: "dentist"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.True(t, resilience.IsTransient(err))
}

func TestTextSearch_MissingKey(t *testing.T) {
	client := NewClient("")
	_, err := client.TextSearch(context.Background(), TextSearchRequest{Query: "dentist"})
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestTextSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(TextSearchResponse{Status: StatusOK})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.TextSearch(ctx, TextSearchRequest{Query: "dentist"})
	require.Error(t, err)
}

func TestPlaceDetails_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "ChIJ1", q.Get("place_id"))
		assert.Equal(t, detailFields, q.Get("fields"))
		assert.Equal(t, "test-key", q.Get("key"))

		_, _ = w.Write([]byte(`{"status":"OK","result":{"name":"Mayfair Smile Studio","website":"https://mayfairsmile.co.uk","formatted_phone_number":"020 7946 0000","rating":4.9,"user_ratings_total":312}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	d, err := client.PlaceDetails(context.Background(), "ChIJ1")

	require.NoError(t, err)
	assert.Equal(t, "https://mayfairsmile.co.uk", d.Website)
	assert.Equal(t, "020 7946 0000", d.FormattedPhoneNumber)
	assert.Equal(t, 312, d.UserRatingsTotal)
}

func TestPlaceDetails_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"NOT_FOUND"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.PlaceDetails(context.Background(), "gone")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}
