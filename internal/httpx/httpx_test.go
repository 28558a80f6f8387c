package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_FillsDefaultHeaders(t *testing.T) {
	t.Parallel()

	// Arrange: a server echoing the headers it saw
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(2 * time.Second)
	c.Headers = map[string]string{"Accept": "application/json"}

	// Act
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	// Assert
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Equal(t, DefaultUserAgent, gotUA)
	require.Equal(t, "application/json", gotAccept)
}

func TestClient_KeepsExplicitHeaders(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")
	res, err := New(time.Second).Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, "custom", gotUA)
}
