package feed

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesDavid/InReader-sub001/internal/config"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

func TestFetcher_SendsConditionalHeaders(t *testing.T) {
	var gotETag, gotModified string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotETag = r.Header.Get("If-None-Match")
		gotModified = r.Header.Get("If-Modified-Since")
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	f := NewFetcher(config.TestConfig())
	feed := &storage.Feed{
		URL:          server.URL,
		ETag:         `"abc123"`,
		LastModified: "Mon, 02 Jan 2006 15:04:05 GMT",
	}

	resp, updated, err := f.Fetch(feed)
	require.NoError(t, err)
	require.True(t, updated)
	resp.Body.Close()

	assert.Equal(t, `"abc123"`, gotETag)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", gotModified)
}

func TestFetcher_NotModified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	f := NewFetcher(config.TestConfig())
	resp, updated, err := f.Fetch(&storage.Feed{URL: server.URL})

	require.NoError(t, err)
	assert.False(t, updated)
	assert.Nil(t, resp)
}

func TestFetcher_IgnoreCacheSkipsConditionalHeaders(t *testing.T) {
	var gotETag string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotETag = r.Header.Get("If-None-Match")
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	f := NewFetcher(config.TestConfig())
	f.SetIgnoreCache(true)

	resp, updated, err := f.Fetch(&storage.Feed{URL: server.URL, ETag: `"abc123"`})
	require.NoError(t, err)
	require.True(t, updated)
	resp.Body.Close()

	assert.Empty(t, gotETag, "force refresh must not send validators")
}

func TestFetcher_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(config.TestConfig())
	_, _, err := f.Fetch(&storage.Feed{URL: server.URL})
	assert.Error(t, err)
}

func TestFetcher_UpdateFeedMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v2"`)
		w.Header().Set("Last-Modified", "Tue, 03 Jan 2006 10:00:00 GMT")
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	f := NewFetcher(config.TestConfig())
	feed := &storage.Feed{URL: server.URL}

	resp, _, err := f.Fetch(feed)
	require.NoError(t, err)
	defer resp.Body.Close()

	f.UpdateFeedMetadata(feed, resp)
	assert.Equal(t, `"v2"`, feed.ETag)
	assert.Equal(t, "Tue, 03 Jan 2006 10:00:00 GMT", feed.LastModified)
	assert.False(t, feed.LastFetched.IsZero())
}
