package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://example.com</link>
    <item>
      <title>First Post</title>
      <link>https://example.com/first</link>
      <guid>post-1</guid>
      <description>The first abstract</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Second Post</title>
      <link>https://example.com/second</link>
      <description>The second abstract</description>
      <pubDate>Tue, 03 Jan 2006 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestParser_Parse(t *testing.T) {
	p := NewParser()

	result, err := p.Parse(strings.NewReader(sampleRSS), "feed-1")
	require.NoError(t, err)

	assert.Equal(t, "Example Blog", result.Title)
	require.Len(t, result.Entries, 2)

	first := result.Entries[0]
	assert.Equal(t, "feed-1", first.FeedID)
	assert.Equal(t, "First Post", first.Title)
	assert.Equal(t, "https://example.com/first", first.Link)
	assert.Equal(t, "post-1", first.GUID)
	assert.Equal(t, "The first abstract", first.RSSAbstract)
	assert.Equal(t, time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), first.PublishDate.UTC())
}

func TestParser_DeterministicIDs(t *testing.T) {
	p := NewParser()

	one, err := p.Parse(strings.NewReader(sampleRSS), "feed-1")
	require.NoError(t, err)
	two, err := p.Parse(strings.NewReader(sampleRSS), "feed-1")
	require.NoError(t, err)

	assert.Equal(t, one.Entries[0].ID, two.Entries[0].ID,
		"same GUID maps to the same ID across fetches")
	assert.NotEqual(t, one.Entries[0].ID, one.Entries[1].ID)
}

func TestParser_GUIDFallsBackToLink(t *testing.T) {
	p := NewParser()

	result, err := p.Parse(strings.NewReader(sampleRSS), "feed-1")
	require.NoError(t, err)

	// Second item carries no GUID; its ID is derived from the link and is
	// still stable.
	again, err := p.Parse(strings.NewReader(sampleRSS), "feed-1")
	require.NoError(t, err)
	assert.Equal(t, result.Entries[1].ID, again.Entries[1].ID)
}

func TestParser_IDsScopedByFeed(t *testing.T) {
	p := NewParser()

	a, err := p.Parse(strings.NewReader(sampleRSS), "feed-a")
	require.NoError(t, err)
	b, err := p.Parse(strings.NewReader(sampleRSS), "feed-b")
	require.NoError(t, err)

	assert.NotEqual(t, a.Entries[0].ID, b.Entries[0].ID,
		"two feeds carrying the same GUID stay distinct")
}

func TestParser_InvalidDocument(t *testing.T) {
	p := NewParser()

	_, err := p.Parse(strings.NewReader("this is not a feed"), "feed-1")
	assert.Error(t, err)
}
