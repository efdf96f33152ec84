package libris

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Qluxzz/swedish-books/internal/cachestore"
)

type fakeFetcher struct {
	calls []string
	body  []byte
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

const sampleResponse = `{
	"head": {"vars": ["work", "title"]},
	"results": {"bindings": [
		{
			"work": {"type": "uri", "value": "https://libris.kb.se/w1#it"},
			"title": {"type": "literal", "value": "Gösta Berlings saga"},
			"genre": {"type": "uri", "value": "https://id.kb.se/marc/Novel"}
		}
	]}
}`

func newTestClient(t *testing.T, fetcher *fakeFetcher) *Client {
	t.Helper()
	cache, err := cachestore.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return NewClient("https://libris.kb.se/sparql", fetcher, cache, 1, time.Millisecond, zap.NewNop())
}

func TestRowsDecodesBindings(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte(sampleResponse)}
	client := newTestClient(t, fetcher)

	rows, err := client.Rows(context.Background(), 1923)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://libris.kb.se/w1#it", rows[0].Work.Value)
	assert.True(t, rows[0].Work.IsURI())
	assert.Equal(t, "Gösta Berlings saga", rows[0].Title.Value)
	assert.False(t, rows[0].ISBN.IsBound())
}

func TestRowsQueryURL(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte(sampleResponse)}
	client := newTestClient(t, fetcher)

	_, err := client.Rows(context.Background(), 1923)
	require.NoError(t, err)
	require.Len(t, fetcher.calls, 1)

	fetched, err := url.Parse(fetcher.calls[0])
	require.NoError(t, err)
	assert.Equal(t, "libris.kb.se", fetched.Host)
	assert.Equal(t, "/sparql", fetched.Path)

	params := fetched.Query()
	assert.Equal(t, "application/sparql-results+json", params.Get("format"))
	assert.Equal(t, "soft", params.Get("should-sponge"))

	query := params.Get("query")
	assert.Contains(t, query, "1923", "year placeholder must be substituted")
	assert.NotContains(t, query, "|YEAR|")
	for _, line := range strings.Split(query, "\n") {
		assert.False(t, strings.HasPrefix(strings.TrimSpace(line), "#"), "comment line survived: %q", line)
	}
}

func TestRowsSecondCallHitsCache(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte(sampleResponse)}
	client := newTestClient(t, fetcher)

	_, err := client.Rows(context.Background(), 1923)
	require.NoError(t, err)
	_, err = client.Rows(context.Background(), 1923)
	require.NoError(t, err)

	assert.Len(t, fetcher.calls, 1)
}

func TestRowsDistinctYearsDistinctEntries(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte(sampleResponse)}
	client := newTestClient(t, fetcher)

	_, err := client.Rows(context.Background(), 1923)
	require.NoError(t, err)
	_, err = client.Rows(context.Background(), 1924)
	require.NoError(t, err)

	assert.Len(t, fetcher.calls, 2)
}

func TestRowsGarbageBody(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte("<html>not json</html>")}
	client := newTestClient(t, fetcher)

	_, err := client.Rows(context.Background(), 1923)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode sparql results")
}
