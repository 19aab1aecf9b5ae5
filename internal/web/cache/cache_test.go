package cache_test

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/testmodel"
	"github.com/conduit-lang/wirequery/internal/web/cache"
)

func query(t *testing.T, top int) *ir.Query {
	t.Helper()
	q, err := ir.NewQuery(testmodel.New().Item, ir.WithTop(top))
	require.NoError(t, err)
	return q
}

func TestGetOrDecode(t *testing.T) {
	c, err := cache.New(2)
	require.NoError(t, err)

	calls := 0
	decode := func() (*ir.Query, error) {
		calls++
		return query(t, 5), nil
	}

	first, err := c.GetOrDecode("a", decode)
	require.NoError(t, err)
	second, err := c.GetOrDecode("a", decode)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, cache.Stats{Entries: 1, Hits: 1, Misses: 1}, c.Stats())
}

func TestDecodeErrorsAreNotCached(t *testing.T) {
	c, err := cache.New(2)
	require.NoError(t, err)

	boom := errors.New("bad query")
	_, err = c.GetOrDecode("a", func() (*ir.Query, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestEviction(t *testing.T) {
	c, err := cache.New(2)
	require.NoError(t, err)

	c.Add("a", query(t, 1))
	c.Add("b", query(t, 2))
	_, _ = c.Get("a")
	c.Add("c", query(t, 3))

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)

	c.Purge()
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestDefaultSize(t *testing.T) {
	c, err := cache.New(0)
	require.NoError(t, err)
	for i := 0; i < cache.DefaultSize+10; i++ {
		c.Add(fmt.Sprintf("k%d", i), query(t, i))
	}
	assert.Equal(t, cache.DefaultSize, c.Stats().Entries)
}

func TestKey(t *testing.T) {
	a := url.Values{"$filter": {"Price gt 5"}, "$top": {"3"}, "page": {"1"}}
	b := url.Values{"$top": {"3"}, "$filter": {"Price gt 5"}}

	assert.Equal(t, cache.Key("Model.Item", a), cache.Key("model.item", b),
		"option order, non-$ parameters and type name case are ignored")
	assert.NotEqual(t, cache.Key("Model.Item", a), cache.Key("Model.Other", a))
	assert.NotEqual(t, cache.Key("Model.Item", a),
		cache.Key("Model.Item", url.Values{"$filter": {"Price gt 6"}, "$top": {"3"}}))
}

func TestConcurrentAccess(t *testing.T) {
	c, err := cache.New(8)
	require.NoError(t, err)
	q := query(t, 1)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.GetOrDecode("shared", func() (*ir.Query, error) { return q, nil })
			assert.NoError(t, err)
			assert.Same(t, q, got)
		}()
	}
	wg.Wait()
}
