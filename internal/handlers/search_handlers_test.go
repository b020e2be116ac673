package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// Deployments without Elasticsearch keep the route but answer 503 instead of
// crashing on a nil client.
func TestSearch_UnavailableWithoutElasticsearch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/search?q=hollow", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// The guard fires before query validation, so a bare /search degrades the
	// same way.
	rec = env.do(http.MethodGet, "/search", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
