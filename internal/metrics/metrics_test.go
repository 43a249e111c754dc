package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorCountsFetchOutcomes(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.FetchDone("ok")
	c.FetchDone("ok")
	c.FetchDone("failed")

	require.Equal(t, float64(2), testutil.ToFloat64(c.fetches.WithLabelValues("ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.fetches.WithLabelValues("failed")))
}

func TestCollectorCountsRecordOutcomes(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.RecordDone("club", "persisted")
	c.RecordDone("club", "dropped")
	c.RecordDone("player", "persisted")

	require.Equal(t, float64(1), testutil.ToFloat64(c.records.WithLabelValues("club", "persisted")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.records.WithLabelValues("club", "dropped")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.records.WithLabelValues("player", "persisted")))
}

func TestServerRoutes(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.FetchDone("ok")
	srv := httptest.NewServer(NewServer("", c).Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "fbcrawl_fetches_total")
}
