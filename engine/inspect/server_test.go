package inspect

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rezcache/engine/core"
	"github.com/spaghettifunk/rezcache/engine/resources"
	"github.com/spaghettifunk/rezcache/engine/resources/loaders"
)

func newTestServer(t *testing.T) (*httptest.Server, *resources.Loader) {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		"stone.amt": "name = stone\nshader = Builtin.MaterialShader\n",
		"brick.amt": "name = brick\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}

	metrics := core.NewMetrics()
	l := resources.NewLoader(resources.WithRoot(root), resources.WithMetrics(metrics))
	require.NoError(t, loaders.RegisterDefaults(l))
	_, err := l.Open("stone.amt")
	require.NoError(t, err)
	_, err = l.Open("brick.amt")
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(l.Cache(), WithMetrics(metrics)).Handler())
	t.Cleanup(srv.Close)
	return srv, l
}

func TestListAndGetResources(t *testing.T) {
	srv, l := newTestServer(t)

	resp, err := http.Get(srv.URL + "/resources")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var infos []ResourceInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "brick", infos[0].Name)
	assert.Equal(t, "stone", infos[1].Name)
	assert.Equal(t, "Material", infos[1].Kind)
	assert.True(t, infos[1].Loaded)

	stone, _ := l.Cache().Get("stone")
	resp2, err := http.Get(srv.URL + "/resources/stone")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var info ResourceInfo
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&info))
	assert.Equal(t, stone.ID(), info.ID)
	assert.Equal(t, stone.Directory(), info.Directory)

	resp3, err := http.Get(srv.URL + "/resources/marble")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestDumpResource(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/dump/resources/stone")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Builtin.MaterialShader")
}

func TestDeleteResource(t *testing.T) {
	srv, l := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/resources/stone", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"brick"}, l.Cache().Names())

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsAndStale(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var snap core.MetricsSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, uint64(2), snap.Loads)
	assert.Equal(t, uint64(2), snap.CacheMiss)

	resp2, err := http.Get(srv.URL + "/stale")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
