package locations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statusprobe/internal/config"
)

const sampleLocations = `[
	{"iata":"IAD","lat":38.94,"lon":-77.45,"cca2":"US","region":"North America","city":"Ashburn","extra":1},
	{"iata":"HKG","lat":22.30,"lon":114.17,"cca2":"HK","region":"Asia Pacific","city":"Hong Kong"}
]`

func newLocationsServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDecode(t *testing.T) {
	locs, err := Decode([]byte(sampleLocations))
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "IAD", locs[0].IATA)
	assert.Equal(t, "US", locs[0].CCA2)
	assert.Equal(t, "Ashburn", locs[0].City)

	_, err = Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestDownloader_EnsureDownloadsOnce(t *testing.T) {
	var hits int32
	srv := newLocationsServer(t, http.StatusOK, sampleLocations, &hits)
	path := filepath.Join(t.TempDir(), "locations.json")

	d := NewDownloader(srv.Client(), 5*time.Second)

	downloaded, err := d.Ensure(context.Background(), path, srv.URL)
	require.NoError(t, err)
	assert.True(t, downloaded)

	downloaded, err = d.Ensure(context.Background(), path, srv.URL)
	require.NoError(t, err)
	assert.False(t, downloaded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	locs, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, locs, 2)
}

func TestDownloader_HTTPErrorLeavesNoFile(t *testing.T) {
	srv := newLocationsServer(t, http.StatusServiceUnavailable, "", nil)
	path := filepath.Join(t.TempDir(), "locations.json")

	err := NewDownloader(srv.Client(), 5*time.Second).Download(context.Background(), srv.URL, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadTable_DownloadsWhenMissing(t *testing.T) {
	srv := newLocationsServer(t, http.StatusOK, sampleLocations, nil)
	cfg := &config.LocationsConfig{
		File:            filepath.Join(t.TempDir(), "locations.json"),
		URL:             srv.URL,
		DownloadTimeout: 5 * time.Second,
		Optional:        true,
	}

	table, err := LoadTable(context.Background(), cfg, srv.Client())
	require.NoError(t, err)

	cca2, ok := table.Lookup("IAD")
	assert.True(t, ok)
	assert.Equal(t, "US", cca2)
}

func TestLoadTable_DownloadFailureYieldsEmptyTable(t *testing.T) {
	srv := newLocationsServer(t, http.StatusNotFound, "", nil)
	cfg := &config.LocationsConfig{
		File:            filepath.Join(t.TempDir(), "locations.json"),
		URL:             srv.URL,
		DownloadTimeout: 5 * time.Second,
		Optional:        false,
	}

	table, err := LoadTable(context.Background(), cfg, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadTable_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	cfg := &config.LocationsConfig{File: path, DownloadTimeout: time.Second, Optional: false}
	_, err := LoadTable(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg.Optional = true
	table, err := LoadTable(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}
