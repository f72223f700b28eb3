package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statusprobe/internal/config"
	"statusprobe/internal/core/model"
)

func serverPort(t *testing.T, srv *httptest.Server) int {
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}

func testConfig(t *testing.T, dir string, ports []int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Probe.Ports = ports
	cfg.Probe.Concurrency = 4
	cfg.Probe.AttemptTimeout = 500 * time.Millisecond
	cfg.Probe.TotalTimeout = 2 * time.Second
	cfg.Probe.Quiet = true
	cfg.Input.File = filepath.Join(dir, "ips-v4.txt")
	cfg.Locations.File = filepath.Join(dir, "locations.json")
	cfg.Locations.URL = ""
	cfg.Output.CsvFile = filepath.Join(dir, "output.csv")
	cfg.Output.EnvironmentFile = filepath.Join(dir, "is_cloudflare.txt")
	cfg.Output.LicenseFile = filepath.Join(dir, "is_jetbrains_license_server.txt")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestProbeRunner_EndToEnd(t *testing.T) {
	cloudflare := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.Header().Set("CF-RAY", "8a1b2c3d4e5f6789-IAD")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer cloudflare.Close()

	license := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "nginx")
		http.Redirect(w, r, "https://account.jetbrains.com/fls-auth?buildNumber=1", http.StatusFound)
	}))
	defer license.Close()

	dir := t.TempDir()
	cfPort, licPort := serverPort(t, cloudflare), serverPort(t, license)
	cfg := testConfig(t, dir, []int{cfPort, licPort})
	cfg.Output.ExcelFile = filepath.Join(dir, "output.xlsx")

	// locations.json 不存在，运行时从下载地址获取
	var downloads atomic.Int32
	locSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"iata":"IAD","lat":0,"lon":0,"cca2":"US","region":"","city":""}]`))
	}))
	defer locSrv.Close()
	cfg.Locations.URL = locSrv.URL

	// 127.0.0.1 与两个端口组合；IPv6、非法地址与注释行被忽略
	require.NoError(t, os.WriteFile(cfg.Input.File, []byte("# target list\n127.0.0.1\n::1\n1.2.3.256\n\n"), 0644))

	r := NewProbeRunner(cfg, WithRand(rand.New(rand.NewPCG(1, 1))), WithDownloadClient(locSrv.Client()))
	task := model.NewTask(model.TaskTypeHttpProbe, "")

	results, err := r.Run(context.Background(), task)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.TaskStatusCompleted, results[0].Status)

	summary, ok := results[0].Result.(*model.ProbeSummary)
	require.True(t, ok)
	assert.Equal(t, 1, summary.Targets)
	assert.Equal(t, 2, summary.Probes)
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.EnvironmentCount)
	assert.Equal(t, 1, summary.LicenseCount)
	assert.LessOrEqual(t, summary.PeakInFlight, int64(4))
	assert.Contains(t, summary.OutputFiles, cfg.Output.ExcelFile)
	assert.Equal(t, int32(1), downloads.Load())
	assert.FileExists(t, cfg.Locations.File)

	f, err := os.Open(cfg.Output.CsvFile)
	require.NoError(t, err)
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	require.NoError(t, err)
	require.Len(t, rows, 4) // 表头 + 2 条记录 + 说明行
	assert.Equal(t, model.RecordHeaders(), rows[0])
	assert.Equal(t, cfg.Output.MarkerNote, rows[3][5])

	var sawCloudflare bool
	for _, row := range rows[1:3] {
		assert.Equal(t, "127.0.0.1", row[0])
		if row[2] == "403" {
			sawCloudflare = true
			assert.Equal(t, []string{"IAD", "US", "cloudflare"}, row[3:])
		} else {
			assert.Equal(t, "302", row[2])
		}
	}
	assert.True(t, sawCloudflare)

	env, err := os.ReadFile(cfg.Output.EnvironmentFile)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", string(env))

	lic, err := os.ReadFile(cfg.Output.LicenseFile)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:"+strconv.Itoa(licPort)+"\n", string(lic))

	_, err = os.Stat(cfg.Output.ExcelFile)
	assert.NoError(t, err)
}

func TestProbeRunner_InlineTargetsAndFailures(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedPort := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	dir := t.TempDir()
	cfg := testConfig(t, dir, []int{closedPort})
	cfg.Probe.MaxAttempts = 2

	// 旧的环境文件在没有命中时应被删除
	require.NoError(t, os.WriteFile(cfg.Output.EnvironmentFile, []byte("stale"), 0644))

	task := model.NewTask(model.TaskTypeHttpProbe, "")
	task.Targets = []string{"127.0.0.1"}

	results, err := NewProbeRunner(cfg).Run(context.Background(), task)
	require.NoError(t, err)

	summary := results[0].Result.(*model.ProbeSummary)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Records)

	f, err := os.Open(cfg.Output.CsvFile)
	require.NoError(t, err)
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	require.NoError(t, err)
	assert.Len(t, rows, 1) // 只有表头，没有说明行

	_, err = os.Stat(cfg.Output.EnvironmentFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.Output.LicenseFile)
	assert.True(t, os.IsNotExist(err))
}

func TestProbeRunner_InputErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, []int{80})

	// 文件不存在
	_, err := NewProbeRunner(cfg).Run(context.Background(), model.NewTask(model.TaskTypeHttpProbe, ""))
	var inErr *model.InputError
	require.True(t, errors.As(err, &inErr))
	assert.ErrorIs(t, err, model.ErrInputUnreadable)

	// 只有不支持的地址
	require.NoError(t, os.WriteFile(cfg.Input.File, []byte("\n::1\n2001:db8::/32\n"), 0644))
	_, err = NewProbeRunner(cfg).Run(context.Background(), model.NewTask(model.TaskTypeHttpProbe, ""))
	require.True(t, errors.As(err, &inErr))
	assert.ErrorIs(t, err, model.ErrNoTargets)
	assert.Equal(t, cfg.Input.File, inErr.Path)

	// 输入错误发生在探测之前，不产生 CSV
	_, statErr := os.Stat(cfg.Output.CsvFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProbeRunner_InvalidPortRange(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, []int{80})

	task := model.NewTask(model.TaskTypeHttpProbe, "")
	task.Targets = []string{"127.0.0.1"}
	task.PortRange = "abc"

	_, err := NewProbeRunner(cfg).Run(context.Background(), task)
	assert.Error(t, err)
}
