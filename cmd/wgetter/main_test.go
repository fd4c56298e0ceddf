package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.com/slon/wgetter/fixture"
)

var lineRE = regexp.MustCompile(`^Total elapsed milliseconds for (.+): \d+\.  (Result: \d+|Failed: .+)$`)

func nopLogger(bool) (*zap.Logger, error) {
	return zap.NewNop(), nil
}

func execute(t *testing.T, args ...string) ([]string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&out, nopLogger)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	for _, line := range lines {
		require.Regexp(t, lineRE, line)
	}
	return lines, err
}

func labels(lines []string) []string {
	var names []string
	for _, line := range lines {
		names = append(names, lineRE.FindStringSubmatch(line)[1])
	}
	return names
}

func results(lines []string) []string {
	var rs []string
	for _, line := range lines {
		rs = append(rs, lineRE.FindStringSubmatch(line)[2])
	}
	return rs
}

func TestRun_SingleURL(t *testing.T) {
	fx := fixture.New(zap.NewNop())
	srv := fx.Start()
	defer srv.Close()

	lines, err := execute(t, fixture.BytesURL(srv.URL, 10, 0))
	require.NoError(t, err)

	require.Equal(t, []string{"Synchronous", "Worker pool", "Cooperative"}, labels(lines))
	require.Equal(t, []string{"Result: 20", "Result: 20", "Result: 20"}, results(lines))
	require.EqualValues(t, 6, fx.Hits())
}

func TestRun_Pools(t *testing.T) {
	srv := fixture.New(zap.NewNop()).Start()
	defer srv.Close()

	urls := []string{
		fixture.BytesURL(srv.URL, 100, 30*time.Millisecond),
		fixture.BytesURL(srv.URL, 7, 0),
		srv.URL + "/empty",
	}

	for _, pool := range []string{"pond", "ants", "workerpool"} {
		t.Run(pool, func(t *testing.T) {
			lines, err := execute(t, append([]string{"--pool", pool, "--workers", "2", "--warm"}, urls...)...)
			require.NoError(t, err)
			require.Equal(t, []string{"Result: 107", "Result: 107", "Result: 107"}, results(lines))
		})
	}
}

func TestRun_Empty(t *testing.T) {
	lines, err := execute(t)
	require.NoError(t, err)
	require.Equal(t, []string{"Result: 0", "Result: 0", "Result: 0"}, results(lines))
}

func TestRun_File(t *testing.T) {
	fx := fixture.New(zap.NewNop())
	srv := fx.Start()
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "urls.yaml")
	content := "urls:\n  - " + fixture.BytesURL(srv.URL, 5, 0) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, err := execute(t, "-f", path, fixture.BytesURL(srv.URL, 6, 0))
	require.NoError(t, err)
	require.Equal(t, []string{"Result: 11", "Result: 11", "Result: 11"}, results(lines))
}

func TestRun_Failure(t *testing.T) {
	srv := fixture.New(zap.NewNop()).Start()
	defer srv.Close()

	lines, err := execute(t, fixture.BytesURL(srv.URL, 5, 0), srv.URL+"/status/404")
	require.Error(t, err)
	require.Len(t, lines, 3)
	for _, r := range results(lines) {
		require.True(t, strings.HasPrefix(r, "Failed: "), r)
	}
	require.Contains(t, err.Error(), "Worker pool")
	require.Contains(t, err.Error(), "unexpected status 404")
}

func TestRun_Artifacts(t *testing.T) {
	srv := fixture.New(zap.NewNop()).Start()
	defer srv.Close()

	dir := t.TempDir()
	promPath := filepath.Join(dir, "wgetter.prom")
	xlsxPath := filepath.Join(dir, "wgetter.xlsx")

	_, err := execute(t, "--metrics-out", promPath, "--xlsx", xlsxPath, fixture.BytesURL(srv.URL, 3, 0))
	require.NoError(t, err)

	prom, err := os.ReadFile(promPath)
	require.NoError(t, err)
	require.Contains(t, string(prom), `wgetter_strategy_result{strategy="Cooperative"} 6`)
	require.Contains(t, string(prom), `wgetter_fetches_total{outcome="ok",strategy="Worker pool"} 2`)

	require.FileExists(t, xlsxPath)
}

func TestRun_BadPool(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out, nopLogger)
	cmd.SetArgs([]string{"--pool", "threads", "http://a"})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.ExecuteContext(context.Background()))
	require.Empty(t, out.String())
}
