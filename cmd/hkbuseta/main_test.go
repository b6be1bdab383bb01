package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/hkbus-eta/favourite"
	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
	"github.com/theoremus-urban-solutions/hkbus-eta/internal/hkbustest"
	"github.com/theoremus-urban-solutions/hkbus-eta/store"
)

type testEnv struct {
	dir    string
	config string
	db     string
}

func newEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	sheet := filepath.Join(dir, "sheet.json")
	require.NoError(t, os.WriteFile(sheet, hkbustest.JSON(t), 0o600))

	env := testEnv{dir: dir, config: filepath.Join(dir, "config.yml"), db: filepath.Join(dir, "fav.db")}
	cfg := fmt.Sprintf(`dataSheet:
  path: %s
store:
  path: %s
widget:
  language: en
  compress: false
  workers: 2
logging:
  level: error
`, sheet, env.db)
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o600))
	return env
}

func run(t *testing.T, env testEnv, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestStopsCommand(t *testing.T) {
	env := newEnv(t)

	out, err := run(t, env, "stops", "--route", "1A")
	require.NoError(t, err)
	assert.Contains(t, out, hkbustest.K6)
	assert.Contains(t, out, "0,1,2")
	assert.Contains(t, out, "Stop X")

	out, err = run(t, env, "--lang", "zh", "stops", "--route", "11", "--co", "gmb", "--gmb-region", "kln")
	require.NoError(t, err)
	assert.Contains(t, out, "彩雲 (豐澤樓)")

	_, err = run(t, env, "stops", "--route", "404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no branches match")
}

func TestResolveCommand(t *testing.T) {
	env := newEnv(t)

	out, err := run(t, env, "resolve", "--route-key", hkbustest.Route1AMain, "--stop", hkbustest.K1,
		"--mode", "closest", "--lat", "22.3016", "--lng", "114.1706")
	require.NoError(t, err)
	assert.Contains(t, out, "mode:  CLOSEST")
	assert.Contains(t, out, "stop:  3. Stop X ("+hkbustest.K6+")")
	assert.Contains(t, out, "route: 1A 201")
	assert.Contains(t, out, "dest:  To Choi Wan")

	out, err = run(t, env, "--lang", "zh", "resolve", "--route-key", hkbustest.Route1AMain, "--stop", hkbustest.K3)
	require.NoError(t, err)
	assert.Contains(t, out, "stop:  4. 丙站")
	assert.Contains(t, out, "dest:  往彩雲")

	_, err = run(t, env, "resolve", "--route-key", hkbustest.Route1AMain, "--stop", hkbustest.G1)
	require.ErrorIs(t, err, favourite.ErrNotOnRoute)

	_, err = run(t, env, "--lang", "fr", "resolve", "--route-key", hkbustest.Route1AMain, "--stop", hkbustest.K1)
	require.Error(t, err)
}

func TestPrecomputeCommand(t *testing.T) {
	env := newEnv(t)
	routes, _ := hkbustest.Routes()
	stops := hkbustest.Stops()

	db, err := store.Open(env.db)
	require.NoError(t, err)
	_, err = db.AddFavourite(favourite.RouteStop{
		StopID: hkbustest.K3, Co: hkbus.KMB, Index: 4, Stop: stops[hkbustest.K3],
		Route: routes[hkbustest.Route1AMain], Mode: favourite.ModeFixed,
	})
	require.NoError(t, err)
	_, err = db.AddFavourite(favourite.RouteStop{
		StopID: "FERRYTC", Co: hkbus.HKKF, Index: 2, Stop: stops["FERRYTC"],
		Route: routes[hkbustest.RouteHKKF], Mode: favourite.ModeFixed,
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	outDir := filepath.Join(env.dir, "out")
	out, err := run(t, env, "precompute", "--output", outDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 favourites failed")
	assert.Contains(t, out, "updated")
	assert.Contains(t, out, "stop not on route")
	assert.FileExists(t, filepath.Join(outDir, "1.json"))
	assert.NoFileExists(t, filepath.Join(outDir, "2.json"))

	out, _ = run(t, env, "precompute")
	assert.Contains(t, out, "unchanged")

	db, err = store.Open(env.db)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	snap, err := db.Snapshot(1)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Fingerprint)
	_, err = db.Snapshot(2)
	require.ErrorIs(t, err, store.ErrNotFound)
}
