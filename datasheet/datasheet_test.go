package datasheet_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/hkbus-eta/config"
	"github.com/theoremus-urban-solutions/hkbus-eta/datasheet"
	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
	"github.com/theoremus-urban-solutions/hkbus-eta/internal/hkbustest"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecodeContainer(t *testing.T) {
	t.Parallel()

	raw := hkbustest.JSON(t)
	_, wantOrder := hkbustest.Routes()

	for name, data := range map[string][]byte{
		"plain": raw,
		"gzip":  gzipBytes(t, raw),
	} {
		t.Run(name, func(t *testing.T) {
			c, err := datasheet.DecodeContainer(data)
			require.NoError(t, err)

			assert.Equal(t, wantOrder, c.RouteOrder)
			assert.Equal(t, []datasheet.Date{"2024-01-01", "2024-02-10"}, c.DataSheet.Holidays)
			assert.Equal(t, []string{"K12-D010"}, c.MTRBusStopAlias["K12-U010"])
			assert.Equal(t, int64(1704067200000), c.UpdatedTime)
			assert.Equal(t, []datasheet.StopRef{{Co: hkbus.CTB, StopID: hkbustest.CTB1}}, c.DataSheet.StopMap[hkbustest.J1])

			r := c.DataSheet.RouteList[hkbustest.Route1AVia]
			assert.Equal(t, []string{hkbustest.K1, hkbustest.K6, hkbustest.K3, hkbustest.K5}, r.Stops[hkbus.KMB])
			assert.Equal(t, 2, r.ServiceTypeInt())
		})
	}
}

func TestDecodeBareSheet(t *testing.T) {
	t.Parallel()

	var wrapped map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(hkbustest.JSON(t), &wrapped))

	c, err := datasheet.DecodeContainer(wrapped["dataSheet"])
	require.NoError(t, err)
	assert.Len(t, c.RouteOrder, len(c.DataSheet.RouteList))
	assert.Empty(t, c.MTRBusStopAlias)
}

func TestDecodeEmpty(t *testing.T) {
	t.Parallel()

	_, err := datasheet.DecodeContainer([]byte(`{"dataSheet": {"routeList": {}, "stopList": {}}}`))
	require.ErrorIs(t, err, datasheet.ErrEmptyData)

	_, err = datasheet.DecodeContainer([]byte(`not json`))
	require.Error(t, err)
}

func TestIndex(t *testing.T) {
	t.Parallel()

	idx := hkbustest.Index()

	_, order := hkbustest.Routes()
	assert.Equal(t, order, idx.RouteKeys())
	assert.Equal(t,
		[]string{hkbustest.Route1AMain, hkbustest.Route1AVia, hkbustest.Route1AShort, hkbustest.Route1AInbound},
		idx.RouteKeysForNumber("1A"))
	assert.Equal(t,
		[]string{hkbustest.Route1AMain, hkbustest.Route1AVia, hkbustest.Route1AInbound},
		idx.RouteKeysByStop(hkbustest.K3))
	assert.Equal(t, []string{hkbustest.RouteGMB11, hkbustest.RouteGMB11Alt}, idx.RouteKeysByStop(hkbustest.G1))
	assert.Contains(t, idx.RouteNumbers(), "TWL")

	s, ok := idx.Stop(hkbustest.K6)
	require.True(t, ok)
	assert.Equal(t, "Stop X", s.Name.En)
	_, ok = idx.Stop("missing")
	assert.False(t, ok)
}

func TestIndexUnorderedRoutes(t *testing.T) {
	t.Parallel()

	c := hkbustest.Container()
	c.RouteOrder = []string{hkbustest.RouteHKKF, "missing", hkbustest.RouteHKKF}

	idx := datasheet.NewIndex(c)
	keys := idx.RouteKeys()
	require.Len(t, keys, len(c.DataSheet.RouteList))
	assert.Equal(t, hkbustest.RouteHKKF, keys[0])
	assert.IsIncreasing(t, keys[1:])
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	c := hkbustest.Container()
	path := filepath.Join(t.TempDir(), "nested", "datasheet.gob")
	require.NoError(t, datasheet.SerializeContainerToFile(&c, path))

	got, err := datasheet.DeserializeContainerFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, c.RouteOrder, got.RouteOrder)
	assert.Equal(t, c.DataSheet.Holidays, got.DataSheet.Holidays)
	assert.Equal(t, c.DataSheet.StopList, got.DataSheet.StopList)
	assert.Equal(t, c.DataSheet.StopMap, got.DataSheet.StopMap)
	assert.Equal(t, c.MTRBusStopAlias, got.MTRBusStopAlias)
	assert.Equal(t, c.DataSheet.RouteList[hkbustest.Route101Out].Stops, got.DataSheet.RouteList[hkbustest.Route101Out].Stops)

	_, err = datasheet.DeserializeContainerFromFile(filepath.Join(t.TempDir(), "absent.gob"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = datasheet.DeserializeContainer([]byte("garbage"))
	require.Error(t, err)
}

func TestNewIndexFromConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "data.json.gz")
	require.NoError(t, os.WriteFile(src, gzipBytes(t, hkbustest.JSON(t)), 0o644))
	cache := filepath.Join(dir, "cache", "datasheet.gob")

	cfg := config.DataSheetConfig{Name: "local", Path: src, CachePath: cache}
	idx, err := datasheet.NewIndexFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, idx.RouteKeys(), 14)
	assert.FileExists(t, cache)

	// Second load comes from the cache even once the source is gone.
	require.NoError(t, os.Remove(src))
	idx, err = datasheet.NewIndexFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, hkbustest.Route1AMain, idx.RouteKeys()[0])

	_, err = datasheet.NewIndexFromConfig(context.Background(), config.DataSheetConfig{})
	require.ErrorIs(t, err, datasheet.ErrEmptyData)
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    datasheet.Date
		wantErr bool
	}{
		{"20240101", "2024-01-01", false},
		{"2024-02-10", "2024-02-10", false},
		{" 20241225 ", "2024-12-25", false},
		{"2024/01/01", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := datasheet.NormalizeDate(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestStopRefJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(datasheet.StopRef{Co: hkbus.CTB, StopID: "001234"})
	require.NoError(t, err)
	assert.JSONEq(t, `["ctb","001234"]`, string(raw))

	var ref datasheet.StopRef
	require.Error(t, json.Unmarshal([]byte(`["ctb"]`), &ref))
}
