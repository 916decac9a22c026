package ascii2nc_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/geal-ai/ascii2nc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConverterConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "grid.xy")
	out := filepath.Join(dir, "grid.nc")
	require.NoError(t, os.WriteFile(in, []byte(table(10, 2, 2, -1, 2, 2, true)), 0o644))

	cfg := ascii2nc.DefaultConfig()
	cfg.NLon, cfg.NLat = 2, 2
	cfg.CellArea = true
	conv := ascii2nc.NewConverter(cfg)
	conv.History = "ascii2nc grid.xy grid.nc"

	res, err := conv.Convert(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NLon)
	assert.Equal(t, 2, res.NLat)
	assert.Equal(t, 2.0, res.Bounds.DeltaLon)
	assert.Equal(t, 8, res.Bounds.Clamped)
	assert.Equal(t, 0, res.Bounds.Wrapped)
	assert.False(t, res.Synthetic)

	ds, err := ascii2nc.ReadDataset(out)
	require.NoError(t, err)
	defer ds.Close()
	assert.Contains(t, ds.Variables(), "cell_area")
	h, _ := ds.Attribute("", "history")
	assert.Equal(t, "ascii2nc grid.xy grid.nc", h)
	lat, err := ds.Float64s("latitude_bnds")
	require.NoError(t, err)
	assert.Equal(t, []float64{-90, 0, 0, -90}, lat[:4])
}

func TestConverterSyntheticLogsWarning(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "coords.xy")
	out := filepath.Join(dir, "coords.nc")
	require.NoError(t, os.WriteFile(in, []byte(table(0.5, 1, 8, -3.5, 1, 8, false)), 0o644))

	cfg := ascii2nc.DefaultConfig()
	cfg.NLon, cfg.NLat = 8, 8
	cfg.Synthetic.Enabled = true
	cfg.Synthetic.StripeWidth = 2

	core, logs := observer.New(zapcore.DebugLevel)
	conv := ascii2nc.NewConverter(cfg)
	conv.Logger = zap.New(core)

	res, err := conv.Convert(context.Background(), in, out)
	require.NoError(t, err)
	assert.True(t, res.Synthetic)

	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	for _, msg := range []string{"load", "bounds", "write"} {
		assert.Equal(t, 1, logs.FilterMessage(msg).Len(), "debug entry %q", msg)
	}

	ds, err := ascii2nc.ReadDataset(out)
	require.NoError(t, err)
	defer ds.Close()
	vals, err := ds.Float64s("topg")
	require.NoError(t, err)
	assert.Equal(t, ascii2nc.Stripes(8, 8, 2).Elements, vals)
}

func TestConverterFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.nc")

	tests := []struct {
		name    string
		content string
		nLon    int
		nLat    int
		kind    error
	}{
		{"short table", table(0, 1, 3, 0, 1, 3, true), 3, 4, ascii2nc.ErrMalformedInput},
		{"single column of cells", table(0, 1, 1, 0, 1, 4, true), 1, 4, ascii2nc.ErrInvalidGrid},
		{"no values", table(0, 1, 2, 0, 1, 2, false), 2, 2, ascii2nc.ErrMalformedInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := filepath.Join(dir, "in.xy")
			require.NoError(t, os.WriteFile(in, []byte(tc.content), 0o644))
			cfg := ascii2nc.DefaultConfig()
			cfg.NLon, cfg.NLat = tc.nLon, tc.nLat

			_, err := ascii2nc.NewConverter(cfg).Convert(context.Background(), in, out)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
			assert.Contains(t, err.Error(), in)
			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestConverterInvalidConfig(t *testing.T) {
	cfg := ascii2nc.DefaultConfig()
	cfg.NLat = -1
	_, err := ascii2nc.NewConverter(cfg).Convert(context.Background(), "in", "out")
	assert.True(t, errors.Is(err, ascii2nc.ErrConfig), "got %v", err)
}
