package ascii2nc_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/geal-ai/ascii2nc"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ascii2nc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := ascii2nc.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 256, cfg.NLat)
	assert.Equal(t, 512, cfg.NLon)
	assert.Equal(t, ascii2nc.DefaultVariable(), cfg.Variable)
	assert.False(t, cfg.Synthetic.Enabled)
	assert.Equal(t, ascii2nc.DefaultStripeWidth, cfg.Synthetic.StripeWidth)
	d, err := cfg.FetchTimeout()
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, d)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
n_lat: 180
n_lon: 360
variable:
  name: tas
  units: K
synthetic:
  enabled: true
cell_area: true
fetch:
  timeout: 30s
logging:
  format: console
`)
	cfg, err := ascii2nc.LoadConfig(path)
	require.NoError(t, err)

	want := ascii2nc.DefaultConfig()
	want.NLat = 180
	want.NLon = 360
	// A partial mapping replaces only the keys it names.
	want.Variable = ascii2nc.Variable{Name: "tas", Units: "K", StandardName: "bedrock_altitude"}
	want.Synthetic.Enabled = true
	want.CellArea = true
	want.Fetch.Timeout = "30s"
	want.Logging.Format = "console"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "n_lat: [1, 2"},
		{"wrong type", "n_lat: many"},
		{"zero dims", "n_lat: 0"},
		{"empty variable", "variable:\n  name: \"\""},
		{"negative stripe", "synthetic:\n  stripe_width: -1"},
		{"bad timeout", "fetch:\n  timeout: soon"},
		{"negative timeout", "fetch:\n  timeout: -1s"},
		{"negative max bytes", "fetch:\n  max_bytes: -1"},
		{"bad level", "logging:\n  level: loud"},
		{"bad format", "logging:\n  format: xml"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			_, err := ascii2nc.LoadConfig(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ascii2nc.ErrConfig), "got %v", err)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := ascii2nc.LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ascii2nc.ErrConfig), "got %v", err)
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}
