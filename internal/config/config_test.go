package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "Fresco_Retailerr.xlsx"), c.DataPath)
	assert.Equal(t, 1, c.SheetIndex)
	assert.Equal(t, filepath.Join("model", "Final_Model.yaml"), c.ModelPath)
	assert.Equal(t, ":8501", c.ServerAddr)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, c.CORSOrigins)
	assert.Equal(t, 4, c.DatasetCacheSize)
	assert.Equal(t, 5, c.HeadRows)
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("data_path: orders.csv\nmax_rows: 100\nserver_addr: \":9000\"\n"), 0o644))
	t.Setenv("RETURNLENS_SERVER_ADDR", ":7000")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", c.DataPath)
	assert.Equal(t, 100, c.MaxRows)
	assert.Equal(t, ":7000", c.ServerAddr, "env overrides file")
}

func TestLoadMalformed(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("data_path: [unterminated\n"), 0o644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	require.NoError(t, err)
	c.ModelPath = "custom.json"
	c.ChartWidth = 800
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".returnlens", "config.yaml"))
	require.NoError(t, err)

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "custom.json", again.ModelPath)
	assert.Equal(t, 800, again.ChartWidth)
}

func TestDefaultsIgnoreEnv(t *testing.T) {
	t.Setenv("RETURNLENS_SERVER_ADDR", ":7000")
	c := Defaults()
	assert.Equal(t, ":8501", c.ServerAddr)
	assert.Equal(t, "exports", c.ExportDir)
}
