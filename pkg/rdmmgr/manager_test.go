package rdmmgr_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hillstoneLeo/rint-data-manager/pkg/rdmmgr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rdm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewManagerDefaults(t *testing.T) {
	mgr, err := rdmmgr.NewManager(map[string]interface{}{})
	require.NoError(t, err)
	defer mgr.Destroy()

	assert.Equal(t, "database", mgr.Cfg.GetString("auth.method"))
	assert.Equal(t, ":8000", mgr.Cfg.GetString("server.addr"))
	assert.Equal(t, "/opt/dvc_storage", mgr.Cfg.GetString("storage.root"))
}

func TestNewManagerCustomLogger(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mgr, err := rdmmgr.NewManager(map[string]interface{}{"logger": logger})
	require.NoError(t, err)
	defer mgr.Destroy()
	assert.NotNil(t, mgr.Logger)

	_, err = rdmmgr.NewManager(map[string]interface{}{"config-file": 42})
	assert.Error(t, err)
}

func TestNewManagerConfigFile(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeConfig(t, fmt.Sprintf(`
server:
  addr: ":9999"
storage:
  root: %s
auth:
  method: none
`, root))

	mgr, err := rdmmgr.NewManager(map[string]interface{}{"config-file": cfgPath})
	require.NoError(t, err)
	defer mgr.Destroy()

	assert.Equal(t, ":9999", mgr.Cfg.GetString("server.addr"))
	assert.Equal(t, "none", mgr.Cfg.GetString("auth.method"))

	srv, err := mgr.RemoteServer()
	require.NoError(t, err)
	assert.NotNil(t, srv.Handler())
}

func TestRemoteServerDatabaseAuth(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, fmt.Sprintf(`
storage:
  root: %s
database:
  path: %s
auth:
  method: database
  database:
    require_admin: true
`, dir, filepath.Join(dir, "users.db")))

	mgr, err := rdmmgr.NewManager(map[string]interface{}{"config-file": cfgPath})
	require.NoError(t, err)
	defer mgr.Destroy()

	srv, err := mgr.RemoteServer()
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestRemoteServerUnrecognizedAuthMethod(t *testing.T) {
	cfgPath := writeConfig(t, fmt.Sprintf(`
storage:
  root: %s
auth:
  method: bogus
`, t.TempDir()))

	mgr, err := rdmmgr.NewManager(map[string]interface{}{"config-file": cfgPath})
	require.NoError(t, err)
	defer mgr.Destroy()

	_, err = mgr.RemoteServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized auth method")
}

func TestMissingExplicitConfigFails(t *testing.T) {
	_, err := rdmmgr.NewManager(map[string]interface{}{
		"config-file": filepath.Join(t.TempDir(), "nope.yaml"),
	})
	assert.Error(t, err)
}
