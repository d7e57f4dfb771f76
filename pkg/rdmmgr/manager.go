// Package rdmmgr wires configuration into the components of the remote
// storage endpoint. The manager owns a private viper instance and a
// logrus logger; configuration is read once at startup and treated as
// immutable for the process lifetime.
package rdmmgr

import (
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/hillstoneLeo/rint-data-manager/pkg/auth"
	"github.com/hillstoneLeo/rint-data-manager/pkg/rdm"
	"github.com/hillstoneLeo/rint-data-manager/pkg/remote"
	"github.com/hillstoneLeo/rint-data-manager/pkg/storage"
	"github.com/hillstoneLeo/rint-data-manager/pkg/userdb"
)

type Manager struct {
	Cfg    *viper.Viper
	Logger rdm.Logger

	users *userdb.Store
}

func NewManager(userCfg map[string]interface{}) (*Manager, error) {
	var err error
	mgr := &Manager{}

	if cfgPathRaw, ok := userCfg["config-file"]; ok {
		if cfgPath, ok := cfgPathRaw.(string); ok {
			err = mgr.initConfig(&cfgPath)
		} else {
			return nil, errors.New("option 'config-file' must be of type string")
		}
	} else {
		err = mgr.initConfig(nil)
	}
	if err != nil {
		return nil, err
	}

	if loggerRaw, ok := userCfg["logger"]; ok {
		if logger, ok := loggerRaw.(rdm.Logger); ok {
			mgr.Logger = logger
		} else {
			return nil, errors.New("option 'logger' must satisfy rdm.Logger")
		}
	} else {
		mgr.Logger = logrus.New()
	}

	return mgr, nil
}

// Destroy releases resources held by the manager.
func (mgr *Manager) Destroy() {
	if mgr.users != nil {
		mgr.users.Close()
		mgr.users = nil
	}
}

// UserStore opens the user database on first use and caches it.
func (mgr *Manager) UserStore() (*userdb.Store, error) {
	if mgr.users != nil {
		return mgr.users, nil
	}
	store, err := userdb.Open(
		mgr.Logger.WithField("module", "userdb"),
		mgr.Cfg.GetString("database.path"))
	if err != nil {
		return nil, err
	}
	mgr.users = store
	return store, nil
}

// RemoteServer assembles the authenticator, path resolver, object store
// and protocol handler from configuration. The storage root must exist
// and be writable before any traffic is served.
func (mgr *Manager) RemoteServer() (*remote.Server, error) {
	root := mgr.Cfg.GetString("storage.root")
	if err := storage.EnsureTree(root); err != nil {
		return nil, err
	}
	if err := storage.CheckWritable(root); err != nil {
		return nil, err
	}

	resolver, err := storage.NewResolver(root)
	if err != nil {
		return nil, err
	}

	authn, err := mgr.initAuthenticator()
	if err != nil {
		return nil, err
	}

	store := storage.NewDiskStore(mgr.Logger.WithField("module", "storage"))

	return remote.NewServer(
		mgr.Logger.WithField("module", "remote"),
		mgr.serverConfig(),
		authn,
		resolver,
		store,
	), nil
}

// initAuthenticator builds the single active auth method. Dispatch
// happens once here; per-request calls go through the interface.
func (mgr *Manager) initAuthenticator() (rdm.Authenticator, error) {
	method := mgr.Cfg.GetString("auth.method")
	switch method {
	case "none":
		return auth.NewNoneAuth(mgr.Logger.WithField("module", "auth.none")), nil
	case "basic":
		return auth.NewBasicAuth(
			mgr.Logger.WithField("module", "auth.basic"),
			mgr.Cfg.Sub("auth.basic"))
	case "custom":
		return auth.NewCustomAuth(
			mgr.Logger.WithField("module", "auth.custom"),
			mgr.Cfg.Sub("auth.custom"))
	case "database":
		users, err := mgr.UserStore()
		if err != nil {
			return nil, err
		}
		return auth.NewDatabaseAuth(
			mgr.Logger.WithField("module", "auth.database"),
			mgr.Cfg.Sub("auth.database"),
			users), nil
	default:
		return nil, errors.New("unrecognized auth method: " + method)
	}
}

// serverConfig builds the server subtree explicitly so defaults apply
// even when the config file has only a partial server section.
func (mgr *Manager) serverConfig() *viper.Viper {
	sub := viper.New()
	sub.Set("addr", mgr.Cfg.GetString("server.addr"))
	sub.Set("read_timeout", mgr.Cfg.GetDuration("server.read_timeout"))
	sub.Set("write_timeout", mgr.Cfg.GetDuration("server.write_timeout"))
	return sub
}

func (mgr *Manager) initConfig(cfgPath *string) error {
	// Setup defaults and globals here. These can be overwritten in the
	// config file but aren't included by default.

	// This is a private viper context just for rint (so as not to
	// conflict with an importer's usage).
	mgr.Cfg = viper.New()

	mgr.Cfg.SetDefault("server.addr", ":8000")
	mgr.Cfg.SetDefault("server.read_timeout", "30s")
	mgr.Cfg.SetDefault("server.write_timeout", "300s")

	// All namespaces and objects live under this directory.
	mgr.Cfg.SetDefault("storage.root", "/opt/dvc_storage")
	mgr.Cfg.BindEnv("storage.root", "RDM_STORAGE_ROOT")

	mgr.Cfg.SetDefault("database.path", "./rint_data_manager.db")

	mgr.Cfg.SetDefault("auth.method", "database")
	mgr.Cfg.SetDefault("auth.custom.header", auth.DefaultTokenHeader)

	if cfgPath != nil {
		// Use config file from the flag.
		mgr.Cfg.SetConfigFile(*cfgPath)
	} else {
		// default search path for config is ./configs/rdm.* then the
		// home directory (* can be json, yaml, etc)
		mgr.Cfg.AddConfigPath("./configs")
		if home, err := homedir.Dir(); err == nil {
			mgr.Cfg.AddConfigPath(home)
		}
		mgr.Cfg.SetConfigName("rdm")
	}

	if err := mgr.Cfg.ReadInConfig(); err != nil {
		// Running purely on defaults is fine; a config file named
		// explicitly must load.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgPath == nil {
			return nil
		}
		return errors.Wrap(err, "Failed to load config")
	}
	return nil
}
