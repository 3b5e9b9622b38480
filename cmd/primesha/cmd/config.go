package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"primesha.org/primesha/config"
	"primesha.org/primesha/logging"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configFile string
	logDir     string
	logLevel   string
	storeDir   string
	dbType     string
}

func (g *globalFlags) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", "config file (default is <appdata>/"+config.DefaultConfigFilename+")")
	flags.StringVar(&g.logDir, "log_dir", "", "directory for log files")
	flags.StringVar(&g.logLevel, "log_level", "", "level of logs (trace, debug, info, warn, error, fatal, panic)")
	flags.StringVar(&g.storeDir, "store_dir", "", "directory of the digest store")
	flags.StringVar(&g.dbType, "db_type", "", "digest store backend (leveldb, memdb)")
}

// loadConfig reads the config file, if any, applies flag overrides and
// initializes logging. Log files that cannot be created only cost a warning.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	file := g.configFile
	if file == "" {
		file = filepath.Join(config.AppDataDir(config.DefaultAppName, false), config.DefaultConfigFilename)
		if _, err := os.Stat(file); err != nil {
			file = ""
		}
	}
	if file != "" {
		var err error
		if cfg, err = config.LoadConfig(file); err != nil {
			return nil, err
		}
	}

	if g.logDir != "" {
		cfg.Log.LogDir = g.logDir
	}
	if g.logLevel != "" {
		cfg.Log.LogLevel = g.logLevel
	}
	if g.storeDir != "" {
		cfg.Store.Dir = g.storeDir
	}
	if g.dbType != "" {
		cfg.Store.DBType = g.dbType
	}
	if err := config.CheckConfig(cfg); err != nil {
		return nil, err
	}

	if err := logging.Init(cfg.Log.LogDir, logging.DefaultFilename, cfg.Log.LogLevel, cfg.Log.MaxAge, cfg.Log.DisableCPrint); err != nil {
		logging.CPrint(logging.WARN, "fail on initializing log files, logging to temp dir", logging.LogFormat{
			"log_dir": cfg.Log.LogDir,
			"err":     err,
		})
	}
	logging.VPrint(logging.DEBUG, "config loaded", logging.LogFormat{
		"file":      file,
		"store_dir": cfg.Store.Dir,
		"db_type":   cfg.Store.DBType,
	})
	return cfg, nil
}
