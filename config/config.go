package config

import (
	"io/ioutil"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"primesha.org/primesha/logging"
)

const (
	DefaultConfigFilename = "primesha.json"
	DefaultAppName        = "primesha"
	DefaultLogDirname     = "logs"
	DefaultLogLevel       = logging.InfoLevel
	DefaultStoreDirname   = "digests"
	DefaultDbType         = "leveldb"
	DefaultCacheEntries   = 1024
)

// SupportedDbTypes lists the digest store backends.
var SupportedDbTypes = []string{"leveldb", "memdb"}

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Log     *Log     `json:"log"`
	Store   *Store   `json:"store"`
	Cache   *Cache   `json:"cache"`
	Worker  *Worker  `json:"worker"`
	Metrics *Metrics `json:"metrics"`
}

type Log struct {
	LogDir        string `json:"log_dir"`
	LogLevel      string `json:"log_level"`
	DisableCPrint bool   `json:"disable_cprint"`
	// MaxAge of rotated log files in days, 0 keeps them forever.
	MaxAge uint32 `json:"max_age"`
}

type Store struct {
	Dir    string `json:"dir"`
	DBType string `json:"db_type"`
}

type Cache struct {
	// MaxEntries of the digest memo, 0 means unlimited.
	MaxEntries int `json:"max_entries"`
}

type Worker struct {
	// PoolSize 0 means one worker per logical CPU.
	PoolSize int `json:"pool_size"`
	// MaxFileSize in bytes, 0 means bounded by available memory only.
	MaxFileSize int64 `json:"max_file_size"`
	// KeepNewline disables dropping a single trailing '\n' before hashing.
	KeepNewline bool `json:"keep_newline"`
}

type Metrics struct {
	// TextfilePath receives the Prometheus text exposition after a run, if set.
	TextfilePath string `json:"textfile_path"`
}

func DefaultConfig() *Config {
	return &Config{
		Log:     DefaultLog(),
		Store:   DefaultStore(),
		Cache:   DefaultCache(),
		Worker:  DefaultWorker(),
		Metrics: DefaultMetrics(),
	}
}

func DefaultLog() *Log {
	return &Log{
		LogDir:   filepath.Join(AppDataDir(DefaultAppName, false), DefaultLogDirname),
		LogLevel: DefaultLogLevel,
		MaxAge:   30,
	}
}

func DefaultStore() *Store {
	return &Store{
		Dir:    filepath.Join(AppDataDir(DefaultAppName, false), DefaultStoreDirname),
		DBType: DefaultDbType,
	}
}

func DefaultCache() *Cache {
	return &Cache{MaxEntries: DefaultCacheEntries}
}

func DefaultWorker() *Worker {
	return &Worker{}
}

func DefaultMetrics() *Metrics {
	return &Metrics{}
}

// LoadConfig decodes a JSON config file over the defaults.
func LoadConfig(filename string) (*Config, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", filename)
	}
	cfg := DefaultConfig()
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", filename)
	}
	return cfg, nil
}

// CheckConfig fills missing sections with defaults, expands paths and
// validates values.
func CheckConfig(cfg *Config) error {
	if cfg.Log == nil {
		cfg.Log = DefaultLog()
	}
	if cfg.Store == nil {
		cfg.Store = DefaultStore()
	}
	if cfg.Cache == nil {
		cfg.Cache = DefaultCache()
	}
	if cfg.Worker == nil {
		cfg.Worker = DefaultWorker()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = DefaultMetrics()
	}

	if !logging.ValidLevel(cfg.Log.LogLevel) {
		return errors.Wrapf(ErrInvalidConfig, "unknown log level %q", cfg.Log.LogLevel)
	}
	if !supportedDbType(cfg.Store.DBType) {
		return errors.Wrapf(ErrInvalidConfig, "unknown db type %q", cfg.Store.DBType)
	}
	if cfg.Cache.MaxEntries < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative cache size %d", cfg.Cache.MaxEntries)
	}
	if cfg.Worker.PoolSize < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative pool size %d", cfg.Worker.PoolSize)
	}
	if cfg.Worker.MaxFileSize < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative max file size %d", cfg.Worker.MaxFileSize)
	}

	cfg.Log.LogDir = CleanAndExpandPath(cfg.Log.LogDir)
	cfg.Store.Dir = CleanAndExpandPath(cfg.Store.Dir)
	if cfg.Metrics.TextfilePath != "" {
		cfg.Metrics.TextfilePath = CleanAndExpandPath(cfg.Metrics.TextfilePath)
	}
	return nil
}

func supportedDbType(dbType string) bool {
	for _, t := range SupportedDbTypes {
		if t == dbType {
			return true
		}
	}
	return false
}
