// Package config handles loading taskplanner.toml configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/amonks/taskplanner/internal/paths"
)

// ProjectFile is the name of the per-directory config file.
const ProjectFile = "taskplanner.toml"

// EnvConfigPath names an explicit config file, bypassing the global and
// project lookup.
const EnvConfigPath = "TASKPLANNER_CONFIG"

// Defaults applied after merging.
const (
	DefaultAddr      = "127.0.0.1:8080"
	DefaultBackend   = "file"
	DefaultTransport = "log"
	DefaultFrom      = "no-reply@example.com"
	DefaultSMTPPort  = 25
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config represents the taskplanner.toml configuration file.
type Config struct {
	Server Server `toml:"server"`
	Store  Store  `toml:"store"`
	Mail   Mail   `toml:"mail"`
	Log    Log    `toml:"log"`
}

// Server configures the HTTP server.
type Server struct {
	Addr string `toml:"addr"`

	// BaseURL is the externally visible origin plus path prefix used to
	// build links in outbound email. When empty, links are derived from the
	// incoming request, or from Addr outside of a request.
	BaseURL string `toml:"base-url"`
}

// Store configures where documents are persisted.
type Store struct {
	// Backend is one of file, memory, mysql.
	Backend string `toml:"backend"`
	// Dir holds the JSON documents for the file backend.
	Dir string `toml:"dir"`
	// DSN is the go-sql-driver/mysql data source name for the mysql backend.
	DSN string `toml:"dsn"`
}

// Mail configures the outbound mail transport.
type Mail struct {
	// Transport is one of log, smtp, gmail.
	Transport string `toml:"transport"`
	From      string `toml:"from"`

	SMTPHost     string `toml:"smtp-host"`
	SMTPPort     int    `toml:"smtp-port"`
	SMTPUsername string `toml:"smtp-username"`
	SMTPPassword string `toml:"smtp-password"`

	GmailCredentials string `toml:"gmail-credentials"`
	GmailToken       string `toml:"gmail-token"`
}

// Log configures structured logging.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Load loads configuration from dir and the global config file, or from the
// file named by $TASKPLANNER_CONFIG when set. Missing files are ignored.
func Load(dir string) (*Config, error) {
	if explicit := strings.TrimSpace(os.Getenv(EnvConfigPath)); explicit != "" {
		return LoadFile(explicit)
	}

	globalPath, err := globalConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(dir, ProjectFile))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta)
	merged.applyDefaults()
	return merged, nil
}

// LoadFile loads a single config file. The file must exist.
func LoadFile(path string) (*Config, error) {
	expanded, err := paths.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(expanded); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", expanded, err)
	}
	cfg, _, err := loadConfigFile(expanded)
	if err != nil {
		return nil, err
	}
	cfg.trim()
	cfg.applyDefaults()
	return cfg, nil
}

func globalConfigPath() (string, error) {
	dir, err := paths.DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: unknown key %q", path, undecoded[0].String())
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	str := func(section, key, project, global string) string {
		return mergeString(projectMeta.IsDefined(section, key), project, global)
	}

	merged := Config{}
	merged.Server.Addr = str("server", "addr", projectCfg.Server.Addr, globalCfg.Server.Addr)
	merged.Server.BaseURL = str("server", "base-url", projectCfg.Server.BaseURL, globalCfg.Server.BaseURL)

	merged.Store.Backend = str("store", "backend", projectCfg.Store.Backend, globalCfg.Store.Backend)
	merged.Store.Dir = str("store", "dir", projectCfg.Store.Dir, globalCfg.Store.Dir)
	merged.Store.DSN = str("store", "dsn", projectCfg.Store.DSN, globalCfg.Store.DSN)

	merged.Mail.Transport = str("mail", "transport", projectCfg.Mail.Transport, globalCfg.Mail.Transport)
	merged.Mail.From = str("mail", "from", projectCfg.Mail.From, globalCfg.Mail.From)
	merged.Mail.SMTPHost = str("mail", "smtp-host", projectCfg.Mail.SMTPHost, globalCfg.Mail.SMTPHost)
	merged.Mail.SMTPUsername = str("mail", "smtp-username", projectCfg.Mail.SMTPUsername, globalCfg.Mail.SMTPUsername)
	merged.Mail.SMTPPassword = str("mail", "smtp-password", projectCfg.Mail.SMTPPassword, globalCfg.Mail.SMTPPassword)
	merged.Mail.GmailCredentials = str("mail", "gmail-credentials", projectCfg.Mail.GmailCredentials, globalCfg.Mail.GmailCredentials)
	merged.Mail.GmailToken = str("mail", "gmail-token", projectCfg.Mail.GmailToken, globalCfg.Mail.GmailToken)
	if projectMeta.IsDefined("mail", "smtp-port") {
		merged.Mail.SMTPPort = projectCfg.Mail.SMTPPort
	} else if globalMeta.IsDefined("mail", "smtp-port") {
		merged.Mail.SMTPPort = globalCfg.Mail.SMTPPort
	}

	merged.Log.Level = str("log", "level", projectCfg.Log.Level, globalCfg.Log.Level)
	merged.Log.Format = str("log", "format", projectCfg.Log.Format, globalCfg.Log.Format)

	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

func (c *Config) trim() {
	for _, field := range []*string{
		&c.Server.Addr, &c.Server.BaseURL,
		&c.Store.Backend, &c.Store.Dir, &c.Store.DSN,
		&c.Mail.Transport, &c.Mail.From, &c.Mail.SMTPHost, &c.Mail.SMTPUsername,
		&c.Mail.SMTPPassword, &c.Mail.GmailCredentials, &c.Mail.GmailToken,
		&c.Log.Level, &c.Log.Format,
	} {
		*field = strings.TrimSpace(*field)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultBackend
	}
	if c.Mail.Transport == "" {
		c.Mail.Transport = DefaultTransport
	}
	if c.Mail.From == "" {
		c.Mail.From = DefaultFrom
	}
	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = DefaultSMTPPort
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
