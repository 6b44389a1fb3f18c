package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/rflorenc/tower-client/internal/logging"
	"github.com/rflorenc/tower-client/internal/models"
)

// EnvConnectionName is the name given to the connection built from TOWER_* variables.
const EnvConnectionName = "env"

// ConnectionConfig represents a pre-configured connection in the config file.
type ConnectionConfig struct {
	Name       string `yaml:"name"`
	Scheme     string `yaml:"scheme"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Insecure   bool   `yaml:"insecure"`
	CACertFile string `yaml:"ca_cert_file"`
}

// ToConnection builds the model, reading the CA bundle if one is named.
func (cc ConnectionConfig) ToConnection() (*models.Connection, error) {
	conn := &models.Connection{
		Name:     cc.Name,
		Scheme:   cc.Scheme,
		Host:     cc.Host,
		Port:     cc.Port,
		Username: cc.Username,
		Password: cc.Password,
		Insecure: cc.Insecure,
	}
	if cc.CACertFile != "" {
		pem, err := os.ReadFile(cc.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("connection %s: reading CA cert: %w", cc.Name, err)
		}
		conn.CACert = string(pem)
	}
	conn.ApplyDefaults()
	return conn, nil
}

// Config holds all configuration (CLI flags + config file + environment).
type Config struct {
	Listen      string             `yaml:"listen"`
	Timeout     time.Duration      `yaml:"timeout"`
	Log         logging.Config     `yaml:"log"`
	Connections []ConnectionConfig `yaml:"connections"`

	// Connection selects a configured connection by name for CLI commands.
	Connection string `yaml:"-"`

	// internal: path to config file (from CLI flag)
	configFile string
}

// envOverrides are read with cleanenv. Unset variables leave the file values alone.
type envOverrides struct {
	Listen    string `env:"TOWER_LISTEN"`
	Host      string `env:"TOWER_HOST"`
	Scheme    string `env:"TOWER_SCHEME"`
	Port      int    `env:"TOWER_PORT"`
	Username  string `env:"TOWER_USERNAME"`
	Password  string `env:"TOWER_PASSWORD"`
	Insecure  bool   `env:"TOWER_INSECURE"`
	CACert    string `env:"TOWER_CA_CERT_FILE"`
	LogLevel  string `env:"TOWER_LOG_LEVEL"`
	LogFormat string `env:"TOWER_LOG_FORMAT"`
	LogOutput string `env:"TOWER_LOG_OUTPUT"`
	LogFile   string `env:"TOWER_LOG_FILE"`
}

// Parse reads CLI flags from args, overlays the config file and then the
// environment. Flags that were set explicitly win over both. The remaining
// positional arguments (the command and its own flags) are returned.
func Parse(args []string) (*Config, []string, error) {
	var flags Config
	fs := pflag.NewFlagSet("towerctl", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.StringVarP(&flags.configFile, "config", "c", "", "Path to config file (YAML)")
	fs.StringVar(&flags.Listen, "listen", "", "HTTP listen address for serve")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "Per-request timeout for Tower calls")
	fs.StringVar(&flags.Connection, "connection", "", "Name of the configured connection to use")
	fs.StringVar(&flags.Log.Level, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&flags.Log.Format, "log-format", "", "Log format: text or json")
	fs.StringVar(&flags.Log.Output, "log-output", "", "Log output: stderr, stdout or file")
	fs.StringVar(&flags.Log.FilePath, "log-file", "", "Log file path when --log-output=file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	c := &Config{configFile: flags.configFile, Connection: flags.Connection}
	if c.configFile != "" {
		if err := c.loadFile(c.configFile); err != nil {
			return nil, nil, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, nil, err
	}

	// Only explicitly set flags override file and environment values.
	overlay := map[string]func(){
		"listen":     func() { c.Listen = flags.Listen },
		"timeout":    func() { c.Timeout = flags.Timeout },
		"log-level":  func() { c.Log.Level = flags.Log.Level },
		"log-format": func() { c.Log.Format = flags.Log.Format },
		"log-output": func() { c.Log.Output = flags.Log.Output },
		"log-file":   func() { c.Log.FilePath = flags.Log.FilePath },
	}
	for name, apply := range overlay {
		if fs.Changed(name) {
			apply()
		}
	}

	c.applyDefaults()
	return c, fs.Args(), nil
}

// loadFile reads a YAML config file.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	c.Listen = file.Listen
	c.Timeout = file.Timeout
	c.Log = file.Log
	c.Connections = file.Connections
	return nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := cleanenv.ReadEnv(&env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	setIf(&c.Listen, env.Listen)
	setIf(&c.Log.Level, env.LogLevel)
	setIf(&c.Log.Format, env.LogFormat)
	setIf(&c.Log.Output, env.LogOutput)
	setIf(&c.Log.FilePath, env.LogFile)

	if env.Host != "" {
		c.Connections = append(c.Connections, ConnectionConfig{
			Name:       EnvConnectionName,
			Scheme:     env.Scheme,
			Host:       env.Host,
			Port:       env.Port,
			Username:   env.Username,
			Password:   env.Password,
			Insecure:   env.Insecure,
			CACertFile: env.CACert,
		})
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = logging.FormatText
	}
	if c.Log.Output == "" {
		c.Log.Output = logging.OutputStderr
	}
}

// Select returns the connection named by Connection, or the first one.
func (c *Config) Select() (ConnectionConfig, error) {
	if len(c.Connections) == 0 {
		return ConnectionConfig{}, fmt.Errorf("no connections configured (use --config or TOWER_HOST)")
	}
	if c.Connection == "" {
		return c.Connections[0], nil
	}
	for _, cc := range c.Connections {
		if cc.Name == c.Connection {
			return cc, nil
		}
	}
	return ConnectionConfig{}, fmt.Errorf("connection %q not found", c.Connection)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
