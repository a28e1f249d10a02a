package frontend

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/gnps/groupselector/pkg/link"
	"gopkg.in/yaml.v3"
)

// DefaultTask is used when neither the request nor the path names a task.
const DefaultTask = "2532c7a7069b4fa69db9c89b4e1431cb"

var ErrInvalidConfig = errors.New("config: invalid configuration")

type ServerConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"loglevel"`
}

type GNPSConfig struct {
	ApiRoot string        `yaml:"api_root"`
	Timeout time.Duration `yaml:"timeout"`
}

type ViewerConfig struct {
	Root string `yaml:"root"`
}

type Config struct {
	Server      ServerConfig `yaml:"server"`
	GNPS        GNPSConfig   `yaml:"gnps"`
	Viewer      ViewerConfig `yaml:"viewer"`
	DefaultTask string       `yaml:"default_task"`
}

// Default is the configuration used for absent keys.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: "5000", LogLevel: "info"},
		GNPS: GNPSConfig{
			ApiRoot: gnps.DefaultApiRoot,
			Timeout: 60 * time.Second,
		},
		Viewer:      ViewerConfig{Root: link.DefaultViewerRoot},
		DefaultTask: DefaultTask,
	}
}

// Load reads a configuration file. An empty path gives Default().
func Load(filepath string) (Config, error) {
	if filepath == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(filepath)
	if err != nil {
		return Config{}, err
	}
	return Unmarshal(content)
}

// Unmarshal parses YAML over Default() and validates the result.
func Unmarshal(content []byte) (Config, error) {
	conf := Default()
	if err := yaml.Unmarshal(content, &conf); err != nil {
		return Config{}, err
	}
	if err := conf.Verify(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

func (c Config) Verify() error {
	for name, root := range map[string]string{
		"gnps.api_root": c.GNPS.ApiRoot,
		"viewer.root":   c.Viewer.Root,
	} {
		u, err := url.Parse(root)
		if err != nil {
			return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, name, err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("%w: %s should be an absolute URL: %q", ErrInvalidConfig, name, root)
		}
	}
	if c.Server.Port == "" {
		return fmt.Errorf("%w: server.port is empty", ErrInvalidConfig)
	}
	if c.GNPS.Timeout < 0 {
		return fmt.Errorf("%w: gnps.timeout is negative", ErrInvalidConfig)
	}
	if c.DefaultTask == "" {
		return fmt.Errorf("%w: default_task is empty", ErrInvalidConfig)
	}
	return nil
}
