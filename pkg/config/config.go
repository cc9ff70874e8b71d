package config

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
	"github.com/spelunky-fyi/memrauder/pkg/spel2"
)

const (
	configDir       string = ".ml2mem"
	configDirXdg    string = "ml2mem"
	configFile      string = "config.yml"
	defaultProcess  string = "Spel2.exe"
	defaultCacheLen int    = 256
)

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// PollInterval is the time between two reads of the game state, as
	// understood by time.ParseDuration.
	PollInterval string `yaml:"poll-interval,omitempty"`

	// MaxVectorBytes bounds the bulk read of a single std::vector. Zero
	// disables the bound.
	MaxVectorBytes *int `yaml:"max-vector-bytes,omitempty"`

	// UidHash is the key hash of the uid to entity table, "identity" or
	// "lowbias32".
	UidHash string `yaml:"uid-hash,omitempty"`

	// PageCachePages is the number of 4KiB pages kept during one poll. Zero
	// disables the cache.
	PageCachePages *int `yaml:"page-cache-pages,omitempty"`

	// ProcessName is the name of the game executable.
	ProcessName string `yaml:"process-name,omitempty"`

	// StateOffset is the distance from the feedcode to the game state.
	StateOffset *int64 `yaml:"state-offset,omitempty"`
}

// Interval returns the poll interval.
func (c *Config) Interval() (time.Duration, error) {
	if c.PollInterval == "" {
		return 100 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid poll-interval: %v", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid poll-interval: %s is not positive", c.PollInterval)
	}
	return d, nil
}

// VectorLimit returns the std::vector bulk read bound.
func (c *Config) VectorLimit() int {
	if c.MaxVectorBytes == nil {
		return memrauder.DefaultMaxVectorBytes
	}
	return *c.MaxVectorBytes
}

// KeyHash returns the key hash of the uid to entity table.
func (c *Config) KeyHash() (spel2.KeyHash, error) {
	return spel2.ParseKeyHash(c.UidHash)
}

// CachePages returns the size of the page cache.
func (c *Config) CachePages() int {
	if c.PageCachePages == nil {
		return defaultCacheLen
	}
	return *c.PageCachePages
}

// Process returns the name of the game executable.
func (c *Config) Process() string {
	if c.ProcessName == "" {
		return defaultProcess
	}
	return c.ProcessName
}

// Offset returns the distance from the feedcode to the game state.
func (c *Config) Offset() int64 {
	if c.StateOffset == nil {
		return spel2.DefaultStateOffset
	}
	return *c.StateOffset
}

// LoadConfig attempts to populate a Config object from the config.yml file.
func LoadConfig() *Config {
	err := createConfigPath()
	if err != nil {
		fmt.Printf("Could not create config directory: %v.", err)
		return &Config{}
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		fmt.Printf("Unable to get config file path: %v.", err)
		return &Config{}
	}

	f, err := os.Open(fullConfigFile)
	if err != nil {
		f, err = createDefaultConfig(fullConfigFile)
		if err != nil {
			fmt.Printf("Error creating default config file: %v", err)
			return &Config{}
		}
	}
	defer func() {
		err := f.Close()
		if err != nil {
			fmt.Printf("Closing config file failed: %v.", err)
		}
	}()

	c, err := readConfig(f)
	if err != nil {
		fmt.Printf("%v.", err)
		return &Config{}
	}
	return c
}

func readConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read config data: %v", err)
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config file: %v", err)
	}
	return &c, nil
}

// SaveConfig will marshal and save the config struct
// to disk.
func SaveConfig(conf *Config) error {
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(fullConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create config file: %v", err)
	}
	err = writeDefaultConfig(f)
	if err != nil {
		return nil, fmt.Errorf("unable to write default configuration: %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return f, nil
}

func writeDefaultConfig(f io.Writer) error {
	_, err := io.WriteString(f,
		`# Configuration file for ml2mem.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Time between two reads of the game state.
# poll-interval: 100ms

# Largest single std::vector read, in bytes. 0 disables the check.
# max-vector-bytes: 67108864

# Key hash of the uid to entity table, identity or lowbias32 (game 1.25.2
# and later).
# uid-hash: identity

# Number of 4KiB pages cached during one poll. 0 disables the cache.
# page-cache-pages: 256

# Name of the game executable.
# process-name: Spel2.exe

# Distance from the feedcode to the game state.
# state-offset: -0x5f
`)
	return err
}

// createConfigPath creates the directory structure at which all config files are saved.
func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
func GetConfigFilePath(file string) (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return path.Join(xdg, configDirXdg, file), nil
	}

	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return path.Join(userHomeDir, configDir, file), nil
}
