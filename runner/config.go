package runner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jesspatton/testexplorer/logging"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	tomlConfigName = ".testexplorer.toml"
	jsonConfigName = ".testexplorer.json"
	defaultCommand = "npx jest <path> --colors"
)

// rootMarkers identify the directory a test command runs in.
var rootMarkers = []string{"package.json", "go.mod", "pyproject.toml", tomlConfigName, jsonConfigName}

// Override replaces the command for test paths matching Pattern, a doublestar
// glob relative to the execution root.
type Override struct {
	Pattern string `json:"pattern" toml:"pattern"`
	Command string `json:"command" toml:"command"`
}

// Config is the per-project runner configuration. Command and override
// templates expand <path> to the test file relative to the execution root and
// <name> to the test label.
type Config struct {
	Command   string     `json:"command" toml:"command"`
	Overrides []Override `json:"overrides,omitempty" toml:"overrides,omitempty"`
	// Patterns select test files when the tree is built by walking the
	// workspace.
	Patterns []string `json:"patterns,omitempty" toml:"patterns,omitempty"`
	// EnvFile is a dotenv file, relative to the config, loaded into the
	// environment of every test command.
	EnvFile string `json:"env_file,omitempty" toml:"env_file,omitempty"`

	dir string
}

// Dir returns the directory the config was loaded from, empty for defaults.
func (c Config) Dir() string {
	return c.dir
}

// GetExecutionRoot finds the nearest root marker starting from the test file
// path and walking up.
func GetExecutionRoot(testFilePath string) (string, error) {
	dir := filepath.Dir(testFilePath)
	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Wrapf(os.ErrNotExist, "no project root above %s", testFilePath)
		}
		dir = parent
	}
}

// LoadConfig looks for .testexplorer.toml or .testexplorer.json in root and
// its ancestors. The nearest file wins, TOML before JSON. Without one, or when
// it cannot be parsed, the default config is returned.
func LoadConfig(root string) Config {
	log := logging.For("config")

	dir := root
	for {
		for _, name := range []string{tomlConfigName, jsonConfigName} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := readConfig(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("ignoring invalid config")
				return DefaultConfig()
			}
			log.Debug().Str("path", path).Msg("config loaded")
			return cfg
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return DefaultConfig()
		}
		dir = parent
	}
}

// DefaultConfig runs jest on the test file.
func DefaultConfig() Config {
	return Config{Command: defaultCommand}
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	var cfg Config
	if strings.HasSuffix(path, ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "decode %s", filepath.Base(path))
	}

	if cfg.Command == "" {
		cfg.Command = defaultCommand
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// BuildCommandString expands a command template and splits it into the
// program and its arguments.
func BuildCommandString(template string, testPath string, testName string) (string, []string) {
	cmdStr := strings.NewReplacer("<path>", testPath, "<name>", testName).Replace(template)
	parts := strings.Fields(cmdStr)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}
