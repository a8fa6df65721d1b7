package runner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// TestJob is one command invocation for one test.
type TestJob struct {
	ID      string
	TestID  string
	Command string
	Args    []string
	Root    string
	// Env is nil when the command inherits the current environment unchanged.
	Env []string
}

// PrepareJob resolves the execution root for testPath, loads the config found
// there and expands the matching command template.
func PrepareJob(testID, testPath, testName string) (*TestJob, error) {
	execRoot, err := GetExecutionRoot(testPath)
	if err != nil {
		return nil, err
	}

	config := LoadConfig(execRoot)
	relToRoot, err := filepath.Rel(execRoot, testPath)
	if err != nil {
		return nil, errors.Wrap(err, "relative test path")
	}

	cmd, args := BuildCommandString(config.CommandFor(relToRoot), relToRoot, testName)
	if cmd == "" {
		return nil, errors.Errorf("empty command for %s", relToRoot)
	}

	env, err := config.Environ()
	if err != nil {
		return nil, err
	}

	return &TestJob{
		ID:      uuid.NewString(),
		TestID:  testID,
		Command: cmd,
		Args:    args,
		Root:    execRoot,
		Env:     env,
	}, nil
}

// CommandFor returns the template of the first override whose pattern matches
// relPath, falling back to Command.
func (c Config) CommandFor(relPath string) string {
	matchPath := filepath.ToSlash(relPath)
	for _, override := range c.Overrides {
		if ok, _ := doublestar.Match(override.Pattern, matchPath); ok {
			return override.Command
		}
	}
	return c.Command
}

// Environ returns the process environment extended with EnvFile, or nil when
// no env file is configured.
func (c Config) Environ() ([]string, error) {
	if c.EnvFile == "" {
		return nil, nil
	}

	path := c.EnvFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, path)
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read env file %s", c.EnvFile)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := os.Environ()
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env, nil
}
