package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jesspatton/testexplorer/engine"
	"github.com/jesspatton/testexplorer/logging"
	"github.com/jesspatton/testexplorer/ui"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const envVarPrefix = "TESTEXPLORER_"

var (
	RootFlag = &cli.StringFlag{
		Name:    "root",
		Value:   ".",
		EnvVars: []string{envVarPrefix + "ROOT"},
		Usage:   "Workspace directory to discover and run tests in",
	}
	TestsFlag = &cli.StringFlag{
		Name:    "tests",
		EnvVars: []string{envVarPrefix + "TESTS"},
		Usage:   "Test description file (.json, .yaml) to load instead of walking the workspace",
	}
	WorkspaceFlag = &cli.StringFlag{
		Name:    "workspace",
		EnvVars: []string{envVarPrefix + "WORKSPACE"},
		Usage:   "Workspace name shown in labels (default: name of the root directory)",
	}
	WorkspacesFlag = &cli.StringSliceFlag{
		Name:    "workspaces",
		EnvVars: []string{envVarPrefix + "WORKSPACES"},
		Usage:   "Additional workspace directories for list and run; root labels are prefixed with the workspace name",
	}
	LogFileFlag = &cli.StringFlag{
		Name:    "log-file",
		EnvVars: []string{envVarPrefix + "LOG_FILE"},
		Usage:   "Write logs to this file (logging is off without it)",
	}
	LogLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: []string{envVarPrefix + "LOG_LEVEL"},
		Usage:   "Log level: trace, debug, info, warn, error",
	}
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "testexplorer"
	app.Usage = "Browse, run and watch tests from the terminal"
	app.Flags = []cli.Flag{RootFlag, TestsFlag, WorkspaceFlag, WorkspacesFlag, LogFileFlag, LogLevelFlag}
	app.Before = setupLogging
	app.Action = runTUI
	app.Commands = []*cli.Command{listCommand, runCommand}
	return app
}

// logFile is closed by main once the app returns.
var logFile io.Closer

func main() {
	err := newApp().Run(os.Args)
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "testexplorer: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(c *cli.Context) error {
	closer, err := logging.Setup(c.String(LogFileFlag.Name), c.String(LogLevelFlag.Name))
	if err != nil {
		return err
	}
	logFile = closer
	return nil
}

// workspaceOptions returns engine options for the root and every additional
// workspace, in that order.
func workspaceOptions(c *cli.Context) ([]engine.Options, error) {
	roots := append([]string{c.String(RootFlag.Name)}, c.StringSlice(WorkspacesFlag.Name)...)
	multi := len(roots) > 1

	opts := make([]engine.Options, 0, len(roots))
	for i, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, err
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return nil, errors.Errorf("workspace %s is not a directory", r)
		}

		o := engine.Options{Root: abs, MultiWorkspace: multi}
		if i == 0 {
			o.Workspace = c.String(WorkspaceFlag.Name)
			if tests := c.String(TestsFlag.Name); tests != "" {
				if o.TestsFile, err = filepath.Abs(tests); err != nil {
					return nil, err
				}
			}
		}
		opts = append(opts, o)
	}
	return opts, nil
}

func runTUI(c *cli.Context) error {
	opts, err := workspaceOptions(c)
	if err != nil {
		return err
	}
	// Engine messages carry no workspace, so one program drives one engine.
	if len(opts) > 1 {
		return cli.Exit("the explorer shows a single workspace; use list or run with --workspaces", 2)
	}

	e := engine.New(opts[0])
	defer e.Close()

	logging.Logger.Info().Str("root", opts[0].Root).Msg("starting explorer")

	p := tea.NewProgram(ui.NewModel(e), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "alas, there's been an error")
	}
	return nil
}
