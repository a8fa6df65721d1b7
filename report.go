package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jesspatton/testexplorer/engine"
	"github.com/jesspatton/testexplorer/tree"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// maxParallelWorkspaces bounds how many workspaces are loaded or run at once.
const maxParallelWorkspaces = 4

var listCommand = &cli.Command{
	Name:   "list",
	Usage:  "Print the test tree as a table",
	Action: listTests,
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run tests without the explorer and print the results",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Usage: "Run only the suite or test with this id (default: everything)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 10 * time.Minute,
			Usage: "Give up on the run after this long",
		},
	},
	Action: runTests,
}

func listTests(c *cli.Context) error {
	engines, err := loadEngines(c)
	if err != nil {
		return err
	}
	for _, e := range engines {
		renderTable(c.App.Writer, e.Collection)
	}
	return nil
}

func runTests(c *cli.Context) error {
	engines, err := loadEngines(c)
	if err != nil {
		return err
	}
	defer func() {
		for _, e := range engines {
			e.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	// Workspaces have their own runner, so they can run side by side.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWorkspaces)
	ran := make([]bool, len(engines))
	for i, e := range engines {
		id := c.String("id")
		if id == "" && e.Collection.Root() != nil {
			id = e.Collection.Root().ID()
		}
		if _, ok := e.Collection.Node(id); !ok {
			continue
		}
		ran[i] = true
		e := e
		g.Go(func() error {
			return runHeadless(gctx, e, id)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, e := range engines {
		if !ran[i] {
			continue
		}
		renderTable(c.App.Writer, e.Collection)
		failed += countFailures(e.Collection)
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d tests failed", failed), 1)
	}
	return nil
}

func loadEngines(c *cli.Context) ([]*engine.Engine, error) {
	opts, err := workspaceOptions(c)
	if err != nil {
		return nil, err
	}

	engines := make([]*engine.Engine, len(opts))
	var g errgroup.Group
	g.SetLimit(maxParallelWorkspaces)
	for i, o := range opts {
		i, o := i, o
		g.Go(func() error {
			e := engine.New(o)
			if err := e.Load(); err != nil {
				return errors.Wrapf(err, "load %s", o.Root)
			}
			engines[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return engines, nil
}

// runHeadless runs id and pumps runner updates into the engine until it is
// idle again.
func runHeadless(ctx context.Context, e *engine.Engine, id string) error {
	e.Run(id)
	for !e.State.Idle() {
		select {
		case u := <-e.RunnerUpdates():
			e.Update(u)
		case <-ctx.Done():
			e.Cancel()
			return errors.Wrap(ctx.Err(), "run")
		}
	}
	return nil
}

func countFailures(c *tree.Collection) int {
	n := 0
	c.Walk(func(node tree.TreeNode) bool {
		if _, ok := node.(*tree.TestNode); ok {
			switch node.State().Current {
			case tree.StateFailed, tree.StateErrored:
				n++
			}
		}
		return true
	})
	return n
}

// renderTable prints one row per node, indented by depth.
func renderTable(w io.Writer, c *tree.Collection) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"", "Name", "State", "Description", "Context", "ID"})

	depth := map[string]int{}
	c.Walk(func(n tree.TreeNode) bool {
		d := 0
		if p := n.Parent(); p != nil {
			d = depth[p.ID()] + 1
		}
		depth[n.ID()] = d

		item := n.TreeItem()
		state := string(n.State().Current)
		if prev := n.State().Previous; n.State().Current == tree.StatePending && prev != tree.PreviousPending {
			state += " (" + string(prev) + ")"
		}
		t.AppendRow(table.Row{
			item.Icon,
			strings.Repeat("  ", d) + item.Label,
			state,
			item.Description,
			strings.ReplaceAll(item.ContextValue, "\n", ","),
			item.ID,
		})
		return true
	})

	t.SetStyle(table.StyleLight)
	t.Render()
}
