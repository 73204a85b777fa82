// Command levelgen runs the puzzle generators outside the server and prints
// quick heuristics about level configuration files.
//
//	levelgen path --rows 7 --cols 7 --scale 50 --steps 10 --seed 3
//	levelgen place --rows 6 --cols 6 --count 4 --candidates lattice
//	levelgen trap --rows 6 --cols 6 --from 0,0 --goal 5,5 --barrier 0,1 --barrier 1,0
//	levelgen analyze configs/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/service"
)

var log = logrus.WithField("component", "levelgen")

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.WithError(err).Error("levelgen failed")
		os.Exit(1)
	}
}

func gridFlags(rows, cols int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "rows", Value: rows, Usage: "grid rows"},
		&cli.IntFlag{Name: "cols", Value: cols, Usage: "grid columns"},
	}
}

func withCommon(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		&cli.Int64Flag{Name: "seed", Usage: "random seed (0 picks one)"},
		&cli.BoolFlag{Name: "json", Usage: "print JSON instead of text"},
	)
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "levelgen",
		Usage:  "generate and inspect grid puzzle levels",
		Writer: out,
		// Cells are written as row,col, so slice flags must not split on commas.
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "path",
				Usage: "generate an instruction path",
				Flags: withCommon(append(gridFlags(7, 7),
					&cli.FloatFlag{Name: "scale", Value: 50, Usage: "metres per grid unit"},
					&cli.IntFlag{Name: "steps", Value: 10, Usage: "number of instructions"},
					&cli.IntFlag{Name: "landmarks", Value: 3, Usage: "landmarks to place first"},
				)...),
				Action: runPath,
			},
			{
				Name:  "place",
				Usage: "place points on the grid",
				Flags: withCommon(append(gridFlags(6, 6),
					&cli.IntFlag{Name: "count", Value: 4, Usage: "points to place"},
					&cli.StringFlag{Name: "candidates", Value: "inner", Usage: "inner, lattice, interior or cells"},
					&cli.StringFlag{Name: "buffer", Value: "corner", Usage: "point, corner or neighbor"},
				)...),
				Action: runPlace,
			},
			{
				Name:  "trap",
				Usage: "check whether a goal cell is reachable",
				Flags: append(gridFlags(6, 6),
					&cli.StringFlag{Name: "from", Value: "0,0", Usage: "start cell as row,col"},
					&cli.StringFlag{Name: "goal", Usage: "goal cell as row,col (default: far corner)"},
					&cli.StringSliceFlag{Name: "barrier", Usage: "blocked cell as row,col (repeatable)"},
					&cli.BoolFlag{Name: "json", Usage: "print JSON instead of text"},
				),
				Action: runTrap,
			},
			{
				Name:      "analyze",
				Usage:     "summarize level configuration files",
				ArgsUsage: "[files or directories]",
				Action:    runAnalyze,
			},
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runPath(ctx context.Context, cmd *cli.Command) error {
	result, err := service.GeneratePath(service.PathRequest{
		Rows:          cmd.Int("rows"),
		Cols:          cmd.Int("cols"),
		Seed:          cmd.Int64("seed"),
		Scale:         cmd.Float("scale"),
		StepCount:     cmd.Int("steps"),
		LandmarkCount: cmd.Int("landmarks"),
	})
	if err != nil {
		return err
	}
	log.WithField("seed", result.Seed).Debug("generated path")

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		return printJSON(w, result)
	}

	fmt.Fprintf(w, "Seed: %d\nStart: %s\nScale: %g m\n", result.Seed, result.Start, result.Scale)
	for _, lm := range result.Landmarks {
		fmt.Fprintf(w, "Landmark %s at %s\n", lm.Label, lm.Position)
	}
	fmt.Fprintln(w)
	for i, in := range result.Instructions {
		fmt.Fprintf(w, "%2d. %s -> %s\n", i+1, in.Text, result.Targets[i])
	}
	return nil
}

func runPlace(ctx context.Context, cmd *cli.Command) error {
	result, err := service.GeneratePlacement(service.PlacementRequest{
		Rows:       cmd.Int("rows"),
		Cols:       cmd.Int("cols"),
		Seed:       cmd.Int64("seed"),
		Count:      cmd.Int("count"),
		Candidates: cmd.String("candidates"),
		Buffer:     cmd.String("buffer"),
	})
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		return printJSON(w, result)
	}

	fmt.Fprintf(w, "Seed: %d\n", result.Seed)
	for _, lm := range result.Landmarks {
		fmt.Fprintf(w, "%s at %s\n", lm.ID, lm.Position)
	}
	if missing := cmd.Int("count") - len(result.Landmarks); missing > 0 {
		fmt.Fprintf(w, "%d points did not fit\n", missing)
	}
	return nil
}

// parseCell reads "row,col".
func parseCell(s string) (grid.Cell, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return grid.Cell{}, fmt.Errorf("cell %q: want row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return grid.Cell{}, fmt.Errorf("cell %q: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return grid.Cell{}, fmt.Errorf("cell %q: %w", s, err)
	}
	return grid.Cell{Row: row, Col: col}, nil
}

func runTrap(ctx context.Context, cmd *cli.Command) error {
	rows, cols := cmd.Int("rows"), cmd.Int("cols")
	from, err := parseCell(cmd.String("from"))
	if err != nil {
		return err
	}
	goal := grid.Cell{Row: rows - 1, Col: cols - 1}
	if s := cmd.String("goal"); s != "" {
		if goal, err = parseCell(s); err != nil {
			return err
		}
	}
	var barriers []grid.Cell
	for _, s := range cmd.StringSlice("barrier") {
		c, err := parseCell(s)
		if err != nil {
			return err
		}
		barriers = append(barriers, c)
	}

	result, err := service.CheckTrap(service.TrapRequest{
		Rows: rows, Cols: cols, From: from, Goal: goal, Barriers: barriers,
	})
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		return printJSON(w, result)
	}
	if result.Trapped {
		fmt.Fprintf(w, "TRAPPED: goal (%d,%d) cannot be reached; %d cells reachable\n", goal.Row, goal.Col, result.Reachable)
		return nil
	}
	fmt.Fprintf(w, "Reachable: goal (%d,%d) is %d steps away; %d cells reachable\n", goal.Row, goal.Col, result.Distance, result.Reachable)
	return nil
}

// levelFiles expands directories into their *.json files.
func levelFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

func runAnalyze(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer

	// No arguments analyzes the built-in levels.
	if cmd.Args().Len() == 0 {
		builtins := engine.BuiltinConfigs()
		ids := make([]string, 0, len(builtins))
		for id := range builtins {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(w, "\n=== %s (built in) ===\n", id)
			analyzeConfig(w, builtins[id])
		}
		return nil
	}

	files, err := levelFiles(cmd.Args().Slice())
	if err != nil {
		return err
	}
	for _, file := range files {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", filepath.Base(file))
		config, err := engine.LoadGameConfig(file)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		analyzeConfig(w, config)
	}
	return nil
}

func analyzeConfig(w io.Writer, config *engine.GameConfig) {
	fmt.Fprintf(w, "Name: %s\n", config.Name)
	fmt.Fprintf(w, "Kind: %s\n", config.Kind)
	fmt.Fprintf(w, "Grid: %d x %d\n", config.Rows, config.Cols)
	fmt.Fprintf(w, "Star thresholds: %g / %g\n", config.Thresholds.Three, config.Thresholds.Two)

	if err := engine.ValidateGameConfig(config); err != nil {
		fmt.Fprintf(w, "Invalid: %v\n", err)
		return
	}

	switch config.Kind {
	case engine.KindFrog, engine.KindTreasure:
		result, err := service.CheckTrap(service.TrapRequest{
			Rows:     config.Rows,
			Cols:     config.Cols,
			Goal:     grid.Cell{Row: config.Rows - 1, Col: config.Cols - 1},
			Barriers: config.Obstacles,
		})
		if err != nil {
			fmt.Fprintf(w, "Reachability: %v\n", err)
			return
		}
		free := config.Rows*config.Cols - len(config.Obstacles)
		fmt.Fprintf(w, "Obstacles: %d\n", len(config.Obstacles))
		fmt.Fprintf(w, "Reachable from start: %d/%d free cells\n", result.Reachable, free)
		if result.Trapped {
			fmt.Fprintln(w, "Far corner: unreachable")
		} else {
			fmt.Fprintf(w, "Far corner: %d steps\n", result.Distance)
		}
	}
}
