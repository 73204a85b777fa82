// Command validate checks level configuration JSON files. For each file it:
//   - decodes the JSON and runs the engine's config validation
//   - for cell games with obstacles, checks how much of the board the
//     player can reach from the start
//   - builds the level with a few seeds and round-trips a snapshot
//
// It scans ../configs by default; pass directories or files to check others.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/reach"
)

// dryRunSeeds are the seeds each level is built with.
var dryRunSeeds = []int64{1, 2, 3}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}

	if config.Kind == engine.KindTreasure {
		connectivity := validateConnectivity(config.Grid(), config.Obstacles)
		if !connectivity.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, connectivity.Errors...)
	}

	if result.Valid {
		dryRun(&config, &result)
	}

	if result.Valid {
		result.info("Name: %s", config.Name)
		result.info("Kind: %s", config.Kind)
		result.info("Grid: %dx%d", config.Rows, config.Cols)
		result.info("Star thresholds: %g/%g", config.Thresholds.Three, config.Thresholds.Two)
	}
	return result
}

// validateConnectivity flood fills from the start cell (0,0) and reports
// free cells the player can never reach. A start with no free neighbour is
// an error.
func validateConnectivity(g grid.Spec, obstacles []grid.Cell) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	barriers := reach.NewBarriers(obstacles...)
	reachable := reach.Reachable(grid.Cell{}, barriers, g)
	free := g.Rows*g.Cols - barriers.Size()

	switch {
	case len(reachable) <= 1:
		result.fail("Connectivity failure: the start cell is walled in")
	case len(reachable) < free:
		result.info("Connectivity: %d/%d free cells reachable (%d cut off)", len(reachable), free, free-len(reachable))
	default:
		result.info("Connectivity: all %d free cells reachable", free)
	}
	return result
}

// dryRun builds the level with several seeds and checks that a snapshot
// restores to the same state.
func dryRun(config *engine.GameConfig, result *ValidationResult) {
	for _, seed := range dryRunSeeds {
		eng, err := engine.NewEngine(config, seed)
		if err != nil {
			result.fail("Seed %d: %v", seed, err)
			return
		}
		snap, err := eng.Snapshot()
		if err != nil {
			result.fail("Seed %d: snapshot: %v", seed, err)
			return
		}
		restored, err := engine.Restore(snap)
		if err != nil {
			result.fail("Seed %d: restore: %v", seed, err)
			return
		}
		before, _ := json.Marshal(eng.GetState().Level)
		after, _ := json.Marshal(restored.GetState().Level)
		if string(before) != string(after) {
			result.fail("Seed %d: restored level differs from the original", seed)
			return
		}
	}
	result.info("Dry run: %d seeds build and restore", len(dryRunSeeds))
}

// configFiles expands directories into their *.json files.
func configFiles(paths []string) ([]string, error) {
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

// main validates each file, printing a concise report and exiting with
// non-zero status if any are invalid.
func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		paths = []string{"../configs"}
	}

	files, err := configFiles(paths)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
