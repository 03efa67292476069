package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/jsonui/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	dir := flag.String("dir", "", "run every *.json fixture in a directory")
	flag.Parse()

	if (*fixturePath == "" && *dir == "") || (*fixturePath != "" && *dir != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --dir path/to/fixtures")
		os.Exit(2)
	}

	paths := []string{*fixturePath}
	if *dir != "" {
		var err error
		paths, err = filepath.Glob(filepath.Join(*dir, "*.json"))
		if err != nil || len(paths) == 0 {
			fmt.Fprintf(os.Stderr, "no fixtures in %s\n", *dir)
			os.Exit(2)
		}
	}

	exitCode := 0
	for _, p := range paths {
		if code := runFixture(p); code > exitCode {
			exitCode = code
		}
	}
	os.Exit(exitCode)
}

// #endregion main

// #region output

func runFixture(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	outcomes, diffs, err := replay.Check(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay %s: %v\n", path, err)
		return 2
	}

	fmt.Printf("%s: %s\n", filepath.Base(path), f.Description)
	printOutcomes(outcomes)

	summary := replay.Summarize(outcomes, nil, nil)
	fmt.Printf("\nSummary: %d frames, %d commit, %d reject, %d abandoned, %d idle\n",
		summary.Frames, summary.Commits, summary.Rejects, summary.Abandoned, summary.Idle)

	if len(diffs) == 0 {
		fmt.Printf("OK\n\n")
		return 0
	}
	for _, d := range diffs {
		fmt.Printf("DIFF %s\n", d)
	}
	fmt.Println()
	return 1
}

// printOutcomes outputs one table row per replayed frame.
func printOutcomes(outcomes []replay.FrameOutcome) {
	fmt.Printf("%-6s| %-6s| %-9s| %-8s| %s\n", "Frame", "Dirty", "Decision", "Dropped", "Reason")
	fmt.Printf("%-6s+%-7s+%-10s+%-9s+%s\n", "------", "-------", "----------", "---------", "--------------------")
	for _, o := range outcomes {
		decision := o.Decision
		switch {
		case o.Abandoned:
			decision = "abandoned"
		case decision == "":
			decision = "-"
		}
		fmt.Printf("%-6d| %-6t| %-9s| %-8d| %s\n", o.Frame, o.Dirty, decision, len(o.Dropped), o.Reason)
	}
}

// #endregion output
