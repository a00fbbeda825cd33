//go:build ignore

// Command bench-compare diffs two `go test -bench` output files and flags
// regressions in ns/op.
//
// Usage:
//
//	go test -bench=. -benchmem ./internal/search/... > old.txt
//	# make changes
//	go test -bench=. -benchmem ./internal/search/... > new.txt
//	go run scripts/bench-compare.go old.txt new.txt
//
// Exits 1 when any benchmark slows down by more than the threshold.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var benchLine = regexp.MustCompile(`^(Benchmark\S+)\s+\d+\s+([\d.]+) ns/op`)

func main() {
	threshold := flag.Float64("threshold", 20, "regression threshold in percent")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/bench-compare.go [-threshold pct] old.txt new.txt")
		os.Exit(2)
	}

	old, err := parseFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench-compare:", err)
		os.Exit(2)
	}
	next, err := parseFile(flag.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench-compare:", err)
		os.Exit(2)
	}

	names := make([]string, 0, len(old))
	for name := range old {
		names = append(names, name)
	}
	sort.Strings(names)

	width := len("benchmark")
	for _, name := range names {
		if len(name) > width {
			width = len(name)
		}
	}

	fmt.Printf("%-*s  %12s  %12s  %8s\n", width, "benchmark", "old ns/op", "new ns/op", "delta")
	regressions := 0
	for _, name := range names {
		after, ok := next[name]
		if !ok {
			fmt.Printf("%-*s  %12.1f  %12s  %8s\n", width, name, old[name], "-", "gone")
			continue
		}
		delta := percentChange(old[name], after)
		mark := ""
		if delta > *threshold {
			mark = "  REGRESSION"
			regressions++
		}
		fmt.Printf("%-*s  %12.1f  %12.1f  %+7.1f%%%s\n", width, name, old[name], after, delta, mark)
	}
	for name := range next {
		if _, ok := old[name]; !ok {
			fmt.Printf("%-*s  %12s  %12.1f  %8s\n", width, name, "-", next[name], "new")
		}
	}

	if regressions > 0 {
		fmt.Printf("\n%d benchmark(s) regressed beyond %.0f%%\n", regressions, *threshold)
		os.Exit(1)
	}
}

// parseFile extracts ns/op per benchmark name from `go test -bench` output.
func parseFile(path string) (map[string]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	results := make(map[string]float64)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		m := benchLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		ns, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		results[trimProcSuffix(m[1])] = ns
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%s: no benchmark lines found", path)
	}
	return results, nil
}

// trimProcSuffix drops the -GOMAXPROCS suffix so runs from machines with
// different core counts still line up.
func trimProcSuffix(name string) string {
	i := strings.LastIndex(name, "-")
	if i < 0 {
		return name
	}
	if _, err := strconv.Atoi(name[i+1:]); err != nil {
		return name
	}
	return name[:i]
}

func percentChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100
}
