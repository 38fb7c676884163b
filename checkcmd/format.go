package checkcmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"honnef.co/go/typegraph/scenario"
	"honnef.co/go/typegraph/typegraph"

	"github.com/fatih/color"
)

func shortPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(cwd, path); err == nil && len(rel) < len(path) {
		return rel
	}
	return path
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n\t")
}

type statter interface {
	Stats(queries, failed int, solver typegraph.Stats)
}

type formatter interface {
	Format(results []scenario.Result)
}

type textFormatter struct {
	W io.Writer
}

func (o textFormatter) Format(rs []scenario.Result) {
	for _, r := range rs {
		status := ""
		switch {
		case r.Failed():
			status = color.RedString("FAIL") + " "
		case r.Checked:
			status = color.GreenString("ok") + "   "
		}
		fmt.Fprintf(o.W, "%s#%d: %s%s\n", shortPath(r.Scenario), r.Index, status, r)
		if r.Failed() {
			fmt.Fprintf(o.W, "\t%s\n", indent(r.Diff))
		}
	}
}

func (o textFormatter) Stats(queries, failed int, st typegraph.Stats) {
	fmt.Fprintf(o.W, "%d queries, %d failed (solver: %d queries, %d states, %d memo hits, %d path queries)\n",
		queries, failed, st.Queries, st.States, st.MemoHits, st.PathQueries)
}

type nullFormatter struct{}

func (nullFormatter) Format([]scenario.Result) {}

type jsonFormatter struct {
	W io.Writer
}

func (o jsonFormatter) Format(rs []scenario.Result) {
	enc := json.NewEncoder(o.W)
	for _, r := range rs {
		_ = enc.Encode(r)
	}
}
