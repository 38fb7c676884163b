// Package checkcmd implements the frontend of the scenario checker.
// It serves as the entry-point for the typegraph-check command.
package checkcmd

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"honnef.co/go/typegraph/config"
	"honnef.co/go/typegraph/debug"
	"honnef.co/go/typegraph/scenario"
	"honnef.co/go/typegraph/typegraph"
	"honnef.co/go/typegraph/version"
)

// Command represents the checker's command line tool.
type Command struct {
	name           string
	version        string
	machineVersion string

	stdout io.Writer
	stderr io.Writer

	flags struct {
		fs *flag.FlagSet

		formatter    string
		configDir    string
		dot          string
		maxVarSize   int
		trace        bool
		printVersion bool

		debugCpuprofile string
		debugMemprofile string
		debugVersion    bool
		debugTrace      string
	}
}

// NewCommand returns a new Command.
func NewCommand(name string) *Command {
	cmd := &Command{
		name:           name,
		version:        "devel",
		machineVersion: "devel",
		stdout:         os.Stdout,
		stderr:         os.Stderr,
	}
	cmd.initFlagSet(name)
	return cmd
}

// SetVersion sets the command's version.
// It is divided into a human part and a machine part.
// If you only use Semver, you can set both parts to the same value.
//
// Calling this method is optional. Both versions default to "devel", and we'll attempt to deduce more version information from the Go module.
func (cmd *Command) SetVersion(human, machine string) {
	cmd.version = human
	cmd.machineVersion = machine
}

// SetOutput redirects the command's standard output and standard error.
func (cmd *Command) SetOutput(stdout, stderr io.Writer) {
	cmd.stdout = stdout
	cmd.stderr = stderr
	cmd.flags.fs.SetOutput(stderr)
}

// FlagSet returns the command's flag set.
// This can be used to add additional command line arguments.
func (cmd *Command) FlagSet() *flag.FlagSet {
	return cmd.flags.fs
}

func (cmd *Command) initFlagSet(name string) {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	cmd.flags.fs = flags
	flags.Usage = usage(name, flags)

	flags.StringVar(&cmd.flags.formatter, "f", "", "Output `format` (valid choices are 'text', 'json' and 'null'; defaults to the configured format)")
	flags.StringVar(&cmd.flags.configDir, "config", "", "Look for typegraph.conf starting in `dir` instead of each scenario's directory")
	flags.StringVar(&cmd.flags.dot, "dot", "", "Write the graph of the last scenario in GraphViz format to `file`")
	flags.IntVar(&cmd.flags.maxVarSize, "max-var-size", 0, "Override the maximum number of bindings per variable")
	flags.BoolVar(&cmd.flags.trace, "trace", false, "Log solver activity to standard error")
	flags.BoolVar(&cmd.flags.printVersion, "version", false, "Print version and exit")

	flags.StringVar(&cmd.flags.debugCpuprofile, "debug.cpuprofile", "", "Write CPU profile to `file`")
	flags.StringVar(&cmd.flags.debugMemprofile, "debug.memprofile", "", "Write memory profile to `file`")
	flags.BoolVar(&cmd.flags.debugVersion, "debug.version", false, "Print detailed version information about this program")
	flags.StringVar(&cmd.flags.debugTrace, "debug.trace", "", "Write trace to `file`")
}

// ParseFlags parses command line flags.
// It must be called before calling Run.
// After calling ParseFlags, the values of flags can be accessed.
//
// Example:
//
//	cmd.ParseFlags(os.Args[1:])
func (cmd *Command) ParseFlags(args []string) error {
	return cmd.flags.fs.Parse(args)
}

// Run checks all scenarios named on the command line and reports the
// results. It always calls os.Exit and does not return.
func (cmd *Command) Run() {
	exit := func(code int) {
		if cmd.flags.debugCpuprofile != "" {
			pprof.StopCPUProfile()
		}
		if path := cmd.flags.debugMemprofile; path != "" {
			f, err := os.Create(path)
			if err != nil {
				panic(err)
			}
			runtime.GC()
			pprof.WriteHeapProfile(f)
		}
		if cmd.flags.debugTrace != "" {
			trace.Stop()
		}
		os.Exit(code)
	}
	if path := cmd.flags.debugCpuprofile; path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
	}
	if path := cmd.flags.debugTrace; path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal(err)
		}
		trace.Start(f)
	}

	exit(cmd.Execute())
}

// Execute is like Run, but returns the exit status instead of exiting.
// 0 means that all expectations held, 1 that an expectation failed or
// a scenario couldn't be loaded, and 2 that the command was misused.
func (cmd *Command) Execute() int {
	if cmd.flags.debugVersion {
		version.Verbose(cmd.stdout, cmd.version, cmd.machineVersion)
		return 0
	}
	if cmd.flags.printVersion {
		version.Print(cmd.stdout, cmd.version, cmd.machineVersion)
		return 0
	}

	paths := cmd.flags.fs.Args()
	if len(paths) == 0 {
		cmd.flags.fs.Usage()
		return 2
	}
	if n := cmd.flags.maxVarSize; n != 0 && (n < 1 || n > typegraph.MaxVarSize) {
		fmt.Fprintf(cmd.stderr, "invalid value %d for flag -max-var-size: must be between 1 and %d\n", n, typegraph.MaxVarSize)
		return 2
	}

	format := cmd.flags.formatter
	if format == "" {
		// The format is global, so it comes from the configuration
		// of the first scenario.
		dir := cmd.flags.configDir
		if dir == "" {
			dir = filepath.Dir(paths[0])
		}
		cfg, err := config.Load(dir)
		if err != nil {
			fmt.Fprintln(cmd.stderr, err)
			return 1
		}
		format = cfg.Output.Format
	}
	var f formatter
	switch format {
	case "text":
		f = textFormatter{W: cmd.stdout}
	case "json":
		f = jsonFormatter{W: cmd.stdout}
	case "null":
		f = nullFormatter{}
	default:
		fmt.Fprintf(cmd.stderr, "unsupported output format %q\n", format)
		return 2
	}

	var (
		numQueries int
		numFailed  int
		numErrors  int
		stats      typegraph.Stats
		last       *scenario.Scenario
	)
	logger := log.New(cmd.stderr, "", log.Lmsgprefix)
	for _, path := range paths {
		s, err := cmd.load(path, logger)
		if err != nil {
			fmt.Fprintln(cmd.stderr, err)
			numErrors++
			continue
		}
		results := s.Run()
		for _, r := range results {
			if r.Failed() {
				numFailed++
			}
		}
		numQueries += len(results)
		f.Format(results)
		if solver := s.Program.Solver(); solver != nil {
			st := solver.Stats()
			stats.Queries += st.Queries
			stats.MemoHits += st.MemoHits
			stats.States += st.States
			stats.PathQueries += st.PathQueries
		}
		last = s
	}
	if f, ok := f.(statter); ok {
		f.Stats(numQueries, numFailed, stats)
	}

	if cmd.flags.dot != "" && last != nil {
		if err := writeDot(cmd.flags.dot, last); err != nil {
			fmt.Fprintln(cmd.stderr, err)
			numErrors++
		}
	}

	if numFailed > 0 || numErrors > 0 {
		return 1
	}
	return 0
}

func (cmd *Command) load(path string, logger *log.Logger) (*scenario.Scenario, error) {
	dir := cmd.flags.configDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if cmd.flags.maxVarSize != 0 {
		cfg.Program.MaxVarSize = cmd.flags.maxVarSize
	}
	if cmd.flags.trace {
		cfg.Solver.Trace = true
	}
	logger.SetPrefix(filepath.Base(path) + ": ")
	return scenario.Load(path, cfg.ProgramOptions(logger)...)
}

func writeDot(path string, s *scenario.Scenario) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := debug.WriteDot(f, s.Program, s.Label); err != nil {
		f.Close()
		return fmt.Errorf("couldn't write %s: %w", path, err)
	}
	return f.Close()
}

func usage(name string, fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] scenario.toml...\n", name)

		fmt.Fprintln(fs.Output())
		fmt.Fprintln(fs.Output(), "Flags:")
		printDefaults(fs)
	}
}

// isZeroValue determines whether the string represents the zero
// value for a flag.
//
// this function has been copied from the Go standard library's 'flag' package.
func isZeroValue(f *flag.Flag, value string) bool {
	// Build a zero value of the flag's Value type, and see if the
	// result of calling its String method equals the value passed in.
	// This works unless the Value type is itself an interface type.
	typ := reflect.TypeOf(f.Value)
	var z reflect.Value
	if typ.Kind() == reflect.Ptr {
		z = reflect.New(typ.Elem())
	} else {
		z = reflect.Zero(typ)
	}
	return value == z.Interface().(flag.Value).String()
}

// this function has been copied from the Go standard library's 'flag' package and modified to skip debug flags.
func printDefaults(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		// Don't print debug flags
		if strings.HasPrefix(f.Name, "debug.") {
			return
		}

		var b strings.Builder
		fmt.Fprintf(&b, "  -%s", f.Name) // Two spaces before -; see next two comments.
		name, usage := flag.UnquoteUsage(f)
		if len(name) > 0 {
			b.WriteString(" ")
			b.WriteString(name)
		}
		// Boolean flags of one ASCII letter are so common we
		// treat them specially, putting their usage on the same line.
		if b.Len() <= 4 { // space, space, '-', 'x'.
			b.WriteString("\t")
		} else {
			// Four spaces before the tab triggers good alignment
			// for both 4- and 8-space tab stops.
			b.WriteString("\n    \t")
		}
		b.WriteString(strings.ReplaceAll(usage, "\n", "\n    \t"))

		if !isZeroValue(f, f.DefValue) {
			if T := reflect.TypeOf(f.Value); T.Name() == "*stringValue" && T.PkgPath() == "flag" {
				// put quotes on the value
				fmt.Fprintf(&b, " (default %q)", f.DefValue)
			} else {
				fmt.Fprintf(&b, " (default %v)", f.DefValue)
			}
		}
		fmt.Fprint(fs.Output(), b.String(), "\n")
	})
}
