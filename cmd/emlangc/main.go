// Command emlangc is the compiler CLI: it wires internal/pipeline's
// orchestrator to the process boundary, in the three shapes spec.md §6
// names - a direct one-shot invocation (analyze/parse/build), a
// long-lived LSP session reading the line-framed request protocol off
// stdin, and (invisibly, selected by an environment variable rather
// than a flag) the forked compile child internal/pipeline/fork.go
// spawns for crash isolation.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/embedlang/emlangc/internal/depfile"
	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/pipeline"
)

var (
	// Version info - set by ldflags during build.
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	// The forked compile child (internal/pipeline/fork.go's runForked)
	// re-invokes this same binary with ChildModeEnv set; handle that
	// before touching flag.Parse so the child never sees the parent's
	// argv reinterpreted as a second command.
	if v := os.Getenv(pipeline.ChildModeEnv); v != "" {
		os.Exit(pipeline.RunChildFromEnv(v))
	}

	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")

		projectRoot = flag.String("project-root", ".", "Project root directory (package lock search start)")
		libraryRoot = flag.String("lib-root", "", "SDK/core library root")
		sdkVersion  = flag.String("sdk-version", "dev", "Compiler version checked against the package lock's SDK constraint")

		force               = flag.Bool("force", false, "Proceed to the snapshot compile despite analysis errors")
		werror              = flag.Bool("werror", false, "Treat warnings as errors")
		showPackageWarnings = flag.Bool("show-package-warnings", false, "Show warnings/notes from outside the entry package")
		fork                = flag.Bool("fork", false, "Run the snapshot compile in a crash-isolated child process")

		depFilePath = flag.String("dep-file", "", "Write a dependency file to this path")
		depFormat   = flag.String("dep-format", "plain", "Dependency file format: plain or ninja")

		out = flag.String("o", "", "Output path prefix for the snapshot bundle (writes <out>.snapshot/.map/.debug.snapshot/.debug.map)")

		port = flag.Int("port", -1, "LSP mode transport: -1 local filesystem, -2 multiplexed stdio, any other value a TCP port for the FS protocol")
	)

	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	command := flag.Arg(0)

	switch command {
	case "analyze":
		runDirect(pipeline.ModeAnalyze, flag.Args()[1:], directOpts{*projectRoot, *libraryRoot, *sdkVersion, *force, *werror, *showPackageWarnings, *fork, *depFilePath, *depFormat, *out})
	case "parse":
		runDirect(pipeline.ModeParse, flag.Args()[1:], directOpts{*projectRoot, *libraryRoot, *sdkVersion, *force, *werror, *showPackageWarnings, *fork, *depFilePath, *depFormat, *out})
	case "build":
		runDirect(pipeline.ModeSnapshotBundle, flag.Args()[1:], directOpts{*projectRoot, *libraryRoot, *sdkVersion, *force, *werror, *showPackageWarnings, *fork, *depFilePath, *depFormat, *out})
	case "lsp":
		runLSP(*port, *projectRoot, *libraryRoot, *sdkVersion, *force)
	case "repl":
		runREPL(*projectRoot, *libraryRoot, *sdkVersion)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

type directOpts struct {
	projectRoot, libraryRoot, sdkVersion string
	force, werror, showPackageWarnings   bool
	fork                                 bool
	depFilePath, depFormat               string
	out                                  string
}

// runDirect is the one-shot (non-LSP) entry point shared by the
// analyze/parse/build subcommands: build Options from flags plus the
// entry paths given on the command line, run the pipeline once, print
// diagnostics (already done by the CompilationSink Run writes to), and
// - for build - persist the four snapshot bundle frames.
func runDirect(mode pipeline.Mode, paths []string, o directOpts) {
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "%s: missing entry file argument\n", red("Error"))
		os.Exit(1)
	}

	opts := pipeline.Options{
		Paths:               paths,
		ProjectRoot:         o.projectRoot,
		LibraryRoot:         o.libraryRoot,
		CompilerVersion:     o.sdkVersion,
		Mode:                mode,
		SelLine:             -1,
		SelCol:              -1,
		DepFilePath:         o.depFilePath,
		DepFileFormat:       depfile.ParseFormat(o.depFormat),
		Force:               o.force,
		ShowPackageWarnings: o.showPackageWarnings,
		Werror:              o.werror,
		Fork:                o.fork,
	}

	res, err := pipeline.Run(opts, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	if mode == pipeline.ModeSnapshotBundle && res.Bundle != nil {
		if o.out == "" {
			fmt.Printf("%s snapshot bundle: main=%d bytes, main map=%d bytes, debug=%d bytes, debug map=%d bytes\n",
				green("✓"), len(res.Bundle.MainSnapshot), len(res.Bundle.MainSourceMap),
				len(res.Bundle.DebugSnapshot), len(res.Bundle.DebugSourceMap))
		} else if err := writeBundle(o.out, res.Bundle); err != nil {
			fmt.Fprintf(os.Stderr, "%s: writing snapshot bundle: %v\n", red("Error"), err)
			os.Exit(1)
		} else {
			fmt.Printf("%s wrote snapshot bundle to %s.{snapshot,map,debug.snapshot,debug.map}\n", green("✓"), o.out)
		}
	}

	os.Exit(res.ExitCode)
}

func writeBundle(prefix string, b *pipeline.SnapshotBundle) error {
	files := map[string][]byte{
		prefix + ".snapshot":       b.MainSnapshot,
		prefix + ".map":            b.MainSourceMap,
		prefix + ".debug.snapshot": b.DebugSnapshot,
		prefix + ".debug.map":      b.DebugSourceMap,
	}
	for path, data := range files {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func printVersion() {
	fmt.Printf("emlangc %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
	if BuildTime != "unknown" {
		fmt.Printf("Built:  %s\n", BuildTime)
	}
}

func printHelp() {
	fmt.Println(bold("emlangc - embedded-language compiler"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  emlangc <command> [flags] <file>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <file>   Run analysis only (type/flow/conformance checks, no snapshot)\n", cyan("analyze"))
	fmt.Printf("  %s <file>   Parse and load imports only, skip all later stages\n", cyan("parse"))
	fmt.Printf("  %s <file>   Analyze and, on success, emit the main+debug snapshot bundle\n", cyan("build"))
	fmt.Printf("  %s            Start an LSP session, reading requests from stdin\n", cyan("lsp"))
	fmt.Printf("  %s           Interactive analyze-a-path loop, with history\n", cyan("repl"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --version                  Print version information")
	fmt.Println("  --help                     Show this help message")
	fmt.Println("  --project-root <dir>       Project root (package lock search start)")
	fmt.Println("  --lib-root <dir>           SDK/core library root")
	fmt.Println("  --sdk-version <v>          Compiler version checked against the package lock")
	fmt.Println("  --force                    Proceed to the snapshot compile despite errors")
	fmt.Println("  --werror                   Treat warnings as errors")
	fmt.Println("  --show-package-warnings    Show warnings/notes from outside the entry package")
	fmt.Println("  --fork                     Run the snapshot compile in a crash-isolated child")
	fmt.Println("  --dep-file <path>          Write a dependency file")
	fmt.Println("  --dep-format <plain|ninja> Dependency file format")
	fmt.Println("  -o <prefix>                Output path prefix for `build`'s snapshot bundle")
	fmt.Println("  --port <n>                 LSP transport: -1 local fs, -2 multiplexed, else TCP port")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s\n", cyan("emlangc analyze main.toit"))
	fmt.Printf("  %s\n", cyan("emlangc build -o out/program main.toit"))
	fmt.Printf("  %s\n", cyan("emlangc lsp --port -2"))
}

// printDiagnostic is used by the LSP path, which does not go through
// diag.CompilationSink - it renders one Report the same color-coded
// way the CompilationSink would, for the rare case stderr logging is
// wanted alongside the framed JSON response.
func printDiagnostic(r *errcode.Report) {
	label := r.Severity
	switch r.Severity {
	case "error":
		label = red(bold("error"))
	case "warning":
		label = yellow("warning")
	case "note":
		label = cyan("note")
	}
	fmt.Fprintf(os.Stderr, "%s[%s]: %s\n", label, r.Code, r.Message)
}
