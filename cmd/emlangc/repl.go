package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/embedlang/emlangc/internal/pipeline"
)

// runREPL is an interactive convenience loop: each line the developer
// enters is treated as an entry-file path, analyzed once, and its
// diagnostics printed - a faster edit/check cycle than re-invoking
// `emlangc analyze` per file. Not a language REPL (this is a compiler,
// not an interpreter); grounded in the teacher's internal/repl.Start
// for the liner setup (history file, multiline-off, prompt loop,
// ":"-prefixed command completion) rather than its expression
// evaluation.
func runREPL(projectRoot, libraryRoot, sdkVersion string) {
	line := liner.NewLiner()
	defer line.Close()

	historyFile := filepath.Join(os.TempDir(), ".emlangc_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	line.SetCompleter(func(in string) (c []string) {
		for _, cmd := range []string{":help", ":quit"} {
			if strings.HasPrefix(cmd, in) {
				c = append(c, cmd)
			}
		}
		return
	})

	fmt.Printf("%s %s\n", bold("emlangc"), bold(Version))
	fmt.Println("Enter a source path to analyze it, :help for help, :quit to exit.")

	for {
		input, err := line.Prompt("emlangc> ")
		if err == io.EOF {
			fmt.Println(green("Goodbye!"))
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case ":help":
			fmt.Println("  <path>   Analyze the given source file")
			fmt.Println("  :quit    Exit")
			continue
		case ":quit":
			fmt.Println(green("Goodbye!"))
			return
		}

		res, err := pipeline.Run(pipeline.Options{
			Paths: []string{input}, ProjectRoot: projectRoot, LibraryRoot: libraryRoot,
			CompilerVersion: sdkVersion, Mode: pipeline.ModeAnalyze, SelLine: -1, SelCol: -1,
		}, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			continue
		}
		if res.ExitCode == 0 {
			fmt.Println(green("✓ no errors"))
		}
	}
}
