// Package depfile writes the two dependency-file formats named in
// spec.md §6: "plain" (one "source: dep1 dep2 ..." line per unit) and
// "ninja" (escaped paths with a phony target per dependency, so a
// build system can treat a missing dependency as "nothing to build"
// rather than an error).
//
// Grounded in the teacher's internal/module.Loader.DumpModules /
// GetDependencyGraph (same "walk every loaded unit, print its
// dependency list" shape), generalized from a debug dump into the two
// real build-system-consumable formats dep_writer.h names.
package depfile

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/embedlang/emlangc/internal/loader"
)

// Format selects one of the two writers Write dispatches to.
type Format int

const (
	Plain Format = iota
	Ninja
)

// ParseFormat maps the CLI-facing format name to a Format, defaulting
// to Plain for an unrecognized name.
func ParseFormat(name string) Format {
	if strings.EqualFold(name, "ninja") {
		return Ninja
	}
	return Plain
}

// Write emits the dependency file for set in the given format. Only
// non-error units (successfully parsed and loaded) are walked; an
// error unit contributes no dependency edges of its own, matching
// spec.md §4.10's `write_deps(units, core_unit_index, format)` running
// before any fatal "missing entry" exit but after the loader has
// finished recording diagnostics.
func Write(w io.Writer, set *loader.Set, format Format) error {
	switch format {
	case Ninja:
		return writeNinja(w, set)
	default:
		return writePlain(w, set)
	}
}

// dependenciesOf returns the sorted, de-duplicated set of absolute
// paths a unit's surviving imports resolved to.
func dependenciesOf(u *loader.Unit) []string {
	seen := map[string]bool{}
	var deps []string
	for _, imp := range u.AST.Imports {
		if imp.ResolvedUnit == nil || imp.ResolvedUnit.IsErrorUnit {
			continue
		}
		p := imp.ResolvedUnit.SourcePath
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		deps = append(deps, p)
	}
	sort.Strings(deps)
	return deps
}

func writePlain(w io.Writer, set *loader.Set) error {
	for _, u := range set.Units {
		if u.IsErrorUnit {
			continue
		}
		deps := dependenciesOf(u)
		if _, err := fmt.Fprintf(w, "%s:", u.AbsolutePath); err != nil {
			return err
		}
		for _, d := range deps {
			if _, err := fmt.Fprintf(w, " %s", d); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// writeNinja emits one ninja "build" stanza per unit plus a phony
// target for every dependency, so ninja does not treat a library file
// outside the build tree as "missing" — exactly dep_writer.h's reason
// for the phony-target convention.
func writeNinja(w io.Writer, set *loader.Set) error {
	phonies := map[string]bool{}
	for _, u := range set.Units {
		if u.IsErrorUnit {
			continue
		}
		deps := dependenciesOf(u)
		if _, err := fmt.Fprintf(w, "build %s: phony", ninjaEscape(u.AbsolutePath)); err != nil {
			return err
		}
		for _, d := range deps {
			if _, err := fmt.Fprintf(w, " %s", ninjaEscape(d)); err != nil {
				return err
			}
			phonies[d] = true
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	var names []string
	for d := range phonies {
		names = append(names, d)
	}
	sort.Strings(names)
	for _, d := range names {
		if _, err := fmt.Fprintf(w, "build %s: phony\n", ninjaEscape(d)); err != nil {
			return err
		}
	}
	return nil
}

// ninjaEscape escapes the characters ninja's lexer treats specially in
// a path token: space, `:`, and `$` itself.
func ninjaEscape(path string) string {
	r := strings.NewReplacer("$", "$$", " ", "$ ", ":", "$:")
	return r.Replace(path)
}
