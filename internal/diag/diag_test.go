package diag

import (
	"testing"

	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/lang"
	"github.com/embedlang/emlangc/internal/srcmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportErrorSetsEncounteredError(t *testing.T) {
	sink := &AnalysisSink{}
	b := New(nil, sink)
	b.ReportError(errcode.RES001, "bad thing %d", 1)
	assert.True(t, b.EncounteredError())
	require.Len(t, sink.Reports, 1)
	assert.Equal(t, "bad thing 1", sink.Reports[0].Message)
}

func TestWerrorPromotesWarningToError(t *testing.T) {
	sink := &AnalysisSink{}
	b := New(nil, sink)
	b.Werror = true
	b.ReportWarning(errcode.TYP003, "deprecated")
	assert.True(t, b.EncounteredError())
	require.Len(t, sink.Reports, 1)
	assert.Equal(t, "error", sink.Reports[0].Severity)
}

func TestNonEntryPackageWarningsAreDroppedByDefault(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	libPkg, _ := lock.PackageByID(srcmgr.SDKPackageID)
	_ = libPkg

	sink := &AnalysisSink{}
	b := New(sources, sink)

	// A source attributed to a non-entry package (the lib/core dir).
	entrySrc := &srcmgr.Source{AbsolutePath: "x", Package: &srcmgr.Package{ID: srcmgr.EntryPackageID}}
	otherSrc := &srcmgr.Source{AbsolutePath: "y", Package: &srcmgr.Package{ID: "other"}}

	b.ReportAt(Warning, otherSrc, lang.Range{}, errcode.TYP003, "noisy")
	assert.Empty(t, sink.Reports, "warnings from non-entry packages are dropped by default")

	b.ReportAt(Error, otherSrc, lang.Range{}, errcode.TYP001, "real error")
	assert.Len(t, sink.Reports, 1, "errors are never dropped regardless of package")

	b.ReportAt(Warning, entrySrc, lang.Range{}, errcode.TYP003, "entry warning")
	assert.Len(t, sink.Reports, 2, "warnings from the entry package are kept")
}

func TestGroupPinsSeverityAndPackageToFirstDiagnostic(t *testing.T) {
	sink := &AnalysisSink{}
	b := New(nil, sink)
	entrySrc := &srcmgr.Source{AbsolutePath: "x", Package: &srcmgr.Package{ID: srcmgr.EntryPackageID}}
	otherSrc := &srcmgr.Source{AbsolutePath: "y", Package: &srcmgr.Package{ID: "other"}}

	b.StartGroup()
	// First diagnostic in the group is an entry-package error: pins the
	// group so later warnings from elsewhere in the group still show.
	b.ReportAt(Error, entrySrc, lang.Range{}, errcode.TYP001, "first")
	b.ReportAt(Warning, otherSrc, lang.Range{}, errcode.TYP003, "second")
	b.EndGroup()

	assert.Len(t, sink.Reports, 2)
}
