// Package preflight provides readiness checks for the filesystem paths and
// external tools trepro depends on.
//
// The CLI "trepro doctor" command runs RunAll and CheckSystemDeps to report
// whether provenance can be captured and whether the catalog, metrics and
// log sinks are writable. Each check is gated by its config toggle; disabled
// features are skipped.
package preflight
