// Package main hosts the trepro CLI entrypoint and command graph.
//
// The Cobra-based command tree renders chart definitions into framed files,
// inspects and extracts the embedded reproduction record, strips frames,
// filters directories of framed files, and maintains the SQLite catalog. It
// centralizes configuration resolution, logger construction, and the wiring
// of save observers (catalog, metrics) so subcommands only describe the
// operation they perform.
package main
