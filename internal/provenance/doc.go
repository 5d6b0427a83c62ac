// Package provenance gathers the environment and version-control facts that
// are embedded next to a saved chart.
//
// Every source is queried independently. A missing git binary, a directory
// outside a repository or a repository without the configured remote simply
// leaves the matching keys out of the Record; Collect itself never fails.
// Commands run through an injectable Executor with fixed argument lists.
package provenance
