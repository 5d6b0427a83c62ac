// Package savefig decorates a chart saver so every supported file it writes
// carries a reproduction record, and reads that record back.
//
// Interceptor runs the plain save first and returns its result untouched.
// Only then does it collect provenance, encode the record and append the
// framed block; failures in that second half are logged and swallowed so a
// chart is never lost to bookkeeping. Patch installs one interceptor
// process-wide, Load and Inspect recover the figure and metadata from disk.
package savefig
