// Package frame appends delimited metadata blocks to existing files and finds
// them again.
//
// A framed file is the original payload followed by Start, the block bytes and
// End. Viewers that stop at the payload's own end marker keep working. An
// optional fixed-size trailer after End records the block length and an
// xxhash64 checksum, which lets Locate find the block even when the payload
// happens to contain a sentinel and reject blocks damaged in transit.
package frame
