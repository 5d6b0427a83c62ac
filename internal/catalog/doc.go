// Package catalog keeps a SQLite ledger of framed chart files.
//
// Each entry records where a framed file lives, the save and producer
// versions, the commit it was produced from and the full flattened metadata.
// Entries are added as saves happen (the Store doubles as a savefig
// Observer) or by Rebuild, which rescans a directory under an exclusive file
// lock so concurrent rebuilds never interleave.
package catalog
