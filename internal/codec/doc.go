// Package codec serializes the metadata record embedded in framed files.
//
// A record is one JSON object: save_version, chart and producer_version are
// reserved members and every other member is a provenance string. Decoding
// dispatches on save_version to a registered decoder and only ever produces
// the typed Record, never arbitrary objects.
package codec
