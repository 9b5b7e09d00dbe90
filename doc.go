// Package embstore persists large collections of fixed-dimension float32
// vectors (e.g. protein sequence or structure embeddings) as a sharded,
// memory-mappable on-disk table with a durable bidirectional key index.
//
// A store root directory contains three components:
//
//   - map.db        SQLite database mapping string keys <-> integer ids
//   - shards/       fixed-capacity blocks of raw row-major float32 vectors
//   - metadata.tsv  append-only manifest, one row per flushed shard
//
// The Writer appends vectors one at a time, assigning ids in insertion
// order and rolling over to a new shard whenever the current one fills.
// Durability moves in shard-sized steps: a shard, its manifest row and the
// key-index batch are committed together, so a crash loses at most the
// uncommitted tail shard and never leaves a readable id without its data.
//
// The Reader reconstitutes the shards into one logical contiguous table,
// staged in an anonymous memory mapping rather than the Go heap, and
// resolves keys through the same index. KNN layers an externally built
// search index over the table and reports results as (key, distance) pairs.
//
// Exactly one Writer may be open against a store path at a time; concurrent
// writers produce undefined on-disk state. Any number of Readers may share
// a finalized store, and all Reader query methods are safe for concurrent
// use once Open has returned.
package embstore
