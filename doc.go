// Package cellar is an embedded, single-file key-value store built around
// a memory-mapped B+tree with multi-version concurrency control (MVCC),
// copy-on-write page updates, and transactional ACID semantics.
//
// One writer proceeds concurrently with many readers: readers never block
// writers and writers never block readers. A single data file holds any
// number of independently ordered named tables ("DBIs"), each with its
// own pluggable key comparator and an optional per-key multi-value
// (duplicate) mode backed by a nested B+tree.
//
// On-disk pages and the meta-page triplet follow the MDBX wire format,
// which lets the cellarctl chk/copy/load tools (see cmd/cellarctl) and
// the test suite cross-check behavior against other MDBX-format engines.
//
// Key properties:
//   - B+tree storage with copy-on-write page updates
//   - MVCC snapshots: readers see a consistent view with no locking
//   - Single writer, unlimited concurrent readers
//   - Memory-mapped I/O with optional writemap mode
//   - ACID commits published via a rotating triplet of meta pages
//
// Nested (sub-)transactions are not supported: Txn.Sub runs its function
// inside the enclosing transaction.
//
// Basic usage:
//
//	env, err := cellar.NewEnv("orders")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer env.Close()
//
//	if err := env.Open("/path/to/db", cellar.NoSubdir, 0644); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Begin a write transaction.
//	txn, err := env.BeginTxn(nil, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Open the default table.
//	dbi, err := txn.OpenDBISimple("", cellar.Create)
//	if err != nil {
//	    txn.Abort()
//	    log.Fatal(err)
//	}
//
//	if err := txn.Put(dbi, []byte("key"), []byte("value"), 0); err != nil {
//	    txn.Abort()
//	    log.Fatal(err)
//	}
//
//	if _, err := txn.Commit(); err != nil {
//	    log.Fatal(err)
//	}
package cellar
