package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cellarkv/cellar"
)

// loadRecords bulk-inserts tab-separated "key\tvalue" lines from path
// into a single write transaction, committing once at the end so the
// whole load is atomic.
func loadRecords(env *cellar.Env, dbName, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	txn, err := env.BeginTxn(nil, 0)
	if err != nil {
		return fmt.Errorf("begin txn: %w", err)
	}

	dbi, err := txn.OpenDBISimple(dbName, cellar.Create)
	if err != nil {
		txn.Abort()
		return fmt.Errorf("open dbi %q: %w", dbName, err)
	}

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			txn.Abort()
			return fmt.Errorf("line %d: expected \"key\\tvalue\", got %q", count+1, line)
		}
		if err := txn.Put(dbi, []byte(parts[0]), []byte(parts[1]), 0); err != nil {
			txn.Abort()
			return fmt.Errorf("line %d: put: %w", count+1, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		txn.Abort()
		return fmt.Errorf("read %s: %w", path, err)
	}

	if _, err := txn.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	fmt.Printf("loaded %d record(s) from %s\n", count, path)
	return nil
}
