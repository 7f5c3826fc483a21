package cellar

import (
	"fmt"
)

// checker.go implements a read-only structural integrity walk over a
// cellar data file, grounded on libmdbx's walk.c/chk.c: depth-first
// traversal of the MainDBI and FreeDBI trees, with each GC record's page
// list validated. Named tables' trees and nested duplicate trees are not
// descended into, and tree pages are not cross-checked against the GC
// records or against each other's ownership.

// PageTypeCount tallies pages seen per type during a CheckReport walk.
type PageTypeCount struct {
	Branch int
	Leaf   int
	Large  int
}

// CheckReport summarizes the result of CheckIntegrity.
type CheckReport struct {
	MainPages   PageTypeCount
	GCPages     PageTypeCount
	GCEntries   int    // number of GC records (one per retiring txn)
	GCPageCount int    // total pages referenced across all GC records
	Problems    []string
}

func (r *CheckReport) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// OK reports whether the walk found no structural problems.
func (r *CheckReport) OK() bool {
	return len(r.Problems) == 0
}

// CheckIntegrity walks MainDBI and FreeDBI under a read-only snapshot
// and verifies that every branch/leaf/large page it visits has a
// well-formed header and that large-value overflow runs stay within
// the file's current page count. It does not attempt repair; it is the
// read-only counterpart to Env.Copy for verifying a file before backup.
func (e *Env) CheckIntegrity() (*CheckReport, error) {
	txn, err := e.BeginTxn(nil, TxnReadOnly)
	if err != nil {
		return nil, err
	}
	defer txn.Abort()

	report := &CheckReport{}
	limit := pgno(txn.env.geoNow / uint64(txn.env.pageSize))

	if root := txn.trees[MainDBI].Root; root != invalidPgno {
		walkTree(txn, root, limit, &report.MainPages, report)
	}

	if root := txn.trees[FreeDBI].Root; root != invalidPgno {
		walkGCTree(txn, root, limit, report)
	}

	return report, nil
}

func walkTree(txn *Txn, root pgno, limit pgno, counts *PageTypeCount, report *CheckReport) {
	walkPage(txn, root, limit, counts, report, 0)
}

func walkPage(txn *Txn, pg pgno, limit pgno, counts *PageTypeCount, report *CheckReport, depth int) {
	if depth > 64 {
		report.problem("page %d: traversal depth exceeds 64, possible cycle", pg)
		return
	}
	if pg < MinPageNo || pg >= limit {
		report.problem("page %d: out of range (limit %d)", pg, limit)
		return
	}

	p, err := txn.getPage(pg)
	if err != nil {
		report.problem("page %d: %v", pg, err)
		return
	}
	if verr := p.validate(uint(txn.env.pageSize)); verr != nil {
		report.problem("page %d: %v", pg, verr)
		return
	}

	switch {
	case p.isBranch():
		counts.Branch++
		for i := 0; i < p.numEntries(); i++ {
			n := nodeFromPage(p, i)
			if n == nil {
				report.problem("page %d: missing node at index %d", pg, i)
				continue
			}
			walkPage(txn, n.childPgno(), limit, counts, report, depth+1)
		}
	case p.isLeaf():
		counts.Leaf++
		for i := 0; i < p.numEntries(); i++ {
			n := nodeFromPage(p, i)
			if n == nil {
				report.problem("page %d: missing node at index %d", pg, i)
				continue
			}
			if n.isBig() {
				overflowPgno := n.overflowPgno()
				op, err := txn.getPage(overflowPgno)
				if err != nil {
					report.problem("page %d node %d: overflow page %d: %v", pg, i, overflowPgno, err)
					continue
				}
				if !op.isLarge() {
					report.problem("page %d node %d: overflow page %d is not flagged large", pg, i, overflowPgno)
					continue
				}
				counts.Large += int(op.overflowPages())
				for j := pgno(1); j < pgno(op.overflowPages()); j++ {
					if overflowPgno+j >= limit {
						report.problem("page %d node %d: overflow run extends past file limit", pg, i)
						break
					}
				}
			}
		}
	default:
		report.problem("page %d: unexpected page type %v", pg, p.pageType())
	}
}

// walkGCTree walks FreeDBI's own page tree the same way walkPage walks
// MainDBI, except a leaf node's value is an encoded pnl (validated via
// decodePNL/check) rather than user data.
func walkGCTree(txn *Txn, root pgno, limit pgno, report *CheckReport) {
	walkGCPage(txn, root, limit, report, 0)
}

func walkGCPage(txn *Txn, pg pgno, limit pgno, report *CheckReport, depth int) {
	if depth > 64 {
		report.problem("gc page %d: traversal depth exceeds 64, possible cycle", pg)
		return
	}
	if pg < MinPageNo || pg >= limit {
		report.problem("gc page %d: out of range (limit %d)", pg, limit)
		return
	}

	p, err := txn.getPage(pg)
	if err != nil {
		report.problem("gc page %d: %v", pg, err)
		return
	}
	if verr := p.validate(uint(txn.env.pageSize)); verr != nil {
		report.problem("gc page %d: %v", pg, verr)
		return
	}

	switch {
	case p.isBranch():
		report.GCPages.Branch++
		for i := 0; i < p.numEntries(); i++ {
			n := nodeFromPage(p, i)
			if n == nil {
				report.problem("gc page %d: missing node at index %d", pg, i)
				continue
			}
			walkGCPage(txn, n.childPgno(), limit, report, depth+1)
		}
	case p.isLeaf():
		report.GCPages.Leaf++
		for i := 0; i < p.numEntries(); i++ {
			n := nodeFromPage(p, i)
			if n == nil {
				report.problem("gc page %d: missing node at index %d", pg, i)
				continue
			}
			txnid := decodeGCKey(n.key())

			val := n.nodeData()
			if n.isBig() {
				overflowPgno := n.overflowPgno()
				op, operr := txn.getPage(overflowPgno)
				if operr != nil || !op.isLarge() {
					report.problem("gc record txn=%d: overflow page %d is missing or not flagged large", txnid, overflowPgno)
					continue
				}
				report.GCPages.Large += int(op.overflowPages())

				data, derr := txn.getLargeData(overflowPgno, n.dataSize())
				if derr != nil {
					report.problem("gc record txn=%d: overflow page %d: %v", txnid, overflowPgno, derr)
					continue
				}
				val = data
			}

			list, derr := decodePNL(val)
			if derr != nil {
				report.problem("gc record txn=%d: %v", txnid, derr)
				continue
			}
			if cerr := list.check(limit); cerr != nil {
				report.problem("gc record txn=%d: %v", txnid, cerr)
			}
			report.GCEntries++
			report.GCPageCount += len(list)
		}
	default:
		report.problem("gc page %d: unexpected page type %v", pg, p.pageType())
	}
}
