package cellar

// gc.go implements the GC engine described in the storage specification:
// FreeDBI is an INTEGERKEY table mapping a committing txnid to the sorted
// list of pages that txn retired. Allocation prefers, in order, pages
// freed-and-reused within the running write txn ("loose" pages), pages
// already pulled out of the GC table this txn (repnl), and finally GC
// records whose key is older than every live reader's snapshot (the
// "detent"). Only when all three are exhausted does the file grow.

const gcKeySize = 8

// encodeGCKey renders a txnid as a big-endian 8-byte GC table key so
// that byte-wise comparison orders records the same as numeric order.
func encodeGCKey(txn uint64) []byte {
	b := make([]byte, gcKeySize)
	for i := 0; i < gcKeySize; i++ {
		b[gcKeySize-1-i] = byte(txn >> (8 * i))
	}
	return b
}

func decodeGCKey(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// compareGCKey orders FreeDBI records numerically by committing txnid.
func compareGCKey(a, b []byte) int {
	va, vb := decodeGCKey(a), decodeGCKey(b)
	switch {
	case va < vb:
		return -1
	case va > vb:
		return 1
	default:
		return 0
	}
}

// detent returns the oldest txnid that any live reader might still be
// observing. GC records with a key strictly less than the detent can be
// reclaimed: no snapshot can reach pages retired before it.
func (txn *Txn) detent() uint64 {
	if txn.env.lockFile == nil {
		return uint64(txn.txnID)
	}
	oldest := txn.env.lockFile.oldestReader()
	if oldest == ^uint64(0) {
		return uint64(txn.txnID)
	}
	return oldest
}

// gcAlloc returns num contiguous free pages, preferring (in order) the
// txn-local loose list, the already-reclaimed repnl, and then GC records
// reclaimable under the current detent. It falls back to extending the
// file when none of those sources can satisfy the request.
func (txn *Txn) gcAlloc(num int) (pgno, error) {
	if num == 1 && len(txn.freePages) > 0 {
		p := txn.freePages[len(txn.freePages)-1]
		txn.freePages = txn.freePages[:len(txn.freePages)-1]
		return p, nil
	}

	if idx := txn.repnl.scanForSequence(num); idx >= 0 {
		lowest, rest := extractRun(txn.repnl, idx, num)
		txn.repnl = rest
		return lowest, nil
	}

	if txn.freeDBI() {
		if p, ok, err := txn.gcReclaim(num); err != nil {
			return 0, err
		} else if ok {
			return p, nil
		}
	}

	p := txn.allocatedPg
	txn.allocatedPg += pgno(num)
	return p, nil
}

// freeDBI reports whether the environment's GC table can be scanned,
// i.e. this is not itself a write against FreeDBI re-entering gcAlloc.
func (txn *Txn) freeDBI() bool {
	return !txn.gcScanCursor && int(FreeDBI) < len(txn.trees) && txn.trees[FreeDBI].Root != invalidPgno
}

// gcReclaim scans the GC table for records older than the detent,
// pulling their page lists into repnl and remembering the txnid so the
// record can be deleted at commit. It returns ok=false if nothing in
// the GC table is currently reclaimable.
func (txn *Txn) gcReclaim(num int) (pgno, bool, error) {
	detent := txn.detent()

	txn.gcScanCursor = true
	cur, err := txn.OpenCursor(FreeDBI)
	txn.gcScanCursor = false
	if err != nil {
		return 0, false, err
	}
	defer cur.Close()

	key, val, err := cur.Get(nil, nil, First)
	for {
		if err != nil {
			if err == ErrNotFoundError {
				break
			}
			return 0, false, err
		}
		recTxn := decodeGCKey(key)
		if recTxn >= detent {
			break
		}
		if !txn.alreadyReclaimed(recTxn) {
			list, derr := decodePNL(val)
			if derr != nil {
				return 0, false, derr
			}
			txn.repnl = pnlMerge(txn.repnl, list)
			txn.rkl = append(txn.rkl, recTxn)
		}
		if idx := txn.repnl.scanForSequence(num); idx >= 0 {
			lowest, rest := extractRun(txn.repnl, idx, num)
			txn.repnl = rest
			txn.env.log.GCReclaimed(uint64(txn.txnID), num, detent)
			txn.recordGCReclaim(num)
			return lowest, true, nil
		}
		key, val, err = cur.Get(nil, nil, Next)
	}

	if idx := txn.repnl.scanForSequence(num); idx >= 0 {
		lowest, rest := extractRun(txn.repnl, idx, num)
		txn.repnl = rest
		txn.env.log.GCReclaimed(uint64(txn.txnID), num, detent)
		txn.recordGCReclaim(num)
		return lowest, true, nil
	}
	return 0, false, nil
}

func (txn *Txn) recordGCReclaim(num int) {
	if m := txn.env.metrics; m != nil {
		m.GCReclaimsTotal.Inc()
		m.GCReclaimedPages.Add(float64(num))
	}
}

func (txn *Txn) alreadyReclaimed(t uint64) bool {
	for _, r := range txn.rkl {
		if r == t {
			return true
		}
	}
	return false
}

// gcUpdate is invoked from Commit before dirty pages are written. It
// deletes GC records consumed by gcReclaim this txn and writes a single
// new GC record for any pages this txn retired but did not reuse.
//
// Writing that record is itself a mutation of FreeDBI: cur.Put below can
// copy-on-write a GC-tree branch or leaf page not already dirtied by
// gcDeleteConsumed, which retires the old pgno into txn.freePages. If
// that pgno were left there, Commit would never look at txn.freePages
// again and the page would end up neither live nor in any GC record.
// So the record is (re)written in a loop, folding any pgnos the write
// itself produced back into the same record, until a write leaves
// nothing new behind.
func (txn *Txn) gcUpdate() error {
	if err := txn.gcDeleteConsumed(); err != nil {
		return err
	}

	retired := append(pnl(nil), txn.freePages...)
	retired = append(retired, txn.repnl...)
	txn.freePages = txn.freePages[:0]
	txn.repnl = nil

	if len(retired) == 0 {
		return nil
	}

	for {
		retired.sortDescending()
		retired = dedupSorted(retired)

		if err := txn.gcWriteRecord(retired); err != nil {
			return err
		}

		if len(txn.freePages) == 0 && len(txn.repnl) == 0 {
			return nil
		}

		retired = append(retired, txn.freePages...)
		retired = append(retired, txn.repnl...)
		txn.freePages = txn.freePages[:0]
		txn.repnl = nil
	}
}

// gcWriteRecord stores list under the current txnid's GC key, replacing
// any prior record written for this txn.
func (txn *Txn) gcWriteRecord(list pnl) error {
	// Stay in self-scan-suppressed mode for the entire cursor lifetime:
	// the Put below can split GC-tree pages and allocate new ones, and
	// those allocations must not recursively open a second cursor onto
	// the very table this one is mutating.
	txn.gcScanCursor = true
	defer func() { txn.gcScanCursor = false }()

	cur, err := txn.OpenCursor(FreeDBI)
	if err != nil {
		return err
	}
	defer cur.Close()

	key := encodeGCKey(uint64(txn.txnID))
	val := encodePNL(list)
	return cur.Put(key, val, 0)
}

func (txn *Txn) gcDeleteConsumed() error {
	if len(txn.rkl) == 0 {
		return nil
	}

	txn.gcScanCursor = true
	defer func() { txn.gcScanCursor = false }()

	cur, err := txn.OpenCursor(FreeDBI)
	if err != nil {
		return err
	}
	defer cur.Close()

	for _, t := range txn.rkl {
		key := encodeGCKey(t)
		if _, _, err := cur.Get(key, nil, Set); err != nil {
			if err == ErrNotFoundError {
				continue // already gone (shouldn't happen, but commit must not fail on it)
			}
			return err
		}
		if err := cur.Del(0); err != nil {
			return err
		}
	}
	txn.rkl = txn.rkl[:0]
	return nil
}
