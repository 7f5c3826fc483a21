package cellar

import "sort"

// pnl is a page-number list: a sorted, duplicate-free sequence of page
// numbers. By convention lists are sorted in descending order so that
// removing the smallest (last) entry is O(1), mirroring the GC table's
// "take from the tail" access pattern.
type pnl []pgno

// pnlAppend appends pgno to the list without maintaining order. Callers
// that need a sorted, deduplicated list must call sortDescending/dedup
// once all entries are collected.
func pnlAppend(l pnl, p pgno) pnl {
	return append(l, p)
}

// pnlMerge merges two already-descending-sorted, duplicate-free lists
// into one descending-sorted, duplicate-free list.
func pnlMerge(a, b pnl) pnl {
	if len(a) == 0 {
		return append(pnl(nil), b...)
	}
	if len(b) == 0 {
		return append(pnl(nil), a...)
	}
	out := make(pnl, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] > b[j]:
			out = append(out, a[i])
			i++
		case a[i] < b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// sortDescending sorts l from largest to smallest pgno in place.
func (l pnl) sortDescending() {
	sort.Slice(l, func(i, j int) bool { return l[i] > l[j] })
}

// dedupSorted removes adjacent duplicates from a descending-sorted list.
func dedupSorted(l pnl) pnl {
	if len(l) < 2 {
		return l
	}
	out := l[:1]
	for _, p := range l[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// search returns the index of pgno p in a descending-sorted list, or the
// index where it would be inserted to keep the list sorted (binary
// search honoring the sort direction).
func (l pnl) search(p pgno) int {
	return sort.Search(len(l), func(i int) bool { return l[i] <= p })
}

// check asserts that every entry of l lies within [NumMetas, bound) and
// that the list is strictly descending with no duplicates. It is used by
// the integrity checker and by debug builds of the GC engine.
func (l pnl) check(bound pgno) error {
	for i, p := range l {
		if p < MinPageNo || p >= bound {
			return NewError(ErrCorrupted)
		}
		if i > 0 && l[i-1] <= p {
			return NewError(ErrCorrupted)
		}
	}
	return nil
}

// scanForSequence finds the first run of num strictly-consecutive page
// numbers within a descending-sorted list and returns the index of the
// highest pgno in the run, or -1 if no such run exists. Unlike libmdbx's
// SIMD-dispatched scan, this is a single scalar pass; correctness does
// not depend on the host's vector ISA, only throughput does.
func (l pnl) scanForSequence(num int) int {
	if num <= 0 || len(l) < num {
		return -1
	}
	if num == 1 {
		return 0
	}
	run := 1
	for i := 1; i < len(l); i++ {
		if l[i-1]-l[i] == 1 {
			run++
			if run >= num {
				return i - run + 1
			}
		} else {
			run = 1
		}
	}
	return -1
}

// extractRun removes the num consecutive pages starting at index start
// (inclusive, descending order so l[start] is the highest pgno in the
// run) and returns the lowest pgno of the removed run plus the
// remaining list.
func extractRun(l pnl, start, num int) (pgno, pnl) {
	lowest := l[start+num-1]
	rest := append(pnl{}, l[:start]...)
	rest = append(rest, l[start+num:]...)
	return lowest, rest
}

// encodePNL serializes a descending-sorted pnl as a GC record value:
// an 8-byte little-endian count followed by 4-byte little-endian pgnos.
func encodePNL(l pnl) []byte {
	buf := make([]byte, 8+4*len(l))
	leUint64Put(buf[0:8], uint64(len(l)))
	for i, p := range l {
		leUint32Put(buf[8+4*i:12+4*i], uint32(p))
	}
	return buf
}

// decodePNL parses a GC record value produced by encodePNL.
func decodePNL(data []byte) (pnl, error) {
	if len(data) < 8 {
		return nil, NewError(ErrCorrupted)
	}
	n := leUint64(data[0:8])
	if uint64(len(data)) != 8+4*n {
		return nil, NewError(ErrCorrupted)
	}
	out := make(pnl, n)
	for i := uint64(0); i < n; i++ {
		out[i] = pgno(leUint32(data[8+4*i : 12+4*i]))
	}
	return out, nil
}

func leUint64Put(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func leUint32Put(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func leUint32(b []byte) uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(b[i]) << (8 * i)
	}
	return v
}
