package grammar

const (
	chunkShift = 8 // 2^8 = 256 rows per chunk
	chunkSize  = 1 << chunkShift
	chunkMask  = chunkSize - 1

	// initialChunkCount sizes the chunk directory for 1k rows.
	initialChunkCount = 1 << (10 - chunkShift)
)

// table is an append-only store of fixed-size chunks. Row i lives in
// chunk i>>chunkShift at slot i&chunkMask. Growing the directory copies
// chunk pointers only, so rows never move and indices stay valid for the
// life of the table.
type table[T any] struct {
	chunks [][]T
	count  int
}

// add appends v and returns its index. grew is set when the chunk
// directory had to be enlarged.
func (t *table[T]) add(v T) (index int, grew bool) {
	index = t.count
	chunk := index >> chunkShift
	grew = t.ensureCapacity(chunk)
	t.chunks[chunk][index&chunkMask] = v
	t.count++
	return index, grew
}

func (t *table[T]) ensureCapacity(chunk int) bool {
	grew := false
	if chunk >= len(t.chunks) {
		n := len(t.chunks) * 2
		if n == 0 {
			n = initialChunkCount
		}
		for chunk >= n {
			n *= 2
		}
		dir := make([][]T, n)
		copy(dir, t.chunks)
		t.chunks = dir
		grew = true
	}
	if t.chunks[chunk] == nil {
		t.chunks[chunk] = make([]T, chunkSize)
	}
	return grew
}

// at returns the row at i. The caller checks bounds.
func (t *table[T]) at(i int) *T {
	return &t.chunks[i>>chunkShift][i&chunkMask]
}

// get returns the row at i, or false when i is out of range.
func (t *table[T]) get(i int) (*T, bool) {
	if i < 0 || i >= t.count {
		return nil, false
	}
	return t.at(i), true
}

func (t *table[T]) len() int {
	return t.count
}

// chunkCount reports how many chunks hold rows.
func (t *table[T]) chunkCount() int {
	return (t.count + chunkMask) >> chunkShift
}
