// Package overlap answers "which notes are sounding from s until the next
// boundary" without testing every pair of notes.
package overlap

import (
	"fmt"
	"sort"

	"github.com/jsphweid/stylerank/model"
)

// Index orders notes by end time. A query for window start s only has to
// look at notes ending in (s, s+maxDuration].
type Index struct {
	notes       []model.Note
	byEnd       []int
	maxDuration int
}

// New builds an index over notes. The slice is referenced, not copied, and
// must not change while the index is in use.
func New(notes []model.Note) *Index {
	idx := &Index{
		notes: notes,
		byEnd: make([]int, len(notes)),
	}
	for i, n := range notes {
		idx.byEnd[i] = i
		if n.Duration > idx.maxDuration {
			idx.maxDuration = n.Duration
		}
	}
	sort.SliceStable(idx.byEnd, func(a, b int) bool {
		return notes[idx.byEnd[a]].End < notes[idx.byEnd[b]].End
	})
	return idx
}

func (idx *Index) MaxDuration() int {
	return idx.maxDuration
}

func (idx *Index) Len() int {
	return len(idx.notes)
}

// Query returns the indices of notes whose [onset, end) intersects [s, e),
// where e is the next boundary after s. Results are ordered by end time.
// Calling it with s >= e is a programming error.
func (idx *Index) Query(s, e int) []int {
	if s >= e {
		panic(fmt.Sprintf("overlap query needs s < e, got [%d, %d)", s, e))
	}

	var res []int
	first := sort.Search(len(idx.byEnd), func(i int) bool {
		return idx.notes[idx.byEnd[i]].End > s
	})
	limit := s + idx.maxDuration
	for _, i := range idx.byEnd[first:] {
		n := idx.notes[i]
		if n.End > limit {
			break
		}
		if n.Onset <= s {
			res = append(res, i)
		}
	}
	return res
}
