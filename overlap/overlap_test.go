package overlap

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/jsphweid/stylerank/model"
	"github.com/stretchr/testify/assert"
)

func notesFrom(triples [][3]int) []model.Note {
	var res []model.Note
	for _, t := range triples {
		res = append(res, model.NewNote(t[0], t[1], t[2], 100))
	}
	return res
}

// bruteForce checks every note against the window start.
func bruteForce(notes []model.Note, s int) []int {
	var res []int
	for i, n := range notes {
		if n.Onset <= s && n.End > s {
			res = append(res, i)
		}
	}
	return res
}

func TestQuerySimple(t *testing.T) {
	notes := notesFrom([][3]int{
		{60, 0, 2},
		{57, 0, 4},
		{64, 1, 2},
	})
	idx := New(notes)

	assert := assert.New(t)
	assert.Equal(4, idx.MaxDuration())
	assert.ElementsMatch([]int{0, 1}, idx.Query(0, 1))
	assert.ElementsMatch([]int{0, 1, 2}, idx.Query(1, 3))
	assert.ElementsMatch([]int{1, 2}, idx.Query(2, 3))
	assert.Empty(idx.Query(4, 5))
}

func TestQueryMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		var triples [][3]int
		for i := 0; i < 40; i++ {
			triples = append(triples, [3]int{r.Intn(128), r.Intn(60), 1 + r.Intn(12)})
		}
		notes := notesFrom(triples)
		idx := New(notes)

		for s := 0; s < 75; s++ {
			got := idx.Query(s, s+1)
			sort.Ints(got)
			want := bruteForce(notes, s)
			assert.Equal(t, want, got, "round %d start %d", round, s)
		}
	}
}

func TestQueryPanicsOnEmptyWindow(t *testing.T) {
	idx := New(notesFrom([][3]int{{60, 0, 1}}))
	assert.Panics(t, func() { idx.Query(3, 3) })
	assert.Panics(t, func() { idx.Query(4, 3) })
}

func TestEmptyIndex(t *testing.T) {
	idx := New(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Query(0, 1))
}
