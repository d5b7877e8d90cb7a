package chord

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/overlap"
	"github.com/stretchr/testify/assert"
)

func notesFrom(triples [][3]int) []model.Note {
	var res []model.Note
	for _, t := range triples {
		res = append(res, model.NewNote(t[0], t[1], t[2], 100))
	}
	return res
}

var exampleNotes = [][3]int{
	{60, 0, 2},
	{57, 0, 4},
	{64, 1, 2},
	{62, 3, 1},
	{60, 4, 1},
	{55, 4, 1},
	{54, 5, 2},
	{62, 5, 1},
	{62, 6, 2},
	{59, 6, 2},
}

func TestBoundaries(t *testing.T) {
	onsets := []int{0, 3}
	offsets := []int{1, 3, 4}

	assert := assert.New(t)
	assert.Equal([]int{0, 3, 4}, Boundaries(onsets, offsets, OnsetPolicy))
	assert.Equal([]int{0, 1, 3, 4}, Boundaries(onsets, offsets, OnsetOffsetPolicy))
	assert.Nil(Boundaries(nil, nil, OnsetPolicy))
	assert.Nil(Boundaries(nil, nil, OnsetOffsetPolicy))
}

func TestSegmentExample(t *testing.T) {
	notes := notesFrom(exampleNotes)
	idx := overlap.New(notes)
	boundaries := Boundaries([]int{0, 1, 3, 4, 5, 6}, []int{2, 3, 4, 5, 6, 7, 8}, OnsetPolicy)
	chords := Segment(notes, idx, boundaries)

	want := []model.Chord{
		{Onset: 0, Duration: 1, Notes: []int{1, 0}, OnsetNotes: []int{1, 0}},
		{Onset: 1, Duration: 2, Notes: []int{1, 0, 2}, OnsetNotes: []int{2}, TieNotes: []int{1, 0}},
		{Onset: 3, Duration: 1, Notes: []int{1, 3}, OnsetNotes: []int{3}, TieNotes: []int{1}},
		{Onset: 4, Duration: 1, Notes: []int{5, 4}, OnsetNotes: []int{5, 4}},
		{Onset: 5, Duration: 1, Notes: []int{6, 7}, OnsetNotes: []int{6, 7}},
		{Onset: 6, Duration: 2, Notes: []int{6, 9, 8}, OnsetNotes: []int{9, 8}, TieNotes: []int{6}},
	}
	if diff := cmp.Diff(want, chords); diff != "" {
		t.Errorf("Segment() mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentWithRests(t *testing.T) {
	notes := notesFrom([][3]int{
		{60, 0, 1},
		{62, 3, 1},
	})
	idx := overlap.New(notes)

	assert := assert.New(t)

	withRests := Segment(notes, idx, Boundaries([]int{0, 3}, []int{1, 4}, OnsetOffsetPolicy))
	assert.Len(withRests, 3)
	assert.True(withRests[1].IsRest())
	assert.Equal(1, withRests[1].Onset)
	assert.Equal(2, withRests[1].Duration)
	assert.Len(WithoutRests(withRests), 2)

	onsetOnly := Segment(notes, idx, Boundaries([]int{0, 3}, []int{1, 4}, OnsetPolicy))
	assert.Len(onsetOnly, 2)
	assert.Equal(3, onsetOnly[0].Duration)
	assert.Equal([]int{0}, onsetOnly[0].Notes)
}

func TestSegmentDegenerate(t *testing.T) {
	notes := notesFrom([][3]int{{60, 0, 1}})
	idx := overlap.New(notes)

	assert := assert.New(t)
	assert.Empty(Segment(nil, overlap.New(nil), []int{0, 1}))
	assert.Empty(Segment(notes, idx, []int{0}))
	assert.Empty(Segment(notes, idx, nil))
}

func TestNewOrdersEqualPitchesStably(t *testing.T) {
	notes := notesFrom([][3]int{
		{64, 0, 2},
		{60, 0, 2},
		{64, 1, 1},
	})
	c := New(notes, []int{2, 0, 1}, 1, 1)

	assert := assert.New(t)
	assert.Equal([]int{1, 2, 0}, c.Notes)
	assert.Equal([]int{2}, c.OnsetNotes)
	assert.Equal([]int{1, 0}, c.TieNotes)
}

func TestKey(t *testing.T) {
	notes := notesFrom(exampleNotes)
	c := New(notes, []int{0, 1, 2}, 1, 2)

	assert := assert.New(t)
	assert.Equal("57-60-64", Key(notes, c))
	assert.Equal("rest", Key(notes, model.Chord{Onset: 1, Duration: 1}))
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{OnsetPolicy, OnsetOffsetPolicy} {
		got, err := ParsePolicy(p.String())
		assert.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePolicy("offset")
	assert.Error(t, err)
}
