package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/stylerank/collector"
	"github.com/jsphweid/stylerank/constants"
	"github.com/jsphweid/stylerank/export"
	"github.com/jsphweid/stylerank/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// writeScale writes n consecutive quarter notes.
func writeScale(t *testing.T, path string, n int) {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)
	var tr smf.Track
	for i := 0; i < n; i++ {
		tr.Add(0, midi.NoteOn(0, uint8(60+i%12), 100))
		tr.Add(480, midi.NoteOff(0, uint8(60+i%12)))
	}
	tr.Close(0)
	s.Add(tr)
	require.NoError(t, s.WriteFile(path))
}

func setupCorpus(t *testing.T) (string, string) {
	t.Helper()
	media := t.TempDir()
	out := t.TempDir()
	t.Setenv("STYLE_RANK_OUT", out)
	t.Setenv("STYLE_RANK_DB", "")
	t.Setenv("MEDIA_PATH", "")

	writeScale(t, filepath.Join(media, "a.mid"), 12)
	writeScale(t, filepath.Join(media, "b.mid"), 3)
	writeScale(t, filepath.Join(media, "c.mid"), 16)
	return media, out
}

func testFlags(dir string) featuresFlags {
	return featuresFlags{
		dir:        dir,
		names:      []string{"ChordSize", "ChordRange"},
		tag:        constants.DefaultTag,
		upperBound: constants.DefaultUpperBound,
		minChords:  constants.DefaultMinChords,
		policy:     "onset",
		workers:    2,
	}
}

func TestRunFeaturesWritesExportsAndRun(t *testing.T) {
	media, out := setupCorpus(t)
	ctx := context.Background()

	require.NoError(t, runFeatures(ctx, nil, testFlags(media)))

	res, err := export.ReadBinary[collector.Result](filepath.Join(out, "result.gob"))
	require.NoError(t, err)
	// b.mid has too few chords
	assert.Equal(t, []int{0, 2}, res.Indices)
	assert.Equal(t, []uint64{1}, res.Features["ChordSize"].Domain)

	assert.FileExists(t, filepath.Join(out, "ChordSize.csv"))
	assert.FileExists(t, filepath.Join(out, "ChordRange.csv"))

	st, err := store.Open(constants.GetDBPath(), nil)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"ChordRange", "ChordSize"}, runs[0].Features)
}

func TestRunFeaturesRejectsBadPolicy(t *testing.T) {
	media, _ := setupCorpus(t)
	flags := testFlags(media)
	flags.policy = "sideways"
	assert.Error(t, runFeatures(context.Background(), nil, flags))
}

func TestReportFromStoredRun(t *testing.T) {
	media, out := setupCorpus(t)
	ctx := context.Background()
	require.NoError(t, runFeatures(ctx, nil, testFlags(media)))

	st, err := store.Open(constants.GetDBPath(), nil)
	require.NoError(t, err)
	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	st.Close()

	res, err := loadResult(ctx, runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, res.Indices)

	var buf bytes.Buffer
	require.NoError(t, report(&buf, res, true))
	assert.Contains(t, buf.String(), "pieces: 2")
	assert.Contains(t, buf.String(), "ChordSize")
	assert.FileExists(t, filepath.Join(out, "charts", "ChordSize.png"))
}

func TestInspect(t *testing.T) {
	media, _ := setupCorpus(t)
	excerptChord = 2
	excerptOutPath = filepath.Join(t.TempDir(), "excerpt.mid")
	t.Cleanup(func() { excerptChord = -1 })

	var buf bytes.Buffer
	require.NoError(t, inspect(&buf, filepath.Join(media, "a.mid")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "notes: 12, chords: 12, ticks per quarter: 480", lines[0])
	assert.Contains(t, lines[1], "onset=0")
	assert.True(t, strings.HasSuffix(lines[1], " 60"))
	assert.FileExists(t, excerptOutPath)
	assert.Contains(t, lines[len(lines)-1], "wrote chords 2-5")
}

func TestInspectExcerptOutOfRange(t *testing.T) {
	media, _ := setupCorpus(t)
	excerptChord = 50
	t.Cleanup(func() { excerptChord = -1 })
	assert.Error(t, inspect(&bytes.Buffer{}, filepath.Join(media, "b.mid")))
}

func TestProgressLoggerDropsStaleLines(t *testing.T) {
	var mu sync.Mutex
	var lines [][2]int
	progress := progressLogger(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, [2]int{done, total})
	}, 200*time.Millisecond)

	progress(1, 3)
	progress(2, 3)
	progress(3, 3)
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][2]int{{3, 3}}, lines)
}

func TestProgressLoggerCoalesces(t *testing.T) {
	var mu sync.Mutex
	var lines [][2]int
	progress := progressLogger(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, [2]int{done, total})
	}, 50*time.Millisecond)

	progress(1, 10)
	progress(2, 10)
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][2]int{{2, 10}}, lines)
}

func TestRunRank(t *testing.T) {
	media, _ := setupCorpus(t)
	corpusDir := t.TempDir()
	writeScale(t, filepath.Join(corpusDir, "x.mid"), 12)
	writeScale(t, filepath.Join(corpusDir, "y.mid"), 12)
	jsonPath := filepath.Join(t.TempDir(), "rank.json")

	flags := rankFlags{
		corpusDir:  corpusDir,
		names:      []string{"ChordSize"},
		tag:        constants.DefaultTag,
		upperBound: constants.DefaultUpperBound,
		trees:      20,
		depth:      5,
		seed:       1,
		workers:    2,
		jsonPath:   jsonPath,
	}
	candidates := []string{
		filepath.Join(media, "c.mid"),
		filepath.Join(media, "b.mid"),
		filepath.Join(media, "a.mid"),
	}

	var buf bytes.Buffer
	require.NoError(t, runRank(context.Background(), &buf, candidates, flags))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "a.mid"), lines[0])
	assert.Contains(t, lines[0], "1.0000")
	assert.True(t, strings.HasSuffix(lines[1], "c.mid"), lines[1])
	assert.Contains(t, lines[2], "skipped")
	assert.FileExists(t, jsonPath)
}

func TestRunRankNeedsCorpus(t *testing.T) {
	media, _ := setupCorpus(t)
	err := runRank(context.Background(), &bytes.Buffer{}, []string{filepath.Join(media, "a.mid")}, rankFlags{trees: 1, depth: 1})
	assert.Error(t, err)
}
