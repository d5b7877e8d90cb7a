package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jsphweid/stylerank/batch"
	"github.com/jsphweid/stylerank/midi"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/rank"
	"github.com/jsphweid/stylerank/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func scale(n int) []model.RawNote {
	var res []model.RawNote
	for i := 0; i < n; i++ {
		res = append(res, model.RawNote{Pitch: 60 + i%12, Onset: i, Duration: 1, Velocity: 100})
	}
	return res
}

// triads returns n successive C major triads.
func triads(n int) []model.RawNote {
	var res []model.RawNote
	for i := 0; i < n; i++ {
		for _, p := range []int{60, 64, 67} {
			res = append(res, model.RawNote{Pitch: p, Onset: i, Duration: 1, Velocity: 100})
		}
	}
	return res
}

func newTestServer(t *testing.T) http.Handler {
	return newTestServerIn(t, "")
}

func newTestServerIn(t *testing.T, mediaDir string) http.Handler {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"), clocktesting.NewFakePassiveClock(time.Unix(0, 0)))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	opts := batch.DefaultOptions()
	opts.Workers = 2
	opts.MediaDir = mediaDir
	opts.Decoder = func(path string, resolution int) (midi.Decoded, error) {
		switch path {
		case "song.mid", "song2.mid":
			return midi.Decoded{Notes: scale(12), Ticks: 1}, nil
		case "chords.mid":
			return midi.Decoded{Notes: triads(12), Ticks: 1}, nil
		}
		return midi.Decoded{}, errors.New("no such file")
	}
	return New(st, opts).Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createRun(t *testing.T, h http.Handler) model.RunSummary {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/runs", model.RunRequest{
		Paths:        []string{"missing.mid", "song.mid"},
		FeatureNames: []string{"ChordSize"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary model.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	return summary
}

func TestCreateAndFetchRun(t *testing.T) {
	h := newTestServer(t)
	summary := createRun(t, h)

	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, []int{1}, summary.Indices)
	assert.Equal(t, []string{"ChordSize"}, summary.Features)

	rec := do(t, h, http.MethodGet, "/runs/"+summary.ID+"/features/ChordSize", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fr model.FeatureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fr))
	assert.Equal(t, []uint64{1}, fr.Domain)
	assert.Equal(t, []uint64{12, 0}, fr.Matrix)
	assert.Equal(t, 2, fr.Width)

	rec = do(t, h, http.MethodGet, "/runs/"+summary.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []model.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, summary.ID, runs[0].ID)
}

func TestFeatureChart(t *testing.T) {
	h := newTestServer(t)
	summary := createRun(t, h)

	rec := do(t, h, http.MethodGet, "/runs/"+summary.ID+"/features/ChordSize/chart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "ChordSize")
}

func TestDeleteRun(t *testing.T) {
	h := newTestServer(t)
	summary := createRun(t, h)

	rec := do(t, h, http.MethodDelete, "/runs/"+summary.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/runs/"+summary.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFound(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/runs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	summary := createRun(t, h)
	rec = do(t, h, http.MethodGet, "/runs/"+summary.ID+"/features/ChordRange", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRunRejectsBadRequests(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/runs", model.RunRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/runs", model.RunRequest{
		Paths:        []string{"song.mid"},
		FeatureNames: []string{"NoSuchFeature"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var er model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	assert.Contains(t, er.Error, "NoSuchFeature")

	req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewBufferString("{"))
	raw := httptest.NewRecorder()
	h.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestFeatureNames(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/feature-names?tag=MELODY", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.FeatureNamesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MELODY", resp.Tag)
	assert.Equal(t, []string{"ChordMelodyNgram", "ChordTranMelodyInterval"}, resp.Names)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/runs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreateRunStaysInMediaDir(t *testing.T) {
	media := t.TempDir()
	h := newTestServerIn(t, media)

	for _, p := range []string{"../secret.mid", "a/../../secret.mid", "/etc/passwd"} {
		rec := do(t, h, http.MethodPost, "/runs", model.RunRequest{Paths: []string{"song.mid", p}})
		assert.Equal(t, http.StatusBadRequest, rec.Code, p)
		var er model.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
		assert.Contains(t, er.Error, "outside the media directory")
	}

	rec := do(t, h, http.MethodPost, "/rank", model.RankRequest{
		Candidates: []string{"song.mid"},
		Corpus:     []string{"../other/song.mid"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/runs", model.RunRequest{Paths: []string{"bach/song.mid", filepath.Join(media, "a.mid")}})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRank(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/rank", model.RankRequest{
		Candidates:   []string{"chords.mid", "song.mid"},
		Corpus:       []string{"song2.mid", "song.mid"},
		FeatureNames: []string{"ChordSize"},
		Trees:        10,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res rank.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Ranked, 2)
	assert.Equal(t, "song.mid", res.Ranked[0].Path)
	assert.Equal(t, "chords.mid", res.Ranked[1].Path)
	assert.Greater(t, res.Ranked[0].Similarity, res.Ranked[1].Similarity)
}

func TestRankRejectsBadRequests(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/rank", model.RankRequest{Candidates: []string{"song.mid"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/rank", model.RankRequest{
		Candidates: []string{"missing.mid"},
		Corpus:     []string{"song.mid"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var er model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	assert.Contains(t, er.Error, "candidate")

	rec = do(t, h, http.MethodPost, "/rank", model.RankRequest{
		Candidates:   []string{"song.mid"},
		Corpus:       []string{"song2.mid"},
		FeatureNames: []string{"NoSuchFeature"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
