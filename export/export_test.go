package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/stylerank/collector"
	"github.com/jsphweid/stylerank/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() collector.Result {
	c := collector.New()
	c.AddPiece(0, map[string]model.Distribution{
		"ChordSize":  {2: 3, 3: 1},
		"ChordRange": {7: 2},
	})
	c.AddPiece(2, map[string]model.Distribution{
		"ChordSize":  {2: 1, 4: 5},
		"ChordRange": {5: 1},
	})
	return c.GetData(2)
}

func TestWriteCSV(t *testing.T) {
	res := sample()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res.Features["ChordSize"], res.Indices, nil))

	want := "index,2,3,remainder\n" +
		"0,3,1,0\n" +
		"2,1,0,5\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVWithLabels(t *testing.T) {
	res := sample()
	labels := &Labels{
		Paths: []string{"a.mid", "b.mid", "c.mid"},
		Metadata: map[string]model.MidiMetadata{
			"c.mid": {
				Artist: "Chopin",
				Title:  "Nocturne, Op. 9",
				Year:   1832,
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res.Features["ChordRange"], res.Indices, labels))

	want := "index,path,artist,release,title,year,5,7,remainder\n" +
		"0,a.mid,,,,,0,2,0\n" +
		"2,c.mid,Chopin,,\"Nocturne, Op. 9\",1832,1,0,0\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVRowMismatch(t *testing.T) {
	res := sample()
	var buf bytes.Buffer
	assert.Error(t, WriteCSV(&buf, res.Features["ChordSize"], []int{0}, nil))
}

func TestWriteCSVFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "csv")
	written, err := WriteCSVFiles(dir, sample(), nil)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal([]string{
		filepath.Join(dir, "ChordRange.csv"),
		filepath.Join(dir, "ChordSize.csv"),
	}, written)

	data, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.Contains(string(data), "index,2,3,remainder")
}

func TestBinaryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.gob")
	res := sample()
	require.NoError(t, CreateBinary(path, res))

	got, err := ReadBinary[collector.Result](path)
	require.NoError(t, err)
	assert.Equal(t, res, got)
}

func TestReadBinaryMissing(t *testing.T) {
	_, err := ReadBinary[collector.Result](filepath.Join(t.TempDir(), "nope.gob"))
	assert.Error(t, err)
}
