// Package export writes collected feature data to disk.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/jsphweid/stylerank/collector"
	"github.com/jsphweid/stylerank/metadata"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/util"
)

// Labels adds metadata columns to CSV rows. Paths holds the input paths
// indexed like the batch input, Metadata is keyed by path.
type Labels struct {
	Paths    []string
	Metadata map[string]model.MidiMetadata
}

// Header is index, optional path and metadata columns, the domain codes and
// remainder.
func Header(fd collector.FeatureData, labels *Labels) []string {
	header := []string{"index"}
	if labels != nil {
		header = append(header, "path")
		header = append(header, metadata.Columns...)
	}
	for _, code := range fd.Domain {
		header = append(header, strconv.FormatUint(code, 10))
	}
	return append(header, "remainder")
}

// WriteCSV writes one row per contributing piece.
func WriteCSV(w io.Writer, fd collector.FeatureData, indices []int, labels *Labels) error {
	if fd.Rows() != len(indices) {
		return fmt.Errorf("feature has %d rows but %d indices", fd.Rows(), len(indices))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header(fd, labels)); err != nil {
		return errors.WithStackTrace(err)
	}
	for row, index := range indices {
		record := []string{strconv.Itoa(index)}
		if labels != nil {
			path := ""
			if index < len(labels.Paths) {
				path = labels.Paths[index]
			}
			record = append(record, path)
			record = append(record, metadata.Row(labels.Metadata[path])...)
		}
		for _, v := range fd.Row(row) {
			record = append(record, strconv.FormatUint(v, 10))
		}
		if err := cw.Write(record); err != nil {
			return errors.WithStackTrace(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

// WriteCSVFiles writes <dir>/<feature>.csv for every feature and returns the
// paths written, sorted by feature name.
func WriteCSVFiles(dir string, res collector.Result, labels *Labels) ([]string, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, err
	}
	var written []string
	for _, name := range util.SortedKeys(res.Features) {
		path := filepath.Join(dir, name+".csv")
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.WithStackTrace(err)
		}
		err = WriteCSV(f, res.Features[name], res.Indices, labels)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

// CreateBinary gob-encodes data into filename.
func CreateBinary(filename string, data any) error {
	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(data); err != nil {
		return errors.WithStackTrace(err)
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0666); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

func ReadBinary[A any](path string) (A, error) {
	var data A
	f, err := os.Open(path)
	if err != nil {
		return data, errors.WithStackTrace(err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return data, errors.WithStackTrace(err)
	}
	return data, nil
}
