package util

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gruntwork-io/go-commons/errors"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

func IsMidiPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".mid") || strings.HasSuffix(lower, ".midi")
}

// GatherAllMidiPaths walks path and returns every .mid/.midi file in walk
// order. maxNum of 0 means no limit.
func GatherAllMidiPaths(path string, maxNum int) ([]string, error) {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if maxNum != 0 && len(res) >= maxNum {
			return filepath.SkipAll
		}
		if !d.IsDir() && IsMidiPath(s) {
			res = append(res, s)
		}
		return nil
	}
	if err := filepath.WalkDir(path, walk); err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return res, nil
}

// ResolvePath joins relative paths onto root. Absolute paths and an empty
// root leave path unchanged.
func ResolvePath(root, path string) string {
	if root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// WithinDir reports whether path, resolved against root, stays inside root.
func WithinDir(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(ResolvePath(root, path)))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func SortedKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := GetKeys(m)
	slices.Sort(keys)
	return keys
}

func Min[A constraints.Integer](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Sum[A constraints.Integer](nums []A) uint64 {
	var total uint64
	for _, v := range nums {
		total += uint64(v)
	}
	return total
}
