// Package collector turns per-piece distributions into one fixed-width
// matrix per feature.
package collector

import (
	"sort"
	"sync"

	"github.com/jsphweid/stylerank/model"
	"golang.org/x/exp/maps"
)

// FeatureData is the projection of one feature over the corpus. Matrix is
// row-major with len(Domain)+1 columns, the last one being the remainder.
type FeatureData struct {
	Domain []uint64
	Matrix []uint64
}

// Width is the number of columns in a row.
func (fd FeatureData) Width() int {
	return len(fd.Domain) + 1
}

// Rows returns the number of pieces that contributed.
func (fd FeatureData) Rows() int {
	return len(fd.Matrix) / fd.Width()
}

// Row returns piece i's row.
func (fd FeatureData) Row(i int) []uint64 {
	w := fd.Width()
	return fd.Matrix[i*w : (i+1)*w]
}

type Result struct {
	Features map[string]FeatureData
	// Indices are the caller's piece indices, in row order.
	Indices []int
}

type featureState struct {
	dists    []model.Distribution
	presence map[uint64]uint64
}

// Collector is safe for concurrent use. GetData may be called any number
// of times; each call recomputes from everything added so far.
type Collector struct {
	mu       sync.Mutex
	features map[string]*featureState
	indices  []int
}

func New() *Collector {
	return &Collector{features: make(map[string]*featureState)}
}

// Add takes ownership of d and appends it to name's rows.
func (c *Collector) Add(name string, d model.Distribution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(name, d)
}

func (c *Collector) add(name string, d model.Distribution) {
	fs, ok := c.features[name]
	if !ok {
		fs = &featureState{presence: make(map[uint64]uint64)}
		c.features[name] = fs
	}
	for code := range d {
		fs.presence[code]++
	}
	fs.dists = append(fs.dists, d)
}

// AddPiece adds every distribution of one piece and its index under a single
// lock, so rows of concurrent callers stay aligned across features.
func (c *Collector) AddPiece(index int, dists map[string]model.Distribution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indices = append(c.indices, index)
	for name, d := range dists {
		c.add(name, d)
	}
}

func (c *Collector) FeatureNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := maps.Keys(c.features)
	sort.Strings(names)
	return names
}

// GetData ranks each feature's codes by the number of pieces containing
// them, most common first and lower code first on ties, keeps at most
// upperBound of them and projects every piece onto that domain.
func (c *Collector) GetData(upperBound int) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := Result{
		Features: make(map[string]FeatureData, len(c.features)),
		Indices:  append([]int(nil), c.indices...),
	}
	for name, fs := range c.features {
		domain := rank(fs.presence, upperBound)
		res.Features[name] = FeatureData{
			Domain: domain,
			Matrix: project(fs.dists, domain),
		}
	}
	return res
}

func rank(presence map[uint64]uint64, upperBound int) []uint64 {
	domain := maps.Keys(presence)
	sort.Slice(domain, func(i, j int) bool {
		a, b := domain[i], domain[j]
		if presence[a] != presence[b] {
			return presence[a] > presence[b]
		}
		return a < b
	})
	if upperBound >= 0 && len(domain) > upperBound {
		domain = domain[:upperBound]
	}
	return domain
}

func project(dists []model.Distribution, domain []uint64) []uint64 {
	width := len(domain) + 1
	matrix := make([]uint64, 0, width*len(dists))
	for _, d := range dists {
		var used uint64
		for _, code := range domain {
			w := d[code]
			used += w
			matrix = append(matrix, w)
		}
		matrix = append(matrix, d.Total()-used)
	}
	return matrix
}
