// Package feature defines the contract every analysis of a Piece satisfies
// and the registry callers select features from.
package feature

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/piece"
)

const (
	TagAll        = "ALL"
	TagOriginal   = "ORIGINAL"
	TagChord      = "CHORD"
	TagTransition = "TRANSITION"
	TagInterval   = "INTERVAL"
	TagMelody     = "MELODY"
)

var ErrUnknownFeature = errors.New("unknown feature")

// Feature maps a Piece to a freshly allocated Distribution. It must not
// modify the Piece.
type Feature interface {
	Name() string
	Tags() []string
	Evaluate(p *piece.Piece) model.Distribution
}

// Func adapts a plain function to Feature.
type Func struct {
	name string
	tags []string
	fn   func(p *piece.Piece) model.Distribution
}

func NewFunc(name string, fn func(p *piece.Piece) model.Distribution, tags ...string) *Func {
	return &Func{name: name, tags: tags, fn: fn}
}

func (f *Func) Name() string {
	return f.name
}

func (f *Func) Tags() []string {
	return f.tags
}

func (f *Func) Evaluate(p *piece.Piece) model.Distribution {
	return f.fn(p)
}

// HasTag reports whether f carries tag. Every feature matches TagAll.
func HasTag(f Feature, tag string) bool {
	if tag == TagAll || tag == "" {
		return true
	}
	for _, t := range f.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

var (
	mu       sync.RWMutex
	registry = map[string]Feature{}
)

// Register adds f to the registry. Registering a name twice panics.
func Register(f Feature) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[f.Name()]; ok {
		panic(fmt.Sprintf("feature %q registered twice", f.Name()))
	}
	registry[f.Name()] = f
}

func Get(name string) (Feature, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, name)
	}
	return f, nil
}

// Names lists registered features carrying tag, sorted by name.
func Names(tag string) []string {
	mu.RLock()
	defer mu.RUnlock()
	var res []string
	for name, f := range registry {
		if HasTag(f, tag) {
			res = append(res, name)
		}
	}
	sort.Strings(res)
	return res
}

// Select resolves names to features in the order given. With no names it
// returns every feature carrying tag, sorted by name.
func Select(names []string, tag string) ([]Feature, error) {
	if len(names) == 0 {
		names = Names(tag)
	}
	res := make([]Feature, 0, len(names))
	for _, name := range names {
		f, err := Get(name)
		if err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, nil
}
