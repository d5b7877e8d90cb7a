package model

import (
	"github.com/jsphweid/stylerank/util"
	"golang.org/x/exp/maps"
)

// Distribution is a weighted histogram from category code to weight.
type Distribution map[uint64]uint64

func NewDistribution() Distribution {
	return make(Distribution)
}

func (d Distribution) Add(code uint64, weight uint64) {
	d[code] += weight
}

func (d Distribution) Inc(code uint64) {
	d[code]++
}

func (d Distribution) Total() uint64 {
	return util.Sum(maps.Values(d))
}
