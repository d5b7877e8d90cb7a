package model

import "time"

type RunRequest struct {
	Paths        []string `json:"paths"`
	FeatureNames []string `json:"feature_names,omitempty"`
	Tag          string   `json:"tag,omitempty"`
	UpperBound   int      `json:"upper_bound,omitempty"`
	Resolution   int      `json:"resolution,omitempty"`
}

type RunSummary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpperBound int       `json:"upper_bound"`
	Paths      []string  `json:"paths"`
	Indices    []int     `json:"indices"`
	Features   []string  `json:"features"`
}

type FeatureResponse struct {
	RunID  string   `json:"run_id"`
	Name   string   `json:"name"`
	Domain []uint64 `json:"domain"`
	Matrix []uint64 `json:"matrix"`
	Width  int      `json:"width"`
}

type FeatureNamesResponse struct {
	Tag   string   `json:"tag"`
	Names []string `json:"names"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}

type RankRequest struct {
	Candidates   []string `json:"candidates"`
	Corpus       []string `json:"corpus"`
	FeatureNames []string `json:"feature_names,omitempty"`
	Tag          string   `json:"tag,omitempty"`
	UpperBound   int      `json:"upper_bound,omitempty"`
	Trees        int      `json:"trees,omitempty"`
	MaxDepth     int      `json:"max_depth,omitempty"`
	Seed         int64    `json:"seed,omitempty"`
}
