package models

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	RubricUpvote   = "upvote"
	RubricDownvote = "downvote"
	RubricRating   = "rating"

	// MetaNamespace prefixes every per-object metric key.
	MetaNamespace = "rubricvote"

	MaxRating = 5.0
)

// RubricOrder is the fixed order columns and settings list rubrics in.
var RubricOrder = []string{RubricUpvote, RubricDownvote, RubricRating}

type MetricKind string

const (
	MetricTotal   MetricKind = "total"
	MetricAverage MetricKind = "average"
)

type Rubric struct {
	ID    int
	Name  string
	Slug  string
	Title string
}

// Kind reports which stored metric the rubric is measured by.
func (r Rubric) Kind() MetricKind {
	if r.Name == RubricRating {
		return MetricAverage
	}
	return MetricTotal
}
func (r Rubric) MetaKey() string {
	return MetaKey(r.ID, r.Kind())
}

func MetaKey(rubricID int, kind MetricKind) string {
	return fmt.Sprintf("%s_%d_%s", MetaNamespace, rubricID, kind)
}

func IsRubricName(name string) bool {
	for _, r := range RubricOrder {
		if r == name {
			return true
		}
	}
	return false
}

type VoteRecord struct {
	ObjectType string
	ObjectID   int
	RubricID   int
	Total      int
	Average    float64
}

// ParseTotal converts a stored total. Anything that isn't a number,
// including the legacy "false" sentinel, counts as 0.
func ParseTotal(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0
		}
		n = int(f)
	}
	if n < 0 {
		return 0
	}
	return n
}

// ParseAverage converts a stored average, clamped to [0, MaxRating].
func ParseAverage(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f != f {
		return 0
	}
	if f < 0 {
		return 0
	}
	if f > MaxRating {
		return MaxRating
	}
	return f
}

// ParseMetric parses a stored value as the given kind, as a float.
func ParseMetric(raw string, kind MetricKind) float64 {
	if kind == MetricAverage {
		return ParseAverage(raw)
	}
	return float64(ParseTotal(raw))
}
