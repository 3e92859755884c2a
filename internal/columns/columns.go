package columns

import (
	"context"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/ranfdev/rubricvote/internal/models"
)

type Column struct {
	Key      string
	Label    string
	Sortable bool
}

var labels = map[string]string{
	models.RubricUpvote:   "Up Vote",
	models.RubricDownvote: "Down Vote",
	models.RubricRating:   "Rating",
}

// ProjectColumns appends one column per active rubric to base, always in
// models.RubricOrder whatever order active is given in.
func ProjectColumns(base []Column, active []string) []Column {
	res := append([]Column{}, base...)
	for _, name := range models.RubricOrder {
		if !contains(active, name) {
			continue
		}
		res = append(res, Column{Key: name, Label: labels[name], Sortable: true})
	}
	return res
}

// SortableColumns maps each active rubric column key to its orderby value.
func SortableColumns(active []string) map[string]string {
	res := map[string]string{}
	for _, name := range models.RubricOrder {
		if contains(active, name) {
			res[name] = name
		}
	}
	return res
}

type MetricReader interface {
	GetTotal(ctx context.Context, objectType string, objectID int, rubricName string) (int, error)
	GetAverage(ctx context.Context, objectType string, objectID int, rubricName string) (float64, error)
}

type Projector struct {
	metrics MetricReader
	log     zerolog.Logger
}

func NewProjector(metrics MetricReader, log zerolog.Logger) *Projector {
	return &Projector{metrics, log}
}

// RenderCell renders a rubric cell. Read errors are logged and rendered
// as a zero value.
func (p *Projector) RenderCell(ctx context.Context, rubricName string, objectType string, objectID int) template.HTML {
	switch rubricName {
	case models.RubricUpvote, models.RubricDownvote:
		total, err := p.metrics.GetTotal(ctx, objectType, objectID, rubricName)
		if err != nil {
			p.log.Error().Err(err).Str("rubric", rubricName).Int("object_id", objectID).Msg("Reading total")
			total = 0
		}
		return template.HTML(strconv.Itoa(total))
	case models.RubricRating:
		avg, err := p.metrics.GetAverage(ctx, objectType, objectID, rubricName)
		if err != nil {
			p.log.Error().Err(err).Int("object_id", objectID).Msg("Reading rating average")
			avg = 0
		}
		return StarRating(avg)
	}
	return ""
}

// StarRating renders a five star widget. Any fractional part shows as a
// half star.
func StarRating(rating float64) template.HTML {
	if rating < 0 || math.IsNaN(rating) {
		rating = 0
	}
	if rating > models.MaxRating {
		rating = models.MaxRating
	}
	full := int(math.Floor(rating))
	half := int(math.Ceil(rating - float64(full)))
	empty := int(models.MaxRating) - full - half

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="star-rating"><span class="screen-reader-text">%.1f rating</span>`, rating)
	b.WriteString(strings.Repeat(`<div class="star star-full" aria-hidden="true"></div>`, full))
	b.WriteString(strings.Repeat(`<div class="star star-half" aria-hidden="true"></div>`, half))
	b.WriteString(strings.Repeat(`<div class="star star-empty" aria-hidden="true"></div>`, empty))
	b.WriteString(`</div>`)
	return template.HTML(b.String())
}

type Option struct {
	Value    string
	Label    string
	Selected bool
}

// RatingFilterOptions builds the "All" + 1..5 threshold selector.
func RatingFilterOptions(current int) []Option {
	opts := []Option{{Value: "", Label: "All", Selected: current == 0}}
	for i := 1; i <= models.MaxRatingFilter; i++ {
		opts = append(opts, Option{
			Value:    strconv.Itoa(i),
			Label:    fmt.Sprintf("%d stars rating and up", i),
			Selected: current == i,
		})
	}
	return opts
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
