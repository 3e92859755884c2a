package listing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gitlab.com/ranfdev/rubricvote/internal/models"
)

type ObjectSource interface {
	ListObjects(ctx context.Context, q models.ObjectQuery) ([]models.Object, error)
}

type MetricSource interface {
	FindRubricByName(ctx context.Context, name string) (*models.Rubric, error)
	Metrics(ctx context.Context, objectType string, objectIDs []int, rubric models.Rubric) (map[int]float64, error)
}

// Augmenter turns a listing request into a filtered, sorted and paginated
// listing. Filtering is pushed down to the object source; sorting and
// pagination happen afterwards, in that order.
type Augmenter struct {
	objects ObjectSource
	metrics MetricSource
	log     zerolog.Logger
}

func NewAugmenter(objects ObjectSource, metrics MetricSource, log zerolog.Logger) *Augmenter {
	return &Augmenter{objects, metrics, log}
}

func (a *Augmenter) Augment(ctx context.Context, req models.ListingRequest) (*models.Listing, error) {
	filter, err := a.RatingFilter(ctx, req.RatingFilter)
	if err != nil {
		return nil, err
	}
	objs, err := a.objects.ListObjects(ctx, models.ObjectQuery{Type: req.ObjectType, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("listing %s objects: %w", req.ObjectType, err)
	}
	items := make([]models.ListingItem, len(objs))
	for i, o := range objs {
		items[i] = models.ListingItem{Object: o}
	}
	items, err = a.Sort(ctx, req.ObjectType, items, req.SortKey, req.Direction)
	if err != nil {
		return nil, err
	}
	return Paginate(items, req.Page, req.PerPage), nil
}

// RatingFilter translates a 1..5 threshold into a filter on the stored
// rating average. It returns nil when there is nothing to filter on.
func (a *Augmenter) RatingFilter(ctx context.Context, threshold int) (*models.MetaFilter, error) {
	if threshold < 1 || threshold > models.MaxRatingFilter {
		return nil, nil
	}
	rubric, err := a.metrics.FindRubricByName(ctx, models.RubricRating)
	if errors.Is(err, models.ErrRubricNotFound) {
		a.log.Debug().Int("threshold", threshold).Msg("No rating rubric, skipping rating filter")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding rating rubric: %w", err)
	}
	return &models.MetaFilter{
		Key: models.MetaKey(rubric.ID, models.MetricAverage),
		Min: float64(threshold),
	}, nil
}

// Sort orders items by the metric of the rubric named sortKey. Unknown
// keys and missing rubric definitions leave the order untouched.
// The input slice is never modified.
func (a *Augmenter) Sort(ctx context.Context, objectType string, items []models.ListingItem, sortKey string, dir models.Direction) ([]models.ListingItem, error) {
	res := append([]models.ListingItem{}, items...)
	if !models.IsRubricName(sortKey) {
		return res, nil
	}
	rubric, err := a.metrics.FindRubricByName(ctx, sortKey)
	if errors.Is(err, models.ErrRubricNotFound) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding %s rubric: %w", sortKey, err)
	}

	ids := make([]int, len(res))
	for i, it := range res {
		ids[i] = it.ID
	}
	metrics, err := a.metrics.Metrics(ctx, objectType, ids, *rubric)
	if err != nil {
		return nil, err
	}
	for i := range res {
		res[i].Metric = metrics[res[i].ID]
	}
	SortItems(res, dir)
	return res, nil
}

// SortItems is a stable sort on Metric: ties keep their relative order
// in both directions.
func SortItems(items []models.ListingItem, dir models.Direction) {
	sort.SliceStable(items, func(i, j int) bool {
		if dir == models.Desc {
			return items[i].Metric > items[j].Metric
		}
		return items[i].Metric < items[j].Metric
	})
}

func Paginate(items []models.ListingItem, page int, perPage int) *models.Listing {
	if perPage <= 0 {
		perPage = models.DefaultPerPage
	}
	if perPage > models.MaxPerPage {
		perPage = models.MaxPerPage
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	pages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return &models.Listing{
		Items:   items[start:end],
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pages,
	}
}
