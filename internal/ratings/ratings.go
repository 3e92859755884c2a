package ratings

import (
	"context"
	"errors"
	"fmt"

	"gitlab.com/ranfdev/rubricvote/internal/models"
)

// MetaReader is the raw key/value view of per-object metrics.
// Missing keys read as "".
type MetaReader interface {
	FindRubricByName(ctx context.Context, name string) (*models.Rubric, error)
	ReadMeta(ctx context.Context, objectType string, objectID int, key string) (string, error)
	ReadMetaBatch(ctx context.Context, objectType string, objectIDs []int, key string) (map[int]string, error)
}

// Store resolves rubric metrics. Missing rubrics and missing records
// read as zero.
type Store struct {
	meta MetaReader
}

func NewStore(meta MetaReader) *Store {
	return &Store{meta}
}

func (s *Store) FindRubricByName(ctx context.Context, name string) (*models.Rubric, error) {
	return s.meta.FindRubricByName(ctx, name)
}

func (s *Store) GetTotal(ctx context.Context, objectType string, objectID int, rubricName string) (int, error) {
	raw, err := s.read(ctx, objectType, objectID, rubricName, models.MetricTotal)
	if err != nil {
		return 0, err
	}
	return models.ParseTotal(raw), nil
}

func (s *Store) GetAverage(ctx context.Context, objectType string, objectID int, rubricName string) (float64, error) {
	raw, err := s.read(ctx, objectType, objectID, rubricName, models.MetricAverage)
	if err != nil {
		return 0, err
	}
	return models.ParseAverage(raw), nil
}

// Record reads both metrics of an object for a rubric.
func (s *Store) Record(ctx context.Context, objectType string, objectID int, rubricName string) (models.VoteRecord, error) {
	rec := models.VoteRecord{ObjectType: objectType, ObjectID: objectID}
	rubric, err := s.meta.FindRubricByName(ctx, rubricName)
	if errors.Is(err, models.ErrRubricNotFound) {
		return rec, nil
	}
	if err != nil {
		return rec, err
	}
	rec.RubricID = rubric.ID

	total, err := s.meta.ReadMeta(ctx, objectType, objectID, models.MetaKey(rubric.ID, models.MetricTotal))
	if err != nil {
		return rec, fmt.Errorf("reading total: %w", err)
	}
	avg, err := s.meta.ReadMeta(ctx, objectType, objectID, models.MetaKey(rubric.ID, models.MetricAverage))
	if err != nil {
		return rec, fmt.Errorf("reading average: %w", err)
	}
	rec.Total = models.ParseTotal(total)
	rec.Average = models.ParseAverage(avg)
	return rec, nil
}

// Metrics returns the rubric's metric for each object. Objects without a
// stored value are present with 0.
func (s *Store) Metrics(ctx context.Context, objectType string, objectIDs []int, rubric models.Rubric) (map[int]float64, error) {
	res := make(map[int]float64, len(objectIDs))
	for _, id := range objectIDs {
		res[id] = 0
	}
	if len(objectIDs) == 0 {
		return res, nil
	}
	raw, err := s.meta.ReadMetaBatch(ctx, objectType, objectIDs, rubric.MetaKey())
	if err != nil {
		return nil, fmt.Errorf("reading %s metrics: %w", rubric.Name, err)
	}
	for id, v := range raw {
		if _, ok := res[id]; ok {
			res[id] = models.ParseMetric(v, rubric.Kind())
		}
	}
	return res, nil
}

func (s *Store) read(ctx context.Context, objectType string, objectID int, rubricName string, kind models.MetricKind) (string, error) {
	rubric, err := s.meta.FindRubricByName(ctx, rubricName)
	if errors.Is(err, models.ErrRubricNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	raw, err := s.meta.ReadMeta(ctx, objectType, objectID, models.MetaKey(rubric.ID, kind))
	if err != nil {
		return "", fmt.Errorf("reading %s %s: %w", rubricName, kind, err)
	}
	return raw, nil
}
