package ratings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/ranfdev/rubricvote/internal/models"
	"gitlab.com/ranfdev/rubricvote/internal/store"
)

func TestGetTotalAndAverage(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := store.Open()
	s := NewStore(db)

	up, _ := db.FindRubricByName(ctx, models.RubricUpvote)
	rating, _ := db.FindRubricByName(ctx, models.RubricRating)
	db.SetMeta("post", 1, models.MetaKey(up.ID, models.MetricTotal), "5")
	db.SetMeta("post", 1, models.MetaKey(rating.ID, models.MetricAverage), "4.25")
	db.SetMeta("post", 2, models.MetaKey(up.ID, models.MetricTotal), "false")

	total, err := s.GetTotal(ctx, "post", 1, models.RubricUpvote)
	require.NoError(err)
	require.Equal(5, total)

	avg, err := s.GetAverage(ctx, "post", 1, models.RubricRating)
	require.NoError(err)
	require.Equal(4.25, avg)

	// Sentinel and missing values read as zero
	total, err = s.GetTotal(ctx, "post", 2, models.RubricUpvote)
	require.NoError(err)
	require.Equal(0, total)
	avg, err = s.GetAverage(ctx, "post", 2, models.RubricRating)
	require.NoError(err)
	require.Equal(0.0, avg)

	// Same id, other object type
	total, err = s.GetTotal(ctx, "comment", 1, models.RubricUpvote)
	require.NoError(err)
	require.Equal(0, total)

	// Unknown rubric
	db.DeleteRubric(models.RubricUpvote)
	total, err = s.GetTotal(ctx, "post", 1, models.RubricUpvote)
	require.NoError(err)
	require.Equal(0, total)
}

func TestRecord(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := store.Open()
	s := NewStore(db)

	rating, _ := db.FindRubricByName(ctx, models.RubricRating)
	db.SetMeta("post", 3, models.MetaKey(rating.ID, models.MetricTotal), "4")
	db.SetMeta("post", 3, models.MetaKey(rating.ID, models.MetricAverage), "3.5")

	rec, err := s.Record(ctx, "post", 3, models.RubricRating)
	require.NoError(err)
	require.Equal(models.VoteRecord{
		ObjectType: "post",
		ObjectID:   3,
		RubricID:   rating.ID,
		Total:      4,
		Average:    3.5,
	}, rec)
}

func TestMetrics(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := store.Open()
	s := NewStore(db)

	down, _ := db.FindRubricByName(ctx, models.RubricDownvote)
	db.SetMeta("post", 1, down.MetaKey(), "3")
	db.SetMeta("post", 2, down.MetaKey(), "not a number")
	db.SetMeta("post", 9, down.MetaKey(), "7")

	m, err := s.Metrics(ctx, "post", []int{1, 2, 3}, *down)
	require.NoError(err)
	require.Equal(map[int]float64{1: 3, 2: 0, 3: 0}, m)

	m, err = s.Metrics(ctx, "post", nil, *down)
	require.NoError(err)
	require.Empty(m)
}

type failingMeta struct{ *store.DB }

func (f *failingMeta) ReadMetaBatch(ctx context.Context, objectType string, objectIDs []int, key string) (map[int]string, error) {
	return nil, errors.New("connection reset")
}

func TestMetricsError(t *testing.T) {
	s := NewStore(&failingMeta{store.Open()})
	_, err := s.Metrics(context.Background(), "post", []int{1}, models.Rubric{ID: 1, Name: models.RubricUpvote})
	require.Error(t, err)
}
