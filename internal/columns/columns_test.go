package columns

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gitlab.com/ranfdev/rubricvote/internal/models"
	"gitlab.com/ranfdev/rubricvote/internal/ratings"
	"gitlab.com/ranfdev/rubricvote/internal/store"
)

func TestProjectColumns(t *testing.T) {
	require := require.New(t)
	base := []Column{{Key: "title", Label: "Title"}, {Key: "date", Label: "Date"}}

	cols := ProjectColumns(base, []string{"rating", "upvote"})
	require.Equal([]Column{
		{Key: "title", Label: "Title"},
		{Key: "date", Label: "Date"},
		{Key: "upvote", Label: "Up Vote", Sortable: true},
		{Key: "rating", Label: "Rating", Sortable: true},
	}, cols)
	require.Len(base, 2)

	require.Equal(base, ProjectColumns(base, nil))
	require.Equal(base, ProjectColumns(base, []string{"karma"}))
}

func TestSortableColumns(t *testing.T) {
	require.Equal(t,
		map[string]string{"downvote": "downvote", "rating": "rating"},
		SortableColumns([]string{"rating", "downvote"}),
	)
	require.Empty(t, SortableColumns(nil))
}

func TestRenderCell(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := store.Open()
	p := NewProjector(ratings.NewStore(db), zerolog.Nop())

	up, _ := db.FindRubricByName(ctx, models.RubricUpvote)
	down, _ := db.FindRubricByName(ctx, models.RubricDownvote)
	rating, _ := db.FindRubricByName(ctx, models.RubricRating)
	db.SetMeta("post", 7, up.MetaKey(), "12")
	db.SetMeta("post", 7, down.MetaKey(), "false")
	db.SetMeta("post", 7, rating.MetaKey(), "3.5")

	require.Equal("12", string(p.RenderCell(ctx, "upvote", "post", 7)))
	require.Equal("0", string(p.RenderCell(ctx, "downvote", "post", 7)))
	require.Equal("0", string(p.RenderCell(ctx, "upvote", "post", 8)))
	require.Equal(StarRating(3.5), p.RenderCell(ctx, "rating", "post", 7))
	require.Equal(StarRating(0), p.RenderCell(ctx, "rating", "post", 8))
	require.Empty(p.RenderCell(ctx, "karma", "post", 7))
}

type brokenMetrics struct{}

func (brokenMetrics) GetTotal(ctx context.Context, objectType string, objectID int, rubricName string) (int, error) {
	return 0, errors.New("timeout")
}
func (brokenMetrics) GetAverage(ctx context.Context, objectType string, objectID int, rubricName string) (float64, error) {
	return 0, errors.New("timeout")
}

func TestRenderCellErrors(t *testing.T) {
	p := NewProjector(brokenMetrics{}, zerolog.Nop())
	require.Equal(t, "0", string(p.RenderCell(context.Background(), "upvote", "post", 1)))
	require.Equal(t, StarRating(0), p.RenderCell(context.Background(), "rating", "post", 1))
}

func TestStarRating(t *testing.T) {
	require := require.New(t)
	count := func(html, class string) int {
		return strings.Count(html, `class="star `+class+`"`)
	}

	h := string(StarRating(3.5))
	require.Contains(h, "3.5 rating")
	require.Equal(3, count(h, "star-full"))
	require.Equal(1, count(h, "star-half"))
	require.Equal(1, count(h, "star-empty"))

	h = string(StarRating(4))
	require.Equal(4, count(h, "star-full"))
	require.Equal(0, count(h, "star-half"))

	h = string(StarRating(0))
	require.Contains(h, "0.0 rating")
	require.Equal(5, count(h, "star-empty"))

	h = string(StarRating(9))
	require.Equal(5, count(h, "star-full"))
	require.Equal(0, count(h, "star-empty"))
}

func TestRatingFilterOptions(t *testing.T) {
	require := require.New(t)
	opts := RatingFilterOptions(3)
	require.Len(opts, 6)
	require.Equal(Option{Value: "", Label: "All"}, opts[0])
	require.Equal(Option{Value: "1", Label: "1 stars rating and up"}, opts[1])
	require.Equal(Option{Value: "3", Label: "3 stars rating and up", Selected: true}, opts[3])

	opts = RatingFilterOptions(0)
	require.True(opts[0].Selected)
}
