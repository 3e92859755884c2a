package listing

import (
	"context"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gitlab.com/ranfdev/rubricvote/internal/models"
	"gitlab.com/ranfdev/rubricvote/internal/ratings"
	"gitlab.com/ranfdev/rubricvote/internal/store"
)

type fixture struct {
	db  *store.DB
	aug *Augmenter
	ids map[string]int
}

func newFixture(t *testing.T) *fixture {
	db := store.Open()
	return &fixture{
		db:  db,
		aug: NewAugmenter(db, ratings.NewStore(db), zerolog.Nop()),
		ids: map[string]int{},
	}
}

// addPost creates posts newest first, so the base order is the insertion order.
func (f *fixture) addPost(t *testing.T, title string, meta map[string]string) {
	ctx := context.Background()
	o := &models.Object{
		Type:      "post",
		Title:     title,
		Published: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(len(f.ids)) * time.Hour),
	}
	f.db.CreateObject(o)
	f.ids[title] = o.ID
	for rubricName, v := range meta {
		r, err := f.db.FindRubricByName(ctx, rubricName)
		require.NoError(t, err)
		f.db.SetMeta("post", o.ID, r.MetaKey(), v)
	}
}

func titles(items []models.ListingItem) []string {
	res := []string{}
	for _, it := range items {
		res = append(res, it.Title)
	}
	return res
}

func TestSortDescStable(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.addPost(t, "A", map[string]string{"upvote": "5"})
	f.addPost(t, "B", map[string]string{"upvote": "5"})
	f.addPost(t, "C", map[string]string{"upvote": "2"})

	l, err := f.aug.Augment(context.Background(), models.ListingRequest{
		ObjectType: "post",
		SortKey:    "upvote",
		Direction:  models.Desc,
	})
	require.NoError(err)
	require.Equal([]string{"A", "B", "C"}, titles(l.Items))
	require.Equal(5.0, l.Items[0].Metric)
}

func TestSortAsc(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.addPost(t, "A", map[string]string{"rating": "4.5"})
	f.addPost(t, "B", map[string]string{"rating": "false"})
	f.addPost(t, "C", nil)
	f.addPost(t, "D", map[string]string{"rating": "1.5"})

	l, err := f.aug.Augment(context.Background(), models.ListingRequest{
		ObjectType: "post",
		SortKey:    "rating",
		Direction:  models.Asc,
	})
	require.NoError(err)
	// B is non-numeric and C is missing: both count as 0 and keep their order
	require.Equal([]string{"B", "C", "D", "A"}, titles(l.Items))
}

func TestSortWithoutRubricIsIdentity(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.addPost(t, "A", map[string]string{"downvote": "1"})
	f.addPost(t, "B", map[string]string{"downvote": "9"})
	f.addPost(t, "C", map[string]string{"downvote": "4"})

	base, err := f.aug.Augment(ctx, models.ListingRequest{ObjectType: "post"})
	require.NoError(err)
	require.Equal([]string{"A", "B", "C"}, titles(base.Items))

	f.db.DeleteRubric(models.RubricDownvote)
	l, err := f.aug.Augment(ctx, models.ListingRequest{ObjectType: "post", SortKey: "downvote", Direction: models.Desc})
	require.NoError(err)
	require.Equal(titles(base.Items), titles(l.Items))

	l, err = f.aug.Augment(ctx, models.ListingRequest{ObjectType: "post", SortKey: "title", Direction: models.Desc})
	require.NoError(err)
	require.Equal(titles(base.Items), titles(l.Items))
}

func TestSortDoesNotModifyInput(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.addPost(t, "A", map[string]string{"upvote": "1"})
	f.addPost(t, "B", map[string]string{"upvote": "2"})

	in := []models.ListingItem{
		{Object: models.Object{ID: f.ids["A"], Title: "A"}},
		{Object: models.Object{ID: f.ids["B"], Title: "B"}},
	}
	out, err := f.aug.Sort(context.Background(), "post", in, "upvote", models.Desc)
	require.NoError(err)
	require.Equal([]string{"B", "A"}, titles(out))
	require.Equal([]string{"A", "B"}, titles(in))
	require.Equal(0.0, in[0].Metric)
}

func TestSortItemsProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		items := make([]models.ListingItem, r.Intn(40))
		for i := range items {
			items[i] = models.ListingItem{
				Object: models.Object{ID: i},
				Metric: float64(r.Intn(5)),
			}
		}
		for _, dir := range []models.Direction{models.Asc, models.Desc} {
			sorted := append([]models.ListingItem{}, items...)
			SortItems(sorted, dir)
			for i := 1; i < len(sorted); i++ {
				prev, cur := sorted[i-1], sorted[i]
				if dir == models.Asc {
					require.LessOrEqual(t, prev.Metric, cur.Metric)
				} else {
					require.GreaterOrEqual(t, prev.Metric, cur.Metric)
				}
				if prev.Metric == cur.Metric {
					// Input order among ties
					require.Less(t, prev.ID, cur.ID)
				}
			}
		}
	}
}

func TestRatingFilter(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.addPost(t, "A", map[string]string{"rating": "4.5"})
	f.addPost(t, "B", map[string]string{"rating": "3"})
	f.addPost(t, "C", map[string]string{"rating": "2.99"})
	f.addPost(t, "D", map[string]string{"rating": "false"})
	f.addPost(t, "E", nil)

	l, err := f.aug.Augment(ctx, models.ListingRequest{ObjectType: "post", RatingFilter: 3})
	require.NoError(err)
	require.Equal([]string{"A", "B"}, titles(l.Items))
	require.Equal(2, l.Total)

	for _, threshold := range []int{0, -1, 6} {
		l, err = f.aug.Augment(ctx, models.ListingRequest{ObjectType: "post", RatingFilter: threshold})
		require.NoError(err)
		require.Equal(5, l.Total, "threshold %d", threshold)
	}

	f.db.DeleteRubric(models.RubricRating)
	l, err = f.aug.Augment(ctx, models.ListingRequest{ObjectType: "post", RatingFilter: 4})
	require.NoError(err)
	require.Equal(5, l.Total)
}

func TestFilterSortThenPaginate(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		f.addPost(t, "P"+strconv.Itoa(i), map[string]string{
			"rating": strconv.Itoa(i%5 + 1),
			"upvote": strconv.Itoa(i),
		})
	}
	// Ratings: P0=1 P1=2 P2=3 P3=4 P4=5 P5=1 P6=2

	req := models.ListingRequest{
		ObjectType:   "post",
		SortKey:      "upvote",
		Direction:    models.Desc,
		RatingFilter: 2,
		Page:         1,
		PerPage:      2,
	}
	l, err := f.aug.Augment(context.Background(), req)
	require.NoError(err)
	require.Equal(5, l.Total)
	require.Equal(3, l.Pages)
	require.Equal([]string{"P6", "P4"}, titles(l.Items))

	req.Page = 3
	l, err = f.aug.Augment(context.Background(), req)
	require.NoError(err)
	require.Equal([]string{"P1"}, titles(l.Items))
}

func TestPaginate(t *testing.T) {
	require := require.New(t)
	items := make([]models.ListingItem, 5)

	l := Paginate(items, 0, 0)
	require.Equal(1, l.Page)
	require.Equal(models.DefaultPerPage, l.PerPage)
	require.Len(l.Items, 5)
	require.Equal(1, l.Pages)

	l = Paginate(items, 9, 2)
	require.Empty(l.Items)
	require.Equal(3, l.Pages)

	l = Paginate(nil, 1, 1000)
	require.Equal(models.MaxPerPage, l.PerPage)
	require.Equal(0, l.Pages)
}
