package db

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/require"
	"gitlab.com/ranfdev/rubricvote/internal/models"
)

// Tests run against RUBRICVOTE_TEST_DATABASE_URL, which gets wiped.
var testDB *SharedDB

func TestMain(m *testing.M) {
	url := os.Getenv("RUBRICVOTE_TEST_DATABASE_URL")
	if url != "" {
		err := os.Chdir("./../..")
		if err != nil {
			panic(err)
		}
		config := &models.EnvConfig{DatabaseURL: url, MigrationsURL: "file://migrations"}
		// Reset database before testing
		if err := Drop(config); err != nil {
			panic(err)
		}
		if err := MigrateUp(config); err != nil {
			panic(err)
		}
		sdb, err := Connect(config)
		if err != nil {
			panic(err)
		}
		testDB = &sdb
	}
	code := m.Run()
	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

func needDB(t *testing.T) *SharedDB {
	if testDB == nil {
		t.Skip("RUBRICVOTE_TEST_DATABASE_URL not set")
	}
	return testDB
}

func mockObject(objectType string, published time.Time) *models.Object {
	return &models.Object{
		Type:      objectType,
		Title:     "Banana is the best fruit",
		Excerpt:   "Banana is the best fruit because...",
		Author:    "Pippo",
		Published: published,
		Categories: []models.Category{
			{Name: "Fruit", Slug: "fruit"},
			{Name: "Best", Slug: "best"},
		},
	}
}

func TestNumericMeta(t *testing.T) {
	require := require.New(t)
	sql, args, err := psql.
		Select("object_id").
		From("object_meta").
		Where(sq.Expr(numericMeta("meta_value")+" >= ?", 3.0)).
		ToSql()
	require.NoError(err)
	require.Equal([]interface{}{3.0}, args)
	require.Contains(sql, `meta_value ~ '^\s*-{0,1}[0-9]+(\.[0-9]+){0,1}\s*$'`)
	require.True(strings.HasSuffix(sql, "ELSE 0 END) >= $1"))
}

func TestRubrics(t *testing.T) {
	require := require.New(t)
	sdb := needDB(t)
	ctx := context.Background()

	rubrics, err := sdb.ListRubrics(ctx)
	require.NoError(err)
	require.Len(rubrics, 3)

	rating, err := sdb.FindRubricByName(ctx, models.RubricRating)
	require.NoError(err)
	require.Equal("Rating", rating.Title)

	_, err = sdb.FindRubricByName(ctx, "karma")
	require.ErrorIs(err, models.ErrRubricNotFound)
}

func TestObjectsAndMeta(t *testing.T) {
	require := require.New(t)
	sdb := needDB(t)
	ctx := context.Background()
	rating, err := sdb.FindRubricByName(ctx, models.RubricRating)
	require.NoError(err)

	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := map[string]int{}
	for i, v := range []string{"4.5", "3", "false", "2.9"} {
		o := mockObject("page", base.Add(-time.Duration(i)*time.Hour))
		o.Title = fmt.Sprintf("P%d", i)
		require.NoError(sdb.CreateObject(ctx, o))
		require.NoError(sdb.SetMeta(ctx, "page", o.ID, rating.MetaKey(), v))
		ids[o.Title] = o.ID
	}

	objs, err := sdb.ListObjects(ctx, models.ObjectQuery{Type: "page"})
	require.NoError(err)
	require.Len(objs, 4)
	require.Equal("P0", objs[0].Title)
	require.Equal([]models.Category{{Name: "Best", Slug: "best"}, {Name: "Fruit", Slug: "fruit"}}, objs[0].Categories)

	objs, err = sdb.ListObjects(ctx, models.ObjectQuery{
		Type:   "page",
		Filter: &models.MetaFilter{Key: rating.MetaKey(), Min: 3},
	})
	require.NoError(err)
	require.Len(objs, 2)
	require.Equal(ids["P0"], objs[0].ID)
	require.Equal(ids["P1"], objs[1].ID)

	v, err := sdb.ReadMeta(ctx, "page", ids["P2"], rating.MetaKey())
	require.NoError(err)
	require.Equal("false", v)
	v, err = sdb.ReadMeta(ctx, "post", ids["P2"], rating.MetaKey())
	require.NoError(err)
	require.Equal("", v)

	batch, err := sdb.ReadMetaBatch(ctx, "page", []int{ids["P0"], ids["P3"], -1}, rating.MetaKey())
	require.NoError(err)
	require.Equal(map[int]string{ids["P0"]: "4.5", ids["P3"]: "2.9"}, batch)

	obj, err := sdb.ReadObject(ctx, ids["P1"])
	require.NoError(err)
	require.Equal("P1", obj.Title)
	_, err = sdb.ReadObject(ctx, -1)
	require.ErrorIs(err, models.ErrObjectNotFound)
}

func TestSettings(t *testing.T) {
	require := require.New(t)
	sdb := needDB(t)
	ctx := context.Background()

	types, err := sdb.ListObjectTypes(ctx)
	require.NoError(err)
	require.Len(types, 3)

	cfg := models.ActivationConfig{models.RubricRating: {"post", "comment"}}
	require.NoError(sdb.SaveActivationConfig(ctx, cfg))
	read, err := sdb.ReadActivationConfig(ctx)
	require.NoError(err)
	require.Equal(cfg, read)

	o := mockObject("post", time.Time{})
	require.NoError(sdb.CreateObject(ctx, o))
	override, err := sdb.ReadOverride(ctx, o.ID, false)
	require.NoError(err)
	require.False(override.Overridden)

	err = sdb.SaveOverrides(ctx, o.ID,
		models.Override{Overridden: true, EnabledRubrics: []string{"upvote"}},
		models.Override{Overridden: true},
	)
	require.NoError(err)
	override, err = sdb.ReadOverride(ctx, o.ID, false)
	require.NoError(err)
	require.Equal(models.Override{Overridden: true, EnabledRubrics: []string{"upvote"}}, override)
	override, err = sdb.ReadOverride(ctx, o.ID, true)
	require.NoError(err)
	require.True(override.Overridden)
	require.Empty(override.EnabledRubrics)

	err = sdb.SaveOverrides(ctx, -1, models.Override{}, models.Override{})
	require.ErrorIs(err, models.ErrObjectNotFound)
}
