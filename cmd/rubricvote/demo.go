package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gitlab.com/ranfdev/rubricvote/internal/models"
	"gitlab.com/ranfdev/rubricvote/internal/store"
)

type demoPost struct {
	title    string
	up, down int
	rating   string
}

var demoPosts = []demoPost{
	{"Choosing a text editor", 12, 3, "4.5"},
	{"Tabs or spaces", 40, 38, "2.5"},
	{"A week without coffee", 7, 0, "3.8"},
	{"Notes on sourdough", 2, 1, "false"},
	{"Why the bus is late", 0, 9, "1.2"},
}

// seedDemo fills an in-memory store with a few rated posts, all rubrics
// enabled on posts and comments.
func seedDemo(ctx context.Context, db *store.DB) error {
	cfg := models.ActivationConfig{}
	for _, name := range models.RubricOrder {
		cfg[name] = []string{models.ObjectTypePost, models.ObjectTypeComment}
	}
	if err := db.SaveActivationConfig(ctx, cfg); err != nil {
		return err
	}

	rubrics := map[string]*models.Rubric{}
	for _, name := range models.RubricOrder {
		r, err := db.FindRubricByName(ctx, name)
		if err != nil {
			return fmt.Errorf("demo rubric %s: %w", name, err)
		}
		rubrics[name] = r
	}

	start := time.Now().Add(-time.Duration(len(demoPosts)) * 24 * time.Hour)
	for i, p := range demoPosts {
		o := &models.Object{
			Type:         models.ObjectTypePost,
			Title:        p.title,
			Excerpt:      "A short demo post about **" + p.title + "**.\n\nThe rest is not shown in the preview.",
			Author:       "demo",
			Published:    start.Add(time.Duration(i) * 24 * time.Hour),
			CommentCount: p.up % 5,
			Categories:   []models.Category{{Name: "Demo", Slug: "demo"}},
		}
		db.CreateObject(o)
		db.SetMeta(o.Type, o.ID, rubrics[models.RubricUpvote].MetaKey(), strconv.Itoa(p.up))
		db.SetMeta(o.Type, o.ID, rubrics[models.RubricDownvote].MetaKey(), strconv.Itoa(p.down))
		db.SetMeta(o.Type, o.ID, rubrics[models.RubricRating].MetaKey(), p.rating)
	}
	return nil
}
