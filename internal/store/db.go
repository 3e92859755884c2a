package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"gitlab.com/ranfdev/rubricvote/internal/models"
)

type metaKey struct {
	objectType string
	objectID   int
	key        string
}
type overrideKey struct {
	objectID  int
	isComment bool
}

// DB is an in-memory store with the same semantics as the postgres one.
// It backs tests and the `start --memory` demo mode.
type DB struct {
	mu        sync.RWMutex
	types     []models.ObjectType
	objects   map[int]models.Object
	rubrics   map[string]models.Rubric
	meta      map[metaKey]string
	cfg       models.ActivationConfig
	overrides map[overrideKey]models.Override
	lastID    int
}

// Open returns a store seeded like a freshly migrated database:
// the default rubrics and the built-in object types.
func Open() *DB {
	db := &DB{
		objects:   map[int]models.Object{},
		rubrics:   map[string]models.Rubric{},
		meta:      map[metaKey]string{},
		overrides: map[overrideKey]models.Override{},
		types: []models.ObjectType{
			{Slug: "attachment", Label: "Media"},
			{Slug: "page", Label: "Pages"},
			{Slug: "post", Label: "Posts"},
		},
	}
	for i, name := range models.RubricOrder {
		db.rubrics[name] = models.Rubric{
			ID:    i + 1,
			Name:  name,
			Slug:  name,
			Title: rubricTitle(name),
		}
	}
	return db
}

func rubricTitle(name string) string {
	switch name {
	case models.RubricUpvote:
		return "Upvote"
	case models.RubricDownvote:
		return "Downvote"
	}
	return "Rating"
}

func (db *DB) DeleteRubric(name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.rubrics, name)
}

func (db *DB) CreateObject(o *models.Object) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.lastID++
	o.ID = db.lastID
	if o.Published.IsZero() {
		o.Published = time.Now()
	}
	db.objects[o.ID] = copyObject(*o)
}

func (db *DB) SetMeta(objectType string, objectID int, key string, value string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.meta[metaKey{objectType, objectID, key}] = value
}

func (db *DB) FindRubricByName(ctx context.Context, name string) (*models.Rubric, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	r, ok := db.rubrics[name]
	if !ok {
		return nil, models.ErrRubricNotFound
	}
	return &r, nil
}

func (db *DB) ReadMeta(ctx context.Context, objectType string, objectID int, key string) (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.meta[metaKey{objectType, objectID, key}], nil
}

func (db *DB) ReadMetaBatch(ctx context.Context, objectType string, objectIDs []int, key string) (map[int]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	res := map[int]string{}
	for _, id := range objectIDs {
		if v, ok := db.meta[metaKey{objectType, id, key}]; ok {
			res[id] = v
		}
	}
	return res, nil
}

// ListObjects applies the meta filter while scanning, before any caller
// gets to sort or paginate.
func (db *DB) ListObjects(ctx context.Context, q models.ObjectQuery) ([]models.Object, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	res := []models.Object{}
	for _, o := range db.objects {
		if o.Type != q.Type {
			continue
		}
		if f := q.Filter; f != nil {
			raw, ok := db.meta[metaKey{o.Type, o.ID, f.Key}]
			if !ok || models.ParseMetric(raw, models.MetricAverage) < f.Min {
				continue
			}
		}
		res = append(res, copyObject(o))
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Published.Equal(res[j].Published) {
			return res[i].Published.After(res[j].Published)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

func (db *DB) ReadObject(ctx context.Context, id int) (*models.Object, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	o, ok := db.objects[id]
	if !ok {
		return nil, models.ErrObjectNotFound
	}
	o = copyObject(o)
	return &o, nil
}

func (db *DB) ListObjectTypes(ctx context.Context) ([]models.ObjectType, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]models.ObjectType{}, db.types...), nil
}

func (db *DB) ReadActivationConfig(ctx context.Context) (models.ActivationConfig, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.cfg == nil {
		return nil, models.ErrNoConfig
	}
	cfg := models.ActivationConfig{}
	for k, v := range db.cfg {
		cfg[k] = append([]string{}, v...)
	}
	return cfg, nil
}

func (db *DB) SaveActivationConfig(ctx context.Context, cfg models.ActivationConfig) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.cfg = models.ActivationConfig{}
	for k, v := range cfg {
		db.cfg[k] = append([]string{}, v...)
	}
	return nil
}

func (db *DB) ReadOverride(ctx context.Context, objectID int, isComment bool) (models.Override, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	o := db.overrides[overrideKey{objectID, isComment}]
	o.EnabledRubrics = append([]string{}, o.EnabledRubrics...)
	return o, nil
}

func (db *DB) SaveOverrides(ctx context.Context, objectID int, object models.Override, comment models.Override) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.objects[objectID]; !ok {
		return models.ErrObjectNotFound
	}
	object.EnabledRubrics = append([]string{}, object.EnabledRubrics...)
	comment.EnabledRubrics = append([]string{}, comment.EnabledRubrics...)
	db.overrides[overrideKey{objectID, false}] = object
	db.overrides[overrideKey{objectID, true}] = comment
	return nil
}

func copyObject(o models.Object) models.Object {
	o.Categories = append([]models.Category(nil), o.Categories...)
	return o
}
