package db

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgx/v4"
	"gitlab.com/ranfdev/rubricvote/internal/models"
)

type objectRow struct {
	ID           int       `db:"id"`
	ObjectType   string    `db:"object_type"`
	Title        string    `db:"title"`
	Excerpt      string    `db:"excerpt"`
	Author       string    `db:"author"`
	Published    time.Time `db:"published"`
	CommentCount int       `db:"comment_count"`
}

func (r objectRow) toObject() models.Object {
	return models.Object{
		ID:           r.ID,
		Type:         r.ObjectType,
		Title:        r.Title,
		Excerpt:      r.Excerpt,
		Author:       r.Author,
		Published:    r.Published,
		CommentCount: r.CommentCount,
	}
}

var objectColumns = []string{
	"objects.id",
	"objects.object_type",
	"objects.title",
	"objects.excerpt",
	"objects.author",
	"objects.published",
	"objects.comment_count",
}

// ListObjects returns the objects of a type, newest first. The meta filter
// is evaluated by postgres, so the result is already final before the
// caller sorts or paginates.
func (sdb *SharedDB) ListObjects(ctx context.Context, q models.ObjectQuery) ([]models.Object, error) {
	query := psql.
		Select(objectColumns...).
		From("objects").
		Where(sq.Eq{"objects.object_type": q.Type}).
		OrderBy("objects.published DESC", "objects.id DESC")

	if f := q.Filter; f != nil {
		query = query.
			Join("object_meta ON object_meta.object_type = objects.object_type AND object_meta.object_id = objects.id").
			Where(sq.Eq{"object_meta.meta_key": f.Key}).
			Where(sq.Expr(numericMeta("object_meta.meta_value")+" >= ?", f.Min))
	}
	sql, args, _ := query.ToSql()

	var rows []objectRow
	err := pgxscan.Select(ctx, sdb.db, &rows, sql, args...)
	if err != nil {
		return nil, err
	}

	objs := make([]models.Object, len(rows))
	ids := make([]int, len(rows))
	for i, r := range rows {
		objs[i] = r.toObject()
		ids[i] = r.ID
	}
	cats, err := sdb.listCategories(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range objs {
		objs[i].Categories = cats[objs[i].ID]
	}
	return objs, nil
}

func (sdb *SharedDB) ReadObject(ctx context.Context, id int) (*models.Object, error) {
	sql, args, _ := psql.
		Select(objectColumns...).
		From("objects").
		Where(sq.Eq{"objects.id": id}).
		ToSql()

	var row objectRow
	err := pgxscan.Get(ctx, sdb.db, &row, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	obj := row.toObject()
	cats, err := sdb.listCategories(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	obj.Categories = cats[id]
	return &obj, nil
}

func (sdb *SharedDB) CreateObject(ctx context.Context, o *models.Object) error {
	return execTx(ctx, sdb.db, func(ctx context.Context, tx DBTX) error {
		published := o.Published
		if published.IsZero() {
			published = time.Now()
		}
		sql, args, _ := psql.
			Insert("objects").
			Columns("object_type", "title", "excerpt", "author", "published", "comment_count").
			Values(o.Type, o.Title, o.Excerpt, o.Author, published, o.CommentCount).
			Suffix("RETURNING id, published").
			ToSql()

		err := tx.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.Published)
		if err != nil {
			return err
		}
		if len(o.Categories) == 0 {
			return nil
		}
		insert := psql.Insert("object_categories").Columns("object_id", "name", "slug")
		for _, c := range o.Categories {
			insert = insert.Values(o.ID, c.Name, c.Slug)
		}
		sql, args, _ = insert.ToSql()
		_, err = tx.Exec(ctx, sql, args...)
		return err
	})
}

func (sdb *SharedDB) listCategories(ctx context.Context, objectIDs []int) (map[int][]models.Category, error) {
	res := map[int][]models.Category{}
	if len(objectIDs) == 0 {
		return res, nil
	}
	sql, args, _ := psql.
		Select("object_id", "name", "slug").
		From("object_categories").
		Where(sq.Eq{"object_id": objectIDs}).
		OrderBy("name").
		ToSql()

	var rows []struct {
		ObjectID int    `db:"object_id"`
		Name     string `db:"name"`
		Slug     string `db:"slug"`
	}
	err := pgxscan.Select(ctx, sdb.db, &rows, sql, args...)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		res[r.ObjectID] = append(res[r.ObjectID], models.Category{Name: r.Name, Slug: r.Slug})
	}
	return res, nil
}

func (sdb *SharedDB) ListObjectTypes(ctx context.Context) ([]models.ObjectType, error) {
	sql, args, _ := psql.
		Select("slug", "label").
		From("object_types").
		Where(sq.Eq{"public": true}).
		OrderBy("slug").
		ToSql()

	var types []models.ObjectType
	err := pgxscan.Select(ctx, sdb.db, &types, sql, args...)
	if err != nil {
		return nil, err
	}
	return types, nil
}
