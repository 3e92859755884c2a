package db

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgx/v4"
	"gitlab.com/ranfdev/rubricvote/internal/models"
)

// numericMeta yields the meta value as numeric, or 0 for anything that
// doesn't look like a number (e.g. the legacy "false" sentinel).
// The pattern avoids '?', which squirrel would take for a placeholder.
func numericMeta(col string) string {
	return fmt.Sprintf(`(CASE WHEN %[1]s ~ '^\s*-{0,1}[0-9]+(\.[0-9]+){0,1}\s*$' THEN trim(%[1]s)::numeric ELSE 0 END)`, col)
}

func (sdb *SharedDB) FindRubricByName(ctx context.Context, name string) (*models.Rubric, error) {
	sql, args, _ := psql.
		Select("id", "name", "slug", "title").
		From("rubrics").
		Where(sq.Eq{"name": name}).
		ToSql()

	var rubric models.Rubric
	err := pgxscan.Get(ctx, sdb.db, &rubric, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrRubricNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rubric, nil
}

func (sdb *SharedDB) ListRubrics(ctx context.Context) ([]models.Rubric, error) {
	sql, args, _ := psql.
		Select("id", "name", "slug", "title").
		From("rubrics").
		OrderBy("id").
		ToSql()

	var rubrics []models.Rubric
	err := pgxscan.Select(ctx, sdb.db, &rubrics, sql, args...)
	if err != nil {
		return nil, err
	}
	return rubrics, nil
}

func (sdb *SharedDB) ReadMeta(ctx context.Context, objectType string, objectID int, key string) (string, error) {
	sql, args, _ := psql.
		Select("meta_value").
		From("object_meta").
		Where(sq.Eq{"object_type": objectType, "object_id": objectID, "meta_key": key}).
		ToSql()

	value := ""
	err := sdb.db.QueryRow(ctx, sql, args...).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (sdb *SharedDB) ReadMetaBatch(ctx context.Context, objectType string, objectIDs []int, key string) (map[int]string, error) {
	res := map[int]string{}
	if len(objectIDs) == 0 {
		return res, nil
	}
	sql, args, _ := psql.
		Select("object_id", "meta_value").
		From("object_meta").
		Where(sq.Eq{"object_type": objectType, "object_id": objectIDs, "meta_key": key}).
		ToSql()

	var rows []struct {
		ObjectID  int    `db:"object_id"`
		MetaValue string `db:"meta_value"`
	}
	err := pgxscan.Select(ctx, sdb.db, &rows, sql, args...)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		res[r.ObjectID] = r.MetaValue
	}
	return res, nil
}

// SetMeta is the write side of the metric keys, used by whatever records
// votes and by tests.
func (sdb *SharedDB) SetMeta(ctx context.Context, objectType string, objectID int, key string, value string) error {
	sql, args, _ := psql.
		Insert("object_meta").
		Columns("object_type", "object_id", "meta_key", "meta_value").
		Values(objectType, objectID, key, value).
		Suffix("ON CONFLICT (object_type, object_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value").
		ToSql()

	_, err := sdb.db.Exec(ctx, sql, args...)
	return err
}
