package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"gitlab.com/ranfdev/rubricvote/internal/models"
)

const activationConfigID = 1

func (sdb *SharedDB) ReadActivationConfig(ctx context.Context) (models.ActivationConfig, error) {
	sql, args, _ := psql.
		Select("rubrics").
		From("activation_config").
		Where(sq.Eq{"id": activationConfigID}).
		ToSql()

	var raw []byte
	err := sdb.db.QueryRow(ctx, sql, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNoConfig
	}
	if err != nil {
		return nil, err
	}
	cfg := models.ActivationConfig{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decoding activation config: %w", err)
	}
	return cfg, nil
}

func (sdb *SharedDB) SaveActivationConfig(ctx context.Context, cfg models.ActivationConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	sql, args, _ := psql.
		Insert("activation_config").
		Columns("id", "rubrics").
		Values(activationConfigID, sq.Expr("?::jsonb", string(raw))).
		Suffix("ON CONFLICT (id) DO UPDATE SET rubrics = EXCLUDED.rubrics").
		ToSql()

	_, err = sdb.db.Exec(ctx, sql, args...)
	return err
}

func (sdb *SharedDB) ReadOverride(ctx context.Context, objectID int, isComment bool) (models.Override, error) {
	sql, args, _ := psql.
		Select("overridden", "rubrics").
		From("rubric_overrides").
		Where(sq.Eq{"object_id": objectID, "is_comment": isComment}).
		ToSql()

	o := models.Override{}
	err := sdb.db.QueryRow(ctx, sql, args...).Scan(&o.Overridden, &o.EnabledRubrics)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Override{}, nil
	}
	if err != nil {
		return o, err
	}
	return o, nil
}

// SaveOverrides stores the object and comment overrides of an object
// together.
func (sdb *SharedDB) SaveOverrides(ctx context.Context, objectID int, object models.Override, comment models.Override) error {
	return execTx(ctx, sdb.db, func(ctx context.Context, tx DBTX) error {
		var exists bool
		err := tx.QueryRow(ctx, "SELECT exists(SELECT 1 FROM objects WHERE id = $1)", objectID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return models.ErrObjectNotFound
		}
		for _, o := range []struct {
			isComment bool
			override  models.Override
		}{{false, object}, {true, comment}} {
			rubrics := o.override.EnabledRubrics
			if rubrics == nil {
				rubrics = []string{}
			}
			sql, args, _ := psql.
				Insert("rubric_overrides").
				Columns("object_id", "is_comment", "overridden", "rubrics").
				Values(objectID, o.isComment, o.override.Overridden, rubrics).
				Suffix("ON CONFLICT (object_id, is_comment) DO UPDATE SET overridden = EXCLUDED.overridden, rubrics = EXCLUDED.rubrics").
				ToSql()
			if _, err := tx.Exec(ctx, sql, args...); err != nil {
				return err
			}
		}
		return nil
	})
}
