package rubric

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gitlab.com/ranfdev/rubricvote/internal/models"
)

type SettingsReader interface {
	ReadActivationConfig(ctx context.Context) (models.ActivationConfig, error)
	ReadOverride(ctx context.Context, objectID int, isComment bool) (models.Override, error)
}

// Resolve decides whether a rubric is active. A set override wins over the
// global config; a nil config activates nothing.
func Resolve(cfg models.ActivationConfig, override models.Override, rubricName string, objectType string, isComment bool) bool {
	if override.Overridden {
		return override.Enabled(rubricName)
	}
	if isComment {
		objectType = models.ObjectTypeComment
	}
	return cfg.Enabled(rubricName, objectType)
}

type Registry struct {
	settings SettingsReader
	log      zerolog.Logger
}

func NewRegistry(settings SettingsReader, log zerolog.Logger) *Registry {
	return &Registry{settings, log}
}

// IsRubricActive fails closed: any lookup error yields false.
// Without an object ID only the global config is consulted.
func (r *Registry) IsRubricActive(ctx context.Context, rubricName string, objectType string, objectID int, isComment bool) bool {
	override := models.Override{}
	if objectID > 0 {
		var err error
		override, err = r.settings.ReadOverride(ctx, objectID, isComment)
		if err != nil {
			r.log.Error().Err(err).Int("object_id", objectID).Msg("Reading rubric override")
			return false
		}
	}
	if override.Overridden {
		return Resolve(nil, override, rubricName, objectType, isComment)
	}
	cfg, ok := r.globalConfig(ctx)
	if !ok {
		return false
	}
	return Resolve(cfg, override, rubricName, objectType, isComment)
}

// ActiveRubrics lists the globally active rubrics for an object type,
// in models.RubricOrder.
func (r *Registry) ActiveRubrics(ctx context.Context, objectType string) []string {
	cfg, ok := r.globalConfig(ctx)
	if !ok {
		return nil
	}
	active := []string{}
	for _, name := range models.RubricOrder {
		if cfg.Enabled(name, objectType) {
			active = append(active, name)
		}
	}
	return active
}

func (r *Registry) GlobalConfig(ctx context.Context) models.ActivationConfig {
	cfg, _ := r.globalConfig(ctx)
	return cfg
}

func (r *Registry) globalConfig(ctx context.Context) (models.ActivationConfig, bool) {
	cfg, err := r.settings.ReadActivationConfig(ctx)
	if errors.Is(err, models.ErrNoConfig) {
		return nil, false
	}
	if err != nil {
		r.log.Error().Err(err).Msg("Reading activation config")
		return nil, false
	}
	return cfg, true
}
