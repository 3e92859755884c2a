package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/ranfdev/rubricvote/internal/columns"
	"gitlab.com/ranfdev/rubricvote/internal/listing"
	"gitlab.com/ranfdev/rubricvote/internal/metrics"
	"gitlab.com/ranfdev/rubricvote/internal/models"
	"gitlab.com/ranfdev/rubricvote/internal/ratings"
	"gitlab.com/ranfdev/rubricvote/internal/render"
	"gitlab.com/ranfdev/rubricvote/internal/rubric"
	"gitlab.com/ranfdev/rubricvote/internal/utils"
)

// Every form posted by the admin screens carries a nonce for this action.
const NonceAction = "rubricvote"

type Store interface {
	ratings.MetaReader
	rubric.SettingsReader
	listing.ObjectSource
	ReadObject(ctx context.Context, id int) (*models.Object, error)
	ListObjectTypes(ctx context.Context) ([]models.ObjectType, error)
	SaveActivationConfig(ctx context.Context, cfg models.ActivationConfig) error
	SaveOverrides(ctx context.Context, objectID int, object models.Override, comment models.Override) error
}

type Routes struct {
	envConfig *models.EnvConfig
	store     Store
	log       zerolog.Logger
	tmpls     *render.Templates
	metrics   *metrics.Metrics
	noncer    *utils.Noncer
	registry  *rubric.Registry
	ratings   *ratings.Store
	augmenter *listing.Augmenter
	projector *columns.Projector
}

type rubricvoteCtxKey int

const ObjectTypeCtxKey = rubricvoteCtxKey(1)

func NewRouter(config *models.EnvConfig, store Store, log zerolog.Logger, tmpls *render.Templates, m *metrics.Metrics) chi.Router {
	ratingStore := ratings.NewStore(store)
	routes := &Routes{
		envConfig: config,
		store:     store,
		log:       log,
		tmpls:     tmpls,
		metrics:   m,
		noncer:    utils.NewNoncer(config.NonceKey),
		registry:  rubric.NewRegistry(store, log),
		ratings:   ratingStore,
		augmenter: listing.NewAugmenter(store, ratingStore, log),
		projector: columns.NewProjector(ratingStore, log),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/", routes.AppHandler(routes.GetHome))
	r.With(routes.ObjectTypeCtx).Get("/list/{objectType}", routes.AppHandler(routes.GetHome))
	r.Route("/admin", routes.AdminRouter)
	return r
}

func (routes *Routes) AdminRouter(r chi.Router) {
	r.Get("/settings", routes.AppHandler(routes.GetSettings))
	r.Post("/settings", routes.AppHandler(routes.PostSettings))

	specificType := r.With(routes.ObjectTypeCtx)
	specificType.Get("/{objectType}", routes.AppHandler(routes.GetAdminListing))
	specificType.Get("/{objectType}/{objectID}/rubrics", routes.AppHandler(routes.GetObjectRubrics))
	specificType.Post("/{objectType}/{objectID}/rubrics", routes.AppHandler(routes.PostObjectRubrics))
}

// ObjectTypeCtx resolves {objectType} to one of the listable object types.
// Comments have no listing of their own.
func (routes *Routes) ObjectTypeCtx(next http.Handler) http.Handler {
	return routes.AppHandler(func(w http.ResponseWriter, r *http.Request) AppError {
		slug := chi.URLParam(r, "objectType")
		types, err := routes.listableTypes(r.Context())
		if err != nil {
			return &ErrInternal{Cause: err}
		}
		for _, t := range types {
			if t.Slug == slug {
				ctx := context.WithValue(r.Context(), ObjectTypeCtxKey, t)
				next.ServeHTTP(w, r.WithContext(ctx))
				return nil
			}
		}
		return &ErrNotFound{Thing: "object type " + slug}
	})
}

func GetObjectType(r *http.Request) models.ObjectType {
	t, ok := r.Context().Value(ObjectTypeCtxKey).(models.ObjectType)
	if !ok {
		return models.ObjectType{Slug: models.ObjectTypePost, Label: "Posts"}
	}
	return t
}

func (routes *Routes) listableTypes(ctx context.Context) ([]models.ObjectType, error) {
	types, err := routes.selectableTypes(ctx)
	if err != nil {
		return nil, err
	}
	res := []models.ObjectType{}
	for _, t := range types {
		if t.Slug != models.ObjectTypeComment {
			res = append(res, t)
		}
	}
	return res, nil
}

func (routes *Routes) selectableTypes(ctx context.Context) ([]models.ObjectType, error) {
	types, err := routes.store.ListObjectTypes(ctx)
	if err != nil {
		return nil, err
	}
	return models.SelectableObjectTypes(types), nil
}
