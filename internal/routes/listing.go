package routes

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"
	"gitlab.com/ranfdev/rubricvote/internal/columns"
	"gitlab.com/ranfdev/rubricvote/internal/models"
	"gitlab.com/ranfdev/rubricvote/internal/utils"
)

var baseColumns = []columns.Column{
	{Key: "title", Label: "Title"},
	{Key: "author", Label: "Author"},
	{Key: "categories", Label: "Categories"},
	{Key: "comments", Label: "Comments"},
	{Key: "date", Label: "Date"},
}

type columnHeader struct {
	columns.Column
	Href   string
	Sorted models.Direction
}

type adminRow struct {
	models.Object
	Cells map[string]template.HTML
}

type pager struct {
	Page     int
	Pages    int
	Total    int
	PrevHref string
	NextHref string
}

// listingRequest reads orderby, order, paged and the nonce-protected
// rating_filter. A filter without a valid nonce is dropped.
func (routes *Routes) listingRequest(r *http.Request, objectType string) models.ListingRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("paged"))
	return models.ListingRequest{
		ObjectType:   objectType,
		SortKey:      utils.SanitizeKey(q.Get("orderby")),
		Direction:    models.ParseDirection(q.Get("order")),
		RatingFilter: routes.ratingFilter(r),
		Page:         page,
		PerPage:      routes.envConfig.PerPage,
	}
}

func (routes *Routes) ratingFilter(r *http.Request) int {
	q := r.URL.Query()
	raw := q.Get("rating_filter")
	if raw == "" {
		return 0
	}
	if !routes.noncer.Verify(NonceAction, q.Get("rating_filter_nonce")) {
		hlog.FromRequest(r).Debug().Err(models.ErrBadNonce).Str("rating_filter", raw).Msg("Ignoring rating filter")
		routes.metrics.FilterIgnored.WithLabelValues("bad_nonce").Inc()
		return 0
	}
	threshold := models.ParseRatingFilter(raw)
	if threshold == 0 {
		routes.metrics.FilterIgnored.WithLabelValues("out_of_range").Inc()
	}
	return threshold
}

func (routes *Routes) GetAdminListing(w http.ResponseWriter, r *http.Request) AppError {
	start := time.Now()
	ctx := r.Context()
	objectType := GetObjectType(r)
	req := routes.listingRequest(r, objectType.Slug)
	routes.metrics.ListingRequests.WithLabelValues("admin", objectType.Slug, metricLabel(req.SortKey)).Inc()

	l, err := routes.augmenter.Augment(ctx, req)
	if err != nil {
		return &ErrInternal{Message: "Can't list objects", Cause: err}
	}

	active := routes.registry.ActiveRubrics(ctx, objectType.Slug)
	sortable := columns.SortableColumns(active)
	headers := []columnHeader{}
	for _, c := range columns.ProjectColumns(baseColumns, active) {
		h := columnHeader{Column: c}
		if orderby, ok := sortable[c.Key]; ok {
			next := models.Asc
			if req.SortKey == orderby {
				h.Sorted = req.Direction
				if req.Direction == models.Asc {
					next = models.Desc
				}
			}
			h.Href = withQuery(r.URL, url.Values{
				"orderby": {orderby},
				"order":   {string(next)},
				"paged":   {"1"},
			})
		}
		headers = append(headers, h)
	}

	rows := make([]adminRow, len(l.Items))
	for i, it := range l.Items {
		cells := map[string]template.HTML{}
		for _, name := range active {
			cells[name] = routes.projector.RenderCell(ctx, name, objectType.Slug, it.ID)
		}
		rows[i] = adminRow{Object: it.Object, Cells: cells}
	}

	data := struct {
		ObjectType    models.ObjectType
		Headers       []columnHeader
		Rubrics       []string
		Rows          []adminRow
		Pager         pager
		OrderBy       string
		Order         models.Direction
		ShowFilter    bool
		FilterOptions []columns.Option
		Nonce         string
	}{
		ObjectType:    objectType,
		Headers:       headers,
		Rubrics:       active,
		Rows:          rows,
		Pager:         newPager(r.URL, l),
		OrderBy:       req.SortKey,
		Order:         req.Direction,
		ShowFilter:    contains(active, models.RubricRating),
		FilterOptions: columns.RatingFilterOptions(req.RatingFilter),
		Nonce:         routes.noncer.Create(NonceAction),
	}
	routes.tmpls.RenderHTML(w, "adminListing", data)
	routes.metrics.ListingDuration.WithLabelValues("admin").Observe(time.Since(start).Seconds())
	return nil
}

type homeCard struct {
	models.Object
	RatingActive bool
	Rating       float64
}

func (routes *Routes) GetHome(w http.ResponseWriter, r *http.Request) AppError {
	start := time.Now()
	ctx := r.Context()
	objectType := GetObjectType(r)
	req := routes.listingRequest(r, objectType.Slug)
	routes.metrics.ListingRequests.WithLabelValues("home", objectType.Slug, metricLabel(req.SortKey)).Inc()

	l, err := routes.augmenter.Augment(ctx, req)
	if err != nil {
		return &ErrInternal{Message: "Can't list objects", Cause: err}
	}

	cards := make([]homeCard, len(l.Items))
	for i, it := range l.Items {
		card := homeCard{Object: it.Object}
		card.RatingActive = routes.registry.IsRubricActive(ctx, models.RubricRating, it.Type, it.ID, false)
		if card.RatingActive {
			card.Rating, err = routes.ratings.GetAverage(ctx, it.Type, it.ID, models.RubricRating)
			if err != nil {
				return &ErrInternal{Cause: err}
			}
		}
		cards[i] = card
	}

	routes.tmpls.RenderHTML(w, "home", struct {
		ObjectType models.ObjectType
		Cards      []homeCard
		Pager      pager
	}{
		ObjectType: objectType,
		Cards:      cards,
		Pager:      newPager(r.URL, l),
	})
	routes.metrics.ListingDuration.WithLabelValues("home").Observe(time.Since(start).Seconds())
	return nil
}

func newPager(u *url.URL, l *models.Listing) pager {
	p := pager{Page: l.Page, Pages: l.Pages, Total: l.Total}
	if l.Page > 1 {
		p.PrevHref = withQuery(u, url.Values{"paged": {strconv.Itoa(l.Page - 1)}})
	}
	if l.Page < l.Pages {
		p.NextHref = withQuery(u, url.Values{"paged": {strconv.Itoa(l.Page + 1)}})
	}
	return p
}

// withQuery returns u's path and query with the given keys replaced.
func withQuery(u *url.URL, set url.Values) string {
	q := u.Query()
	for k, v := range set {
		q[k] = v
	}
	return (&url.URL{Path: u.Path, RawQuery: q.Encode()}).String()
}

// metricLabel keeps label cardinality bounded.
func metricLabel(sortKey string) string {
	if models.IsRubricName(sortKey) {
		return sortKey
	}
	return "default"
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
