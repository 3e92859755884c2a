package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gitlab.com/ranfdev/rubricvote/internal/models"
	"gitlab.com/ranfdev/rubricvote/internal/utils"
)

type settingsRow struct {
	Rubric string
	Cells  []settingsCell
}
type settingsCell struct {
	ObjectType models.ObjectType
	Checked    bool
}

func (routes *Routes) GetSettings(w http.ResponseWriter, r *http.Request) AppError {
	types, err := routes.selectableTypes(r.Context())
	if err != nil {
		return &ErrInternal{Cause: err}
	}
	cfg := routes.registry.GlobalConfig(r.Context())

	rows := []settingsRow{}
	for _, name := range models.RubricOrder {
		row := settingsRow{Rubric: name}
		for _, t := range types {
			row.Cells = append(row.Cells, settingsCell{ObjectType: t, Checked: cfg.Enabled(name, t.Slug)})
		}
		rows = append(rows, row)
	}
	routes.tmpls.RenderHTML(w, "settings", struct {
		Types []models.ObjectType
		Rows  []settingsRow
		Nonce string
	}{
		Types: types,
		Rows:  rows,
		Nonce: routes.noncer.Create(NonceAction),
	})
	return nil
}

// PostSettings replaces the global activation config. Unknown object
// types are dropped.
func (routes *Routes) PostSettings(w http.ResponseWriter, r *http.Request) AppError {
	if err := routes.verifyForm(r); err != nil {
		return err
	}
	types, err := routes.selectableTypes(r.Context())
	if err != nil {
		return &ErrInternal{Cause: err}
	}
	known := map[string]bool{}
	for _, t := range types {
		known[t.Slug] = true
	}

	cfg := models.ActivationConfig{}
	for _, name := range models.RubricOrder {
		enabled := []string{}
		for _, slug := range utils.SanitizeKeys(r.PostForm[name]) {
			if known[slug] {
				enabled = append(enabled, slug)
			}
		}
		cfg[name] = enabled
	}
	if err := routes.store.SaveActivationConfig(r.Context(), cfg); err != nil {
		return &ErrInternal{Message: "Can't save settings", Cause: err}
	}
	routes.metrics.SettingsSaved.WithLabelValues("global").Inc()
	http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
	return nil
}

func (routes *Routes) objectFromURL(r *http.Request) (*models.Object, AppError) {
	objectType := GetObjectType(r)
	id, err := strconv.Atoi(chi.URLParam(r, "objectID"))
	if err != nil {
		return nil, &ErrNotFound{Thing: "object", Cause: err}
	}
	obj, err := routes.store.ReadObject(r.Context(), id)
	if err != nil {
		return nil, toAppError(err)
	}
	if obj.Type != objectType.Slug {
		return nil, &ErrNotFound{Thing: "object", Cause: fmt.Errorf("object %d is a %s", id, obj.Type)}
	}
	return obj, nil
}

type overrideForm struct {
	Prefix     string
	Title      string
	Overridden bool
	Rubrics    []rubricCheckbox
}
type rubricCheckbox struct {
	Name    string
	Checked bool
}

func newOverrideForm(prefix string, title string, o models.Override) overrideForm {
	f := overrideForm{Prefix: prefix, Title: title, Overridden: o.Overridden}
	for _, name := range models.RubricOrder {
		f.Rubrics = append(f.Rubrics, rubricCheckbox{Name: name, Checked: o.Enabled(name)})
	}
	return f
}

func (routes *Routes) GetObjectRubrics(w http.ResponseWriter, r *http.Request) AppError {
	obj, appErr := routes.objectFromURL(r)
	if appErr != nil {
		return appErr
	}
	forms := []overrideForm{}
	for _, f := range []struct {
		prefix    string
		title     string
		isComment bool
	}{{"", "POST", false}, {"comment_", "COMMENT", true}} {
		o, err := routes.store.ReadOverride(r.Context(), obj.ID, f.isComment)
		if err != nil {
			return &ErrInternal{Cause: err}
		}
		forms = append(forms, newOverrideForm(f.prefix, f.title, o))
	}
	routes.tmpls.RenderHTML(w, "objectRubrics", struct {
		Object     *models.Object
		ObjectType models.ObjectType
		Forms      []overrideForm
		Nonce      string
	}{
		Object:     obj,
		ObjectType: GetObjectType(r),
		Forms:      forms,
		Nonce:      routes.noncer.Create(NonceAction),
	})
	return nil
}

// PostObjectRubrics saves both overrides of an object. Fields:
// override, rubrics, comment_override, comment_rubrics.
func (routes *Routes) PostObjectRubrics(w http.ResponseWriter, r *http.Request) AppError {
	if err := routes.verifyForm(r); err != nil {
		return err
	}
	obj, appErr := routes.objectFromURL(r)
	if appErr != nil {
		return appErr
	}
	parse := func(prefix string) models.Override {
		o := models.Override{
			Overridden:     r.PostForm.Get(prefix+"override") != "",
			EnabledRubrics: []string{},
		}
		for _, name := range utils.SanitizeKeys(r.PostForm[prefix+"rubrics"]) {
			if models.IsRubricName(name) && !o.Enabled(name) {
				o.EnabledRubrics = append(o.EnabledRubrics, name)
			}
		}
		return o
	}
	err := routes.store.SaveOverrides(r.Context(), obj.ID, parse(""), parse("comment_"))
	if errors.Is(err, models.ErrObjectNotFound) {
		return toAppError(err)
	}
	if err != nil {
		return &ErrInternal{Message: "Can't save rubrics", Cause: err}
	}
	routes.metrics.SettingsSaved.WithLabelValues("object").Inc()
	http.Redirect(w, r, "/admin/"+obj.Type, http.StatusSeeOther)
	return nil
}

func (routes *Routes) verifyForm(r *http.Request) AppError {
	if err := r.ParseForm(); err != nil {
		return &ErrBadRequest{Message: "Invalid form", Cause: err}
	}
	if !routes.noncer.Verify(NonceAction, r.PostForm.Get("rubricvote_security")) {
		return &ErrForbidden{Cause: models.ErrBadNonce}
	}
	return nil
}
