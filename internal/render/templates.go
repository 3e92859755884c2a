package render

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"gitlab.com/ranfdev/rubricvote/internal/columns"
	"gitlab.com/ranfdev/rubricvote/internal/models"
)

const previewLen = 300

type Templates struct {
	templates *template.Template
	envConfig *models.EnvConfig
	fs        fs.FS
	log       zerolog.Logger
}

func (tmpls *Templates) RenderHTML(w http.ResponseWriter, tmplName string, data interface{}) {
	tmpls.RenderHTMLStatus(w, http.StatusOK, tmplName, data)
}

func (tmpls *Templates) RenderHTMLStatus(w http.ResponseWriter, status int, tmplName string, data interface{}) {
	// Reload templates every time when developing locally.
	if tmpls.envConfig.Debug {
		if err := tmpls.load(); err != nil {
			tmpls.log.Error().Err(err).Msg("Reloading templates")
		}
	}
	buff := bytes.NewBuffer([]byte{})
	err := tmpls.templates.ExecuteTemplate(buff, tmplName, data)
	if err != nil && tmplName != "404" {
		tmpls.log.Error().Err(err).Str("template", tmplName).Msg("Rendering template")
		tmpls.RenderHTMLStatus(w, http.StatusNotFound, "404", nil)
		return
	}
	w.Header().Add("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buff.Bytes())
}

func markdown(s string) template.HTML {
	var b bytes.Buffer
	if err := goldmark.Convert([]byte(s), &b); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(b.String())
}

// markdownPreview renders the first paragraph, cut at previewLen bytes.
func markdownPreview(s string) template.HTML {
	i := strings.Index(s, "\n\n")
	maxLen := len(s)
	if previewLen < maxLen {
		maxLen = previewLen
	}
	if i < 0 || i > maxLen {
		i = maxLen
	}
	// Don't cut a multi-byte rune in half
	for i > 0 && i < len(s) && !utf8Start(s[i]) {
		i--
	}
	return markdown(s[0:i])
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

func formatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

func (tmpls *Templates) load() error {
	t, err := template.New("").Funcs(template.FuncMap{
		"markdown":        markdown,
		"markdownPreview": markdownPreview,
		"stars":           columns.StarRating,
		"date":            formatDate,
	}).ParseFS(tmpls.fs, "templates/*.html")
	if err != nil {
		return err
	}
	tmpls.templates = t
	return nil
}

// GetTemplates parses every templates/*.html file of fsys, panicking on
// a parse error.
func GetTemplates(envConfig *models.EnvConfig, fsys fs.FS, log zerolog.Logger) *Templates {
	tmpls := &Templates{envConfig: envConfig, fs: fsys, log: log}
	if err := tmpls.load(); err != nil {
		panic(err)
	}
	return tmpls
}
