package httpx

import (
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderer_DefinesEveryPage(t *testing.T) {
	tr := RequireTemplateRenderer(t)

	assert.True(t, tr.Has("layout"))
	for page, name := range contentTemplates {
		assert.True(t, tr.Has(name), "page %q needs template %q", page, name)
	}
	assert.False(t, tr.Has("no-such-content"))
}

func TestContentTemplateFor(t *testing.T) {
	assert.Equal(t, "admin-content", ContentTemplateFor(PageAdmin))
	assert.Equal(t, "not-found-content", ContentTemplateFor("bogus"))
}

func TestTemplateRenderer_RenderContentStatus(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	r := httptest.NewRequest("GET", "/missing", nil)
	data := basePageData(r, PageMeta{Title: "Missing", CurrentPage: PageNotFound})

	rec := httptest.NewRecorder()
	require.NoError(t, tr.RenderContent(rec, PageNotFound, 404, data))
	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "<html")
}

func TestTemplateRenderer_ExecutionErrorWritesNothing(t *testing.T) {
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: fstest.MapFS{
		"layout.tmpl":     {Data: []byte(`{{define "layout"}}{{.Missing.Field}}{{end}}`)},
		"pages/home.tmpl": {Data: []byte(`{{define "home-content"}}home{{end}}`)},
	}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.Error(t, tr.RenderFull(rec, 200, map[string]any{"Missing": 1}))
	assert.Empty(t, rec.Body.String())
}

func TestNewTemplateRenderer_RequiresFS(t *testing.T) {
	_, err := NewTemplateRenderer(TemplateRendererConfig{})
	require.Error(t, err)
}
