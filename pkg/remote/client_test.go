package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidtypst/rapidtypst-terminal/pkg/catalog"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/models"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/store"
	"github.com/rapidtypst/rapidtypst-terminal/pkg/store/storetest"
)

// backend mimics the HTTP API over an in-memory store and the built-in
// templates.
func backend(t *testing.T) *httptest.Server {
	t.Helper()
	docs := store.NewMemory()
	templates, err := catalog.NewEmbeddedProvider()
	require.NoError(t, err)

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	fail := func(w http.ResponseWriter, err error) {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, catalog.ErrTemplateNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
	}
	decode := func(r *http.Request) map[string]*string {
		var body map[string]*string
		_ = json.NewDecoder(r.Body).Decode(&body)
		return body
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/compile", func(w http.ResponseWriter, r *http.Request) {
		content := *decode(r)["content"]
		if strings.Contains(content, "#bad") {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "html": "<div>Compilation Error</div>", "error": "unknown function"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "html": "<div><svg></svg><svg></svg></div>"})
	})
	mux.HandleFunc("POST /api/export/{format}", func(w http.ResponseWriter, r *http.Request) {
		body := decode(r)
		if *body["format"] != r.PathValue("format") {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "format mismatch"})
			return
		}
		w.Write([]byte(r.PathValue("format") + ":" + *body["content"]))
	})
	mux.HandleFunc("GET /api/documents", func(w http.ResponseWriter, r *http.Request) {
		list, _ := docs.List(r.Context())
		writeJSON(w, http.StatusOK, list)
	})
	mux.HandleFunc("POST /api/documents", func(w http.ResponseWriter, r *http.Request) {
		body := decode(r)
		d, err := docs.Create(r.Context(), *body["title"], *body["content"])
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	})
	mux.HandleFunc("GET /api/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		d, err := docs.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	})
	mux.HandleFunc("PUT /api/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		body := decode(r)
		id := r.PathValue("id")
		var d *models.Document
		var err error
		if body["title"] != nil {
			d, err = docs.Rename(r.Context(), id, *body["title"])
		}
		if err == nil && body["content"] != nil {
			d, err = docs.Update(r.Context(), id, *body["content"])
		}
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	})
	mux.HandleFunc("DELETE /api/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := docs.Delete(r.Context(), r.PathValue("id")); err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted"})
	})
	mux.HandleFunc("GET /api/templates", func(w http.ResponseWriter, r *http.Request) {
		list, _ := templates.ListTemplates(r.Context())
		writeJSON(w, http.StatusOK, list)
	})
	mux.HandleFunc("GET /api/templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		content, err := templates.TemplateContent(r.Context(), r.PathValue("id"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": r.PathValue("id"), "content": content})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientStoreContract(t *testing.T) {
	srv := backend(t)
	storetest.Run(t, New(srv.URL+"/"))
}

func TestClientCompile(t *testing.T) {
	srv := backend(t)
	c := New(srv.URL)
	ctx := context.Background()

	res, err := c.Compile(ctx, "= Hello")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, 2, res.Pages)

	res, err = c.Compile(ctx, "#bad()")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "unknown function", res.Err)
	assert.Contains(t, res.HTML, "Compilation Error")
}

func TestClientExport(t *testing.T) {
	srv := backend(t)
	c := New(srv.URL)
	ctx := context.Background()

	data, err := c.Export(ctx, "= \"Quoted\"\n", models.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "pdf:= \"Quoted\"\n", string(data))

	_, err = c.Export(ctx, "x", models.ExportFormat("odt"))
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestClientTemplates(t *testing.T) {
	srv := backend(t)
	cat := catalog.New(New(srv.URL))
	ctx := context.Background()

	cats, err := cat.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "Basic", "Professional", "Academic", "Technical"}, cats)

	tpl, err := cat.Template(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, "Math Notes", tpl.Name)
	assert.Contains(t, tpl.Content, "Quadratic")

	_, err = cat.Content(ctx, "nope")
	assert.ErrorIs(t, err, catalog.ErrTemplateNotFound)
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/documents":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"database unavailable"}`))
		default:
			w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.List(ctx)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "database unavailable", se.Detail)

	_, err = c.Compile(ctx, "= Hi")
	assert.ErrorIs(t, err, ErrUnexpectedResponse)

	_, err = c.ListTemplates(ctx)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)

	_, err = c.TemplateContent(ctx, "basic")
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Compile(context.Background(), "= Hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach backend")
}
