package keel_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/keel/pkg/keel"
	"github.com/toyz/keel/pkg/keel/keeltest"
)

func TestStaticFiles_ConditionalAndRange(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "static"), 0o755))
	file := filepath.Join(base, "static", "digits.txt")
	require.NoError(t, os.WriteFile(file, []byte("0123456789"), 0o644))
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(file, modified, modified))

	for _, adapter := range []string{"echo", "gin", "fiber", "chi"} {
		t.Run(adapter, func(t *testing.T) {
			app := keeltest.New(t, keel.NewModule("app", keel.BaseDirectory(base)), keeltest.WithAdapter(adapter))
			get := func(header, value string) *httptest.ResponseRecorder {
				req := httptest.NewRequest(http.MethodGet, "/static/digits.txt", nil)
				if header != "" {
					req.Header.Set(header, value)
				}
				return app.Do(req)
			}

			rec := get("", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "0123456789", rec.Body.String())
			assert.Equal(t, modified.Format(http.TimeFormat), rec.Header().Get("Last-Modified"))
			assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))

			rec = get("If-Modified-Since", modified.Format(http.TimeFormat))
			assert.Equal(t, http.StatusNotModified, rec.Code)
			assert.Empty(t, rec.Body.String())

			rec = get("If-Modified-Since", modified.Add(-time.Hour).Format(http.TimeFormat))
			assert.Equal(t, http.StatusOK, rec.Code)

			rec = get("Range", "bytes=2-4")
			require.Equal(t, http.StatusPartialContent, rec.Code)
			assert.Equal(t, "234", rec.Body.String())
			assert.Equal(t, "bytes 2-4/10", rec.Header().Get("Content-Range"))

			rec = get("Range", "bytes=-3")
			require.Equal(t, http.StatusPartialContent, rec.Code)
			assert.Equal(t, "789", rec.Body.String())

			rec = get("Range", "bytes=20-")
			assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
			assert.Equal(t, "bytes */10", rec.Header().Get("Content-Range"))
		})
	}
}
