package export

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/geom"
	"github.com/inamate/vecta/backend-go/internal/pathdata"
	"github.com/inamate/vecta/backend-go/internal/store"
)

type svgPath struct {
	D         string `xml:"d,attr"`
	Transform string `xml:"transform,attr"`
	Fill      string `xml:"fill,attr"`
	Stroke    string `xml:"stroke,attr"`
	Opacity   string `xml:"opacity,attr"`
	Entity    string `xml:"data-entity,attr"`
	Segment   string `xml:"data-segment,attr"`
}

type svgDoc struct {
	XMLName xml.Name  `xml:"svg"`
	Width   string    `xml:"width,attr"`
	ViewBox string    `xml:"viewBox,attr"`
	Paths   []svgPath `xml:"path"`
}

func render(t *testing.T, entities []document.Entity, at float64, opts Options) svgDoc {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, entities, at, opts))
	var doc svgDoc
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc), buf.String())
	return doc
}

func TestWriteSVGSample(t *testing.T) {
	sample := document.NewSampleDocument()
	doc := render(t, sample, 0, DefaultOptions())

	assert.Equal(t, "800", doc.Width)
	assert.Equal(t, "0 0 800 600", doc.ViewBox)
	require.Len(t, doc.Paths, 4)

	square := doc.Paths[0]
	assert.Equal(t, sample[0].ID, square.Entity)
	assert.Empty(t, square.Transform, "identity transform is omitted")
	assert.Equal(t, "#e94560", square.Fill)
	assert.Empty(t, square.Segment)

	// the outline parses back onto the stored corners
	subs := pathdata.ParsePathData(square.D)
	require.Len(t, subs, 1)
	assert.True(t, subs[0].Closed)
	assert.Equal(t, geom.Pt(120, 120), subs[0].Points[0])

	wave, ring := doc.Paths[2], doc.Paths[3]
	assert.Equal(t, "0", wave.Segment)
	assert.Equal(t, "none", wave.Fill, "open segments are not filled")
	assert.Equal(t, "1", ring.Segment)
	assert.Equal(t, "0.8", ring.Opacity)
}

func TestWriteSVGAnimatedTime(t *testing.T) {
	sample := document.NewSampleDocument()
	doc := render(t, sample, 2000, DefaultOptions())
	require.NotEmpty(t, doc.Paths)
	assert.True(t, strings.HasPrefix(doc.Paths[0].Transform, "matrix("))
}

func TestWriteSVGEscapesAttributes(t *testing.T) {
	e := document.NewEntity([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, document.Style{Stroke: `"red"<`, StrokeWidth: 1, Opacity: 1}, false, 0)
	opts := DefaultOptions()
	opts.Background = "#fff"
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, []document.Entity{e}, 0, opts))
	assert.Contains(t, buf.String(), `<rect width="100%" height="100%" fill="#fff"/>`)

	var doc svgDoc
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Paths, 1)
	assert.Equal(t, `"red"<`, doc.Paths[0].Stroke)
}

func TestWriteSVGEmpty(t *testing.T) {
	doc := render(t, nil, 0, DefaultOptions())
	assert.Empty(t, doc.Paths)
}

type fakeSource map[string][]document.Entity

func (f fakeSource) Document(_ context.Context, projectID string) ([]document.Entity, error) {
	if projectID == "proj_broken" {
		return nil, errors.New("db down")
	}
	doc, ok := f[projectID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func TestExportHandler(t *testing.T) {
	h := NewHandler(fakeSource{"proj_a": document.NewSampleDocument()})
	r := mux.NewRouter()
	r.HandleFunc("/api/projects/{projectId}/export.svg", h.ExportSVG).Methods("GET")

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"ok", "/api/projects/proj_a/export.svg", http.StatusOK},
		{"at time", "/api/projects/proj_a/export.svg?t=1500", http.StatusOK},
		{"bad time", "/api/projects/proj_a/export.svg?t=soon", http.StatusBadRequest},
		{"negative time", "/api/projects/proj_a/export.svg?t=-1", http.StatusBadRequest},
		{"missing", "/api/projects/proj_x/export.svg", http.StatusNotFound},
		{"store error", "/api/projects/proj_broken/export.svg", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="proj_a.svg"`)
				body, _ := io.ReadAll(rec.Body)
				assert.Contains(t, string(body), "<svg")
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "drawing", sanitizeName(""))
	assert.Equal(t, "a-b_c-", sanitizeName("a b_c/"))
}
