package report

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trussc/profilegen/internal/coverage"
	"github.com/trussc/profilegen/internal/profiledb"
	"github.com/trussc/profilegen/internal/testutil"
)

func testSummary() Summary {
	return Summary{
		Name:        "fp_L-Standard",
		SampleCount: 1000,
		InlierCount: 900,
		Rounds:      3,
		Rank:        20,
		MAE:         0.012,
		RMSE:        0.019,
		ChannelMAE:  [3]float64{0.011, 0.010, 0.015},
	}
}

func testHistogram() *coverage.Histogram {
	src := [][3]float64{
		{0.8, 0.1, 0.1},
		{0.1, 0.8, 0.1},
		{0.1, 0.1, 0.8},
		{0.5, 0.5, 0.5},
	}
	return coverage.Build(src)
}

func TestRenderFitReport(t *testing.T) {
	var buf bytes.Buffer
	hist := testHistogram()
	err := RenderFitReport(&buf, testSummary(), hist, hist.Advisories())
	testutil.AssertNoError(t, err)

	html := buf.String()
	for _, want := range []string{"Hue Coverage", "Tonal Distribution", "Fit Error", "fp_L-Standard"} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestWriteFitReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "fp_L-Standard.html")
	hist := testHistogram()
	err := WriteFitReport(path, testSummary(), hist, nil)
	testutil.AssertNoError(t, err)

	info, err := os.Stat(path)
	testutil.AssertNoError(t, err)
	if info.Size() == 0 {
		t.Error("report file is empty")
	}
}

func TestResidualHistogram(t *testing.T) {
	residuals := make([]float64, 500)
	for i := range residuals {
		residuals[i] = float64(i%37) / 1000.0
	}
	path := filepath.Join(t.TempDir(), "plots", "residuals.png")
	testutil.AssertNoError(t, ResidualHistogram(path, residuals))

	info, err := os.Stat(path)
	testutil.AssertNoError(t, err)
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestResidualHistogramEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "residuals.png")
	testutil.AssertError(t, ResidualHistogram(path, nil))
}

func newServerWithProfiles(t *testing.T, n int) *Server {
	t.Helper()
	db, err := profiledb.NewDB(filepath.Join(t.TempDir(), "profiles.db"))
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { db.Close() })

	for i := 0; i < n; i++ {
		_, err := db.RecordProfile(&profiledb.Profile{
			Model: "fp_L", Style: "Standard",
			PolyOrder: 3, LUTSize: 64,
			SampleCount: 1000, InlierCount: 900,
			MAE: 0.01, RMSE: 0.02,
		})
		testutil.AssertNoError(t, err)
	}
	return NewServer(db)
}

func TestServerProfilesJSON(t *testing.T) {
	srv := newServerWithProfiles(t, 2)

	rec := testutil.NewTestRecorder()
	srv.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/api/profiles"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var out []map[string]any
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	if len(out) != 2 {
		t.Fatalf("got %d profiles, want 2", len(out))
	}
	if out[0]["model"] != "fp_L" {
		t.Errorf("model = %v", out[0]["model"])
	}
}

func TestServerErrorChart(t *testing.T) {
	srv := newServerWithProfiles(t, 1)

	rec := testutil.NewTestRecorder()
	srv.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/charts/error"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "Fit Error by Profile") {
		t.Error("chart HTML missing title")
	}
}

func TestServerErrorChartEmptyDB(t *testing.T) {
	srv := newServerWithProfiles(t, 0)

	rec := testutil.NewTestRecorder()
	srv.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/charts/error"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestServerIndex(t *testing.T) {
	srv := newServerWithProfiles(t, 0)

	rec := testutil.NewTestRecorder()
	srv.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	rec = testutil.NewTestRecorder()
	srv.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/nope"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}
