package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/trussc/profilegen/internal/profiledb"
)

// Server exposes the profile database over HTTP for quick inspection after a
// run: a JSON listing plus an error-trend chart. Debugging surface only, no
// auth.
type Server struct {
	db  *profiledb.DB
	mux *http.ServeMux
}

// NewServer builds a Server over an open profile database.
func NewServer(db *profiledb.DB) *Server {
	s := &Server{db: db, mux: http.NewServeMux()}
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/profiles", s.handleProfilesJSON)
	s.mux.HandleFunc("/charts/error", s.handleErrorChart)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>Profile Runs</title></head>
<body>
<h1>Profile Runs</h1>
<ul>
<li><a href="/api/profiles">Profiles (JSON)</a></li>
<li><a href="/charts/error">Fit error chart</a></li>
</ul>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleProfilesJSON(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.db.ListProfiles()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("listing profiles: %v", err))
		return
	}
	type profileJSON struct {
		ID          string     `json:"id"`
		Model       string     `json:"model"`
		Style       string     `json:"style"`
		CubePath    string     `json:"cube_path"`
		PolyOrder   int        `json:"poly_order"`
		LUTSize     int        `json:"lut_size"`
		SampleCount int        `json:"sample_count"`
		InlierCount int        `json:"inlier_count"`
		MAE         float64    `json:"mae"`
		RMSE        float64    `json:"rmse"`
		ChannelMAE  [3]float64 `json:"channel_mae"`
		Warnings    []string   `json:"warnings,omitempty"`
		CreatedAt   string     `json:"created_at"`
	}
	out := make([]profileJSON, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileJSON{
			ID:          p.ID,
			Model:       p.Model,
			Style:       p.Style,
			CubePath:    p.CubePath,
			PolyOrder:   p.PolyOrder,
			LUTSize:     p.LUTSize,
			SampleCount: p.SampleCount,
			InlierCount: p.InlierCount,
			MAE:         p.MAE,
			RMSE:        p.RMSE,
			ChannelMAE:  p.ChannelMAE,
			Warnings:    p.Warnings,
			CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleErrorChart(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.db.ListProfiles()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("listing profiles: %v", err))
		return
	}
	if len(profiles) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no profiles recorded")
		return
	}

	x := make([]string, 0, len(profiles))
	mae := make([]opts.BarData, 0, len(profiles))
	rmse := make([]opts.BarData, 0, len(profiles))
	for _, p := range profiles {
		x = append(x, p.Model+"/"+p.Style)
		mae = append(mae, opts.BarData{Value: p.MAE})
		rmse = append(rmse, opts.BarData{Value: p.RMSE})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Fit Error by Profile"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("MAE", mae).
		AddSeries("RMSE", rmse)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
