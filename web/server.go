// ABOUTME: Web UI server with embedded templates
// ABOUTME: Read-only dashboard, pipeline boards and graphs over the cached registry
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harperreed/pipedrive/objects"
	"github.com/harperreed/pipedrive/viz"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	reg       *objects.Registry
	templates *template.Template
	generator *viz.GraphGenerator
	now       func() time.Time
}

func NewServer(reg *objects.Registry) (*Server, error) {
	// Helper functions for templates
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"money": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 0, 64)
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		reg:       reg,
		templates: tmpl,
		generator: viz.NewGraphGenerator(reg),
		now:       time.Now,
	}, nil
}

// Handler returns the routes of the UI plus /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/pipelines", s.handlePipelines)
	mux.HandleFunc("/deals/", s.handleDeal)
	mux.HandleFunc("/graphs/pipeline/", s.handlePipelineGraph)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Start(addr string) error {
	log.Printf("Starting web server at http://%s", addr)
	server := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	return server.ListenAndServe()
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	stats := viz.GenerateDashboardStats(s.reg, s.now())

	data := map[string]interface{}{
		"Stats":           stats,
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	// The data map includes ContentTemplate to specify which content block to render
	err := s.templates.ExecuteTemplate(w, name, data)
	if err != nil {
		log.Printf("Template error rendering %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

type dealView struct {
	ID           int64
	Title        string
	Organization string
	Person       string
	Value        string
	Status       string
}

type stageView struct {
	Name  string
	Deals []dealView
}

type pipelineView struct {
	ID     int64
	Name   string
	Stages []stageView
}

func (s *Server) handlePipelines(w http.ResponseWriter, r *http.Request) {
	var views []pipelineView
	for _, pipeline := range s.reg.Store(objects.KindPipeline).All() {
		pipeline.SortStages()
		pv := pipelineView{ID: pipeline.ID(), Name: pipeline.Name()}
		for _, stage := range pipeline.Stages() {
			sv := stageView{Name: stage.Name()}
			seen := make(map[int64]bool)
			for _, deal := range stage.Deals() {
				// Back-references are never pruned, so skip deals that moved on.
				if seen[deal.ID()] || deal.Stage() != stage {
					continue
				}
				seen[deal.ID()] = true
				sv.Deals = append(sv.Deals, toDealView(deal))
			}
			pv.Stages = append(pv.Stages, sv)
		}
		views = append(views, pv)
	}

	data := map[string]interface{}{
		"Pipelines":       views,
		"Title":           "Pipelines",
		"ContentTemplate": "pipelines-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

func toDealView(deal *objects.Record) dealView {
	value := deal.Text("value")
	if value != "" {
		value += " " + deal.Text("currency")
	}
	return dealView{
		ID:           deal.ID(),
		Title:        deal.Name(),
		Organization: deal.OrgName(),
		Person:       deal.PersonName(),
		Value:        value,
		Status:       deal.Text("status"),
	}
}

type fieldView struct {
	Name  string
	Value string
}

func (s *Server) handleDeal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Path[len("/deals/"):], 10, 64)
	if err != nil {
		http.Error(w, "Invalid deal ID", http.StatusBadRequest)
		return
	}
	deal, err := s.reg.Store(objects.KindDeal).Get(id)
	if err != nil {
		http.Error(w, "Deal not found", http.StatusNotFound)
		return
	}

	names, err := deal.FieldNames()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var fields []fieldView
	for _, name := range names {
		value, err := deal.Get(name)
		if err != nil {
			continue
		}
		if value == nil {
			value = ""
		}
		fields = append(fields, fieldView{Name: name, Value: fmt.Sprint(value)})
	}

	var notes []string
	for _, note := range deal.Notes() {
		notes = append(notes, note.Text("content"))
	}

	stageName, nextName := "", ""
	if stage := deal.Stage(); stage != nil {
		stageName = stage.Name()
		if pipeline := deal.Pipeline(); pipeline != nil {
			if next := pipeline.NextStage(stage); next != nil {
				nextName = next.Name()
			}
		}
	}

	data := map[string]interface{}{
		"Deal":            toDealView(deal),
		"Stage":           stageName,
		"NextStage":       nextName,
		"Fields":          fields,
		"Notes":           notes,
		"Title":           deal.Name(),
		"ContentTemplate": "deal-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handlePipelineGraph(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Path[len("/graphs/pipeline/"):], 10, 64)
	if err != nil {
		http.Error(w, "Invalid pipeline ID", http.StatusBadRequest)
		return
	}
	if !s.reg.Store(objects.KindPipeline).Exists(id) {
		http.Error(w, "Pipeline not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := s.generator.RenderPipelineGraph(r.Context(), id, graphviz.SVG, &buf); err != nil {
		log.Printf("Graph error for pipeline %d: %v", id, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}
