// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes the cached pipelines, deals and persons as an ASCII dashboard
package viz

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/pipedrive/objects"
)

// Pipedrive date formats in record payloads.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

type DashboardStats struct {
	Pipelines []PipelineStats

	TotalPersons int
	TotalOrgs    int
	TotalDeals   int
	Stubs        int

	RottingDeals []StaleDeal
	StalePersons []StalePerson
	GeneratedAt  time.Time
}

type PipelineStats struct {
	Name   string
	Stages []StageStats
}

type StageStats struct {
	Stage string
	Count int
	Value float64
}

type StaleDeal struct {
	Title       string
	RottingDays int
}

type StalePerson struct {
	Name      string
	DaysSince int // -1 when there has never been an activity
}

// GenerateDashboardStats summarizes what reg holds at now.
func GenerateDashboardStats(reg *objects.Registry, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		TotalPersons: reg.Store(objects.KindPerson).Len(),
		TotalOrgs:    reg.Store(objects.KindOrganization).Len(),
		TotalDeals:   reg.Store(objects.KindDeal).Len(),
		GeneratedAt:  now,
	}

	for _, kind := range objects.Kinds {
		for _, rec := range reg.Store(kind).All() {
			if rec.IsStub() {
				stats.Stubs++
			}
		}
	}

	for _, pipeline := range reg.Store(objects.KindPipeline).All() {
		pipeline.SortStages()
		ps := PipelineStats{Name: pipeline.Name()}
		for _, stage := range pipeline.Stages() {
			ss := StageStats{Stage: stage.Name()}
			for _, deal := range stage.Deals() {
				ss.Count++
				if v, err := strconv.ParseFloat(deal.Text("value"), 64); err == nil {
					ss.Value += v
				}
			}
			ps.Stages = append(ps.Stages, ss)
		}
		stats.Pipelines = append(stats.Pipelines, ps)
	}

	for _, deal := range reg.Store(objects.KindDeal).All() {
		if deal.IsStub() || deal.Text("status") != "open" {
			continue
		}
		since, err := time.ParseInLocation(dateTimeLayout, deal.Text("rotten_time"), time.UTC)
		if err != nil {
			continue
		}
		stats.RottingDeals = append(stats.RottingDeals, StaleDeal{
			Title:       deal.Name(),
			RottingDays: int(now.Sub(since).Hours() / 24),
		})
	}

	for _, person := range reg.Store(objects.KindPerson).All() {
		if person.IsStub() {
			continue
		}
		last := person.Text("last_activity_date")
		if last == "" {
			stats.StalePersons = append(stats.StalePersons, StalePerson{Name: person.Name(), DaysSince: -1})
			continue
		}
		at, err := time.ParseInLocation(dateLayout, last, time.UTC)
		if err != nil {
			continue
		}
		if days := int(now.Sub(at).Hours() / 24); days > 30 {
			stats.StalePersons = append(stats.StalePersons, StalePerson{Name: person.Name(), DaysSince: days})
		}
	}

	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  PIPEDRIVE DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	for _, p := range stats.Pipelines {
		out.WriteString(strings.ToUpper(p.Name) + "\n")
		renderPipeline(&out, p.Stages)
		out.WriteString("\n")
	}

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  👤 %d persons  🏢 %d organizations  💼 %d deals  (%d stubs)\n\n",
		stats.TotalPersons, stats.TotalOrgs, stats.TotalDeals, stats.Stubs))

	if len(stats.RottingDeals) > 0 || len(stats.StalePersons) > 0 {
		out.WriteString("NEEDS ATTENTION\n")

		if len(stats.RottingDeals) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d deals - rotting\n", len(stats.RottingDeals)))
		}

		if len(stats.StalePersons) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d persons - no activity in 30+ days\n", len(stats.StalePersons)))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, stages []StageStats) {
	maxCount := 0
	for _, s := range stages {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, s := range stages {
		// 0-10 blocks
		barLength := (s.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-20.20s %s  %2d (%s)\n",
			s.Stage, bar, s.Count, formatAmount(s.Value)))
	}
}

func formatAmount(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.0fK", v/1000)
	}
	return fmt.Sprintf("%.0f", v)
}
