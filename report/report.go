// ABOUTME: Plain-text reports over cached pipelines, deals and persons
// ABOUTME: Tables are aligned with text/tabwriter the same way the CLI list commands are
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harperreed/pipedrive/objects"
)

// PipelineReport writes, per pipeline and stage, the deals the stage holds with the
// stage that follows it. Only deals already in the registry are reported.
func PipelineReport(w io.Writer, pipelines []*objects.Record) error {
	for _, pipeline := range pipelines {
		pipeline.SortStages()

		if len(pipeline.Deals()) == 0 {
			if _, err := fmt.Fprintf(w, "No deals for %s\n", pipeline.Name()); err != nil {
				return err
			}
			continue
		}

		if _, err := fmt.Fprintf(w, " ----------  Processing %s -----------\n", pipeline); err != nil {
			return err
		}

		for _, stage := range pipeline.Stages() {
			deals := stage.Deals()
			if len(deals) == 0 {
				if _, err := fmt.Fprintf(w, "No deals for %s\n", stage); err != nil {
					return err
				}
				continue
			}

			if _, err := fmt.Fprintf(w, " ----------  %s -----------\n", stage); err != nil {
				return err
			}

			nextName := ""
			if next := pipeline.NextStage(stage); next != nil {
				nextName = next.Name()
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "DEAL ID#\tORG\tPERSON\tNEXT STAGE\tROTTEN TIME\tSTATUS")
			_, _ = fmt.Fprintln(tw, "--------\t---\t------\t----------\t-----------\t------")
			for _, deal := range deals {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					deal.ID(),
					orDash(deal.OrgName()),
					orDash(deal.PersonName()),
					orDash(nextName),
					orDash(deal.Text("rotten_time")),
					orDash(deal.Text("status")))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// PersonStats counts how persons relate to their organizations.
type PersonStats struct {
	Total    int
	WithOrg  int
	OrgStubs int
}

// CountPersons reports how many persons have an org and how many of those orgs are
// still stubs.
func CountPersons(persons []*objects.Record) PersonStats {
	stats := PersonStats{Total: len(persons)}
	for _, p := range persons {
		org := p.Org()
		if org == nil {
			continue
		}
		stats.WithOrg++
		if org.IsStub() {
			stats.OrgStubs++
		}
	}
	return stats
}

// PersonsReport writes the first limit persons (all when limit <= 0) with their org and
// primary email, followed by the org stub counts.
func PersonsReport(w io.Writer, persons []*objects.Record, limit int) error {
	shown := persons
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PERSON ID#\tORG\tNAME\tEMAIL")
	_, _ = fmt.Fprintln(tw, "----------\t---\t----\t-----")
	for _, p := range shown {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			p.ID(),
			truncate(orDash(p.OrgName()), 40),
			truncate(p.Name(), 45),
			orDash(p.EmailAddress()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats := CountPersons(persons)
	_, err := fmt.Fprintf(w, "\n%d person(s), %d with an organization, %d of those organizations are stubs\n",
		stats.Total, stats.WithOrg, stats.OrgStubs)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
