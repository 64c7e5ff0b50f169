// ABOUTME: Graphviz rendering of the cached registry
// ABOUTME: Pipeline graphs (stages, deals, orgs) and organization graphs (persons, deals)
package viz

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/pipedrive/objects"
)

// GraphGenerator renders graphs from whatever the registry currently holds.
// Nothing is fetched: load the pipeline's deals before generating.
type GraphGenerator struct {
	reg *objects.Registry
}

func NewGraphGenerator(reg *objects.Registry) *GraphGenerator {
	return &GraphGenerator{reg: reg}
}

// GeneratePipelineGraph returns DOT source for one pipeline.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context, pipelineID int64) (string, error) {
	var buf bytes.Buffer
	if err := g.RenderPipelineGraph(ctx, pipelineID, graphviz.XDOT, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPipelineGraph renders one pipeline in the given format (XDOT, SVG, PNG).
func (g *GraphGenerator) RenderPipelineGraph(ctx context.Context, pipelineID int64, format graphviz.Format, w io.Writer) error {
	pipeline, err := g.reg.Store(objects.KindPipeline).Get(pipelineID)
	if err != nil {
		return fmt.Errorf("failed to find pipeline: %w", err)
	}
	pipeline.SortStages()

	return render(ctx, format, w, func(graph *cgraph.Graph) error {
		graph.SetLabel(pipeline.Name())
		graph.SetRankDir(cgraph.LRRank)

		orgNodes := make(map[int64]*cgraph.Node)
		var prev *cgraph.Node
		for _, stage := range pipeline.Stages() {
			stageNode, err := graph.CreateNodeByName(fmt.Sprintf("stage_%d", stage.ID()))
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			stageNode.SetLabel(fmt.Sprintf("%s\n(%d deals)", stage.Name(), len(stage.Deals())))
			stageNode.SetShape("box")
			stageNode.SetStyle("filled")
			stageNode.SetFillColor("lightblue")

			if prev != nil {
				edge, err := graph.CreateEdgeByName("next", prev, stageNode)
				if err != nil {
					return fmt.Errorf("failed to create stage edge: %w", err)
				}
				edge.SetStyle("bold")
			}
			prev = stageNode

			for _, deal := range stage.Deals() {
				dealNode, err := graph.CreateNodeByName(fmt.Sprintf("deal_%d", deal.ID()))
				if err != nil {
					return fmt.Errorf("failed to create deal node: %w", err)
				}
				dealNode.SetLabel(dealLabel(deal))
				dealNode.SetShape("diamond")
				dealNode.SetStyle("filled")
				dealNode.SetFillColor(statusColor(deal.Text("status")))

				if _, err := graph.CreateEdgeByName("in_stage", stageNode, dealNode); err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}

				org := deal.Org()
				if org == nil {
					continue
				}
				orgNode, ok := orgNodes[org.ID()]
				if !ok {
					orgNode, err = orgNodeFor(graph, org)
					if err != nil {
						return err
					}
					orgNodes[org.ID()] = orgNode
				}
				edge, err := graph.CreateEdgeByName("deal_with", dealNode, orgNode)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetStyle("dashed")
			}
		}
		return nil
	})
}

// GenerateOrgGraph returns DOT source for one organization, its persons and deals.
func (g *GraphGenerator) GenerateOrgGraph(ctx context.Context, orgID int64) (string, error) {
	org, err := g.reg.Store(objects.KindOrganization).Get(orgID)
	if err != nil {
		return "", fmt.Errorf("failed to find organization: %w", err)
	}

	var buf bytes.Buffer
	err = render(ctx, graphviz.XDOT, &buf, func(graph *cgraph.Graph) error {
		graph.SetLabel(org.Name())

		orgNode, err := orgNodeFor(graph, org)
		if err != nil {
			return err
		}

		personNodes := make(map[int64]*cgraph.Node)
		for _, person := range org.Persons() {
			node, err := graph.CreateNodeByName(fmt.Sprintf("person_%d", person.ID()))
			if err != nil {
				return fmt.Errorf("failed to create person node: %w", err)
			}
			label := person.Name()
			if email := person.EmailAddress(); email != "" {
				label += "\n" + email
			}
			node.SetLabel(label)
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor("lightgreen")
			personNodes[person.ID()] = node

			edge, err := graph.CreateEdgeByName("works_at", node, orgNode)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("works at")
			edge.SetStyle("dashed")
		}

		for _, deal := range org.Deals() {
			node, err := graph.CreateNodeByName(fmt.Sprintf("deal_%d", deal.ID()))
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			node.SetLabel(dealLabel(deal))
			node.SetShape("diamond")
			node.SetStyle("filled")
			node.SetFillColor(statusColor(deal.Text("status")))

			edge, err := graph.CreateEdgeByName("deal", orgNode, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("deal")

			if person := deal.Person(); person != nil {
				if personNode, ok := personNodes[person.ID()]; ok {
					edge, err := graph.CreateEdgeByName("contact_for", personNode, node)
					if err != nil {
						return fmt.Errorf("failed to create edge: %w", err)
					}
					edge.SetLabel("contact")
					edge.SetStyle("dotted")
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func render(ctx context.Context, format graphviz.Format, w io.Writer, build func(*cgraph.Graph) error) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	if err := build(graph); err != nil {
		return err
	}

	if err := gv.Render(ctx, graph, format, w); err != nil {
		return fmt.Errorf("failed to render graph: %w", err)
	}
	return nil
}

func orgNodeFor(graph *cgraph.Graph, org *objects.Record) (*cgraph.Node, error) {
	node, err := graph.CreateNodeByName(fmt.Sprintf("org_%d", org.ID()))
	if err != nil {
		return nil, fmt.Errorf("failed to create organization node: %w", err)
	}
	node.SetLabel(fmt.Sprintf("%s\n(Organization)", org.Name()))
	node.SetShape("box")
	node.SetStyle("filled")
	if org.IsStub() {
		node.SetFillColor("lightgrey")
	} else {
		node.SetFillColor("lightyellow")
	}
	return node, nil
}

func dealLabel(deal *objects.Record) string {
	label := deal.Name()
	if value := deal.Text("value"); value != "" && value != "0" {
		label += "\n" + value
		if currency := deal.Text("currency"); currency != "" {
			label += " " + currency
		}
	}
	if person := deal.PersonName(); person != "" {
		label += "\n" + person
	}
	return label
}

func statusColor(status string) string {
	switch status {
	case "won":
		return "palegreen"
	case "lost":
		return "lightpink"
	}
	return "white"
}
