package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	colors "gopkg.in/go-playground/colors.v1"

	"github.com/diegfern/kegg-api-async/internal/store"
)

const (
	startStepName = "start"
	endStepName   = "end"
)

type drawer struct {
	fileName string
	store    store.CustomStore[string, string]
	graph    graph.Graph[string, string]
	steps    map[string]struct{}
}

func newDrawer(fileName string) (*drawer, error) {
	st := store.NewMemoryStore[string, string]()
	d := &drawer{
		fileName: fileName,
		store:    st,
		graph:    graph.NewWithStore(graph.StringHash, st, graph.Directed()),
		steps:    make(map[string]struct{}),
	}

	err := d.addStep(startStepName)
	if err != nil {
		return nil, err
	}
	err = d.addStep(endStepName)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (d *drawer) addStep(name string) error {
	err := d.graph.AddVertex(name)
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", name)
	}
	d.steps[name] = struct{}{}

	return nil
}

func (d *drawer) addLink(parentName, childrenName string) error {
	err := d.graph.AddEdge(parentName, childrenName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childrenName)
	}

	return nil
}

const maxRGB = 240

// addMeasure annotates every vertex with the average duration of the step
// and heat-colors the edges from blue (fast) to red (slow).
func (d *drawer) addMeasure(m *measure) error {
	type edgeAvg struct {
		from, to string
		avg      time.Duration
	}

	edgeAvgs := []edgeAvg{}
	for name, mt := range m.allSteps() {
		if _, ok := d.steps[name]; !ok {
			continue
		}

		label := ""
		if avg := mt.avgStep(); avg != 0 {
			label = avg.String()
		}
		if total := mt.totalDuration(); total > 0 {
			if label != "" {
				label += ", "
			}
			label += "end: " + total.String()
		}
		if label != "" {
			d.store.UpdateVertex(name, func(p *graph.VertexProperties) {
				if p.Attributes == nil {
					p.Attributes = map[string]string{}
				}
				p.Attributes["xlabel"] = label
			})
		}

		for inputStep, avg := range mt.avgTransports() {
			edgeAvgs = append(edgeAvgs, edgeAvg{from: inputStep, to: name, avg: avg})
		}
	}

	if len(edgeAvgs) == 0 {
		return nil
	}

	sort.Slice(edgeAvgs, func(i, j int) bool { return edgeAvgs[i].avg < edgeAvgs[j].avg })
	minValue := edgeAvgs[0].avg
	maxValue := edgeAvgs[len(edgeAvgs)-1].avg

	for _, ea := range edgeAvgs {
		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(ea.avg-minValue) / float64(maxValue-minValue)
		}

		heat, err := colors.RGB(uint8(maxRGB*fraction), 0, uint8(maxRGB-maxRGB*fraction))
		if err != nil {
			return errors.Wrap(err, "unable to build edge colour")
		}

		err = d.graph.UpdateEdge(ea.from, ea.to,
			graph.EdgeAttribute("label", ea.avg.String()),
			graph.EdgeAttribute("fontcolor", "blue"),
			graph.EdgeAttribute("color", heat.ToHEX().String()),
		)
		if err != nil {
			return errors.Wrapf(err, "unable to update edge from %s to %s", ea.from, ea.to)
		}
	}

	return nil
}

func (d *drawer) draw() error {
	err := os.MkdirAll(filepath.Dir(d.fileName), 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", d.fileName)
	}

	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	err = dot(d.graph, file)
	if err != nil {
		return errors.Wrapf(err, "unable to render graph to %s", d.fileName)
	}

	return nil
}

const dotTemplate = `strict {{.GraphType}} {
{{range $k, $v := .Attributes}}	{{$k}}="{{$v}}";
{{end}}
{{range $s := .Statements}}	"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
{{end}}}
`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           interface{}
	Target           interface{}
	SourceWeight     int
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeWeight       int
	EdgeAttributes   map[string]string
}

func dot[K comparable, T any](g graph.Graph[K, T], w io.Writer) error {
	desc, err := generateDOT(g)
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(w, desc)
}

func generateDOT[K comparable, T any](g graph.Graph[K, T]) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   make(map[string]string),
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	if g.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := g.AdjacencyMap()
	if err != nil {
		return desc, err
	}

	for vertex, adjacencies := range adjacencyMap {
		_, sourceProperties, err := g.VertexWithProperties(vertex)
		if err != nil {
			return desc, err
		}
		htmlAttributes := make(map[string]string)
		if xlabel, ok := sourceProperties.Attributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%+v <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, vertex, xlabel)
			delete(sourceProperties.Attributes, "xlabel")
		}

		stmt := statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: sourceProperties.Attributes,
			HTMLAttributes:   htmlAttributes,
		}
		desc.Statements = append(desc.Statements, stmt)

		for adjacency, edge := range adjacencies {
			stmt := statement{
				Source:         vertex,
				Target:         adjacency,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			}
			desc.Statements = append(desc.Statements, stmt)
		}
	}

	return desc, nil
}

func renderDOT(w io.Writer, d description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	return tpl.Execute(w, d)
}
