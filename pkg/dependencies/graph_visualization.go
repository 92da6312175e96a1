package dependencies

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/capgate/pkg/httputil"
)

// CytoscapeNode represents a node in Cytoscape.js format
type CytoscapeNode struct {
	Data CytoscapeNodeData `json:"data"`
}

// CytoscapeNodeData contains node data for Cytoscape.js
type CytoscapeNodeData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"` // "current", "dependency", "dependent", "plugin"
	GPURequired bool   `json:"gpu_required"`
}

// CytoscapeEdge represents an edge in Cytoscape.js format
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData contains edge data for Cytoscape.js
type CytoscapeEdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"` // "direct", "transitive", "depends-on"
}

// CytoscapeGraph represents the complete graph in Cytoscape.js format
type CytoscapeGraph struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// GraphVisualizationHandlers provides HTTP handlers for graph visualization
type GraphVisualizationHandlers struct {
	resolver *Resolver
}

// NewGraphVisualizationHandlers creates new graph visualization handlers
func NewGraphVisualizationHandlers(resolver *Resolver) *GraphVisualizationHandlers {
	return &GraphVisualizationHandlers{
		resolver: resolver,
	}
}

// RegisterRoutes registers graph visualization routes
func (h *GraphVisualizationHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/graph", h.getCytoscapeGraph).Methods("GET")
	router.HandleFunc("/plugins/{name}/graph", h.getCytoscapeGraph).Methods("GET")
}

// getCytoscapeGraph handles GET /graph and GET /plugins/{name}/graph
// Query parameters:
//   - plugin: root plugin when not given in the path (default: whole catalog)
//   - transitive: include transitive dependencies (default: true)
//   - depth: max depth for transitive dependencies (default: unlimited)
//   - direction: "dependencies", "dependents", or "both" (default: "dependencies")
func (h *GraphVisualizationHandlers) getCytoscapeGraph(w http.ResponseWriter, r *http.Request) {
	name := httputil.PathString(r, "name")
	if name == "" {
		name = httputil.ParseQueryString(r, "plugin", "")
	}

	graph := h.resolver.Graph()

	if name == "" {
		httputil.WriteJSON(w, http.StatusOK, BuildFullCytoscapeGraph(graph))
		return
	}

	if graph.GetNode(name) == nil {
		httputil.WriteNotFoundError(w, r, "unknown plugin: "+name)
		return
	}

	transitive := httputil.ParseQueryBool(r, "transitive", true)

	maxDepth := httputil.ParseQueryInt(r, "depth", -1)
	if maxDepth <= 0 {
		maxDepth = -1 // unlimited
	}

	direction := httputil.ParseQueryString(r, "direction", "dependencies")

	httputil.WriteJSON(w, http.StatusOK, BuildCytoscapeGraph(graph, name, transitive, maxDepth, direction))
}

// BuildFullCytoscapeGraph exports every plugin and dependency edge
func BuildFullCytoscapeGraph(graph *DependencyGraph) CytoscapeGraph {
	cytoGraph := CytoscapeGraph{
		Nodes: make([]CytoscapeNode, 0),
		Edges: make([]CytoscapeEdge, 0),
	}

	for _, name := range graph.Plugins() {
		cytoGraph.Nodes = append(cytoGraph.Nodes, newCytoscapeNode(graph, name, "plugin"))
		for _, dep := range graph.GetDependencies(name) {
			cytoGraph.Edges = append(cytoGraph.Edges, CytoscapeEdge{
				Data: CytoscapeEdgeData{
					ID:     name + "->" + dep.Plugin,
					Source: name,
					Target: dep.Plugin,
					Type:   "direct",
				},
			})
		}
	}

	return cytoGraph
}

// BuildCytoscapeGraph builds a Cytoscape.js compatible graph rooted at plugin
func BuildCytoscapeGraph(graph *DependencyGraph, plugin string, transitive bool, maxDepth int, direction string) CytoscapeGraph {
	cytoGraph := CytoscapeGraph{
		Nodes: make([]CytoscapeNode, 0),
		Edges: make([]CytoscapeEdge, 0),
	}

	visited := map[string]bool{plugin: true}
	cytoGraph.Nodes = append(cytoGraph.Nodes, newCytoscapeNode(graph, plugin, "current"))

	if direction == "dependencies" || direction == "both" {
		if transitive {
			addTransitiveDependencies(&cytoGraph, graph, plugin, visited, maxDepth, 0)
		} else {
			addTransitiveDependencies(&cytoGraph, graph, plugin, visited, 1, 0)
		}
	}

	if direction == "dependents" || direction == "both" {
		addDependents(&cytoGraph, graph, plugin, visited)
	}

	return cytoGraph
}

func newCytoscapeNode(graph *DependencyGraph, name, nodeType string) CytoscapeNode {
	data := CytoscapeNodeData{ID: name, Name: name, Type: nodeType}
	if node := graph.GetNode(name); node != nil {
		data.GPURequired = node.GPURequired
	}
	return CytoscapeNode{Data: data}
}

// addTransitiveDependencies adds dependencies recursively up to maxDepth
func addTransitiveDependencies(
	cytoGraph *CytoscapeGraph,
	graph *DependencyGraph,
	plugin string,
	visited map[string]bool,
	maxDepth, currentDepth int,
) {
	if maxDepth >= 0 && currentDepth >= maxDepth {
		return
	}

	for _, dep := range graph.GetDependencies(plugin) {
		if !visited[dep.Plugin] {
			cytoGraph.Nodes = append(cytoGraph.Nodes, newCytoscapeNode(graph, dep.Plugin, "dependency"))
			visited[dep.Plugin] = true

			addTransitiveDependencies(cytoGraph, graph, dep.Plugin, visited, maxDepth, currentDepth+1)
		}

		edgeType := "direct"
		if currentDepth > 0 {
			edgeType = "transitive"
		}

		cytoGraph.Edges = append(cytoGraph.Edges, CytoscapeEdge{
			Data: CytoscapeEdgeData{
				ID:     plugin + "->" + dep.Plugin,
				Source: plugin,
				Target: dep.Plugin,
				Type:   edgeType,
			},
		})
	}
}

// addDependents adds plugins that depend on the current plugin
func addDependents(cytoGraph *CytoscapeGraph, graph *DependencyGraph, plugin string, visited map[string]bool) {
	for _, dependent := range graph.GetDependents(plugin) {
		if !visited[dependent.Plugin] {
			cytoGraph.Nodes = append(cytoGraph.Nodes, newCytoscapeNode(graph, dependent.Plugin, "dependent"))
			visited[dependent.Plugin] = true
		}

		// reversed: dependent -> current
		cytoGraph.Edges = append(cytoGraph.Edges, CytoscapeEdge{
			Data: CytoscapeEdgeData{
				ID:     dependent.Plugin + "->" + plugin,
				Source: dependent.Plugin,
				Target: plugin,
				Type:   "depends-on",
			},
		})
	}
}
