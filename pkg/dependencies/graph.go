package dependencies

import (
	"fmt"

	"github.com/platinummonkey/capgate/pkg/plugins"
)

// Dependency is an edge from a plugin to a sibling plugin it needs
type Dependency struct {
	Plugin string `json:"plugin"`
	Type   string `json:"type"` // "direct" or "transitive"
}

// DependencyGraph is the plugin dependency graph. Node and edge order follow
// insertion order so every traversal is deterministic.
type DependencyGraph struct {
	order []string
	nodes map[string]*Node
	edges map[string][]string // plugin -> dependencies
}

// Node represents a plugin in the dependency graph
type Node struct {
	Plugin       string
	GPURequired  bool
	Dependencies []Dependency
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*Node),
		edges: make(map[string][]string),
	}
}

// NewGraphFromCatalog builds the graph of every catalog plugin
func NewGraphFromCatalog(catalog *plugins.Catalog) *DependencyGraph {
	graph := NewDependencyGraph()
	for _, meta := range catalog.Plugins() {
		graph.AddNode(meta.Name, meta.PluginDependencies)
		graph.nodes[meta.Name].GPURequired = meta.GPURequired
	}
	return graph
}

// AddNode adds a plugin and its direct dependencies, replacing any previous node
func (g *DependencyGraph) AddNode(plugin string, deps []string) {
	if _, exists := g.nodes[plugin]; !exists {
		g.order = append(g.order, plugin)
	}

	node := &Node{Plugin: plugin, Dependencies: make([]Dependency, 0, len(deps))}
	for _, dep := range deps {
		node.Dependencies = append(node.Dependencies, Dependency{Plugin: dep, Type: "direct"})
	}
	g.nodes[plugin] = node
	g.edges[plugin] = append([]string(nil), deps...)
}

// GetNode retrieves a node from the graph
func (g *DependencyGraph) GetNode(plugin string) *Node {
	return g.nodes[plugin]
}

// Plugins returns every node in insertion order
func (g *DependencyGraph) Plugins() []string {
	return append([]string(nil), g.order...)
}

// GetDependencies returns the direct dependencies of a plugin
func (g *DependencyGraph) GetDependencies(plugin string) []Dependency {
	node := g.GetNode(plugin)
	if node == nil {
		return nil
	}
	return node.Dependencies
}

// GetTransitiveDependencies returns all transitive dependencies, depth first in declared order
func (g *DependencyGraph) GetTransitiveDependencies(plugin string) []Dependency {
	visited := map[string]bool{plugin: true}
	result := make([]Dependency, 0)

	var traverse func(string)
	traverse = func(name string) {
		for _, dep := range g.edges[name] {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			result = append(result, Dependency{Plugin: dep, Type: "transitive"})
			traverse(dep)
		}
	}

	traverse(plugin)
	return result
}

// GetDependents returns plugins that directly depend on plugin, in insertion order
func (g *DependencyGraph) GetDependents(plugin string) []Dependency {
	dependents := make([]Dependency, 0)

	for _, name := range g.order {
		for _, edge := range g.edges[name] {
			if edge == plugin {
				dependents = append(dependents, Dependency{Plugin: name, Type: "direct"})
				break
			}
		}
	}

	return dependents
}

// DetectCircularDependencies detects a cycle reachable from plugin and returns its path
func (g *DependencyGraph) DetectCircularDependencies(plugin string) ([]string, error) {
	path := make([]string, 0)
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(string) bool
	hasCycle = func(name string) bool {
		visited[name] = true
		recStack[name] = true
		path = append(path, name)

		for _, dep := range g.edges[name] {
			if !visited[dep] {
				if hasCycle(dep) {
					return true
				}
			} else if recStack[dep] {
				path = append(path, dep)
				return true
			}
		}

		recStack[name] = false
		path = path[:len(path)-1]
		return false
	}

	if hasCycle(plugin) {
		return path, fmt.Errorf("circular dependency detected")
	}

	return nil, nil
}

// TopologicalSort orders plugin and its transitive dependencies, dependencies first
func (g *DependencyGraph) TopologicalSort(plugin string) ([]string, error) {
	return g.Expand([]string{plugin})
}

// Expand returns the requested plugins and their transitive dependencies,
// deduplicated, with every dependency before its dependents. Order is
// deterministic: requested order first, then declared dependency order.
func (g *DependencyGraph) Expand(requested []string) ([]string, error) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	result := make([]string, 0, len(requested))

	var visit func(string) error
	visit = func(name string) error {
		if recStack[name] {
			return fmt.Errorf("circular dependency detected at %s", name)
		}
		if visited[name] {
			return nil
		}

		visited[name] = true
		recStack[name] = true

		// Visit dependencies first
		for _, dep := range g.edges[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}

		recStack[name] = false

		if _, ok := g.nodes[name]; ok {
			result = append(result, name)
		}
		return nil
	}

	for _, name := range requested {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// GetImpactAnalysis returns what would be lost if plugin were removed
func (g *DependencyGraph) GetImpactAnalysis(plugin string) *ImpactAnalysis {
	directDependents := g.GetDependents(plugin)

	visited := map[string]bool{plugin: true}
	allDependents := make([]Dependency, 0)

	var traverse func(string)
	traverse = func(name string) {
		for _, dep := range g.GetDependents(name) {
			if visited[dep.Plugin] {
				continue
			}
			visited[dep.Plugin] = true
			allDependents = append(allDependents, Dependency{Plugin: dep.Plugin, Type: "transitive"})
			traverse(dep.Plugin)
		}
	}
	traverse(plugin)

	return &ImpactAnalysis{
		Plugin:               plugin,
		DirectDependents:     directDependents,
		TransitiveDependents: allDependents,
		TotalImpact:          len(allDependents),
	}
}

// ImpactAnalysis lists the plugins that depend on a plugin
type ImpactAnalysis struct {
	Plugin               string       `json:"plugin"`
	DirectDependents     []Dependency `json:"direct_dependents"`
	TransitiveDependents []Dependency `json:"transitive_dependents"`
	TotalImpact          int          `json:"total_impact"`
}
