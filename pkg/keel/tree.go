package keel

import (
	"fmt"

	kerrors "github.com/toyz/keel/internal/errors"
)

// TreeNode is a module's position in the application graph
type TreeNode struct {
	// Module is the declaration in effect, a Setup variant when one was imported
	Module *Module
	// Parent is the module that first imported this one; nil for the root
	Parent *Module
	// Dependencies are the modules imported directly, keyed by origin
	Dependencies []*Module
}

// Name returns the module name
func (n *TreeNode) Name() string {
	return n.Module.Name()
}

// ModuleTree holds the module graph reachable from a root module
type ModuleTree struct {
	nodes map[*Module]*TreeNode
	root  *Module
	order []*Module
}

// BuildModuleTree walks root's imports depth first. A module imported from
// several places appears once; import cycles are rejected.
func BuildModuleTree(root *Module) (*ModuleTree, error) {
	if root == nil {
		return nil, kerrors.ImproperConfiguration("", "root module is nil", ErrImproperConfiguration)
	}
	t := &ModuleTree{
		nodes: make(map[*Module]*TreeNode),
		root:  root.Origin(),
	}

	// Setup variants replace plain declarations wherever the module is imported.
	variants := make(map[*Module]*Module)
	if err := collectVariants(root, variants, make(map[*Module]bool)); err != nil {
		return nil, err
	}

	visiting := make(map[*Module]bool)
	var stack []string
	var visit func(m, parent *Module) error
	visit = func(m, parent *Module) error {
		key := m.Origin()
		if visiting[key] {
			return kerrors.CyclicDependency(append(stack, m.Name()), ErrCyclicModule)
		}
		if _, ok := t.nodes[key]; ok {
			return nil
		}

		effective := m
		if v, ok := variants[key]; ok {
			effective = v
		}
		node := &TreeNode{Module: effective, Parent: parent}
		t.nodes[key] = node

		visiting[key] = true
		stack = append(stack, effective.Name())
		for _, dep := range effective.meta.Imports {
			if dep == nil {
				return kerrors.ImproperConfiguration(effective.Name(), "nil module in imports", ErrImproperConfiguration)
			}
			node.Dependencies = append(node.Dependencies, dep.Origin())
			if err := visit(dep, key); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		visiting[key] = false

		t.order = append(t.order, key)
		return nil
	}

	if err := visit(root, nil); err != nil {
		return nil, err
	}
	return t, nil
}

// collectVariants records the Setup variant imported for each module. Two
// different variants of the same module can not be reconciled.
func collectVariants(m *Module, variants map[*Module]*Module, seen map[*Module]bool) error {
	if seen[m] {
		return nil
	}
	seen[m] = true
	if m.IsSetup() {
		if existing, ok := variants[m.Origin()]; ok && existing != m {
			return kerrors.ImproperConfiguration(m.Name(),
				fmt.Sprintf("module %q is configured with Setup more than once", m.Name()),
				ErrImproperConfiguration).
				WithSuggestion("Call Setup once and import the returned module everywhere")
		}
		variants[m.Origin()] = m
	}
	for _, dep := range m.meta.Imports {
		if dep == nil {
			continue
		}
		if err := collectVariants(dep, variants, seen); err != nil {
			return err
		}
	}
	return nil
}

// Root returns the root module's node
func (t *ModuleTree) Root() *TreeNode {
	return t.nodes[t.root]
}

// Get returns the node for a module or any of its Setup variants
func (t *ModuleTree) Get(m *Module) (*TreeNode, bool) {
	if m == nil {
		return nil, false
	}
	node, ok := t.nodes[m.Origin()]
	return node, ok
}

// Len returns the number of modules in the tree
func (t *ModuleTree) Len() int {
	return len(t.nodes)
}

// Order returns the nodes with dependencies before the modules importing them; the root is last
func (t *ModuleTree) Order() []*TreeNode {
	nodes := make([]*TreeNode, len(t.order))
	for i, key := range t.order {
		nodes[i] = t.nodes[key]
	}
	return nodes
}

// Dependencies returns the direct dependencies of m accepted by pred (nil accepts all)
func (t *ModuleTree) Dependencies(m *Module, pred func(*TreeNode) bool) []*TreeNode {
	node, ok := t.Get(m)
	if !ok {
		return nil
	}
	var deps []*TreeNode
	for _, key := range node.Dependencies {
		child := t.nodes[key]
		if child != nil && (pred == nil || pred(child)) {
			deps = append(deps, child)
		}
	}
	return deps
}

// Find returns every node accepted by pred, in tree order
func (t *ModuleTree) Find(pred func(*TreeNode) bool) []*TreeNode {
	var found []*TreeNode
	for _, node := range t.Order() {
		if pred(node) {
			found = append(found, node)
		}
	}
	return found
}

// Search runs a depth-first search from every node accepted by filter and returns
// the first node accepted by find.
func (t *ModuleTree) Search(filter, find func(*TreeNode) bool) (*TreeNode, bool) {
	var dfs func(node *TreeNode, seen map[*Module]bool) *TreeNode
	dfs = func(node *TreeNode, seen map[*Module]bool) *TreeNode {
		key := node.Module.Origin()
		if seen[key] {
			return nil
		}
		seen[key] = true
		if find(node) {
			return node
		}
		for _, dep := range node.Dependencies {
			if child := t.nodes[dep]; child != nil {
				if res := dfs(child, seen); res != nil {
					return res
				}
			}
		}
		return nil
	}

	for _, start := range t.Find(filter) {
		if res := dfs(start, make(map[*Module]bool)); res != nil {
			return res, true
		}
	}
	return nil, false
}
