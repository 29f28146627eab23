package registry

import (
	"fmt"
	"io"
)

// DependencyNode is one entry of a block's registry dependency tree.
type DependencyNode struct {
	Name     string
	Entry    *Entry
	Children []*DependencyNode
	Deduped  bool // already reached through another path
}

// BuildDependencyTree follows registryDependencies from name. A name that is
// reached more than once is marked Deduped and not expanded again, which also
// stops cycles.
func BuildDependencyTree(name string, a *Artifacts) (*DependencyNode, error) {
	seen := make(map[string]bool)
	return buildNode(name, a, seen)
}

func buildNode(name string, a *Artifacts, seen map[string]bool) (*DependencyNode, error) {
	node := &DependencyNode{Name: name}

	if seen[name] {
		node.Deduped = true
		return node, nil
	}
	seen[name] = true

	entry, ok := a.Blocks[name]
	if !ok {
		return nil, fmt.Errorf("block %q is not in the registry", name)
	}
	node.Entry = entry

	for _, dep := range entry.RegistryDependencies {
		child, err := buildNode(dep, a, seen)
		if err != nil {
			return nil, fmt.Errorf("resolving dependency of %s: %w", name, err)
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}

// FlattenTree returns every entry of the tree in topological order,
// dependencies first, without duplicates.
func FlattenTree(root *DependencyNode) []*Entry {
	seen := make(map[string]bool)
	var result []*Entry
	flattenRecursive(root, seen, &result)
	return result
}

func flattenRecursive(node *DependencyNode, seen map[string]bool, result *[]*Entry) {
	if node == nil || node.Deduped || seen[node.Name] {
		return
	}

	for _, child := range node.Children {
		flattenRecursive(child, seen, result)
	}

	if node.Entry != nil {
		seen[node.Name] = true
		*result = append(*result, node.Entry)
	}
}

// PrintTree writes the tree below node using box-drawing connectors.
func PrintTree(w io.Writer, node *DependencyNode, prefix string, isLast bool) {
	if node == nil {
		return
	}

	connector := "├── "
	if isLast {
		connector = "└── "
	}

	label := node.Name
	if node.Entry != nil {
		label = fmt.Sprintf("%s: %s", node.Entry.Kind, node.Name)
	}
	if node.Deduped {
		label += " (deduped)"
	}

	if prefix == "" {
		fmt.Fprintf(w, "  %s\n", label)
	} else {
		fmt.Fprintf(w, "  %s%s%s\n", prefix, connector, label)
	}

	childPrefix := prefix
	if prefix != "" {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	} else {
		childPrefix = " "
	}

	for i, child := range node.Children {
		PrintTree(w, child, childPrefix, i == len(node.Children)-1)
	}
}
