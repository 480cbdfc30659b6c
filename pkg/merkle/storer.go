package merkle

import "context"

// Storer persists and retrieves nodes of a Merkle DAG. Identical content with
// identical parents produces identical hashes, so storing a node twice is a no-op.
type Storer interface {
	// Put stores a node and reports whether it was new.
	Put(ctx context.Context, node *Node) (bool, error)

	// Get retrieves a node by its hash. Returns ErrNotFound if the node doesn't exist.
	Get(ctx context.Context, hash string) (*Node, error)

	// Has checks if a node exists by its hash.
	Has(ctx context.Context, hash string) (bool, error)

	// GetByParent retrieves all nodes that have the given parent hash.
	// Pass nil to get root nodes (nodes with no parent).
	GetByParent(ctx context.Context, parentHash *string) ([]*Node, error)

	// List returns all nodes in insertion order.
	List(ctx context.Context) ([]*Node, error)

	// Roots returns all root nodes (nodes with no parent).
	Roots(ctx context.Context) ([]*Node, error)

	// Leaves returns all leaf nodes (nodes with no children).
	Leaves(ctx context.Context) ([]*Node, error)

	// Ancestry returns the path from a node back to its root (node first, root last).
	Ancestry(ctx context.Context, hash string) ([]*Node, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNotFound is returned when a node doesn't exist in the store.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	if e.Hash == "" {
		return "node not found"
	}

	return "node not found: " + e.Hash
}

func ancestry(ctx context.Context, s Storer, hash string) ([]*Node, error) {
	var path []*Node
	current := hash
	for {
		node, err := s.Get(ctx, current)
		if err != nil {
			return nil, err
		}
		path = append(path, node)

		if node.ParentHash == nil {
			return path, nil
		}
		current = *node.ParentHash
	}
}
