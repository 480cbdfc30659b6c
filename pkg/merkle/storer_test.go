package merkle_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/earful/pkg/merkle"
)

func node(text string, parent *merkle.Node) *merkle.Node {
	return merkle.NewNode(textBucket("user", text), parent)
}

func put(ctx context.Context, s merkle.Storer, nodes ...*merkle.Node) {
	for _, n := range nodes {
		_, err := s.Put(ctx, n)
		Expect(err).NotTo(HaveOccurred())
	}
}

func storerBehaviour(newStorer func() merkle.Storer) {
	var (
		storer merkle.Storer
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		storer = newStorer()
	})

	AfterEach(func() {
		Expect(storer.Close()).To(Succeed())
	})

	Describe("Put and Get", func() {
		It("stores and retrieves a node with parent", func() {
			parent := node("parent", nil)
			child := node("child", parent)
			put(ctx, storer, parent, child)

			retrieved, err := storer.Get(ctx, child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Hash).To(Equal(child.Hash))
			Expect(retrieved.Bucket).To(Equal(child.Bucket))
			Expect(retrieved.ParentHash).NotTo(BeNil())
			Expect(*retrieved.ParentHash).To(Equal(parent.Hash))
		})

		It("returns ErrNotFound for non-existent hash", func() {
			_, err := storer.Get(ctx, "nonexistent")

			var notFoundErr merkle.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("is idempotent for duplicate puts", func() {
			n := node("test", nil)

			isNew, err := storer.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeTrue())

			isNew, err = storer.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeFalse())

			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(1))
		})

		It("rejects nil nodes", func() {
			_, err := storer.Put(ctx, nil)
			Expect(err).To(MatchError(ContainSubstring("nil node")))
		})
	})

	Describe("Has", func() {
		It("reports existence", func() {
			n := node("test", nil)
			put(ctx, storer, n)

			Expect(storer.Has(ctx, n.Hash)).To(BeTrue())
			Expect(storer.Has(ctx, "nonexistent")).To(BeFalse())
		})
	})

	Describe("Traversal", func() {
		var root, child, leaf, other *merkle.Node

		BeforeEach(func() {
			root = node("root", nil)
			child = node("child", root)
			leaf = node("leaf", child)
			other = node("other root", nil)
			put(ctx, storer, root, child, leaf, other)
		})

		It("lists all nodes in insertion order", func() {
			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(4))
			Expect(nodes[0].Hash).To(Equal(root.Hash))
			Expect(nodes[3].Hash).To(Equal(other.Hash))
		})

		It("returns children of a parent", func() {
			children, err := storer.GetByParent(ctx, &root.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(HaveLen(1))
			Expect(children[0].Hash).To(Equal(child.Hash))
		})

		It("returns roots", func() {
			roots, err := storer.Roots(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(roots).To(HaveLen(2))
		})

		It("returns leaves", func() {
			leaves, err := storer.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(2))
			Expect(leaves[0].Hash).To(Equal(leaf.Hash))
			Expect(leaves[1].Hash).To(Equal(other.Hash))
		})

		It("returns the path from node to root", func() {
			path, err := storer.Ancestry(ctx, leaf.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HaveLen(3))
			Expect(path[0].Bucket.Text()).To(Equal("leaf"))
			Expect(path[1].Bucket.Text()).To(Equal("child"))
			Expect(path[2].Bucket.Text()).To(Equal("root"))
		})

		It("fails ancestry for unknown nodes", func() {
			_, err := storer.Ancestry(ctx, "nonexistent")
			Expect(err).To(HaveOccurred())
		})

		It("branches on different content with the same parent", func() {
			branch := node("branch", child)
			put(ctx, storer, branch)

			children, err := storer.GetByParent(ctx, &child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(HaveLen(2))

			leaves, err := storer.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(3))
		})
	})
}

var _ = Describe("MemoryStorer", func() {
	storerBehaviour(func() merkle.Storer {
		return merkle.NewMemoryStorer()
	})
})

var _ = Describe("SQLiteStorer", func() {
	storerBehaviour(func() merkle.Storer {
		s, err := merkle.NewSQLiteStorer(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates a database file", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "tapes.db")

		s, err := merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("persists nodes across reopen", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "tapes.db")

		s, err := merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		n := node("persisted", nil)
		put(ctx, s, n)
		Expect(s.Close()).To(Succeed())

		s, err = merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		got, err := s.Get(ctx, n.Hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Bucket.Text()).To(Equal("persisted"))
	})
})
