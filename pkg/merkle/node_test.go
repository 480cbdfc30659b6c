package merkle_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/earful/pkg/llm"
	"github.com/papercomputeco/earful/pkg/merkle"
)

func textBucket(role, text string) merkle.Bucket {
	return merkle.Bucket{
		Type:    "message",
		Role:    role,
		Content: []llm.ContentPart{llm.TextPart(text)},
		Model:   "test-model",
	}
}

var _ = Describe("Node", func() {
	Describe("NewNode", func() {
		Context("when creating a root node (no parent)", func() {
			It("sets ParentHash to nil", func() {
				node := merkle.NewNode(textBucket("user", "test"), nil)

				Expect(node.ParentHash).To(BeNil())
				Expect(node.Bucket.Text()).To(Equal("test"))
			})

			It("produces consistent hashes for the same bucket", func() {
				node1 := merkle.NewNode(textBucket("user", "same content"), nil)
				node2 := merkle.NewNode(textBucket("user", "same content"), nil)

				Expect(node1.Hash).To(Equal(node2.Hash))
			})

			It("produces different hashes for different content", func() {
				node1 := merkle.NewNode(textBucket("user", "content A"), nil)
				node2 := merkle.NewNode(textBucket("user", "content B"), nil)

				Expect(node1.Hash).NotTo(Equal(node2.Hash))
			})

			It("produces different hashes for different roles", func() {
				node1 := merkle.NewNode(textBucket("user", "hi"), nil)
				node2 := merkle.NewNode(textBucket("assistant", "hi"), nil)

				Expect(node1.Hash).NotTo(Equal(node2.Hash))
			})
		})

		Context("when creating a child node (with parent)", func() {
			var parent *merkle.Node

			BeforeEach(func() {
				parent = merkle.NewNode(textBucket("system", "parent content"), nil)
			})

			It("links the child to the parent via ParentHash", func() {
				child := merkle.NewNode(textBucket("user", "child content"), parent)

				Expect(child.ParentHash).NotTo(BeNil())
				Expect(*child.ParentHash).To(Equal(parent.Hash))
			})

			It("produces different hashes for same content with different parents", func() {
				parent2 := merkle.NewNode(textBucket("system", "different parent"), nil)
				child1 := merkle.NewNode(textBucket("user", "same content"), parent)
				child2 := merkle.NewNode(textBucket("user", "same content"), parent2)

				Expect(child1.Hash).NotTo(Equal(child2.Hash))
			})
		})
	})

	Describe("Hash computation", func() {
		It("produces a valid SHA-256 hex string (64 characters)", func() {
			node := merkle.NewNode(textBucket("user", "test"), nil)

			Expect(node.Hash).To(MatchRegexp("^[a-f0-9]{64}$"))
		})
	})
})

var _ = Describe("MessageBucket", func() {
	It("replaces inline audio with a digest", func() {
		msg := llm.Message{Role: llm.RoleUser, Content: []llm.ContentPart{
			llm.AudioPart("data:audio/mp3;base64,MDEyMzQ1Njc4OQ=="),
			llm.TextPart("what is said?"),
		}}

		bucket := merkle.MessageBucket(msg, "qwen-audio-turbo-latest", "dashscope")

		Expect(bucket.Role).To(Equal("user"))
		Expect(bucket.Provider).To(Equal("dashscope"))
		Expect(bucket.Content).To(HaveLen(2))
		Expect(bucket.Content[0].Audio).To(HavePrefix(merkle.AudioDigestPrefix))
		Expect(bucket.Content[0].Audio).NotTo(ContainSubstring("base64"))
		Expect(bucket.Content[1].Text).To(Equal("what is said?"))

		// original message untouched
		Expect(msg.Content[0].Audio).To(HavePrefix("data:audio/mp3"))
	})

	It("gives identical audio identical digests", func() {
		msg := llm.Message{Role: llm.RoleUser, Content: []llm.ContentPart{llm.AudioPart("data:audio/mp3;base64,AA==")}}

		a := merkle.MessageBucket(msg, "m", "p")
		b := merkle.MessageBucket(msg, "m", "p")
		Expect(merkle.NewNode(a, nil).Hash).To(Equal(merkle.NewNode(b, nil).Hash))
	})
})
