package llm_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/earful/pkg/llm"
)

var _ = Describe("ConversationResponse", func() {
	Describe("FirstContent", func() {
		It("returns the first content part of the first choice", func() {
			body := `{
				"request_id": "req-1",
				"output": {"choices": [{"finish_reason": "stop", "message": {
					"role": "assistant",
					"content": [{"text": "someone says hello"}, {"text": "ignored"}]
				}}]},
				"usage": {"input_tokens": 30, "output_tokens": 4, "audio_tokens": 25}
			}`

			var resp llm.ConversationResponse
			Expect(json.Unmarshal([]byte(body), &resp)).To(Succeed())

			part, err := resp.FirstContent()
			Expect(err).NotTo(HaveOccurred())
			Expect(part.Text).To(Equal("someone says hello"))
			Expect(resp.Usage.AudioTokens).To(Equal(25))
		})

		It("returns ErrNoChoices for an empty choices list", func() {
			resp := &llm.ConversationResponse{}

			_, err := resp.FirstContent()
			Expect(err).To(MatchError(llm.ErrNoChoices))
		})

		It("returns ErrNoChoices for a nil response", func() {
			var resp *llm.ConversationResponse

			_, err := resp.FirstContent()
			Expect(err).To(MatchError(llm.ErrNoChoices))
		})

		It("returns ErrEmptyContent when the first choice has no parts", func() {
			resp := &llm.ConversationResponse{Output: llm.Output{Choices: []llm.Choice{
				{Message: llm.Message{Role: llm.RoleAssistant}},
			}}}

			_, err := resp.FirstContent()
			Expect(err).To(MatchError(llm.ErrEmptyContent))
		})
	})
})

var _ = Describe("Message", func() {
	It("encodes text and audio parts as single-key objects", func() {
		msg := llm.Message{
			Role: llm.RoleUser,
			Content: []llm.ContentPart{
				llm.AudioPart("data:audio/mp3;base64,AAAA"),
				llm.TextPart("what is said?"),
			},
		}

		data, err := json.Marshal(msg)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(
			`{"role":"user","content":[{"audio":"data:audio/mp3;base64,AAAA"},{"text":"what is said?"}]}`,
		))
	})

	It("joins only the text parts", func() {
		msg := llm.Message{Content: []llm.ContentPart{
			llm.TextPart("one"),
			llm.AudioPart("data:audio/wav;base64,AA=="),
			llm.TextPart("two"),
		}}

		Expect(msg.Text()).To(Equal("one\ntwo"))
		Expect(msg.Content[1].IsAudio()).To(BeTrue())
	})

	It("never serializes the per-request credential", func() {
		req := llm.ConversationRequest{Model: "m", APIKey: "sk-secret"}

		data, err := json.Marshal(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).NotTo(ContainSubstring("sk-secret"))
	})
})
