package servecmder

import (
	"bytes"
	"context"
	"io"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/earful/pkg/config"
)

var _ = Describe("Serve Command", func() {
	BeforeEach(func() {
		GinkgoT().Setenv(config.EnvAPIKey, "sk-test")
		GinkgoT().Setenv(config.EnvSQLitePath, "")
	})

	It("refuses to start without an API key", func() {
		GinkgoT().Setenv(config.EnvAPIKey, "")

		var out bytes.Buffer
		cmd := NewServeCmd()
		cmd.SetArgs([]string{"--listen", "127.0.0.1:0"})
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)

		Expect(cmd.ExecuteContext(context.Background())).To(MatchError(config.ErrMissingAPIKey))
		Expect(out.String()).NotTo(ContainSubstring("Usage:"))
	})

	It("shuts down cleanly when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cmd := NewServeCmd()
		cmd.SetArgs([]string{"--listen", "127.0.0.1:0"})
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)

		done := make(chan error, 1)
		go func() { done <- cmd.ExecuteContext(ctx) }()

		Consistently(done, 200*time.Millisecond).ShouldNot(Receive())
		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})
})
