package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/earful/cmd/earful/bootstrap"
	servecmder "github.com/papercomputeco/earful/cmd/earful/serve"
	transcribecmder "github.com/papercomputeco/earful/cmd/earful/transcribe"
	watchcmder "github.com/papercomputeco/earful/cmd/earful/watch"
)

const rootLongDesc string = `earful sends local audio to a hosted multimodal model and prints
what it hears.

Configuration is read from an optional TOML file (--config), then the
environment (AUDIO_PATH, API_KEY, MODEL, PROMPT, SYSTEM_PROMPT, BASE_URL,
SQLITE_PATH), then command line flags.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "earful",
		Short:         "Transcribe and describe audio with a multimodal model",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP(bootstrap.FlagConfig, "c", "", "Path to a TOML config file")
	cmd.PersistentFlags().Bool(bootstrap.FlagDebug, false, "Enable debug logging")

	cmd.AddCommand(
		transcribecmder.NewTranscribeCmd(),
		servecmder.NewServeCmd(),
		watchcmder.NewWatchCmd(),
	)

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
