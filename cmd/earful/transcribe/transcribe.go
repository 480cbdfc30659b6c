package transcribecmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/earful/cmd/earful/bootstrap"
	"github.com/papercomputeco/earful/pkg/render"
	"github.com/papercomputeco/earful/pkg/transcriber"
	"github.com/papercomputeco/earful/pkg/tui"
)

const transcribeLongDesc string = `Transcribe or describe a local audio file.

The file is base64-encoded and sent inline, together with the prompt,
to the configured model. The first content element of the first choice
is printed to stdout.

Examples:
  API_KEY=sk-... earful transcribe /home/interview/es.mp3
  earful transcribe --prompt "Summarize the call" call.wav
  AUDIO_PATH=es.mp3 earful transcribe --raw`

const transcribeShortDesc string = "Transcribe an audio file"

type transcribeCommander struct {
	raw       bool
	noSpinner bool
}

func NewTranscribeCmd() *cobra.Command {
	cmder := &transcribeCommander{}

	cmd := &cobra.Command{
		Use:   "transcribe [audio-file]",
		Short: transcribeShortDesc,
		Long:  transcribeLongDesc,
		Args:  cobra.MaximumNArgs(1),

		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	bootstrap.AddConversationFlags(cmd)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the plain response without markdown rendering")
	cmd.Flags().BoolVar(&cmder.noSpinner, "no-spinner", false, "Do not show a progress spinner")

	return cmd
}

func (c *transcribeCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap.LoadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.AudioPath = args[0]
	}
	if err := cfg.ValidateAudio(); err != nil {
		return err
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	transcribe := func() (*transcriber.Result, error) {
		return app.Transcriber.Transcribe(ctx, cfg.AudioPath, transcriber.Request{})
	}

	var result *transcriber.Result
	if c.showSpinner(cmd) {
		result, err = tui.Spin(ctx, os.Stderr, "listening to "+filepath.Base(cfg.AudioPath), transcribe)
	} else {
		result, err = transcribe()
	}
	if err != nil {
		return fmt.Errorf("could not transcribe %s: %w", cfg.AudioPath, err)
	}

	return render.Result(cmd.OutOrStdout(), result.Text(), render.Options{
		Raw:       c.raw,
		Model:     result.Model,
		RequestID: result.Response.RequestID,
	})
}

// showSpinner is true only when both stdout and stderr are terminals, so
// piped output stays clean.
func (c *transcribeCommander) showSpinner(cmd *cobra.Command) bool {
	if c.noSpinner || c.raw {
		return false
	}
	return render.IsTerminal(cmd.OutOrStdout()) && render.IsTerminal(os.Stderr)
}
