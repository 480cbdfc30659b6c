package watchcmder

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/earful/cmd/earful/bootstrap"
	"github.com/papercomputeco/earful/pkg/transcriber"
	"github.com/papercomputeco/earful/pkg/watcher"
)

const watchLongDesc string = `Watch a directory and transcribe audio files as they appear.

Files are processed one at a time, once they have gone without writes for
the settle delay. Each result is printed as "<file>: <text>". A failed
transcription is logged and watching continues.

Examples:
  earful watch ~/recordings
  earful watch --sqlite ~/.earful/earful.db ./inbox
  earful watch --settle 2s /mnt/share/inbox`

const watchShortDesc string = "Transcribe audio files dropped into a directory"

type watchCommander struct {
	settle time.Duration
}

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),

		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	bootstrap.AddConversationFlags(cmd)
	cmd.Flags().DurationVar(&cmder.settle, "settle", watcher.DefaultSettleDelay, "How long a file must go without writes before it is transcribed")

	return cmd
}

func (c *watchCommander) run(ctx context.Context, cmd *cobra.Command, dir string) error {
	cfg, err := bootstrap.LoadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	w := watcher.New(dir, func(ctx context.Context, path string) error {
		result, err := app.Transcriber.Transcribe(ctx, path, transcriber.Request{})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", filepath.Base(path), result.Text())
		return err
	}, app.Logger, watcher.WithSettleDelay(c.settle))

	return w.Run(ctx)
}
