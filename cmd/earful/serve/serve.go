package servecmder

import (
	"context"
	"errors"
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/earful/cmd/earful/bootstrap"
	"github.com/papercomputeco/earful/server"
)

const serveLongDesc string = `Run the earful HTTP server.

Endpoints:
  POST /api/transcribe         multipart upload: file, prompt, model
  GET  /health
  GET  /tapes/stats            recorded conversation statistics (needs --sqlite)
  GET  /tapes/node/:hash
  GET  /tapes/history[/:hash]
  /mcp                         MCP endpoint with the transcribe_audio tool

Examples:
  earful serve --listen :8080
  earful serve --sqlite ~/.earful/earful.db`

const serveShortDesc string = "Run the transcription HTTP server"

type serveCommander struct {
	listenAddr     string
	maxUploadBytes int
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,

		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	bootstrap.AddConversationFlags(cmd)
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", ":8080", "Address to listen on")
	cmd.Flags().IntVar(&cmder.maxUploadBytes, "max-upload-bytes", 32<<20, "Largest accepted upload")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := bootstrap.LoadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := server.New(server.Config{
		ListenAddr:     c.listenAddr,
		MaxUploadBytes: c.maxUploadBytes,
	}, app.Transcriber, app.Storer, app.Logger)

	listener, err := net.Listen("tcp", c.listenAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.RunWithListener(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		app.Logger.Info("shutting down server", zap.Error(context.Cause(ctx)))
		if err := srv.Shutdown(); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	}
}
