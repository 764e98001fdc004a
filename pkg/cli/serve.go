package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bankrag/bankrag/pkg/service/mcp"
	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "http",
			Usage:       "Listen address for the streamable HTTP transport (stdio when empty)",
			Sources:     cli.EnvVars("BANKRAG_HTTP_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, backendFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, askFlags(&cfg)...)
	flags = append(flags, auditFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the assistant as an MCP tool server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := cfg.newAskUseCase(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize assistant")
			}
			defer cleanup()

			router, err := cfg.newRouter(ctx)
			if err != nil {
				return err
			}

			server := mcp.NewServer(uc, router, version)
			if addr == "" {
				return server.Run(ctx)
			}

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.HTTPHandler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				_ = httpServer.Close()
			}()

			logging.From(ctx).Info("MCP server listening", "addr", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return goerr.Wrap(err, "failed to serve MCP over HTTP", goerr.V("addr", addr))
			}
			return nil
		},
	}
}
