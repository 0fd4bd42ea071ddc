// Package servecmder provides the serve command that runs the MCP server
// over stdio or streamable HTTP.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/linkpost/pkg/app"
	"github.com/papercomputeco/linkpost/pkg/brave"
	"github.com/papercomputeco/linkpost/pkg/config"
	"github.com/papercomputeco/linkpost/pkg/credentials"
	"github.com/papercomputeco/linkpost/pkg/imagegen"
	"github.com/papercomputeco/linkpost/pkg/linkedin"
	"github.com/papercomputeco/linkpost/pkg/publisher"
	"github.com/papercomputeco/linkpost/pkg/publisher/kafka"
	"github.com/papercomputeco/linkpost/pkg/sqlexec"
	"github.com/papercomputeco/linkpost/pkg/tools"
)

const serveLongDesc string = `Run the linkpost MCP server.

By default the server speaks MCP over stdin/stdout, which is what desktop
MCP clients expect. With --http it serves streamable HTTP MCP on /mcp and a
health check on /healthz instead.

The credential file must contain CLIENT_ID, CLIENT_SECRET, REDIRECT_URI,
ACCESS_TOKEN and AUTHOR_URN; run 'linkpost auth' first. Credentials are read
once at start unless --watch-credentials is set, in which case a new token
written by 'linkpost auth' is picked up without a restart.

Examples:
  linkpost serve
  linkpost serve --http
  linkpost serve --http --addr 0.0.0.0:9000 --watch-credentials`

const serveShortDesc string = "Run the MCP server"

const shutdownTimeout = 5 * time.Second

func NewServeCmd() *cobra.Command {
	var httpFlag bool
	var addrFlag string
	var watchFlag bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, httpFlag, addrFlag, watchFlag)
		},
	}

	cmd.Flags().BoolVar(&httpFlag, "http", false, "Serve streamable HTTP instead of stdio")
	cmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address for --http (defaults to HTTP_ADDR)")
	cmd.Flags().BoolVar(&watchFlag, "watch-credentials", false, "Reload the access token when the credential file changes")

	return cmd
}

func runServe(cmd *cobra.Command, httpMode bool, addr string, watch bool) error {
	rt, err := app.Load(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	rec, err := rt.Credentials.Load()
	if err != nil {
		return err
	}
	live := credentials.NewLive(*rec)

	pub, err := newPublisher(rt.Config.Kafka, rt.Logger)
	if err != nil {
		return err
	}
	defer pub.Close()

	db, err := sqlexec.Open(rt.Config.DBPath, rt.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	server := tools.NewServer(buildDeps(rt.Config, live, pub, db, rt.Logger), cmd.Root().Version)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if watch {
		g.Go(func() error {
			return live.Watch(gctx, rt.Credentials, rt.Logger)
		})
	}

	if httpMode {
		if addr == "" {
			addr = rt.Config.HTTPAddr
		}
		g.Go(func() error {
			defer cancel()
			return serveHTTP(gctx, server, addr, rt.Logger)
		})
	} else {
		g.Go(func() error {
			defer cancel()
			rt.Logger.Info("serving mcp over stdio", zap.String("author_urn", live.AuthorURN()))
			return server.Run(gctx, &mcp.StdioTransport{})
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildDeps wires the adapters behind the tools from the configuration.
func buildDeps(cfg *config.Config, live *credentials.Live, pub publisher.Publisher, db *sqlexec.Executor, logger *zap.Logger) tools.Deps {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	return tools.Deps{
		Poster: linkedin.NewClient(live, linkedin.Options{
			APIBase:    cfg.LinkedInAPIBase,
			FolderPath: cfg.FolderPath,
			Timeout:    cfg.HTTPTimeout,
			Logger:     logger.Named("linkedin"),
			Publisher:  pub,
		}),
		Author:   live,
		Searcher: brave.NewClient(cfg.BraveAPIKey, cfg.BraveSearchURL, httpClient, logger.Named("brave")),
		Images: imagegen.NewGenerator(imagegen.Options{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.ImageModel,
			OutputDir:  cfg.ImageDir,
			HTTPClient: httpClient,
			Logger:     logger.Named("imagegen"),
		}),
		DB:     db,
		Logger: logger.Named("tools"),
	}
}

func newPublisher(cfg config.KafkaConfig, logger *zap.Logger) (publisher.Publisher, error) {
	if !cfg.Enabled() {
		return publisher.NewNopPublisher(), nil
	}

	pub, err := kafka.NewPublisher(kafka.Config{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		ClientID: cfg.ClientID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	logger.Info("publishing post events to kafka",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return pub, nil
}

// newHTTPApp mounts the streamable MCP handler and a health check.
func newHTTPApp(server *mcp.Server) *fiber.App {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless:    true,
		JSONResponse: true,
	})

	fiberApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	fiberApp.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	fiberApp.All("/mcp", adaptor.HTTPHandler(handler))

	return fiberApp
}

func serveHTTP(ctx context.Context, server *mcp.Server, addr string, logger *zap.Logger) error {
	fiberApp := newHTTPApp(server)

	go func() {
		<-ctx.Done()
		if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	logger.Info("serving mcp over http", zap.String("addr", addr), zap.String("path", "/mcp"))
	if err := fiberApp.Listen(addr); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
