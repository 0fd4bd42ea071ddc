// Package tools registers the linkpost MCP tools on a go-sdk server.
package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/linkpost/pkg/brave"
	"github.com/papercomputeco/linkpost/pkg/imagegen"
	"github.com/papercomputeco/linkpost/pkg/linkedin"
	"github.com/papercomputeco/linkpost/pkg/sqlexec"
)

const serverName = "linkpost"

// Poster creates LinkedIn posts.
type Poster interface {
	PostText(ctx context.Context, author, text string) (string, error)
	PostImages(ctx context.Context, author, text string, paths []string) (string, error)
	PostVideo(ctx context.Context, author, text, path string, details linkedin.VideoDetails) (string, error)
}

// AuthorSource yields the member URN posts are authored as.
type AuthorSource interface {
	AuthorURN() string
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string, count int, lang string) ([]brave.Result, error)
}

// ImageGenerator renders images to disk.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, quality, size string) (*imagegen.Image, error)
}

// Executor runs SQL statements.
type Executor interface {
	Execute(ctx context.Context, statement string) (*sqlexec.Result, error)
}

// Deps are the adapters behind the tools.
type Deps struct {
	Poster   Poster
	Author   AuthorSource
	Searcher Searcher
	Images   ImageGenerator
	DB       Executor
	Logger   *zap.Logger
}

// NewServer returns an MCP server with every tool registered.
func NewServer(deps Deps, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version,
	}, nil)
	Register(server, deps)
	return server
}

// Register adds the six tools to server.
func Register(server *mcp.Server, deps Deps) {
	h := &handlers{deps: deps, logger: deps.Logger}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}

	mcp.AddTool(server, CreatePostTool(), h.createPost)
	mcp.AddTool(server, CreateImagePostTool(), h.createImagePost)
	mcp.AddTool(server, CreateVideoPostTool(), h.createVideoPost)
	mcp.AddTool(server, GenerateImageTool(), h.generateImage)
	mcp.AddTool(server, SearchWebTool(), h.searchWeb)
	mcp.AddTool(server, ExecuteDBQueryTool(), h.executeDBQuery)
}
