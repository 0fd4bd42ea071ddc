package tools

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/linkpost/pkg/apierr"
	"github.com/papercomputeco/linkpost/pkg/brave"
	"github.com/papercomputeco/linkpost/pkg/linkedin"
	"github.com/papercomputeco/linkpost/pkg/sqlexec"
)

var errNotConfigured = errors.New("tool is not configured")

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

func (h *handlers) author() string {
	if h.deps.Author == nil {
		return ""
	}
	return h.deps.Author.AuthorURN()
}

// fail logs a tool failure. The returned error becomes an MCP error result.
func (h *handlers) fail(tool string, err error) error {
	if errors.Is(err, apierr.ErrPrecondition) {
		h.logger.Info("tool precondition failed", zap.String("tool", tool), zap.Error(err))
	} else {
		h.logger.Warn("tool failed", zap.String("tool", tool), zap.Error(err))
	}
	return err
}

func (h *handlers) createPost(ctx context.Context, _ *mcp.CallToolRequest, in CreatePostInput) (*mcp.CallToolResult, PostOutput, error) {
	if h.deps.Poster == nil {
		return nil, PostOutput{}, h.fail("create_post", errNotConfigured)
	}
	urn, err := h.deps.Poster.PostText(ctx, h.author(), in.Content)
	if err != nil {
		return nil, PostOutput{}, h.fail("create_post", err)
	}
	return nil, PostOutput{URL: linkedin.PostURL(urn)}, nil
}

func (h *handlers) createImagePost(ctx context.Context, _ *mcp.CallToolRequest, in CreateImagePostInput) (*mcp.CallToolResult, PostOutput, error) {
	if h.deps.Poster == nil {
		return nil, PostOutput{}, h.fail("create_image_post", errNotConfigured)
	}
	paths := append([]string{in.ImagePath}, in.ExtraImagePaths...)
	urn, err := h.deps.Poster.PostImages(ctx, h.author(), in.Content, paths)
	if err != nil {
		return nil, PostOutput{}, h.fail("create_image_post", err)
	}
	return nil, PostOutput{URL: linkedin.PostURL(urn)}, nil
}

func (h *handlers) createVideoPost(ctx context.Context, _ *mcp.CallToolRequest, in CreateVideoPostInput) (*mcp.CallToolResult, PostOutput, error) {
	if h.deps.Poster == nil {
		return nil, PostOutput{}, h.fail("create_video_post", errNotConfigured)
	}
	urn, err := h.deps.Poster.PostVideo(ctx, h.author(), in.Content, in.VideoPath, linkedin.VideoDetails{
		Title:       in.Title,
		Description: in.Description,
	})
	if err != nil {
		return nil, PostOutput{}, h.fail("create_video_post", err)
	}
	return nil, PostOutput{URL: linkedin.PostURL(urn)}, nil
}

func (h *handlers) generateImage(ctx context.Context, _ *mcp.CallToolRequest, in GenerateImageInput) (*mcp.CallToolResult, GenerateImageOutput, error) {
	if h.deps.Images == nil {
		return nil, GenerateImageOutput{}, h.fail("generate_image", errNotConfigured)
	}
	img, err := h.deps.Images.Generate(ctx, in.Prompt, in.Quality, in.Size)
	if err != nil {
		return nil, GenerateImageOutput{}, h.fail("generate_image", err)
	}
	return nil, GenerateImageOutput{Path: img.Path, FileName: img.FileName}, nil
}

func (h *handlers) searchWeb(ctx context.Context, _ *mcp.CallToolRequest, in SearchWebInput) (*mcp.CallToolResult, SearchWebOutput, error) {
	if h.deps.Searcher == nil {
		return nil, SearchWebOutput{}, h.fail("search_web", errNotConfigured)
	}
	results, err := h.deps.Searcher.Search(ctx, in.Query, in.Count, in.SearchLang)
	if err != nil {
		return nil, SearchWebOutput{}, h.fail("search_web", err)
	}
	if results == nil {
		results = []brave.Result{}
	}
	return nil, SearchWebOutput{Results: results}, nil
}

// executeDBQuery never returns an error; failures are reported in the
// outcome so a bad statement cannot disturb the session.
func (h *handlers) executeDBQuery(ctx context.Context, _ *mcp.CallToolRequest, in ExecuteDBQueryInput) (*mcp.CallToolResult, sqlexec.Outcome, error) {
	if h.deps.DB == nil {
		return nil, sqlexec.ToOutcome(nil, errNotConfigured), nil
	}
	result, err := h.deps.DB.Execute(ctx, in.Query)
	if err != nil {
		h.logger.Info("query failed", zap.Error(err))
	}
	return nil, sqlexec.ToOutcome(result, err), nil
}
