// Package imagegen generates images with the OpenAI images API and writes
// them to a local directory so they can be attached to posts.
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/papercomputeco/linkpost/pkg/apierr"
)

const (
	DefaultModel   = "gpt-image-1"
	DefaultQuality = "medium"
	DefaultSize    = "1536x1024"

	serviceName = "openai"
)

// Options configures a Generator.
type Options struct {
	APIKey string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL    string
	Model      string
	OutputDir  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Image is a generated image on disk.
type Image struct {
	Path     string `json:"path"`
	FileName string `json:"file_name"`
}

// Generator creates one image per call.
type Generator struct {
	client    openai.Client
	apiKey    string
	model     string
	outputDir string
	logger    *zap.Logger
	now       func() time.Time
}

// NewGenerator builds a Generator. Retries are disabled: a failed call is
// reported to the caller as is.
func NewGenerator(opts Options) *Generator {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		client:    openai.NewClient(reqOpts...),
		apiKey:    opts.APIKey,
		model:     model,
		outputDir: outputDir,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate renders prompt and saves the result as
// gpt_image_<unix>_<shortid>.png in the output directory.
func (g *Generator) Generate(ctx context.Context, prompt, quality, size string) (*Image, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apierr.Preconditionf("prompt is required")
	}
	if g.apiKey == "" {
		return nil, apierr.Preconditionf("OPENAI_API_KEY is not configured")
	}
	if quality == "" {
		quality = DefaultQuality
	}
	if size == "" {
		size = DefaultSize
	}

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:  prompt,
		Model:   openai.ImageModel(g.model),
		N:       openai.Int(1),
		Quality: openai.ImageGenerateParamsQuality(quality),
		Size:    openai.ImageGenerateParamsSize(size),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &apierr.VendorError{
				Service:    serviceName,
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.Message,
			}
		}
		return nil, fmt.Errorf("generating image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errors.New("image response contained no image data")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decoding image data: %w", err)
	}

	dir, err := filepath.Abs(g.outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	name := fmt.Sprintf("gpt_image_%d_%s.png", g.now().Unix(), shortID())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing image: %w", err)
	}

	g.logger.Info("generated image",
		zap.String("path", path),
		zap.String("quality", quality),
		zap.String("size", size),
	)
	return &Image{Path: path, FileName: name}, nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
