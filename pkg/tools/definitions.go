package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/linkpost/pkg/brave"
)

// CreatePostInput is the input of create_post.
type CreatePostInput struct {
	Content string `json:"content" jsonschema:"text of the LinkedIn post"`
}

// CreateImagePostInput is the input of create_image_post.
type CreateImagePostInput struct {
	Content         string   `json:"content" jsonschema:"text of the LinkedIn post"`
	ImagePath       string   `json:"image_path" jsonschema:"image file, absolute or relative to the media folder"`
	ExtraImagePaths []string `json:"extra_image_paths,omitempty" jsonschema:"optional additional image files, attached in order after image_path"`
}

// CreateVideoPostInput is the input of create_video_post.
type CreateVideoPostInput struct {
	Content     string `json:"content" jsonschema:"text of the LinkedIn post"`
	VideoPath   string `json:"video_path" jsonschema:"video file, absolute or relative to the media folder"`
	Title       string `json:"title,omitempty" jsonschema:"optional title shown with the video"`
	Description string `json:"description,omitempty" jsonschema:"optional description shown with the video"`
}

// PostOutput is returned by every post tool.
type PostOutput struct {
	URL string `json:"url" jsonschema:"public URL of the created post"`
}

// GenerateImageInput is the input of generate_image.
type GenerateImageInput struct {
	Prompt  string `json:"prompt" jsonschema:"description of the image to generate"`
	Quality string `json:"quality,omitempty" jsonschema:"image quality: low, medium or high (default medium)"`
	Size    string `json:"size,omitempty" jsonschema:"image size such as 1024x1024 or 1536x1024 (default 1536x1024)"`
}

// GenerateImageOutput is the output of generate_image.
type GenerateImageOutput struct {
	Path     string `json:"path" jsonschema:"absolute path of the saved image"`
	FileName string `json:"file_name" jsonschema:"file name of the saved image, usable as image_path"`
}

// SearchWebInput is the input of search_web.
type SearchWebInput struct {
	Query      string `json:"query" jsonschema:"search query"`
	Count      int    `json:"count,omitempty" jsonschema:"number of results to request (default 5)"`
	SearchLang string `json:"search_lang,omitempty" jsonschema:"result language code (default en)"`
}

// SearchWebOutput is the output of search_web.
type SearchWebOutput struct {
	Results []brave.Result `json:"results" jsonschema:"search hits in vendor order"`
}

// ExecuteDBQueryInput is the input of execute_db_query.
type ExecuteDBQueryInput struct {
	Query string `json:"query" jsonschema:"SQL statement to run against the local database"`
}

func CreatePostTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_post",
		Description: "Publish a text post to LinkedIn and return its URL",
	}
}

func CreateImagePostTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_image_post",
		Description: "Upload one or more images and publish a LinkedIn post that shows them",
	}
}

func CreateVideoPostTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_video_post",
		Description: "Upload a video and publish a LinkedIn post that shows it",
	}
}

func GenerateImageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "generate_image",
		Description: "Generate an image from a prompt and save it locally for use in an image post",
	}
}

func SearchWebTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_web",
		Description: "Search the web and return result titles and descriptions",
	}
}

func ExecuteDBQueryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "execute_db_query",
		Description: "Run a SQL statement against the local SQLite database; select statements return rows",
	}
}
