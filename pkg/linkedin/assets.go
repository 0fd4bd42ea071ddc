package linkedin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/linkpost/pkg/apierr"
)

const uploadMechanismKey = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"

// PartialUploadError reports that an upload failed after earlier assets of
// the same post were already uploaded. Those assets are not deregistered and
// the post is not created.
type PartialUploadError struct {
	Uploaded []string
	Failed   string
	Err      error
}

func (e *PartialUploadError) Error() string {
	if len(e.Uploaded) == 0 {
		return fmt.Sprintf("uploading %s: %v", e.Failed, e.Err)
	}
	return fmt.Sprintf("uploading %s: %v (already uploaded: %s)", e.Failed, e.Err, strings.Join(e.Uploaded, ", "))
}

func (e *PartialUploadError) Unwrap() error {
	return e.Err
}

type serviceRelationship struct {
	Identifier       string `json:"identifier"`
	RelationshipType string `json:"relationshipType"`
}

type registerUpload struct {
	Owner                    string                `json:"owner"`
	Recipes                  []string              `json:"recipes"`
	ServiceRelationships     []serviceRelationship `json:"serviceRelationships"`
	SupportedUploadMechanism []string              `json:"supportedUploadMechanism"`
}

type registerUploadRequest struct {
	RegisterUploadRequest registerUpload `json:"registerUploadRequest"`
}

type uploadMechanism struct {
	UploadURL string `json:"uploadUrl"`
}

type registerUploadResponse struct {
	Value struct {
		Asset           string                     `json:"asset"`
		UploadMechanism map[string]uploadMechanism `json:"uploadMechanism"`
	} `json:"value"`
}

// registration is a registered asset and where its bytes must go.
type registration struct {
	AssetURN  string
	UploadURL string
}

func (c *Client) register(ctx context.Context, owner string, kind mediaKind) (*registration, error) {
	payload := registerUploadRequest{
		RegisterUploadRequest: registerUpload{
			Owner:   owner,
			Recipes: []string{kind.recipe()},
			ServiceRelationships: []serviceRelationship{{
				Identifier:       "urn:li:userGeneratedContent",
				RelationshipType: "OWNER",
			}},
			SupportedUploadMechanism: []string{"SYNCHRONOUS_UPLOAD"},
		},
	}

	var parsed registerUploadResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/assets?action=registerUpload", payload, &parsed); err != nil {
		return nil, err
	}

	mech, ok := parsed.Value.UploadMechanism[uploadMechanismKey]
	if !ok || mech.UploadURL == "" || parsed.Value.Asset == "" {
		return nil, errors.New("register upload response missing upload url or asset")
	}

	return &registration{AssetURN: parsed.Value.Asset, UploadURL: mech.UploadURL}, nil
}

func (c *Client) upload(ctx context.Context, uploadURL, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeFor(path, data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending upload request: %w", err)
	}
	defer resp.Body.Close()

	return apierr.CheckResponse(serviceName, resp)
}

// uploadAll registers and uploads every file in order, stopping at the first
// failure. It returns the asset URNs in input order.
func (c *Client) uploadAll(ctx context.Context, owner string, kind mediaKind, paths []string) ([]string, error) {
	assets := make([]string, 0, len(paths))
	for _, path := range paths {
		reg, err := c.register(ctx, owner, kind)
		if err != nil {
			return nil, &PartialUploadError{Uploaded: assets, Failed: path, Err: err}
		}
		if err := c.upload(ctx, reg.UploadURL, path); err != nil {
			return nil, &PartialUploadError{Uploaded: assets, Failed: path, Err: err}
		}

		c.logger.Debug("uploaded asset",
			zap.String("asset", reg.AssetURN),
			zap.String("path", path),
		)
		assets = append(assets, reg.AssetURN)
	}
	return assets, nil
}
