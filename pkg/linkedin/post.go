package linkedin

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/linkpost/pkg/apierr"
	"github.com/papercomputeco/linkpost/pkg/publisher"
)

const (
	shareContentKey = "com.linkedin.ugc.ShareContent"
	visibilityKey   = "com.linkedin.ugc.MemberNetworkVisibility"
)

type shareText struct {
	Text string `json:"text"`
}

type shareMedia struct {
	Status      string     `json:"status"`
	Media       string     `json:"media"`
	Title       *shareText `json:"title,omitempty"`
	Description *shareText `json:"description,omitempty"`
}

type shareContent struct {
	ShareCommentary    shareText    `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
	Media              []shareMedia `json:"media,omitempty"`
}

type ugcPost struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

type ugcPostResponse struct {
	ID string `json:"id"`
}

// VideoDetails is optional metadata shown with a video post.
type VideoDetails struct {
	Title       string
	Description string
}

// PostText creates a text-only post and returns its identifier.
func (c *Client) PostText(ctx context.Context, author, text string) (string, error) {
	if err := checkPostInputs(author, text); err != nil {
		return "", err
	}

	urn, err := c.createPost(ctx, author, text, "NONE", nil)
	if err != nil {
		return "", err
	}
	c.announce(ctx, urn, publisher.KindText, 0)
	return urn, nil
}

// PostImages uploads each image in order and creates one post referencing
// all of them. Every file is checked before the first request is sent.
func (c *Client) PostImages(ctx context.Context, author, text string, paths []string) (string, error) {
	if err := checkPostInputs(author, text); err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", apierr.Preconditionf("at least one image path is required")
	}

	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := c.resolveMedia(p)
		if err != nil {
			return "", err
		}
		resolved = append(resolved, r)
	}

	assets, err := c.uploadAll(ctx, author, mediaImage, resolved)
	if err != nil {
		return "", err
	}

	media := make([]shareMedia, 0, len(assets))
	for _, asset := range assets {
		media = append(media, shareMedia{Status: "READY", Media: asset})
	}

	urn, err := c.createPost(ctx, author, text, mediaImage.category(), media)
	if err != nil {
		return "", err
	}
	c.announce(ctx, urn, publisher.KindImage, len(assets))
	return urn, nil
}

// PostVideo uploads one video and creates a post referencing it.
func (c *Client) PostVideo(ctx context.Context, author, text, path string, details VideoDetails) (string, error) {
	if err := checkPostInputs(author, text); err != nil {
		return "", err
	}

	resolved, err := c.resolveMedia(path)
	if err != nil {
		return "", err
	}

	assets, err := c.uploadAll(ctx, author, mediaVideo, []string{resolved})
	if err != nil {
		return "", err
	}

	item := shareMedia{Status: "READY", Media: assets[0]}
	if t := strings.TrimSpace(details.Title); t != "" {
		item.Title = &shareText{Text: t}
	}
	if d := strings.TrimSpace(details.Description); d != "" {
		item.Description = &shareText{Text: d}
	}

	urn, err := c.createPost(ctx, author, text, mediaVideo.category(), []shareMedia{item})
	if err != nil {
		return "", err
	}
	c.announce(ctx, urn, publisher.KindVideo, 1)
	return urn, nil
}

func checkPostInputs(author, text string) error {
	if strings.TrimSpace(text) == "" {
		return apierr.Preconditionf("content is required")
	}
	if strings.TrimSpace(author) == "" {
		return apierr.Preconditionf("author urn is required")
	}
	return nil
}

func (c *Client) createPost(ctx context.Context, author, text, category string, media []shareMedia) (string, error) {
	payload := ugcPost{
		Author:         author,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]shareContent{
			shareContentKey: {
				ShareCommentary:    shareText{Text: text},
				ShareMediaCategory: category,
				Media:              media,
			},
		},
		Visibility: map[string]string{visibilityKey: "PUBLIC"},
	}

	var parsed ugcPostResponse
	resp, err := c.doJSON(ctx, http.MethodPost, "/ugcPosts", payload, &parsed)
	if err != nil {
		return "", err
	}

	id := parsed.ID
	if id == "" {
		id = resp.Header.Get(restliIDHeader)
	}
	if id == "" {
		return "", errors.New("post created but no identifier was returned")
	}

	c.logger.Info("created post",
		zap.String("post_urn", id),
		zap.String("category", category),
		zap.Int("media", len(media)),
	)
	return id, nil
}

func (c *Client) announce(ctx context.Context, urn string, kind publisher.Kind, mediaCount int) {
	event, err := publisher.NewEvent(urn, PostURL(urn), kind, mediaCount)
	if err != nil {
		c.logger.Warn("skipping post event", zap.Error(err))
		return
	}
	publisher.Announce(ctx, c.publisher, c.logger, event)
}
