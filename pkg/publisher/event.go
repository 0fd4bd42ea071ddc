package publisher

import (
	"errors"
	"time"
)

const (
	// SchemaPostV1 is the schema identifier for post publish events.
	SchemaPostV1 = "linkpost.post.v1"
)

// Kind names the type of post that was created.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// ErrEmptyPostURN indicates an empty post URN was provided where a value is required.
var ErrEmptyPostURN = errors.New("cannot create event with empty post urn")

// Event is the publish payload for a single created post.
type Event struct {
	Schema     string    `json:"schema"`
	PostURN    string    `json:"post_urn"`
	URL        string    `json:"url"`
	Kind       Kind      `json:"kind"`
	MediaCount int       `json:"media_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent creates an Event for a post that was just created.
func NewEvent(postURN, url string, kind Kind, mediaCount int) (*Event, error) {
	if postURN == "" {
		return nil, ErrEmptyPostURN
	}

	return &Event{
		Schema:     SchemaPostV1,
		PostURN:    postURN,
		URL:        url,
		Kind:       kind,
		MediaCount: mediaCount,
		OccurredAt: time.Now().UTC(),
	}, nil
}
