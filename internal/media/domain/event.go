package domain

import "time"

// MediaEventType media event kind
type MediaEventType string

const (
	// MediaEventUploaded new asset attached to a slot
	MediaEventUploaded MediaEventType = "MEDIA_UPLOADED"
	// MediaEventStatusChanged encoding status moved forward
	MediaEventStatusChanged MediaEventType = "MEDIA_STATUS_CHANGED"
	// MediaEventEncodingFailed encoder reported an error, asset status untouched
	MediaEventEncodingFailed MediaEventType = "ENCODING_FAILED"
)

// MediaEvent notification for downstream consumers (search index, ops alerting)
type MediaEvent struct {
	Type            MediaEventType `json:"type"`
	VideoID         string         `json:"video_id"`
	ResourceID      string         `json:"resource_id,omitempty"`
	MediaType       VideoMediaType `json:"media_type,omitempty"`
	Status          MediaStatus    `json:"status,omitempty"`
	EncodedLocation string         `json:"encoded_location,omitempty"`
	Reason          string         `json:"reason,omitempty"`
	OccurredAt      time.Time      `json:"occurred_at"`
}
