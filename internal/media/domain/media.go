package domain

import (
	"fmt"
	"strings"
)

// MediaStatus encoding status of an audio/video asset
type MediaStatus string

const (
	// MediaPending 已上傳, 尚未送去轉碼
	MediaPending MediaStatus = "PENDING"
	// MediaProcessing 轉碼中
	MediaProcessing MediaStatus = "PROCESSING"
	// MediaCompleted 轉碼完成, terminal
	MediaCompleted MediaStatus = "COMPLETED"
)

// ParseMediaStatus parse status string
func ParseMediaStatus(s string) (MediaStatus, error) {
	switch st := MediaStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case MediaPending, MediaProcessing, MediaCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMediaStatus, s)
}

// VideoMediaType slot name on a video
type VideoMediaType string

const (
	MediaTypeVideo         VideoMediaType = "VIDEO"
	MediaTypeTrailer       VideoMediaType = "TRAILER"
	MediaTypeBanner        VideoMediaType = "BANNER"
	MediaTypeThumbnail     VideoMediaType = "THUMBNAIL"
	MediaTypeThumbnailHalf VideoMediaType = "THUMBNAIL_HALF"
)

// AudioVideoMediaTypes slots that carry encoding status, in correlation order
var AudioVideoMediaTypes = []VideoMediaType{MediaTypeVideo, MediaTypeTrailer}

// ImageMediaTypes slots without encoding status
var ImageMediaTypes = []VideoMediaType{MediaTypeBanner, MediaTypeThumbnail, MediaTypeThumbnailHalf}

// ParseVideoMediaType accepts "trailer", "TRAILER", "thumbnail-half", ...
func ParseVideoMediaType(s string) (VideoMediaType, error) {
	t := VideoMediaType(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	if t.IsAudioVideo() || t.IsImage() {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMediaType, s)
}

// IsAudioVideo report slot carries encoding status
func (t VideoMediaType) IsAudioVideo() bool {
	return t == MediaTypeVideo || t == MediaTypeTrailer
}

// IsImage report slot is an image slot
func (t VideoMediaType) IsImage() bool {
	return t == MediaTypeBanner || t == MediaTypeThumbnail || t == MediaTypeThumbnailHalf
}

// AudioVideoMedia stored audio/video binary with encoding status.
// EncodedLocation is set iff Status is COMPLETED.
type AudioVideoMedia struct {
	ID              string
	Checksum        string
	Name            string
	RawLocation     string
	EncodedLocation string
	Status          MediaStatus
}

// NewAudioVideoMedia create PENDING media
func NewAudioVideoMedia(id, checksum, name, rawLocation string) AudioVideoMedia {
	return AudioVideoMedia{
		ID:          id,
		Checksum:    checksum,
		Name:        name,
		RawLocation: rawLocation,
		Status:      MediaPending,
	}
}

// Processing PENDING -> PROCESSING, 其他狀態 no-op
func (m AudioVideoMedia) Processing() (AudioVideoMedia, bool) {
	if m.Status != MediaPending {
		return m, false
	}
	m.Status = MediaProcessing
	return m, true
}

// Completed 任何狀態 -> COMPLETED, 重送時以最後的 path 為準
func (m AudioVideoMedia) Completed(encodedLocation string) (AudioVideoMedia, bool, error) {
	if encodedLocation == "" {
		return m, false, ErrInvalidEncodedLocation
	}
	if m.Status == MediaCompleted && m.EncodedLocation == encodedLocation {
		return m, false, nil
	}
	m.Status = MediaCompleted
	m.EncodedLocation = encodedLocation
	return m, true, nil
}

// Validate check status / encoded location invariant
func (m AudioVideoMedia) Validate() error {
	if _, err := ParseMediaStatus(string(m.Status)); err != nil {
		return err
	}
	if (m.Status == MediaCompleted) != (m.EncodedLocation != "") {
		return fmt.Errorf("media[%s] status %s with encoded location %q: %w", m.ID, m.Status, m.EncodedLocation, ErrInvalidEncodedLocation)
	}
	return nil
}

// ImageMedia stored image binary, no encoding status
type ImageMedia struct {
	ID       string
	Checksum string
	Name     string
	Location string
}

// NewImageMedia create image media
func NewImageMedia(id, checksum, name, location string) ImageMedia {
	return ImageMedia{ID: id, Checksum: checksum, Name: name, Location: location}
}

// Resource raw bytes of an upload or a stored object
type Resource struct {
	Content     []byte
	ContentType string
	Name        string
	Checksum    string
}
