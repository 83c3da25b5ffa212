package domain

import (
	"fmt"
	"time"
)

// Video aggregate root, 擁有 2 個 audio/video slot 與 3 個 image slot
type Video struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	audioVideo map[VideoMediaType]AudioVideoMedia
	images     map[VideoMediaType]ImageMedia

	// asset id -> audio/video slot, 每次 attach 後重建
	index map[string]VideoMediaType
}

// NewVideo create video without media
func NewVideo(id, title, description string) *Video {
	now := time.Now().UTC()
	return &Video{
		ID:          id,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (v *Video) init() {
	if v.audioVideo == nil {
		v.audioVideo = make(map[VideoMediaType]AudioVideoMedia, len(AudioVideoMediaTypes))
	}
	if v.images == nil {
		v.images = make(map[VideoMediaType]ImageMedia, len(ImageMediaTypes))
	}
	if v.index == nil {
		v.rebuildIndex()
	}
}

func (v *Video) rebuildIndex() {
	v.index = make(map[string]VideoMediaType, len(v.audioVideo))
	for _, t := range AudioVideoMediaTypes {
		if m, ok := v.audioVideo[t]; ok {
			v.index[m.ID] = t
		}
	}
}

// AudioVideo media in slot t
func (v *Video) AudioVideo(t VideoMediaType) (AudioVideoMedia, bool) {
	m, ok := v.audioVideo[t]
	return m, ok
}

// Image media in slot t
func (v *Video) Image(t VideoMediaType) (ImageMedia, bool) {
	m, ok := v.images[t]
	return m, ok
}

// SetAudioVideo attach media into an audio/video slot and return the replaced one
func (v *Video) SetAudioVideo(t VideoMediaType, m AudioVideoMedia) (*AudioVideoMedia, error) {
	if !t.IsAudioVideo() {
		return nil, fmt.Errorf("%w: %s is not an audio/video slot", ErrUnknownMediaType, t)
	}
	v.init()

	var previous *AudioVideoMedia
	if old, ok := v.audioVideo[t]; ok {
		previous = &old
	}
	v.audioVideo[t] = m
	v.rebuildIndex()
	v.touch()
	return previous, nil
}

// SetImage attach media into an image slot and return the replaced one
func (v *Video) SetImage(t VideoMediaType, m ImageMedia) (*ImageMedia, error) {
	if !t.IsImage() {
		return nil, fmt.Errorf("%w: %s is not an image slot", ErrUnknownMediaType, t)
	}
	v.init()

	var previous *ImageMedia
	if old, ok := v.images[t]; ok {
		previous = &old
	}
	v.images[t] = m
	v.touch()
	return previous, nil
}

// SlotOf find which audio/video slot currently holds assetID
func (v *Video) SlotOf(assetID string) (VideoMediaType, bool) {
	v.init()
	t, ok := v.index[assetID]
	return t, ok
}

// Processing move slot t to PROCESSING, report whether the media changed
func (v *Video) Processing(t VideoMediaType) (bool, error) {
	m, err := v.audioVideoSlot(t)
	if err != nil {
		return false, err
	}
	next, changed := m.Processing()
	if changed {
		v.audioVideo[t] = next
		v.touch()
	}
	return changed, nil
}

// Completed move slot t to COMPLETED with encodedLocation
func (v *Video) Completed(t VideoMediaType, encodedLocation string) (bool, error) {
	m, err := v.audioVideoSlot(t)
	if err != nil {
		return false, err
	}
	next, changed, err := m.Completed(encodedLocation)
	if err != nil {
		return false, err
	}
	if changed {
		v.audioVideo[t] = next
		v.touch()
	}
	return changed, nil
}

func (v *Video) audioVideoSlot(t VideoMediaType) (AudioVideoMedia, error) {
	if !t.IsAudioVideo() {
		return AudioVideoMedia{}, fmt.Errorf("%w: %s is not an audio/video slot", ErrUnknownMediaType, t)
	}
	m, ok := v.audioVideo[t]
	if !ok {
		return AudioVideoMedia{}, fmt.Errorf("video[%s] slot %s: %w", v.ID, t, ErrMediaNotFound)
	}
	return m, nil
}

func (v *Video) touch() {
	v.UpdatedAt = time.Now().UTC()
}

// Clone deep copy, gateway 存取時避免共用 map
func (v *Video) Clone() *Video {
	c := *v
	c.audioVideo = make(map[VideoMediaType]AudioVideoMedia, len(v.audioVideo))
	for t, m := range v.audioVideo {
		c.audioVideo[t] = m
	}
	c.images = make(map[VideoMediaType]ImageMedia, len(v.images))
	for t, m := range v.images {
		c.images[t] = m
	}
	c.index = nil
	return &c
}
