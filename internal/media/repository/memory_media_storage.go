package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"catalog_media_service/internal/media/domain"

	"github.com/google/uuid"
)

// MemoryMediaStorage in-memory MediaStorageGateway, 用於測試與 media_driver=memory
type MemoryMediaStorage struct {
	mu      sync.RWMutex
	objects map[string]domain.Resource
	newID   func() string
}

// NewMemoryMediaStorage create MemoryMediaStorage
func NewMemoryMediaStorage() *MemoryMediaStorage {
	return &MemoryMediaStorage{
		objects: make(map[string]domain.Resource),
		newID:   uuid.NewString,
	}
}

// WithIDs fixed asset ids in order, 測試時用來預期 correlation key
func (s *MemoryMediaStorage) WithIDs(ids ...string) *MemoryMediaStorage {
	var (
		mu   sync.Mutex
		next int
	)
	s.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(ids) {
			return uuid.NewString()
		}
		id := ids[next]
		next++
		return id
	}
	return s
}

func (s *MemoryMediaStorage) StoreAudioVideo(_ context.Context, videoID string, mediaType domain.VideoMediaType, resource domain.Resource) (domain.AudioVideoMedia, error) {
	id := s.newID()
	key := s.put(ObjectKey(videoID, mediaType, id), resource)
	return domain.NewAudioVideoMedia(id, Checksum(resource.Content), resource.Name, key), nil
}

func (s *MemoryMediaStorage) StoreImage(_ context.Context, videoID string, mediaType domain.VideoMediaType, resource domain.Resource) (domain.ImageMedia, error) {
	id := s.newID()
	key := s.put(ObjectKey(videoID, mediaType, id), resource)
	return domain.NewImageMedia(id, Checksum(resource.Content), resource.Name, key), nil
}

func (s *MemoryMediaStorage) put(key string, resource domain.Resource) string {
	stored := resource
	stored.Content = append([]byte(nil), resource.Content...)
	stored.Checksum = Checksum(resource.Content)

	s.mu.Lock()
	s.objects[key] = stored
	s.mu.Unlock()
	return key
}

func (s *MemoryMediaStorage) GetResource(_ context.Context, videoID string, mediaType domain.VideoMediaType, assetID string) (*domain.Resource, error) {
	key := ObjectKey(videoID, mediaType, assetID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object[%s]: %w", key, domain.ErrMediaNotFound)
	}
	r.Content = append([]byte(nil), r.Content...)
	return &r, nil
}

func (s *MemoryMediaStorage) ClearResources(_ context.Context, videoID string) error {
	prefix := VideoPrefix(videoID)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
		}
	}
	return nil
}

func (s *MemoryMediaStorage) Remove(_ context.Context, locations ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, location := range locations {
		delete(s.objects, location)
	}
	return nil
}

// Put store an arbitrary object, e.g. an encoder output
func (s *MemoryMediaStorage) Put(location string, resource domain.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[location] = resource
}

// Has report whether location exists
func (s *MemoryMediaStorage) Has(location string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[location]
	return ok
}

// Len number of stored objects
func (s *MemoryMediaStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
