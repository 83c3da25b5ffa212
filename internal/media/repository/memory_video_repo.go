package repository

import (
	"context"
	"sync"

	"catalog_media_service/internal/media/domain"
)

// MemoryVideoRepo in-memory VideoGateway, 用於測試與 video_driver=memory
type MemoryVideoRepo struct {
	mu     sync.RWMutex
	videos map[string]*domain.Video
	saves  int
}

// NewMemoryVideoRepo create MemoryVideoRepo
func NewMemoryVideoRepo(videos ...*domain.Video) *MemoryVideoRepo {
	r := &MemoryVideoRepo{videos: make(map[string]*domain.Video)}
	for _, v := range videos {
		r.videos[v.ID] = v.Clone()
	}
	return r
}

func (r *MemoryVideoRepo) FindByID(_ context.Context, id string) (*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.videos[id]
	if !ok {
		return nil, domain.ErrVideoNotFound
	}
	return v.Clone(), nil
}

func (r *MemoryVideoRepo) Save(_ context.Context, video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.videos[video.ID] = video.Clone()
	r.saves++
	return nil
}

func (r *MemoryVideoRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.videos, id)
	return nil
}

// SaveCount number of Save calls
func (r *MemoryVideoRepo) SaveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
