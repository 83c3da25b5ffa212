package app

import (
	"context"
	"sync"

	"catalog_media_service/internal/media/domain"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/mock"
)

// MockVideoGateway Mock VideoGateway
type MockVideoGateway struct {
	mock.Mock
}

func (m *MockVideoGateway) FindByID(ctx context.Context, id string) (*domain.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVideoGateway) Save(ctx context.Context, video *domain.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *MockVideoGateway) DeleteByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMediaStorage Mock MediaStorageGateway
type MockMediaStorage struct {
	mock.Mock
}

func (m *MockMediaStorage) StoreAudioVideo(ctx context.Context, videoID string, mediaType domain.VideoMediaType, resource domain.Resource) (domain.AudioVideoMedia, error) {
	args := m.Called(ctx, videoID, mediaType, resource)
	return args.Get(0).(domain.AudioVideoMedia), args.Error(1)
}

func (m *MockMediaStorage) StoreImage(ctx context.Context, videoID string, mediaType domain.VideoMediaType, resource domain.Resource) (domain.ImageMedia, error) {
	args := m.Called(ctx, videoID, mediaType, resource)
	return args.Get(0).(domain.ImageMedia), args.Error(1)
}

func (m *MockMediaStorage) GetResource(ctx context.Context, videoID string, mediaType domain.VideoMediaType, assetID string) (*domain.Resource, error) {
	args := m.Called(ctx, videoID, mediaType, assetID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Resource), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMediaStorage) ClearResources(ctx context.Context, videoID string) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

func (m *MockMediaStorage) Remove(ctx context.Context, locations ...string) error {
	args := m.Called(ctx, locations)
	return args.Error(0)
}

// MockRabbitRepo Mock RabbitRepo
type MockRabbitRepo struct {
	mock.Mock
}

func (m *MockRabbitRepo) QueueDeclare(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockRabbitRepo) Qos(prefetchCount int) error {
	args := m.Called(prefetchCount)
	return args.Error(0)
}

func (m *MockRabbitRepo) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *MockRabbitRepo) Consume(queue, consumer string) (<-chan amqp.Delivery, error) {
	args := m.Called(queue, consumer)
	if args.Get(0) != nil {
		return args.Get(0).(<-chan amqp.Delivery), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUpdateMediaStatusUseCase Mock UpdateMediaStatusUseCase
type MockUpdateMediaStatusUseCase struct {
	mock.Mock
}

func (m *MockUpdateMediaStatusUseCase) Execute(ctx context.Context, cmd domain.UpdateMediaStatusCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

// noLocker 單元測試不需要互斥
type noLocker struct{}

func (noLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// recordingPublisher 收集發出的 media event
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.MediaEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.MediaEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []domain.MediaEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.MediaEvent(nil), p.events...)
}

// fakeAcknowledger 記錄 ack / nack
type fakeAcknowledger struct {
	mu       sync.Mutex
	acked    []uint64
	nacked   []uint64
	requeued []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeued = append(a.requeued, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAcknowledger) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.acked), len(a.nacked)
}
