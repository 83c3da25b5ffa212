package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"catalog_media_service/internal/media/domain"
	"catalog_media_service/internal/media/repository"
	"catalog_media_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mediaFixture struct {
	videos    *repository.MemoryVideoRepo
	storage   *repository.MemoryMediaStorage
	locker    repository.VideoLocker
	publisher *recordingPublisher
}

func newMediaFixture(t *testing.T, videos ...*domain.Video) *mediaFixture {
	t.Helper()
	logger.SetNewNop()
	return &mediaFixture{
		videos:    repository.NewMemoryVideoRepo(videos...),
		storage:   repository.NewMemoryMediaStorage().WithIDs("a1", "a2", "a3", "a4"),
		locker:    repository.NewLocalVideoLocker(),
		publisher: &recordingPublisher{},
	}
}

func (f *mediaFixture) upload() UploadMediaUseCase {
	return NewUploadMediaUseCase(f.videos, f.storage, f.locker, f.publisher)
}

func (f *mediaFixture) updateStatus() UpdateMediaStatusUseCase {
	return NewUpdateMediaStatusUseCase(f.videos, f.locker, f.publisher)
}

func (f *mediaFixture) video(t *testing.T, id string) *domain.Video {
	t.Helper()
	v, err := f.videos.FindByID(context.Background(), id)
	require.NoError(t, err)
	return v
}

func TestUploadMedia_AudioVideoStartsPending(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t, domain.NewVideo("v1", "Movie", ""))

	out, err := f.upload().Execute(ctx, domain.UploadMediaCommand{
		VideoID:   "v1",
		MediaType: "video",
		Resource:  domain.Resource{Content: []byte("raw"), ContentType: "video/mp4", Name: "movie.mp4"},
	})
	require.NoError(t, err)
	assert.Equal(t, &domain.UploadMediaOutput{VideoID: "v1", MediaType: domain.MediaTypeVideo}, out)

	media, ok := f.video(t, "v1").AudioVideo(domain.MediaTypeVideo)
	require.True(t, ok)
	assert.Equal(t, "a1", media.ID)
	assert.Equal(t, domain.MediaPending, media.Status)
	assert.Empty(t, media.EncodedLocation)
	assert.Equal(t, repository.Checksum([]byte("raw")), media.Checksum)
	assert.True(t, f.storage.Has(repository.ObjectKey("v1", domain.MediaTypeVideo, "a1")))

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.MediaEventUploaded, events[0].Type)
	assert.Equal(t, "a1", events[0].ResourceID)
	assert.Equal(t, domain.MediaPending, events[0].Status)
}

func TestUploadMedia_ReplaceSlotRemovesEncodedOutput(t *testing.T) {
	ctx := context.Background()
	video := domain.NewVideo("v1", "Movie", "")
	oldRaw := repository.ObjectKey("v1", domain.MediaTypeTrailer, "a0")
	_, err := video.SetAudioVideo(domain.MediaTypeTrailer, domain.NewAudioVideoMedia("a0", "c0", "old.mp4", oldRaw))
	require.NoError(t, err)
	_, err = video.Completed(domain.MediaTypeTrailer, "enc/old.m3u8")
	require.NoError(t, err)

	f := newMediaFixture(t, video)
	f.storage.Put(oldRaw, domain.Resource{Content: []byte("old")})
	f.storage.Put("enc/old.m3u8", domain.Resource{Content: []byte("playlist")})

	_, err = f.upload().Execute(ctx, domain.UploadMediaCommand{
		VideoID:   "v1",
		MediaType: "TRAILER",
		Resource:  domain.Resource{Content: []byte("new"), Name: "new.mp4"},
	})
	require.NoError(t, err)

	saved := f.video(t, "v1")
	media, _ := saved.AudioVideo(domain.MediaTypeTrailer)
	assert.Equal(t, "a1", media.ID)
	assert.Equal(t, domain.MediaPending, media.Status)

	_, stale := saved.SlotOf("a0")
	assert.False(t, stale)
	assert.False(t, f.storage.Has("enc/old.m3u8"))
	assert.False(t, f.storage.Has(oldRaw))
	assert.True(t, f.storage.Has(media.RawLocation))
	assert.Equal(t, 1, f.storage.Len())
}

// failingSaveRepo Save 一律失敗
type failingSaveRepo struct {
	*repository.MemoryVideoRepo
}

func (failingSaveRepo) Save(context.Context, *domain.Video) error {
	return errors.New("pg down")
}

func TestUploadMedia_SaveFailureKeepsCurrentAsset(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t, domain.NewVideo("v1", "Movie", ""))

	_, err := f.upload().Execute(ctx, domain.UploadMediaCommand{
		VideoID:   "v1",
		MediaType: "VIDEO",
		Resource:  domain.Resource{Content: []byte("old bytes"), ContentType: "video/mp4", Name: "old.mp4"},
	})
	require.NoError(t, err)

	broken := NewUploadMediaUseCase(failingSaveRepo{f.videos}, f.storage, f.locker, f.publisher)
	_, err = broken.Execute(ctx, domain.UploadMediaCommand{
		VideoID:   "v1",
		MediaType: "VIDEO",
		Resource:  domain.Resource{Content: []byte("NEW BYTES"), ContentType: "video/mp4", Name: "new.mp4"},
	})
	require.Error(t, err)

	media, ok := f.video(t, "v1").AudioVideo(domain.MediaTypeVideo)
	require.True(t, ok)
	assert.Equal(t, "a1", media.ID)

	// 持久化的 asset 仍指向原本的檔案, checksum 一致
	stored, err := f.storage.GetResource(ctx, "v1", domain.MediaTypeVideo, media.ID)
	require.NoError(t, err)
	assert.Equal(t, "old bytes", string(stored.Content))
	assert.Equal(t, media.Checksum, repository.Checksum(stored.Content))

	// 新上傳的檔案已被清除
	assert.False(t, f.storage.Has(repository.ObjectKey("v1", domain.MediaTypeVideo, "a2")))
	assert.Equal(t, 1, f.storage.Len())
	require.Len(t, f.publisher.Events(), 1)
}

// heldLocker 記錄目前是否持有 lock
type heldLocker struct {
	mu   sync.Mutex
	held bool
}

func (l *heldLocker) Lock(context.Context, string) (func(), error) {
	l.mu.Lock()
	l.held = true
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.held = false
		l.mu.Unlock()
	}, nil
}

func (l *heldLocker) isHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// lockCheckingStorage 寫檔時檢查 lock 狀態
type lockCheckingStorage struct {
	*repository.MemoryMediaStorage
	locker          *heldLocker
	storedUnderLock bool
}

func (s *lockCheckingStorage) StoreAudioVideo(ctx context.Context, videoID string, mediaType domain.VideoMediaType, resource domain.Resource) (domain.AudioVideoMedia, error) {
	s.storedUnderLock = s.storedUnderLock || s.locker.isHeld()
	return s.MemoryMediaStorage.StoreAudioVideo(ctx, videoID, mediaType, resource)
}

// lockCheckingRepo 讀取 / 儲存時檢查 lock 狀態
type lockCheckingRepo struct {
	*repository.MemoryVideoRepo
	locker         *heldLocker
	savedOutOfLock bool
}

func (r *lockCheckingRepo) Save(ctx context.Context, video *domain.Video) error {
	r.savedOutOfLock = r.savedOutOfLock || !r.locker.isHeld()
	return r.MemoryVideoRepo.Save(ctx, video)
}

func TestUploadMedia_StoresOutsideLock(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t, domain.NewVideo("v1", "Movie", ""))
	locker := &heldLocker{}
	storage := &lockCheckingStorage{MemoryMediaStorage: f.storage, locker: locker}
	videos := &lockCheckingRepo{MemoryVideoRepo: f.videos, locker: locker}

	_, err := NewUploadMediaUseCase(videos, storage, locker, f.publisher).Execute(ctx, domain.UploadMediaCommand{
		VideoID:   "v1",
		MediaType: "VIDEO",
		Resource:  domain.Resource{Content: []byte("raw")},
	})
	require.NoError(t, err)
	assert.False(t, storage.storedUnderLock, "大檔寫入不應持有 video lock")
	assert.False(t, videos.savedOutOfLock)
	assert.False(t, locker.isHeld())
}

func TestUploadMedia_KeepsStatusWrittenDuringStore(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t, newPendingVideo(t))
	f.storage.WithIDs("a3")
	update := f.updateStatus()

	// 寫檔期間 encoder 回報 trailer 完成
	storage := &hookStorage{MemoryMediaStorage: f.storage, beforeStore: func() {
		// upload 若在寫檔時持有 lock, 這裡會等到 timeout
		updateCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		require.NoError(t, update.Execute(updateCtx, completedCmd("a2", "enc/v1", "trailer.m3u8")))
	}}

	_, err := NewUploadMediaUseCase(f.videos, storage, f.locker, f.publisher).Execute(ctx, domain.UploadMediaCommand{
		VideoID:   "v1",
		MediaType: "VIDEO",
		Resource:  domain.Resource{Content: []byte("new")},
	})
	require.NoError(t, err)

	saved := f.video(t, "v1")
	trailer, _ := saved.AudioVideo(domain.MediaTypeTrailer)
	video, _ := saved.AudioVideo(domain.MediaTypeVideo)
	assert.Equal(t, domain.MediaCompleted, trailer.Status)
	assert.Equal(t, "a3", video.ID)
}

type hookStorage struct {
	*repository.MemoryMediaStorage
	beforeStore func()
}

func (s *hookStorage) StoreAudioVideo(ctx context.Context, videoID string, mediaType domain.VideoMediaType, resource domain.Resource) (domain.AudioVideoMedia, error) {
	s.beforeStore()
	return s.MemoryMediaStorage.StoreAudioVideo(ctx, videoID, mediaType, resource)
}

func TestUploadMedia_Image(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t, domain.NewVideo("v1", "Movie", ""))

	out, err := f.upload().Execute(ctx, domain.UploadMediaCommand{
		VideoID:   "v1",
		MediaType: "thumbnail-half",
		Resource:  domain.Resource{Content: []byte("jpg"), ContentType: "image/jpeg", Name: "half.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MediaTypeThumbnailHalf, out.MediaType)

	image, ok := f.video(t, "v1").Image(domain.MediaTypeThumbnailHalf)
	require.True(t, ok)
	assert.Equal(t, "half.jpg", image.Name)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Status)
}

func TestUploadMedia_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("影片不存在", func(t *testing.T) {
		f := newMediaFixture(t)
		_, err := f.upload().Execute(ctx, domain.UploadMediaCommand{VideoID: "missing", MediaType: "VIDEO"})
		assert.ErrorIs(t, err, domain.ErrVideoNotFound)
		assert.Zero(t, f.storage.Len())
	})

	t.Run("未知 media type", func(t *testing.T) {
		f := newMediaFixture(t, domain.NewVideo("v1", "Movie", ""))
		_, err := f.upload().Execute(ctx, domain.UploadMediaCommand{VideoID: "v1", MediaType: "poster"})
		assert.ErrorIs(t, err, domain.ErrUnknownMediaType)
		assert.NotErrorIs(t, err, domain.ErrVideoNotFound)
		assert.Zero(t, f.videos.SaveCount())
	})

	t.Run("storage 失敗不儲存影片", func(t *testing.T) {
		logger.SetNewNop()
		videos := new(MockVideoGateway)
		storage := new(MockMediaStorage)
		videos.On("FindByID", ctx, "v1").Return(domain.NewVideo("v1", "Movie", ""), nil)
		storage.On("StoreAudioVideo", ctx, "v1", domain.MediaTypeVideo, mock.Anything).
			Return(domain.AudioVideoMedia{}, errors.New("minio down"))

		uc := NewUploadMediaUseCase(videos, storage, noLocker{}, &recordingPublisher{})
		_, err := uc.Execute(ctx, domain.UploadMediaCommand{VideoID: "v1", MediaType: "VIDEO"})
		assert.Error(t, err)
		videos.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("event 發送失敗不影響上傳", func(t *testing.T) {
		f := newMediaFixture(t, domain.NewVideo("v1", "Movie", ""))
		f.publisher.err = errors.New("kafka down")
		_, err := f.upload().Execute(ctx, domain.UploadMediaCommand{VideoID: "v1", MediaType: "BANNER"})
		assert.NoError(t, err)
		assert.Equal(t, 1, f.videos.SaveCount())
	})
}
