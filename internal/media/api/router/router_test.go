package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"catalog_media_service/internal/media/api/handlers"
	"catalog_media_service/internal/media/app"
	"catalog_media_service/internal/media/domain"
	"catalog_media_service/internal/media/repository"
	"catalog_media_service/pkg/logger"
	"catalog_media_service/pkg/middlewares"
	t_token "catalog_media_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRabbit struct {
	published []amqp.Publishing
}

func (r *stubRabbit) QueueDeclare(string) error { return nil }
func (r *stubRabbit) Qos(int) error             { return nil }
func (r *stubRabbit) Consume(string, string) (<-chan amqp.Delivery, error) {
	return nil, nil
}
func (r *stubRabbit) Publish(_, _ string, _, _ bool, msg amqp.Publishing) error {
	r.published = append(r.published, msg)
	return nil
}

type testServer struct {
	app     *fiber.App
	videos  *repository.MemoryVideoRepo
	storage *repository.MemoryMediaStorage
	rabbit  *stubRabbit
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithAuth(t, middlewares.Passthrough())
}

func newTestServerWithAuth(t *testing.T, auth fiber.Handler) *testServer {
	t.Helper()
	logger.SetNewNop()

	videos := repository.NewMemoryVideoRepo(domain.NewVideo("v1", "Movie", ""))
	storage := repository.NewMemoryMediaStorage().WithIDs("a1")
	locker := repository.NewLocalVideoLocker()
	publisher := repository.NewNopMediaEventPublisher()
	rabbit := &stubRabbit{}

	updateStatus := app.NewUpdateMediaStatusUseCase(videos, locker, publisher)
	h := handlers.NewMediaHandler(
		app.NewUploadMediaUseCase(videos, storage, locker, publisher),
		app.NewGetMediaUseCase(videos, storage),
		app.NewDeleteVideoUseCase(videos, storage, locker),
		app.NewDispatchEncodingUseCase(videos, rabbit, updateStatus, "video.encode"),
	)

	server := fiber.New()
	SetupRoutes(server, h, auth)
	return &testServer{app: server, videos: videos, storage: storage, rabbit: rabbit}
}

func uploadRequest(t *testing.T, path, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+handlers.MediaFormField+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestConnectCheck(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDebugLogFlag(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodPost, "/debug?status=true", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, logger.Log.IsDebugMode())

	resp, err = s.app.Test(httptest.NewRequest(http.MethodPost, "/debug?status=maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadAndGetMedia(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(uploadRequest(t, "/api/v1/videos/v1/medias/video", "movie.mp4", "video/mp4", []byte("raw video")))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, map[string]string{"video_id": "v1", "media_type": "VIDEO"}, out)

	video, err := s.videos.FindByID(context.Background(), "v1")
	require.NoError(t, err)
	media, ok := video.AudioVideo(domain.MediaTypeVideo)
	require.True(t, ok)
	assert.Equal(t, domain.MediaPending, media.Status)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/videos/v1/medias/VIDEO", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "raw video", string(body))
	assert.Equal(t, "video/mp4", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, `"`+repository.Checksum([]byte("raw video"))+`"`, resp.Header.Get(fiber.HeaderETag))
}

func TestUploadMedia_Errors(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"缺少檔案", httptest.NewRequest(http.MethodPost, "/api/v1/videos/v1/medias/video", nil), http.StatusBadRequest},
		{"影片不存在", uploadRequest(t, "/api/v1/videos/missing/medias/video", "a.mp4", "video/mp4", []byte("x")), http.StatusNotFound},
		{"未知 media type", uploadRequest(t, "/api/v1/videos/v1/medias/poster", "a.png", "image/png", []byte("x")), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := s.app.Test(tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestGetMedia_NotUploaded(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/videos/v1/medias/banner", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEncodeMedia(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(uploadRequest(t, "/api/v1/videos/v1/medias/trailer", "t.mp4", "video/mp4", []byte("trailer")))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/videos/v1/medias/trailer/encode", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, s.rabbit.published, 1)

	video, err := s.videos.FindByID(context.Background(), "v1")
	require.NoError(t, err)
	media, _ := video.AudioVideo(domain.MediaTypeTrailer)
	assert.Equal(t, domain.MediaProcessing, media.Status)
}

func TestDeleteVideo(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(uploadRequest(t, "/api/v1/videos/v1/medias/banner", "b.png", "image/png", []byte("png")))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/v1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, s.storage.Len())

	_, err = s.videos.FindByID(context.Background(), "v1")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}

func TestMutatingRoutesRequireToken(t *testing.T) {
	manager := t_token.NewManager("secret", "media_service", time.Minute)
	s := newTestServerWithAuth(t, middlewares.JWTMiddleware(manager, t_token.RoleAdmin))

	resp, err := s.app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/v1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 讀取不需要 token
	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/videos/v1/medias/banner", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	admin, err := manager.Generate("catalog-api", t_token.RoleAdmin)
	require.NoError(t, err)
	req := uploadRequest(t, "/api/v1/videos/v1/medias/banner", "b.png", "image/png", []byte("png"))
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+admin)
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
