package handlers

import (
	"errors"
	"io"
	"net/http"

	"catalog_media_service/internal/media/app"
	"catalog_media_service/internal/media/domain"
	"catalog_media_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MediaFormField multipart 檔案欄位名稱
const MediaFormField = "media_file"

// MediaHandler 定義 media 相關 API
type MediaHandler struct {
	Upload   app.UploadMediaUseCase
	Get      app.GetMediaUseCase
	Delete   app.DeleteVideoUseCase
	Dispatch app.DispatchEncodingUseCase
}

// NewMediaHandler create MediaHandler
func NewMediaHandler(upload app.UploadMediaUseCase,
	get app.GetMediaUseCase,
	del app.DeleteVideoUseCase,
	dispatch app.DispatchEncodingUseCase,
) *MediaHandler {
	return &MediaHandler{
		Upload:   upload,
		Get:      get,
		Delete:   del,
		Dispatch: dispatch,
	}
}

// UploadMedia 上傳檔案到影片的 slot
// @Router /api/v1/videos/{id}/medias/{type} [post]
func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile(MediaFormField)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "未檢測到檔案"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "讀取檔案失敗"})
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "讀取檔案失敗"})
	}

	out, err := h.Upload.Execute(c.UserContext(), domain.UploadMediaCommand{
		VideoID:   c.Params("id"),
		MediaType: c.Params("type"),
		Resource: domain.Resource{
			Content:     content,
			ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
			Name:        fileHeader.Filename,
		},
	})
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"video_id":   out.VideoID,
		"media_type": out.MediaType,
	})
}

// GetMedia 取回 slot 的原始檔
// @Router /api/v1/videos/{id}/medias/{type} [get]
func (h *MediaHandler) GetMedia(c *fiber.Ctx) error {
	resource, err := h.Get.Execute(c.UserContext(), c.Params("id"), c.Params("type"))
	if err != nil {
		return errorResponse(c, err)
	}

	// Attachment 會依副檔名設定 Content-Type, 先呼叫再以儲存的型別覆蓋
	if resource.Name != "" {
		c.Attachment(resource.Name)
	}
	if resource.ContentType != "" {
		c.Set(fiber.HeaderContentType, resource.ContentType)
	}
	if resource.Checksum != "" {
		c.Set(fiber.HeaderETag, `"`+resource.Checksum+`"`)
	}
	return c.Send(resource.Content)
}

// EncodeMedia 送出轉碼工作
// @Router /api/v1/videos/{id}/medias/{type}/encode [post]
func (h *MediaHandler) EncodeMedia(c *fiber.Ctx) error {
	if err := h.Dispatch.Execute(c.UserContext(), c.Params("id"), c.Params("type")); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// DeleteVideo 刪除影片與所有檔案
// @Router /api/v1/videos/{id} [delete]
func (h *MediaHandler) DeleteVideo(c *fiber.Ctx) error {
	if err := h.Delete.Execute(c.UserContext(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrVideoNotFound),
		errors.Is(err, domain.ErrMediaNotFound),
		errors.Is(err, domain.ErrUnknownMediaType):
		status = http.StatusNotFound
	default:
		logger.Log.Error("media api error", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
