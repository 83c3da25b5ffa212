package router

import (
	"catalog_media_service/internal/media/api/handlers"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes 定義 media service 路由, auth 只套用在會修改資料的路由
func SetupRoutes(app *fiber.App, h *handlers.MediaHandler, auth fiber.Handler) {
	app.Get("/", handlers.ConnectCheck)
	app.Post("/debug", auth, handlers.DebugLogFlag)

	v1 := app.Group("/api/v1")
	videos := v1.Group("/videos")
	videos.Get("/:id/medias/:type", h.GetMedia)
	videos.Post("/:id/medias/:type", auth, h.UploadMedia)
	videos.Post("/:id/medias/:type/encode", auth, h.EncodeMedia)
	videos.Delete("/:id", auth, h.DeleteVideo)
}
