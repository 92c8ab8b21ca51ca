package controller

import (
	"errors"

	"github.com/zekaiblog/mywebsite/internal/dto"
	"github.com/zekaiblog/mywebsite/internal/pkg/serverutils"
	"github.com/zekaiblog/mywebsite/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUploadController interface {
	RegisterRoutes(r fiber.Router, authRequired fiber.Handler)
	Upload(ctx *fiber.Ctx) error
}

type uploadController struct {
	service service.IUploadService
}

func NewUploadController(service service.IUploadService) IUploadController {
	return &uploadController{service: service}
}

func (c *uploadController) RegisterRoutes(r fiber.Router, authRequired fiber.Handler) {
	r.Post("/upload", authRequired, c.Upload)
}

func (c *uploadController) Upload(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		return serverutils.ErrorJSON(ctx, fiber.StatusBadRequest, "No file uploaded")
	}

	imageUrl, err := c.service.SaveImage(ctx.Context(), file)
	if err != nil {
		if errors.Is(err, service.ErrFileTooLarge) || errors.Is(err, service.ErrNotAnImage) {
			return serverutils.ErrorJSON(ctx, fiber.StatusBadRequest, err.Error())
		}
		return serverutils.ErrorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	return ctx.JSON(dto.UploadResponse{ImageUrl: imageUrl})
}
