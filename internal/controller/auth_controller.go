package controller

import (
	"errors"

	"github.com/zekaiblog/mywebsite/internal/dto"
	"github.com/zekaiblog/mywebsite/internal/pkg/serverutils"
	"github.com/zekaiblog/mywebsite/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router, authRequired fiber.Handler)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Me(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router, authRequired fiber.Handler) {
	r.Post("/register", c.Register)
	r.Post("/login", c.Login)
	r.Get("/me", authRequired, c.Me)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.ErrorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := c.service.Register(ctx.Context(), &req)
	if err != nil {
		return serverutils.ErrorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(res)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.ErrorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := c.service.Login(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return serverutils.ErrorJSON(ctx, fiber.StatusUnauthorized, err.Error())
		}
		return serverutils.ErrorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
	return ctx.JSON(res)
}

func (c *authController) Me(ctx *fiber.Ctx) error {
	identity, ok := serverutils.IdentityFromCtx(ctx)
	if !ok {
		return serverutils.ErrorJSON(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := c.service.GetMe(ctx.Context(), identity.UserID)
	if err != nil {
		return serverutils.ErrorJSON(ctx, fiber.StatusUnauthorized, "User not found")
	}
	return ctx.JSON(fiber.Map{"user": user})
}
