package controller

import (
	"notehub-engine/internal/dto"
	"notehub-engine/internal/pkg/serverutils"
	"notehub-engine/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Reference(ctx *fiber.Ctx) error
	CanReference(ctx *fiber.Ctx) error
}

type chatController struct {
	bridgeService service.IResourceBridgeService
}

func NewChatController(bridgeService service.IResourceBridgeService) IChatController {
	return &chatController{bridgeService: bridgeService}
}

func (c *chatController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/chat")
	h.Use(auth)
	h.Post("references/:nodeId", c.Reference)
	h.Get("references/:nodeId/check", c.CanReference)
}

func (c *chatController) Reference(ctx *fiber.Ctx) error {
	res, err := c.bridgeService.ReferenceToChat(ctx.UserContext(), ctx.Params("nodeId"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reference to chat", dto.ChatReferenceResponse{
		SessionId:   res.SessionId,
		ResourceId:  res.ContextRef.ResourceId,
		ContentHash: res.ContextRef.ContentHash,
		TypeId:      res.ContextRef.TypeId,
		IsNew:       res.IsNew,
		Resources:   len(res.Resources),
	}))
}

func (c *chatController) CanReference(ctx *fiber.Ctx) error {
	if err := c.bridgeService.CanReferenceToChat(ctx.UserContext(), ctx.Params("nodeId")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Node can be referenced", nil))
}
