package controller

import (
	"notehub-engine/internal/dto"
	"notehub-engine/internal/pkg/serverutils"
	"notehub-engine/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IViewController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Show(ctx *fiber.Ctx) error
	OpenTab(ctx *fiber.Ctx) error
	CloseTab(ctx *fiber.Ctx) error
	ActivateTab(ctx *fiber.Ctx) error
	ReorderTabs(ctx *fiber.Ctx) error
	OpenCanvas(ctx *fiber.Ctx) error
	CloseCanvas(ctx *fiber.Ctx) error
}

type viewController struct {
	viewService service.IViewService
}

func NewViewController(viewService service.IViewService) IViewController {
	return &viewController{viewService: viewService}
}

func (c *viewController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/view")
	h.Use(auth)
	h.Get("", c.Show)
	h.Post("tabs/:id", c.OpenTab)
	h.Delete("tabs/:id", c.CloseTab)
	h.Put("tabs/:id/activate", c.ActivateTab)
	h.Put("tabs", c.ReorderTabs)
	h.Post("canvas/:id", c.OpenCanvas)
	h.Delete("canvas", c.CloseCanvas)
}

func (c *viewController) snapshot(ctx *fiber.Ctx, message string) error {
	s := c.viewService.Snapshot()
	return ctx.JSON(serverutils.SuccessResponse(message, dto.ViewResponse{
		OpenTabs:      s.OpenTabs,
		ActiveId:      s.ActiveId,
		CanvasNoteId:  s.CanvasNoteId,
		CanvasHistory: s.CanvasHistory,
	}))
}

func (c *viewController) Show(ctx *fiber.Ctx) error {
	return c.snapshot(ctx, "Success show view")
}

func (c *viewController) OpenTab(ctx *fiber.Ctx) error {
	if err := c.viewService.OpenTab(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return c.snapshot(ctx, "Success open tab")
}

func (c *viewController) CloseTab(ctx *fiber.Ctx) error {
	c.viewService.CloseTab(ctx.Params("id"))
	return c.snapshot(ctx, "Success close tab")
}

func (c *viewController) ActivateTab(ctx *fiber.Ctx) error {
	if err := c.viewService.ActivateTab(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return c.snapshot(ctx, "Success activate tab")
}

func (c *viewController) ReorderTabs(ctx *fiber.Ctx) error {
	var req dto.ReorderTabsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.viewService.ReorderTabs(req.OpenTabs); err != nil {
		return err
	}
	return c.snapshot(ctx, "Success reorder tabs")
}

func (c *viewController) OpenCanvas(ctx *fiber.Ctx) error {
	if err := c.viewService.OpenCanvas(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return c.snapshot(ctx, "Success open canvas")
}

func (c *viewController) CloseCanvas(ctx *fiber.Ctx) error {
	c.viewService.CloseCanvas()
	return c.snapshot(ctx, "Success close canvas")
}
