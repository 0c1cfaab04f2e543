package controller

import (
	"notehub-engine/internal/dto"
	"notehub-engine/internal/pkg/serverutils"
	"notehub-engine/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITagController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
	Rename(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type tagController struct {
	tagService service.ITagService
}

func NewTagController(tagService service.ITagService) ITagController {
	return &tagController{tagService: tagService}
}

func (c *tagController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/tags")
	h.Use(auth)
	h.Get("", c.List)
	h.Put(":name", c.Rename)
	h.Delete(":name", c.Delete)
}

func (c *tagController) List(ctx *fiber.Ctx) error {
	tags, err := c.tagService.ListTags(ctx.UserContext())
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(tags))
	for _, t := range tags {
		out = append(out, fiber.Map{"name": t.Name, "count": t.Count})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list tags", out))
}

func (c *tagController) Rename(ctx *fiber.Ctx) error {
	var req dto.RenameTagRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.tagService.RenameTag(ctx.UserContext(), ctx.Params("name"), req.To, service.BatchOptions{HaltOnFailure: req.HaltOnFailure})
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success rename tag", batchResponse(res)))
}

func (c *tagController) Delete(ctx *fiber.Ctx) error {
	halt := ctx.QueryBool("halt_on_failure", false)
	res, err := c.tagService.DeleteTag(ctx.UserContext(), ctx.Params("name"), service.BatchOptions{HaltOnFailure: halt})
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete tag", batchResponse(res)))
}

func batchResponse(res *service.BatchResult) dto.BatchResponse {
	out := dto.BatchResponse{
		Succeeded: res.Succeeded,
		Failed:    make([]dto.BatchFailureResponse, 0, len(res.Failed)),
		Skipped:   res.Skipped,
	}
	if out.Succeeded == nil {
		out.Succeeded = []string{}
	}
	if out.Skipped == nil {
		out.Skipped = []string{}
	}
	for _, f := range res.Failed {
		out.Failed = append(out.Failed, dto.BatchFailureResponse{Id: f.Id, Error: f.Err.Error()})
	}
	return out
}
