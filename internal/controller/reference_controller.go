package controller

import (
	"sort"

	"notehub-engine/internal/dto"
	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/serverutils"
	"notehub-engine/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IReferenceController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Add(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Remove(ctx *fiber.Ctx) error
	Validate(ctx *fiber.Ctx) error
	BatchValidate(ctx *fiber.Ctx) error
	Cleanup(ctx *fiber.Ctx) error
	RefreshTitle(ctx *fiber.Ctx) error
}

type referenceController struct {
	referenceService service.IReferenceService
}

func NewReferenceController(referenceService service.IReferenceService) IReferenceController {
	return &referenceController{referenceService: referenceService}
}

func (c *referenceController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/references")
	h.Use(auth)
	h.Post("", c.Add)
	h.Get("", c.List)
	h.Post("validate", c.BatchValidate)
	h.Post("cleanup", c.Cleanup)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Remove)
	h.Post(":id/validate", c.Validate)
	h.Post(":id/refresh-title", c.RefreshTitle)
}

func (c *referenceController) Add(ctx *fiber.Ctx) error {
	var req dto.AddReferenceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	kind := entity.OriginKind(req.OriginKind)
	var (
		id  string
		err error
	)
	// Without a caller supplied title the origin is asked for one.
	switch {
	case req.Title == "" && kind == entity.OriginTextbook:
		id, err = c.referenceService.AddTextbookRef(ctx.UserContext(), req.OriginId, req.ParentId)
	case req.Title == "" && kind == entity.OriginExam:
		id, err = c.referenceService.AddExamRef(ctx.UserContext(), req.OriginId, req.ParentId)
	case req.Title == "" && kind == entity.OriginFile:
		id, err = c.referenceService.AddFileRef(ctx.UserContext(), req.OriginId, req.ParentId)
	default:
		id, err = c.referenceService.AddReference(ctx.UserContext(), service.AddReferenceRequest{
			OriginKind:  kind,
			OriginId:    req.OriginId,
			Title:       req.Title,
			PreviewKind: entity.PreviewKind(req.PreviewKind),
			ParentId:    req.ParentId,
		})
	}
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success add reference", dto.AddReferenceResponse{Id: id}))
}

func (c *referenceController) List(ctx *fiber.Ctx) error {
	nodes := c.referenceService.List()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].CreatedAt.Before(nodes[j].CreatedAt) })

	out := make([]*dto.ReferenceResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, dto.NewReferenceResponse(n, c.referenceService.IsInvalid(n.Id)))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list references", out))
}

func (c *referenceController) Show(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	node, ok := c.referenceService.Get(id)
	if !ok {
		return entity.ErrNodeNotFound
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show reference", dto.NewReferenceResponse(node, c.referenceService.IsInvalid(id))))
}

func (c *referenceController) Remove(ctx *fiber.Ctx) error {
	if err := c.referenceService.RemoveReference(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success remove reference", nil))
}

func (c *referenceController) Validate(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	valid, err := c.referenceService.ValidateReference(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success validate reference", dto.ValidationResponse{Id: id, Valid: valid}))
}

func (c *referenceController) BatchValidate(ctx *fiber.Ctx) error {
	var req dto.ValidateReferencesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	results := c.referenceService.BatchValidate(ctx.UserContext(), req.Ids)
	out := make([]dto.ValidationResponse, 0, len(results))
	for _, id := range req.Ids {
		if valid, ok := results[id]; ok {
			out = append(out, dto.ValidationResponse{Id: id, Valid: valid})
		}
	}
	return ctx.JSON(serverutils.SuccessResponse("Success validate references", out))
}

func (c *referenceController) Cleanup(ctx *fiber.Ctx) error {
	removed, err := c.referenceService.CleanupInvalid(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success cleanup references", dto.CleanupResponse{Removed: removed}))
}

func (c *referenceController) RefreshTitle(ctx *fiber.Ctx) error {
	title, err := c.referenceService.RefreshTitle(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success refresh title", dto.RefreshTitleResponse{Title: title}))
}
