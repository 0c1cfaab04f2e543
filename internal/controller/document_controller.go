package controller

import (
	"notehub-engine/internal/dto"
	"notehub-engine/internal/pkg/serverutils"
	"notehub-engine/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
	Reload(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Rename(ctx *fiber.Ctx) error
	SetFavorite(ctx *fiber.Ctx) error
	Move(ctx *fiber.Ctx) error
}

type documentController struct {
	noteService  service.INoteService
	cacheService service.IDocumentCacheService
}

func NewDocumentController(noteService service.INoteService, cacheService service.IDocumentCacheService) IDocumentController {
	return &documentController{
		noteService:  noteService,
		cacheService: cacheService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/documents")
	h.Use(auth)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id", c.Save)
	h.Post(":id/reload", c.Reload)
	h.Delete(":id", c.Delete)
	h.Put(":id/title", c.Rename)
	h.Put(":id/favorite", c.SetFavorite)
	h.Put(":id/move", c.Move)
}

func (c *documentController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	doc, err := c.noteService.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create document", dto.CreateDocumentResponse{Id: doc.Id}))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list documents", dto.NewDocumentListResponse(c.cacheService.List())))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	loaded, err := c.cacheService.EnsureLoaded(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show document", dto.NewDocumentResponse(loaded.Document())))
}

func (c *documentController) Save(ctx *fiber.Ctx) error {
	var req dto.SaveDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.Id = ctx.Params("id")
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.cacheService.Save(ctx.UserContext(), req.Id, req.Content, req.Title)
	if err != nil {
		return err
	}

	resp := dto.SaveDocumentResponse{
		Id:        res.Document.Id,
		Revision:  res.Document.Revision,
		Title:     res.Document.Title,
		UpdatedAt: res.Document.UpdatedAt,
	}
	if res.TitleWarning != nil {
		resp.TitleWarning = res.TitleWarning.Error()
	}
	return ctx.JSON(serverutils.SuccessResponse("Success save document", resp))
}

func (c *documentController) Reload(ctx *fiber.Ctx) error {
	loaded, err := c.cacheService.ForceReload(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success reload document", dto.NewDocumentResponse(loaded.Document())))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	if err := c.noteService.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}

func (c *documentController) Rename(ctx *fiber.Ctx) error {
	var req dto.RenameDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	doc, err := c.noteService.Rename(ctx.UserContext(), ctx.Params("id"), req.Title)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success rename document", dto.NewDocumentResponse(doc)))
}

func (c *documentController) SetFavorite(ctx *fiber.Ctx) error {
	var req dto.FavoriteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	doc, err := c.noteService.SetFavorite(ctx.UserContext(), ctx.Params("id"), req.IsFavorite)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update favorite", dto.NewDocumentResponse(doc)))
}

func (c *documentController) Move(ctx *fiber.Ctx) error {
	var req dto.MoveDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := c.noteService.Move(ctx.UserContext(), ctx.Params("id"), req.ParentId, req.Index); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success move document", nil))
}
