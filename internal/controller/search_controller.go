package controller

import (
	"strings"

	"notehub-engine/internal/dto"
	"notehub-engine/internal/pkg/serverutils"
	"notehub-engine/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Search(ctx *fiber.Ctx) error
}

type searchController struct {
	searchService service.ISearchService
}

func NewSearchController(searchService service.ISearchService) ISearchController {
	return &searchController{searchService: searchService}
}

func (c *searchController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/search")
	h.Use(auth)
	h.Get("", c.Search)
}

// Search takes ?q= and an optional comma separated ?tags= list.
func (c *searchController) Search(ctx *fiber.Ctx) error {
	var tags []string
	for _, t := range strings.Split(ctx.Query("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	out, err := c.searchService.Search(ctx.UserContext(), ctx.Query("q"), tags)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search", dto.SearchResponse{
		Seq:     out.Seq,
		Applied: out.Applied,
		Results: dto.NewDocumentListResponse(out.Results),
	}))
}
