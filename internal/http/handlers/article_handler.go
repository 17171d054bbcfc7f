package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "devstore/internal/log"
	"devstore/internal/services"
	"devstore/internal/validate"
)

type ArticleHandler struct {
	Articles *services.ArticleService
}

func (h *ArticleHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	items, pages, err := h.Articles.List(page, services.PageSize)
	if err != nil {
		applog.Error(c, "articles.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load articles"})
	}
	return render(c, "articles", fiber.Map{"Articles": items, "Page": page, "PageCount": pages})
}

func (h *ArticleHandler) Detail(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Article not found"})
	}
	a, err := h.Articles.GetBySlug(slug)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Article not found"})
	}
	return render(c, "article", fiber.Map{"Article": a})
}
