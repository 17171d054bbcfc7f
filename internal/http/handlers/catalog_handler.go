package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "devstore/internal/log"
	"devstore/internal/services"
	"devstore/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	return sid
}

func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f := h.Catalog.FilterFor(sid)
	items, pages := h.Catalog.Page(f, 0)
	return render(c, "home", fiber.Map{
		"Projects":   items,
		"PageCount":  pages,
		"Categories": h.Catalog.Categories(),
	})
}

// List renders the catalog with the session's filter state applied. Query
// params update the selectors; picking a category resets the type.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f := h.Catalog.FilterFor(sid)

	if v := c.Query("category"); v != "" {
		f.SelectCategory(v)
	}
	if v := c.Query("type"); v != "" {
		f.SelectType(v)
	}
	if v := c.Query("license"); v != "" {
		f.SelectLicense(v)
	}

	page := c.QueryInt("page", 1) - 1
	items, pages := h.Catalog.Page(f, page)
	return render(c, "projects", fiber.Map{
		"Projects":   items,
		"Page":       page + 1,
		"PageCount":  pages,
		"Filter":     f,
		"Categories": h.Catalog.Categories(),
		"Types":      h.Catalog.Types(f.Category),
		"Licenses":   h.Catalog.LicenseTitles(),
	})
}

func (h *CatalogHandler) Detail(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Project not found"})
	}
	p, err := h.Catalog.Projects.GetBySlug(slug)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Project not found"})
	}
	p.Licenses, err = h.Catalog.Projects.Licenses(p.ID)
	if err != nil {
		applog.Error(c, "project.detail.load", err, map[string]any{"slug": slug})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load project"})
	}
	return render(c, "project", fiber.Map{"Project": p})
}
