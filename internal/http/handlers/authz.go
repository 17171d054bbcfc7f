package handlers

import (
	applog "devstore/internal/log"
	"devstore/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireUser enforces a signed-in user; otherwise remember where the buyer
// was and send them to sign in.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return redirectToSignin(c)
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return redirectToSignin(c)
		}
		c.Locals("user", u)
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/auth/signin")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || u.Role != "ADMIN" {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// redirectToSignin stores the origin path so login can return the buyer to
// where they left off.
func redirectToSignin(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "redirect_after",
		Value:    c.OriginalURL(),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/auth/signin")
}
