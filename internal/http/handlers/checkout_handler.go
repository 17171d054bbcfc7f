package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"devstore/internal/domain"
	applog "devstore/internal/log"
	"devstore/internal/services"
	"devstore/internal/validate"
)

// CheckoutHandler exposes the preview/selection state machine as a small
// JSON API consumed by the project pages.
type CheckoutHandler struct {
	Checkout *services.CheckoutService
	Social   *services.SocialService
}

func (h *CheckoutHandler) Preview(c *fiber.Ctx) error {
	sid := ensureSID(c)
	projectID, ok := validate.ID(c.FormValue("projectId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid project id"})
	}
	p, err := h.Checkout.OpenPreview(sid, projectID)
	if err != nil {
		applog.Security(c, "checkout.preview.fail", map[string]any{"project_id": projectID})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	return c.JSON(fiber.Map{"project": p})
}

func (h *CheckoutHandler) SelectLicense(c *fiber.Ctx) error {
	sid := ensureSID(c)
	title := c.FormValue("licenseTitle")
	if err := h.Checkout.SelectLicense(sid, title); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	sess := h.Checkout.Current(sid)
	return c.JSON(fiber.Map{
		"license":        sess.License,
		"deliveryMethod": sess.Delivery, // always reset to unset here
	})
}

func (h *CheckoutHandler) ChooseDelivery(c *fiber.Ctx) error {
	sid := ensureSID(c)
	method, ok := validate.DeliveryMethod(c.FormValue("method"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown delivery method"})
	}
	if err := h.Checkout.ChooseDelivery(sid, method); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"deliveryMethod": method})
}

func (h *CheckoutHandler) Close(c *fiber.Ctx) error {
	sid := ensureSID(c)
	h.Checkout.ClosePreview(sid)
	return c.JSON(fiber.Map{"closed": true})
}

// Follow records a social-gate click and returns the follow link plus the
// combined verification state.
func (h *CheckoutHandler) Follow(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if !u.Complete() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in first"})
	}
	platform, ok := validate.Platform(c.Params("platform"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown platform"})
	}
	link, err := h.Social.Follow(u.ID, platform)
	if err != nil {
		applog.Error(c, "social.follow.fail", err, map[string]any{"platform": platform})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not record follow"})
	}
	status, err := h.Social.Status(u.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load follow status"})
	}
	applog.Audit(c, "social.follow", map[string]any{"platform": platform})
	return c.JSON(fiber.Map{"link": link, "verification": status})
}

// writeDispatchError maps the dispatcher's error taxonomy onto the wire.
func writeDispatchError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		if verr.SignInRequired {
			c.Cookie(&fiber.Cookie{
				Name:     "redirect_after",
				Value:    c.OriginalURL(),
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":    verr.Message,
				"redirect": "/auth/signin",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Message})
	}
	var ierr *services.InitiationError
	if errors.As(err, &ierr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to create payment transaction",
			"details": ierr.Message,
		})
	}
	applog.Error(c, "checkout.dispatch.fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment processing failed"})
}
