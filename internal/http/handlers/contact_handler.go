package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"devstore/internal/domain"
	applog "devstore/internal/log"
	"devstore/internal/repos"
	"devstore/internal/validate"
)

type ContactHandler struct {
	Contacts *repos.ContactRepo
}

func (h *ContactHandler) Form(c *fiber.Ctx) error {
	return render(c, "contact", fiber.Map{})
}

func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Status(fiber.StatusBadRequest).Render("contact", fiber.Map{"Err": "Please enter your name"})
	}
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).Render("contact", fiber.Map{"Err": "Please enter a valid email"})
	}
	msg, ok := validate.Message(c.FormValue("message"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "message"})
		return c.Status(fiber.StatusBadRequest).Render("contact", fiber.Map{"Err": "Message is empty or too long"})
	}

	m := domain.ContactMessage{
		ID:       uuid.NewString(),
		FullName: name,
		Email:    email,
		Subject:  c.FormValue("subject"),
		Message:  msg,
	}
	if err := h.Contacts.Create(m); err != nil {
		applog.Error(c, "contact.submit.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("contact", fiber.Map{"Err": "Could not send your message. Please try again."})
	}
	applog.Audit(c, "contact.submit", map[string]any{"message_id": m.ID})
	return render(c, "contact", fiber.Map{"Sent": true})
}
