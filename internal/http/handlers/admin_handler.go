package handlers

import (
	"github.com/gofiber/fiber/v2"

	"devstore/internal/domain"
	applog "devstore/internal/log"
	"devstore/internal/repos"
	"devstore/internal/validate"
)

type AdminHandler struct {
	TxRepo   *repos.TransactionRepo
	Contacts *repos.ContactRepo
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	unpaid, err := h.TxRepo.ListByStatus(domain.StatusPending, 10)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	paid, err := h.TxRepo.ListByStatus(domain.StatusSuccess, 10)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	messages, err := h.Contacts.ListLatest(10)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	return render(c, "admin_dashboard", fiber.Map{
		"Unpaid":   unpaid,
		"Paid":     paid,
		"Messages": messages,
	})
}

// Transactions lists transactions for one of the dashboard tabs:
// all, unpaid, paid or shipped.
func (h *AdminHandler) Transactions(c *fiber.Ctx) error {
	tab := c.Query("tab", "all")
	var (
		list []domain.Transaction
		err  error
	)
	switch tab {
	case "unpaid":
		list, err = h.TxRepo.ListByStatus(domain.StatusPending, 200)
	case "paid":
		list, err = h.TxRepo.ListByStatus(domain.StatusSuccess, 200)
	case "shipped":
		list, err = h.TxRepo.ListShipped(200)
	default:
		tab = "all"
		list, err = h.TxRepo.ListByStatus("", 200)
	}
	if err != nil {
		applog.Error(c, "admin.transactions.fail", err, map[string]any{"tab": tab})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load transactions"})
	}
	return render(c, "admin_transactions", fiber.Map{"Transactions": list, "Tab": tab})
}

// UpdateDelivery advances a physical delivery through
// packaging -> shipped -> delivered.
func (h *AdminHandler) UpdateDelivery(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid transaction id")
	}
	status := c.FormValue("status")
	switch status {
	case domain.DeliveryPackaging, domain.DeliveryShipped, domain.DeliveryDelivered:
	default:
		applog.Security(c, "validation.fail", map[string]any{"field": "delivery_status"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid delivery status")
	}

	t, err := h.TxRepo.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("transaction not found")
	}
	if t.DeliveryMethod != "delivery" {
		return c.Status(fiber.StatusBadRequest).SendString("transaction has no physical delivery")
	}
	if err := h.TxRepo.UpdateDeliveryStatus(id, status); err != nil {
		applog.Error(c, "admin.delivery.update.fail", err, map[string]any{"transaction_id": id})
		return c.Status(fiber.StatusInternalServerError).SendString("could not update delivery status")
	}
	applog.Audit(c, "admin.delivery.update", map[string]any{"transaction_id": id, "status": status})
	return c.Redirect("/admin/transactions?tab=shipped")
}

func (h *AdminHandler) Messages(c *fiber.Ctx) error {
	messages, err := h.Contacts.ListLatest(200)
	if err != nil {
		applog.Error(c, "admin.messages.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load messages"})
	}
	return render(c, "admin_messages", fiber.Map{"Messages": messages})
}

func (h *AdminHandler) MarkMessageRead(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid message id")
	}
	if err := h.Contacts.MarkRead(id); err != nil {
		applog.Error(c, "admin.message.read.fail", err, map[string]any{"message_id": id})
		return c.Status(fiber.StatusInternalServerError).SendString("could not update message")
	}
	return c.Redirect("/admin/messages")
}
