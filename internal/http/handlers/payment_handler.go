package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"devstore/internal/domain"
	applog "devstore/internal/log"
	"devstore/internal/repos"
	"devstore/internal/services"
	"devstore/internal/validate"
)

type PaymentHandler struct {
	Checkout *services.CheckoutService
	Payments *services.PaymentService
	TxRepo   *repos.TransactionRepo
}

// Pay runs the transaction dispatcher for the current session. Paid
// checkouts answer {token, transactionId, orderId} for the widget; free
// selections answer the social-gate state instead.
func (h *PaymentHandler) Pay(c *fiber.Ctx) error {
	sid := ensureSID(c)
	u, _ := c.Locals("user").(*domain.User)

	res, err := h.Checkout.Dispatch(sid, u)
	if err != nil {
		return writeDispatchError(c, err)
	}
	if res.Free {
		return c.JSON(fiber.Map{"free": true, "verification": res.Social})
	}
	applog.Audit(c, "payment.intent", map[string]any{
		"order_id":       res.Payment.OrderID,
		"transaction_id": res.Payment.TransactionID,
	})
	return c.JSON(res.Payment)
}

type statusUpdateRequest struct {
	OrderID        string          `json:"orderId"`
	Status         string          `json:"status"`
	TransactionID  string          `json:"transactionId"`
	PaymentDetails json.RawMessage `json:"paymentDetails"`
}

// UpdateStatus persists a widget outcome against the original order and
// answers the redirect target. The redirect is filled in even when the
// update fails; the status page is the source of truth.
func (h *PaymentHandler) UpdateStatus(c *fiber.Ctx) error {
	var req statusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if req.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "orderId missing"})
	}

	var kind services.OutcomeKind
	switch req.Status {
	case domain.StatusSuccess:
		kind = services.OutcomeSuccess
	case domain.StatusPending:
		kind = services.OutcomePending
	case domain.StatusFailure:
		kind = services.OutcomeError
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown status"})
	}

	t, err := h.TxRepo.GetByOrderID(req.OrderID)
	if err != nil {
		applog.Security(c, "payment.update.unknown_order", map[string]any{"order_id": req.OrderID})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown order"})
	}

	statusMessage := ""
	if len(req.PaymentDetails) > 0 {
		var details struct {
			StatusMessage string `json:"status_message"`
		}
		_ = json.Unmarshal(req.PaymentDetails, &details)
		statusMessage = details.StatusMessage
	}

	res := h.Payments.Resolve(t.ID, services.Outcome{
		Kind:                 kind,
		OrderID:              req.OrderID,
		GatewayTransactionID: req.TransactionID,
		StatusMessage:        statusMessage,
		Raw:                  req.PaymentDetails,
	})
	if res.UpdateErr != nil {
		applog.Error(c, "payment.update.fail", res.UpdateErr, map[string]any{"order_id": req.OrderID})
		return c.JSON(fiber.Map{
			"error":       "Failed to update payment status",
			"redirectUrl": res.RedirectURL,
		})
	}
	applog.Audit(c, "payment.update", map[string]any{"order_id": req.OrderID, "status": res.Status})
	return c.JSON(fiber.Map{"message": res.Message, "redirectUrl": res.RedirectURL})
}

// FreeClaim finishes the zero-price path once the social gate is satisfied.
func (h *PaymentHandler) FreeClaim(c *fiber.Ctx) error {
	sid := ensureSID(c)
	u, _ := c.Locals("user").(*domain.User)

	res, err := h.Checkout.Claim(sid, u)
	if err != nil {
		return writeDispatchError(c, err)
	}
	applog.Audit(c, "claim.free", map[string]any{"redirect": res.RedirectURL})
	return c.JSON(res)
}

// Notification handles the gateway's server-to-server callback, mapping the
// reported transaction_status onto the stored order.
func (h *PaymentHandler) Notification(c *fiber.Ctx) error {
	var note map[string]any
	if err := c.BodyParser(&note); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid notification payload"})
	}
	orderID, _ := note["order_id"].(string)
	if orderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order_id missing"})
	}
	txStatus, _ := note["transaction_status"].(string)
	if txStatus == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "transaction_status missing"})
	}

	t, err := h.TxRepo.GetByOrderID(orderID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown order"})
	}
	gatewayTxID, _ := note["transaction_id"].(string)
	statusMessage, _ := note["status_message"].(string)
	raw, _ := json.Marshal(note)

	res := h.Payments.Resolve(t.ID, services.Outcome{
		Kind:                 services.MapGatewayStatus(txStatus),
		OrderID:              orderID,
		GatewayTransactionID: gatewayTxID,
		StatusMessage:        statusMessage,
		Raw:                  raw,
	})
	if res.UpdateErr != nil {
		applog.Error(c, "payment.notification.fail", res.UpdateErr, map[string]any{"order_id": orderID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not update status"})
	}
	applog.Audit(c, "payment.notification", map[string]any{"order_id": orderID, "status": res.Status})
	return c.JSON(fiber.Map{"message": "payment status updated"})
}

// StatusPage renders the authoritative view of one transaction. Buyers see
// their own transactions; admins see all.
func (h *PaymentHandler) StatusPage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Transaction not found"})
	}
	t, err := h.TxRepo.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Transaction not found"})
	}
	u, _ := c.Locals("user").(*domain.User)
	if u == nil || (u.ID != t.UserID && u.Role != "ADMIN") {
		applog.Security(c, "access.denied.transaction", map[string]any{"transaction_id": id})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Transaction not found"})
	}
	return render(c, "payment_status", fiber.Map{"Transaction": t})
}

// History lists the signed-in buyer's transactions.
func (h *PaymentHandler) History(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if u == nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Transactions not available"})
	}
	list, err := h.TxRepo.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "transactions.history.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load transactions"})
	}
	return render(c, "transactions", fiber.Map{"Transactions": list})
}
