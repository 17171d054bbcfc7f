package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"devstore/internal/config"
	"devstore/internal/domain"
	"devstore/internal/repos"
)

// InitiationError is a failed payment-intent: the gateway call errored,
// returned a non-success status or omitted required fields.
type InitiationError struct {
	Message string
}

func (e *InitiationError) Error() string { return e.Message }

// StatusUpdateError is a failed post-outcome status update. It is surfaced to
// the user but never blocks the redirect; the status page is authoritative.
type StatusUpdateError struct {
	Err error
}

func (e *StatusUpdateError) Error() string { return "failed to update payment status: " + e.Err.Error() }
func (e *StatusUpdateError) Unwrap() error { return e.Err }

// GatewaySession is what the gateway hands back for an opened widget session.
type GatewaySession struct {
	Token       string
	RedirectURL string
}

// PaymentGateway creates hosted-widget sessions. Injected so tests can swap
// the real Snap client for a fake.
type PaymentGateway interface {
	CreateSession(orderID string, amount int64, customerName, customerEmail, itemName string) (GatewaySession, error)
}

// SnapGateway backs PaymentGateway with the Midtrans Snap API.
type SnapGateway struct {
	client    snap.Client
	finishURL string
}

func NewSnapGateway(cfg config.Config) *SnapGateway {
	env := midtrans.Sandbox
	if cfg.MidtransEnv == "production" {
		env = midtrans.Production
	}
	g := &SnapGateway{finishURL: cfg.BaseURL + "/transactions"}
	g.client.New(cfg.MidtransServerKey, env)
	return g
}

func (g *SnapGateway) CreateSession(orderID string, amount int64, customerName, customerEmail, itemName string) (GatewaySession, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customerName,
			Email: customerEmail,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    orderID,
			Price: amount,
			Qty:   1,
			Name:  itemName,
		}},
		Expiry: &snap.ExpiryDetails{
			Unit:     "minute",
			Duration: 30,
		},
		Callbacks: &snap.Callbacks{
			Finish: g.finishURL,
		},
	}
	resp, snapErr := g.client.CreateTransaction(req)
	if snapErr != nil {
		return GatewaySession{}, snapErr
	}
	return GatewaySession{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// OutcomeKind tags the single-shot result of one widget session. Exactly one
// of the four fires per opened session.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomePending
	OutcomeError
	OutcomeClosed
)

// Outcome is one gateway callback, flattened into a tagged value.
type Outcome struct {
	Kind                 OutcomeKind
	OrderID              string
	GatewayTransactionID string
	StatusMessage        string
	Raw                  json.RawMessage
}

// MapGatewayStatus converts a Midtrans transaction_status into an outcome
// kind for notification handling.
func MapGatewayStatus(transactionStatus string) OutcomeKind {
	switch transactionStatus {
	case "settlement", "capture":
		return OutcomeSuccess
	case "pending", "authorize":
		return OutcomePending
	default: // deny, cancel, expire, failure
		return OutcomeError
	}
}

// Resolution is what the bridge decides after an outcome: the persisted
// status, the user-facing message and the unconditional redirect target.
type Resolution struct {
	Status      string
	Message     string
	RedirectURL string
	UpdateErr   error
}

// PaymentSession identifies one opened checkout against the gateway.
type PaymentSession struct {
	Token         string `json:"token"`
	TransactionID string `json:"transactionId"`
	OrderID       string `json:"orderId"`
	RedirectURL   string `json:"redirectUrl,omitempty"`
}

// PaymentService is the session bridge: it opens gateway sessions for paid
// checkouts and maps widget outcomes onto the stored transaction.
type PaymentService struct {
	Gateway  PaymentGateway
	Tx       *repos.TransactionRepo
	Projects *repos.ProjectRepo
}

func NewPaymentService(gateway PaymentGateway, tx *repos.TransactionRepo, projects *repos.ProjectRepo) *PaymentService {
	return &PaymentService{Gateway: gateway, Tx: tx, Projects: projects}
}

// Initiate records a pending transaction and opens a gateway session for it.
func (s *PaymentService) Initiate(data PaymentData) (*PaymentSession, error) {
	if data.Amount <= 0 {
		return nil, &InitiationError{Message: "amount must be positive for a paid checkout"}
	}

	// Physical delivery takes a stock unit before the session opens. Any
	// failure below must hand the unit back.
	reserved := false
	if data.DeliveryMethod == DeliveryCourier {
		if err := s.Projects.ReserveStock(data.ProjectID, data.LicenseType); err != nil {
			if err == repos.ErrOutOfStock {
				return nil, &InitiationError{Message: "selected license is out of stock"}
			}
			return nil, err
		}
		reserved = true
	}
	release := func() {
		if reserved {
			_ = s.Projects.ReleaseStock(data.ProjectID, data.LicenseType)
		}
	}

	addrJSON := ""
	if data.DeliveryAddress != nil {
		b, _ := json.Marshal(data.DeliveryAddress)
		addrJSON = string(b)
	}
	t := domain.Transaction{
		ID:                  uuid.NewString(),
		OrderID:             uuid.NewString(),
		ProjectID:           data.ProjectID,
		UserID:              data.UserID,
		Amount:              data.Amount,
		ProjectTitle:        data.ProjectTitle,
		LicenseType:         data.LicenseType,
		DeliveryMethod:      data.DeliveryMethod,
		ImageURL:            data.ImageURL,
		DownloadURL:         data.DownloadURL,
		UserEmail:           data.UserEmail,
		UserName:            data.UserName,
		UserPhotoURL:        data.UserPhotoURL,
		Status:              domain.StatusPending,
		DeliveryAddressJSON: addrJSON,
	}
	if data.DeliveryMethod == DeliveryCourier {
		t.DeliveryStatus = domain.DeliveryPackaging
	}
	if err := s.Tx.Create(t); err != nil {
		release()
		return nil, err
	}

	sess, err := s.Gateway.CreateSession(t.OrderID, data.Amount, data.UserName, data.UserEmail,
		fmt.Sprintf("%s (%s license)", data.ProjectTitle, data.LicenseType))
	if err != nil {
		release()
		return nil, &InitiationError{Message: err.Error()}
	}
	if sess.Token == "" {
		release()
		return nil, &InitiationError{Message: "invalid payment token or transaction id received"}
	}
	return &PaymentSession{
		Token:         sess.Token,
		TransactionID: t.ID,
		OrderID:       t.OrderID,
		RedirectURL:   sess.RedirectURL,
	}, nil
}

// Resolve maps one widget outcome to a status update and a redirect. The
// redirect is unconditional for success/pending/error even when the update
// itself fails; a closed widget updates nothing and stays on the page.
// Counter effects run once, on the first transition out of pending: success
// records the sale, a failed courier payment returns its reserved unit.
func (s *PaymentService) Resolve(transactionID string, o Outcome) Resolution {
	var res Resolution
	switch o.Kind {
	case OutcomeSuccess:
		res.Status = domain.StatusSuccess
		res.Message = "Payment successful!"
	case OutcomePending:
		res.Status = domain.StatusPending
		res.Message = "Payment is pending..."
	case OutcomeError:
		res.Status = domain.StatusFailure
		msg := o.StatusMessage
		if msg == "" {
			msg = "Unknown error"
		}
		res.Message = "Payment failed: " + msg
	case OutcomeClosed:
		// The buyer dismissed the widget. The transaction keeps whatever
		// the gateway last reported; nothing to persist, nowhere to go.
		return res
	}

	res.RedirectURL = "/payment/status/" + transactionID
	prev, prevErr := s.Tx.Get(transactionID)
	if err := s.Tx.UpdateStatus(o.OrderID, res.Status, o.GatewayTransactionID, string(o.Raw)); err != nil {
		res.UpdateErr = &StatusUpdateError{Err: err}
	}
	if prevErr == nil && prev.Status == domain.StatusPending {
		switch o.Kind {
		case OutcomeSuccess:
			_ = s.Projects.RecordSale(prev.ProjectID, prev.LicenseType)
		case OutcomeError:
			if prev.DeliveryMethod == DeliveryCourier {
				_ = s.Projects.ReleaseStock(prev.ProjectID, prev.LicenseType)
			}
		}
	}
	return res
}
