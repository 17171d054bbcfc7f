package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"devstore/internal/domain"
	"devstore/internal/repos"
)

// Delivery methods. Empty means the buyer has not confirmed one yet.
const (
	DeliveryDownload = "download"
	DeliveryCourier  = "delivery"
)

// Dispatcher states. The machine only rests in idle; every dispatch either
// reaches a terminal result or falls back to idle.
const (
	StateIdle         = "idle"
	StateValidating   = "validating"
	StateFreeClaim    = "free_claim"
	StatePaidCheckout = "paid_checkout"
	StateRedirecting  = "redirecting"
)

// ValidationError is a failed dispatcher guard: no network call was made and
// the session state is unchanged. SignInRequired marks the incomplete-identity
// case, which redirects instead of toasting.
type ValidationError struct {
	Message        string
	SignInRequired bool
}

func (e *ValidationError) Error() string { return e.Message }

// LicenseSelection is the buyer's chosen pricing tier. Discarded whenever the
// preview closes or another variant is picked.
type LicenseSelection struct {
	Title       string
	Price       int64
	DownloadURL string
}

// Session is the per-buyer checkout state keyed by the sid cookie. Project
// and License are replaced wholesale on change, never mutated in place, so a
// copy taken under the lock stays consistent.
type Session struct {
	State      string
	Project    *domain.Project
	License    *LicenseSelection
	Delivery   string
	Processing bool
}

type CheckoutService struct {
	Projects  *repos.ProjectRepo
	Addresses *repos.AddressRepo
	Tx        *repos.TransactionRepo
	Payments  *PaymentService
	Social    *SocialService

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewCheckoutService(projects *repos.ProjectRepo, addresses *repos.AddressRepo,
	tx *repos.TransactionRepo, payments *PaymentService, social *SocialService) *CheckoutService {
	return &CheckoutService{
		Projects:  projects,
		Addresses: addresses,
		Tx:        tx,
		Payments:  payments,
		Social:    social,
		sessions:  map[string]*Session{},
	}
}

func (s *CheckoutService) session(sid string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	if !ok {
		sess = &Session{State: StateIdle}
		s.sessions[sid] = sess
	}
	return sess
}

// Current returns a copy of the session state for rendering.
func (s *CheckoutService) Current(sid string) Session {
	sess := s.session(sid)
	s.mu.Lock()
	defer s.mu.Unlock()
	return *sess
}

// OpenPreview selects a project for checkout and clears any selection left
// over from a previous preview.
func (s *CheckoutService) OpenPreview(sid, projectID string) (domain.Project, error) {
	p, err := s.Projects.Get(projectID)
	if err != nil {
		return domain.Project{}, err
	}
	p.Licenses, err = s.Projects.Licenses(p.ID)
	if err != nil {
		return domain.Project{}, err
	}
	sess := s.session(sid)
	s.mu.Lock()
	sess.Project = &p
	sess.License = nil
	sess.Delivery = ""
	sess.Processing = false
	sess.State = StateIdle
	s.mu.Unlock()
	return p, nil
}

// SelectLicense picks a variant of the previewed project. The delivery method
// always resets so a stale license/fulfilment combination can never carry
// over.
func (s *CheckoutService) SelectLicense(sid, title string) error {
	sess := s.session(sid)
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.Project == nil {
		return errors.New("no project selected")
	}
	for _, l := range sess.Project.Licenses {
		if strings.EqualFold(l.Title, title) {
			sess.License = &LicenseSelection{Title: l.Title, Price: l.Price, DownloadURL: l.DownloadURL}
			sess.Delivery = ""
			return nil
		}
	}
	return fmt.Errorf("unknown license %q", title)
}

// ChooseDelivery confirms the fulfilment method. Physical delivery is not
// offered for the free tier.
func (s *CheckoutService) ChooseDelivery(sid, method string) error {
	sess := s.session(sid)
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.License == nil {
		return errors.New("select a license first")
	}
	if method != DeliveryDownload && method != DeliveryCourier {
		return fmt.Errorf("unknown delivery method %q", method)
	}
	if method == DeliveryCourier && strings.EqualFold(sess.License.Title, "free") {
		return errors.New("delivery is not available for the free license")
	}
	sess.Delivery = method
	return nil
}

// ClosePreview drops all transaction-local state; nothing survives into the
// next preview.
func (s *CheckoutService) ClosePreview(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
}

// PaymentData is the payment-intent wire payload.
type PaymentData struct {
	ProjectID       string          `json:"projectId"`
	UserID          string          `json:"userId"`
	Amount          int64           `json:"amount"`
	ProjectTitle    string          `json:"projectTitle"`
	LicenseType     string          `json:"licenseType"`
	DeliveryMethod  string          `json:"deliveryMethod"`
	UserEmail       string          `json:"userEmail"`
	UserName        string          `json:"userName"`
	UserPhotoURL    string          `json:"userPhotoURL,omitempty"`
	ImageURL        string          `json:"imageUrl"`
	DownloadURL     string          `json:"downloadUrl,omitempty"`
	DeliveryAddress *domain.Address `json:"deliveryAddress,omitempty"`
}

// DispatchResult is what a successful pass through the guards yields: either
// the free-claim path (behind the social gate) or an opened payment session.
type DispatchResult struct {
	State   string
	Free    bool
	Payment *PaymentSession
	Social  SocialVerification
}

// Dispatch runs the guards in order and routes on the price sign. The first
// failing guard aborts with a ValidationError and no state change; any panic
// is caught, the state returns to idle and a generic failure surfaces.
func (s *CheckoutService) Dispatch(sid string, user *domain.User) (res *DispatchResult, err error) {
	sess := s.session(sid)
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			sess.State = StateIdle
			sess.Processing = false
			s.mu.Unlock()
			res = nil
			err = fmt.Errorf("transaction processing failed")
		}
	}()

	s.mu.Lock()
	sess.State = StateValidating
	snap := *sess
	s.mu.Unlock()
	fail := func(verr error) (*DispatchResult, error) {
		s.mu.Lock()
		sess.State = StateIdle
		sess.Processing = false
		s.mu.Unlock()
		return nil, verr
	}

	// Guard 1: complete identity.
	if !user.Complete() {
		return fail(&ValidationError{
			Message:        "Please sign in with complete profile information",
			SignInRequired: true,
		})
	}
	// Guard 2: a previewed project with id and title.
	if snap.Project == nil || snap.Project.ID == "" || snap.Project.Title == "" {
		return fail(&ValidationError{Message: "Invalid project selection"})
	}
	// Guard 3: a license selection.
	if snap.License == nil || snap.License.Title == "" || snap.License.Price < 0 {
		return fail(&ValidationError{Message: "Please select a valid license type"})
	}
	// Guard 4: a confirmed delivery method.
	if snap.Delivery == "" {
		return fail(&ValidationError{Message: "Please select a delivery method"})
	}
	// Guard 5: delivery requires a default address.
	var addr *domain.Address
	if snap.Delivery == DeliveryCourier {
		addr, err = s.Addresses.Default(user.ID)
		if err != nil {
			return fail(err)
		}
		if addr == nil {
			return fail(&ValidationError{
				Message: "No default delivery address found. Please add an address in your profile.",
			})
		}
	}

	s.mu.Lock()
	sess.Processing = true
	s.mu.Unlock()

	// The single branch point: routing is a pure function of the price sign.
	if snap.License.Price == 0 {
		s.mu.Lock()
		sess.State = StateFreeClaim
		s.mu.Unlock()
		status, err := s.Social.Status(user.ID)
		if err != nil {
			return fail(err)
		}
		return &DispatchResult{State: StateFreeClaim, Free: true, Social: status}, nil
	}

	s.mu.Lock()
	sess.State = StatePaidCheckout
	s.mu.Unlock()
	data := s.paymentData(&snap, user, addr)
	pay, err := s.Payments.Initiate(data)
	if err != nil {
		s.mu.Lock()
		sess.State = StateIdle
		sess.Processing = false
		s.mu.Unlock()
		return nil, err
	}
	return &DispatchResult{State: StatePaidCheckout, Payment: pay}, nil
}

func (s *CheckoutService) paymentData(sess *Session, user *domain.User, addr *domain.Address) PaymentData {
	data := PaymentData{
		ProjectID:      sess.Project.ID,
		UserID:         user.ID,
		Amount:         sess.License.Price,
		ProjectTitle:   sess.Project.Title,
		LicenseType:    sess.License.Title,
		DeliveryMethod: sess.Delivery,
		UserEmail:      user.Email,
		UserName:       user.Name,
		UserPhotoURL:   user.PhotoURL,
		ImageURL:       sess.Project.ImageURL,
	}
	if sess.Delivery == DeliveryDownload {
		data.DownloadURL = sess.License.DownloadURL
	}
	if sess.Delivery == DeliveryCourier {
		data.DeliveryAddress = addr
	}
	return data
}

// ClaimResult mirrors the free-claim endpoint response.
type ClaimResult struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Claim performs the free acquisition once the social gate is satisfied. The
// payload matches the paid path minus payment fields; the address is attached
// only for physical delivery.
func (s *CheckoutService) Claim(sid string, user *domain.User) (ClaimResult, error) {
	sess := s.session(sid)
	s.mu.Lock()
	snap := *sess
	s.mu.Unlock()
	if snap.Project == nil || snap.License == nil || snap.Delivery == "" || !user.Complete() {
		return ClaimResult{}, &ValidationError{Message: "Please complete all required selections"}
	}
	if snap.License.Price != 0 {
		return ClaimResult{}, &ValidationError{Message: "Selected license is not free"}
	}

	status, err := s.Social.Status(user.ID)
	if err != nil {
		return ClaimResult{}, err
	}
	if !status.AllVerified() {
		return ClaimResult{}, &ValidationError{Message: "Follow both accounts to continue"}
	}

	var addr *domain.Address
	if snap.Delivery == DeliveryCourier {
		addr, err = s.Addresses.Default(user.ID)
		if err != nil {
			return ClaimResult{}, err
		}
		if addr == nil {
			return ClaimResult{}, &ValidationError{Message: "No default delivery address found. Please add an address in your profile."}
		}
	}

	addrJSON := ""
	if addr != nil {
		b, _ := json.Marshal(addr)
		addrJSON = string(b)
	}
	t := domain.Transaction{
		ID:                  uuid.NewString(),
		OrderID:             uuid.NewString(),
		ProjectID:           snap.Project.ID,
		UserID:              user.ID,
		Amount:              0,
		ProjectTitle:        snap.Project.Title,
		LicenseType:         snap.License.Title,
		DeliveryMethod:      snap.Delivery,
		ImageURL:            snap.Project.ImageURL,
		DownloadURL:         snap.License.DownloadURL,
		UserEmail:           user.Email,
		UserName:            user.Name,
		UserPhotoURL:        user.PhotoURL,
		Status:              domain.StatusSuccess,
		DeliveryAddressJSON: addrJSON,
	}
	if snap.Delivery == DeliveryCourier {
		t.DeliveryStatus = domain.DeliveryPackaging
	}
	if err := s.Tx.Create(t); err != nil {
		return ClaimResult{}, err
	}
	_ = s.Projects.RecordSale(snap.Project.ID, snap.License.Title)

	s.mu.Lock()
	sess.State = StateRedirecting
	sess.Processing = false
	s.mu.Unlock()
	return ClaimResult{Success: true, RedirectURL: "/payment/status/" + t.ID}, nil
}
