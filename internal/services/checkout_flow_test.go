package services_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"devstore/internal/domain"
	"devstore/internal/repos"
	"devstore/internal/services"
)

// fakeGateway stands in for the Snap client so no network is touched.
type fakeGateway struct {
	token string
	err   error

	calls      int
	lastOrder  string
	lastAmount int64
}

func (g *fakeGateway) CreateSession(orderID string, amount int64, customerName, customerEmail, itemName string) (services.GatewaySession, error) {
	g.calls++
	g.lastOrder = orderID
	g.lastAmount = amount
	if g.err != nil {
		return services.GatewaySession{}, g.err
	}
	return services.GatewaySession{Token: g.token, RedirectURL: "https://gw.test/pay/" + g.token}, nil
}

func newCheckout(db *sqlx.DB, gw services.PaymentGateway) (*services.CheckoutService, *repos.TransactionRepo, *services.SocialService) {
	projRepo := repos.NewProjectRepo(db)
	txRepo := repos.NewTransactionRepo(db)
	paySvc := services.NewPaymentService(gw, txRepo, projRepo)
	socialSvc := services.NewSocialService(repos.NewSocialRepo(db), "https://tiktok.test/devstore", "https://instagram.test/devstore")
	co := services.NewCheckoutService(projRepo, repos.NewAddressRepo(db), txRepo, paySvc, socialSvc)
	return co, txRepo, socialSvc
}

// dina is the seeded user with a complete profile and a default address.
func dina() *domain.User {
	return &domain.User{ID: "u-dina", Email: "dina@devstore.test", Name: "Dina", PhotoURL: "avatars/dina.jpg", Role: "USER"}
}

// bayu has a complete profile but no saved address.
func bayu() *domain.User {
	return &domain.User{ID: "u-bayu", Email: "bayu@devstore.test", Name: "Bayu", Role: "USER"}
}

func TestDispatch_GuardOrder(t *testing.T) {
	db := memdb(t)
	gw := &fakeGateway{token: "tok"}
	co, _, _ := newCheckout(db, gw)
	sid := "sess-guards"

	// no user at all
	_, err := co.Dispatch(sid, nil)
	var verr *services.ValidationError
	if !errors.As(err, &verr) || !verr.SignInRequired {
		t.Fatalf("want sign-in-required validation error, got %v", err)
	}

	// incomplete identity beats everything else
	_, err = co.Dispatch(sid, &domain.User{ID: "u-x", Email: "x@devstore.test"})
	if !errors.As(err, &verr) || !verr.SignInRequired {
		t.Fatalf("want sign-in-required for missing name, got %v", err)
	}

	// complete user, no preview
	_, err = co.Dispatch(sid, dina())
	if !errors.As(err, &verr) || verr.Message != "Invalid project selection" {
		t.Fatalf("want project guard, got %v", err)
	}

	if _, err := co.OpenPreview(sid, "prj-landing"); err != nil {
		t.Fatal(err)
	}
	_, err = co.Dispatch(sid, dina())
	if !errors.As(err, &verr) || verr.Message != "Please select a valid license type" {
		t.Fatalf("want license guard, got %v", err)
	}

	if err := co.SelectLicense(sid, "personal"); err != nil {
		t.Fatal(err)
	}
	_, err = co.Dispatch(sid, dina())
	if !errors.As(err, &verr) || verr.Message != "Please select a delivery method" {
		t.Fatalf("want delivery guard, got %v", err)
	}

	if gw.calls != 0 {
		t.Fatalf("failed guards must not reach the gateway, got %d calls", gw.calls)
	}
	if s := co.Current(sid); s.State != services.StateIdle {
		t.Fatalf("state should fall back to idle, got %q", s.State)
	}
}

func TestDispatch_PaidDownload(t *testing.T) {
	db := memdb(t)
	gw := &fakeGateway{token: "tok-1"}
	co, txRepo, _ := newCheckout(db, gw)
	sid := "sess-paid"

	if _, err := co.OpenPreview(sid, "prj-landing"); err != nil {
		t.Fatal(err)
	}
	if err := co.SelectLicense(sid, "personal"); err != nil {
		t.Fatal(err)
	}
	if err := co.ChooseDelivery(sid, services.DeliveryDownload); err != nil {
		t.Fatal(err)
	}

	res, err := co.Dispatch(sid, dina())
	if err != nil {
		t.Fatal(err)
	}
	if res.Free || res.Payment == nil || res.Payment.Token != "tok-1" {
		t.Fatalf("want a paid session, got %+v", res)
	}
	if gw.lastAmount != 150000 {
		t.Fatalf("want gross amount 150000, got %d", gw.lastAmount)
	}

	tx, err := txRepo.GetByOrderID(gw.lastOrder)
	if err != nil {
		t.Fatal(err)
	}
	if tx.Status != domain.StatusPending || tx.Amount != 150000 {
		t.Fatalf("want pending 150000 transaction, got %+v", tx)
	}
	if tx.DownloadURL == "" {
		t.Fatal("download fulfilment should carry the download url")
	}
	if tx.DeliveryAddressJSON != "" {
		t.Fatal("download fulfilment must not record an address")
	}
}

func TestDispatch_CourierUsesDefaultAddress(t *testing.T) {
	db := memdb(t)
	gw := &fakeGateway{token: "tok-2"}
	co, txRepo, _ := newCheckout(db, gw)
	sid := "sess-courier"

	if _, err := co.OpenPreview(sid, "prj-landing"); err != nil {
		t.Fatal(err)
	}
	if err := co.SelectLicense(sid, "commercial"); err != nil {
		t.Fatal(err)
	}
	if err := co.ChooseDelivery(sid, services.DeliveryCourier); err != nil {
		t.Fatal(err)
	}

	if _, err := co.Dispatch(sid, dina()); err != nil {
		t.Fatal(err)
	}
	tx, err := txRepo.GetByOrderID(gw.lastOrder)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tx.DeliveryAddressJSON, "Bandung") {
		t.Fatalf("default address should be attached, got %q", tx.DeliveryAddressJSON)
	}
	if tx.DeliveryStatus != domain.DeliveryPackaging {
		t.Fatalf("want packaging, got %q", tx.DeliveryStatus)
	}

	// stock reserved up front: 10 -> 9
	var stock int
	if err := db.Get(&stock, `SELECT stock FROM licenses WHERE project_id='prj-landing' AND title='commercial'`); err != nil {
		t.Fatal(err)
	}
	if stock != 9 {
		t.Fatalf("want stock 9, got %d", stock)
	}
}

func TestDispatch_CourierNeedsDefaultAddress(t *testing.T) {
	db := memdb(t)
	gw := &fakeGateway{token: "tok"}
	co, _, _ := newCheckout(db, gw)
	sid := "sess-noaddr"

	if _, err := co.OpenPreview(sid, "prj-landing"); err != nil {
		t.Fatal(err)
	}
	if err := co.SelectLicense(sid, "personal"); err != nil {
		t.Fatal(err)
	}
	if err := co.ChooseDelivery(sid, services.DeliveryCourier); err != nil {
		t.Fatal(err)
	}

	_, err := co.Dispatch(sid, bayu())
	var verr *services.ValidationError
	if !errors.As(err, &verr) || !strings.Contains(verr.Message, "No default delivery address") {
		t.Fatalf("want missing-address guard, got %v", err)
	}
	if gw.calls != 0 {
		t.Fatal("address guard must fire before the gateway")
	}
}

func TestSelectLicense_ResetsDelivery(t *testing.T) {
	db := memdb(t)
	co, _, _ := newCheckout(db, &fakeGateway{token: "tok"})
	sid := "sess-reset"

	if _, err := co.OpenPreview(sid, "prj-landing"); err != nil {
		t.Fatal(err)
	}
	if err := co.SelectLicense(sid, "personal"); err != nil {
		t.Fatal(err)
	}
	if err := co.ChooseDelivery(sid, services.DeliveryDownload); err != nil {
		t.Fatal(err)
	}
	if err := co.SelectLicense(sid, "commercial"); err != nil {
		t.Fatal(err)
	}
	if s := co.Current(sid); s.Delivery != "" {
		t.Fatalf("delivery must reset on license change, got %q", s.Delivery)
	}

	if err := co.SelectLicense(sid, "enterprise"); err == nil {
		t.Fatal("unknown license title must be rejected")
	}
}

func TestFreeClaim_SocialGate(t *testing.T) {
	db := memdb(t)
	gw := &fakeGateway{token: "tok"}
	co, txRepo, social := newCheckout(db, gw)
	sid := "sess-free"
	u := dina()

	if _, err := co.OpenPreview(sid, "prj-portfolio"); err != nil {
		t.Fatal(err)
	}
	if err := co.SelectLicense(sid, "free"); err != nil {
		t.Fatal(err)
	}
	// physical delivery is not offered for the free tier
	if err := co.ChooseDelivery(sid, services.DeliveryCourier); err == nil {
		t.Fatal("courier must be rejected for the free license")
	}
	if err := co.ChooseDelivery(sid, services.DeliveryDownload); err != nil {
		t.Fatal(err)
	}

	res, err := co.Dispatch(sid, u)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Free || res.Social.AllVerified() {
		t.Fatalf("want unverified free-claim result, got %+v", res)
	}
	if gw.calls != 0 {
		t.Fatal("free path must never open a gateway session")
	}

	// gate closed: no follows yet
	if _, err := co.Claim(sid, u); err == nil {
		t.Fatal("claim must require both follows")
	}

	// one follow is not enough
	if _, err := social.Follow(u.ID, "tiktok"); err != nil {
		t.Fatal(err)
	}
	if _, err := co.Claim(sid, u); err == nil {
		t.Fatal("claim must require both follows, not one")
	}

	if _, err := social.Follow(u.ID, "instagram"); err != nil {
		t.Fatal(err)
	}
	claim, err := co.Claim(sid, u)
	if err != nil {
		t.Fatal(err)
	}
	if !claim.Success || !strings.HasPrefix(claim.RedirectURL, "/payment/status/") {
		t.Fatalf("bad claim result: %+v", claim)
	}

	list, err := txRepo.ListByUser(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Amount != 0 || list[0].Status != domain.StatusSuccess {
		t.Fatalf("want one successful zero-amount transaction, got %+v", list)
	}
}

func TestDispatch_FailureClearsProcessing(t *testing.T) {
	db := memdb(t)
	co, _, _ := newCheckout(db, &fakeGateway{token: "tok"})
	sid := "sess-procflag"

	if _, err := co.OpenPreview(sid, "prj-portfolio"); err != nil {
		t.Fatal(err)
	}
	if err := co.SelectLicense(sid, "free"); err != nil {
		t.Fatal(err)
	}
	if err := co.ChooseDelivery(sid, services.DeliveryDownload); err != nil {
		t.Fatal(err)
	}

	// the social lookup fails after validation has started
	db.Close()
	if _, err := co.Dispatch(sid, dina()); err == nil {
		t.Fatal("dispatch must surface the lookup failure")
	}
	s := co.Current(sid)
	if s.State != services.StateIdle || s.Processing {
		t.Fatalf("failed dispatch must reset the session, got state=%q processing=%v", s.State, s.Processing)
	}
}

func TestCheckout_ConcurrentSessionAccess(t *testing.T) {
	db := memdb(t)
	co, _, _ := newCheckout(db, &fakeGateway{token: "tok"})
	sid := "sess-shared"

	if _, err := co.OpenPreview(sid, "prj-landing"); err != nil {
		t.Fatal(err)
	}

	titles := []string{"personal", "commercial"}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		title := titles[i%2]
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = co.SelectLicense(sid, title)
		}()
		go func() {
			defer wg.Done()
			_ = co.ChooseDelivery(sid, services.DeliveryDownload)
		}()
		go func() {
			defer wg.Done()
			_, _ = co.Dispatch(sid, dina())
		}()
	}
	wg.Wait()

	s := co.Current(sid)
	if s.License == nil || (s.License.Title != "personal" && s.License.Title != "commercial") {
		t.Fatalf("session ended in an inconsistent state: %+v", s)
	}
}

func TestClosePreview_ClearsState(t *testing.T) {
	db := memdb(t)
	co, _, _ := newCheckout(db, &fakeGateway{token: "tok"})
	sid := "sess-close"

	if _, err := co.OpenPreview(sid, "prj-landing"); err != nil {
		t.Fatal(err)
	}
	if err := co.SelectLicense(sid, "personal"); err != nil {
		t.Fatal(err)
	}
	co.ClosePreview(sid)

	_, err := co.Dispatch(sid, dina())
	var verr *services.ValidationError
	if !errors.As(err, &verr) || verr.Message != "Invalid project selection" {
		t.Fatalf("closed preview must leave nothing behind, got %v", err)
	}
}
