package handlers

import (
	"devstore/internal/config"
	"devstore/internal/repos"
	"devstore/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Catalog  *services.CatalogService
	Checkout *services.CheckoutService

	CatalogHandler  *CatalogHandler
	CheckoutHandler *CheckoutHandler
	PaymentHandler  *PaymentHandler
	ArticleHandler  *ArticleHandler
	ContactHandler  *ContactHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, gateway services.PaymentGateway) *Deps {
	projRepo := repos.NewProjectRepo(db)
	addrRepo := repos.NewAddressRepo(db)
	txRepo := repos.NewTransactionRepo(db)
	socialRepo := repos.NewSocialRepo(db)
	articleRepo := repos.NewArticleRepo(db)
	contactRepo := repos.NewContactRepo(db)

	catalogSvc := services.NewCatalogService(projRepo)
	paymentSvc := services.NewPaymentService(gateway, txRepo, projRepo)
	socialSvc := services.NewSocialService(socialRepo, cfg.TikTokURL, cfg.InstagramURL)
	checkoutSvc := services.NewCheckoutService(projRepo, addrRepo, txRepo, paymentSvc, socialSvc)
	articleSvc := services.NewArticleService(articleRepo)

	return &Deps{
		Catalog:         catalogSvc,
		Checkout:        checkoutSvc,
		CatalogHandler:  &CatalogHandler{Catalog: catalogSvc},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc, Social: socialSvc},
		PaymentHandler:  &PaymentHandler{Checkout: checkoutSvc, Payments: paymentSvc, TxRepo: txRepo},
		ArticleHandler:  &ArticleHandler{Articles: articleSvc},
		ContactHandler:  &ContactHandler{Contacts: contactRepo},
		AdminHandler:    &AdminHandler{TxRepo: txRepo, Contacts: contactRepo},
	}
}
