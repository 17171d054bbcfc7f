package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"devstore/internal/config"
	"devstore/internal/http/handlers"
	applog "devstore/internal/log"
	"devstore/internal/repos"
	"devstore/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Log and show a friendly message
			applog.Error(c, "server.error", err, nil)
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next: func(c *fiber.Ctx) bool {
			// The gateway posts its server-to-server notification without a form token.
			return c.Path() == "/api/payment/notification"
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			formTok := c.FormValue("csrf")
			applog.Security(c, "csrf.fail", map[string]any{"form": formTok})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	log.Printf("[static] /static -> ./web/static")
	log.Printf("[static] /media  -> %s", mediaDir)

	app.Static("/static", "./web/static")
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		full := filepath.Join(mediaDir, clean)
		return c.SendFile(full, true)
	})

	// ---------- App handlers ----------
	gateway := services.NewSnapGateway(cfg)
	deps := handlers.NewDeps(db, cfg, gateway)

	// Catalog snapshot: load once, then keep it fresh in the background.
	if err := deps.Catalog.Refresh(); err != nil {
		log.Fatal(err)
	}
	go deps.Catalog.Watch(context.Background(), 30*time.Second)

	// Public pages
	app.Get("/", deps.CatalogHandler.Home)
	app.Get("/projects", deps.CatalogHandler.List)
	app.Get("/project/:slug", deps.CatalogHandler.Detail)
	app.Get("/articles", deps.ArticleHandler.List)
	app.Get("/articles/:slug", deps.ArticleHandler.Detail)
	app.Get("/contact", deps.ContactHandler.Form)
	app.Post("/contact", limiter.New(limiter.Config{Max: 5, Expiration: time.Minute}), deps.ContactHandler.Submit)

	// Checkout API
	api := app.Group("/api")
	api.Post("/checkout/preview", deps.CheckoutHandler.Preview)
	api.Post("/checkout/select", deps.CheckoutHandler.SelectLicense)
	api.Post("/checkout/delivery", deps.CheckoutHandler.ChooseDelivery)
	api.Post("/checkout/close", deps.CheckoutHandler.Close)
	api.Post("/social/:platform/follow", deps.CheckoutHandler.Follow)

	// Payment & free claim
	payLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|pay"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.payment.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Post("/payment", payLimiter, deps.PaymentHandler.Pay)
	api.Post("/payment/update-status", deps.PaymentHandler.UpdateStatus)
	api.Post("/payment/notification", deps.PaymentHandler.Notification)
	api.Post("/free-transaction", payLimiter, deps.PaymentHandler.FreeClaim)

	app.Get("/payment/status/:id", deps.PaymentHandler.StatusPage)
	app.Get("/transactions", handlers.RequireUser(authSvc), deps.PaymentHandler.History)

	// Auth routes (signin throttled)
	app.Get("/auth/signin", authH.SigninForm)
	app.Post("/auth/signin", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.signin.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("signin", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Signin)
	app.Post("/logout", authH.Logout)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Get("/transactions", deps.AdminHandler.Transactions)
	admin.Post("/transactions/:id/delivery", deps.AdminHandler.UpdateDelivery)
	admin.Get("/messages", deps.AdminHandler.Messages)
	admin.Post("/messages/:id/read", deps.AdminHandler.MarkMessageRead)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
