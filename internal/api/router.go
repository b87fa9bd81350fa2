package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/nalepka/internal/claim"
	"github.com/erazemk/nalepka/internal/model"
	"github.com/erazemk/nalepka/internal/settlement"
)

// Config carries the wiring the router needs beyond the database.
type Config struct {
	JWTSecret     string
	WebhookSecret string
	PublicBaseURL string
	Claims        *claim.Service
	Reconciler    *settlement.Reconciler
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, cfg Config) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: cfg.JWTSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	scanHandler := &ScanHandler{DB: db, Claims: cfg.Claims}
	tasksHandler := &TasksHandler{DB: db}
	shopHandler := &ShopHandler{DB: db}
	ordersHandler := &OrdersHandler{DB: db, Reconciler: cfg.Reconciler}
	qrcodesHandler := &QRCodesHandler{DB: db, PublicBaseURL: cfg.PublicBaseURL}
	webhookHandler := &WebhookHandler{Reconciler: cfg.Reconciler, Secret: cfg.WebhookSecret}

	authMW := AuthMiddleware(cfg.JWTSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/webhooks/payment", webhookHandler.PaymentCompleted)

	// Authenticated.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Items.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Scanning and claims.
	mux.Handle("POST /api/scan", authMW(http.HandlerFunc(scanHandler.Resolve)))
	mux.Handle("POST /api/scan/link", authMW(http.HandlerFunc(scanHandler.Link)))
	mux.Handle("POST /api/items/{id}/claim", authMW(http.HandlerFunc(scanHandler.Claim)))
	mux.Handle("DELETE /api/items/{id}/claim", authMW(http.HandlerFunc(scanHandler.Unclaim)))

	// Maintenance tasks.
	mux.Handle("GET /api/tasks", authMW(http.HandlerFunc(tasksHandler.List)))
	mux.Handle("POST /api/tasks", authMW(http.HandlerFunc(tasksHandler.Create)))
	mux.Handle("POST /api/tasks/{id}/complete", authMW(http.HandlerFunc(tasksHandler.Complete)))
	mux.Handle("DELETE /api/tasks/{id}", authMW(http.HandlerFunc(tasksHandler.Delete)))

	// Shop.
	mux.Handle("GET /api/products", authMW(http.HandlerFunc(shopHandler.ListProducts)))
	mux.Handle("POST /api/products", authMW(requireAdmin(http.HandlerFunc(shopHandler.CreateProduct))))
	mux.Handle("PUT /api/products/{id}", authMW(requireAdmin(http.HandlerFunc(shopHandler.UpdateProduct))))
	mux.Handle("GET /api/cart", authMW(http.HandlerFunc(shopHandler.GetCart)))
	mux.Handle("PUT /api/cart", authMW(http.HandlerFunc(shopHandler.SetCartItem)))
	mux.Handle("DELETE /api/cart", authMW(http.HandlerFunc(shopHandler.ClearCart)))

	// Orders (customer view).
	mux.Handle("GET /api/orders", authMW(http.HandlerFunc(ordersHandler.List)))
	mux.Handle("GET /api/orders/{id}", authMW(http.HandlerFunc(ordersHandler.Get)))

	// Admin.
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))
	mux.Handle("POST /api/qrcodes/batch", authMW(requireAdmin(http.HandlerFunc(qrcodesHandler.CreateBatch))))
	mux.Handle("GET /api/qrcodes", authMW(requireAdmin(http.HandlerFunc(qrcodesHandler.List))))
	mux.Handle("GET /api/qrcodes/{key}/image", authMW(requireAdmin(http.HandlerFunc(qrcodesHandler.GetImage))))
	mux.Handle("DELETE /api/qrcodes/{key}", authMW(requireAdmin(http.HandlerFunc(qrcodesHandler.Delete))))
	mux.Handle("GET /api/admin/orders/unfulfilled", authMW(requireAdmin(http.HandlerFunc(ordersHandler.ListUnfulfilled))))
	mux.Handle("POST /api/admin/orders/{id}/fulfill", authMW(requireAdmin(http.HandlerFunc(ordersHandler.RetryFulfillment))))

	return mux
}
