package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/greenpoints/internal/config"
	"github.com/dukerupert/greenpoints/internal/database"
	"github.com/dukerupert/greenpoints/internal/email"
	"github.com/dukerupert/greenpoints/internal/handler"
	"github.com/dukerupert/greenpoints/internal/middleware"
	"github.com/dukerupert/greenpoints/internal/notify"
	"github.com/dukerupert/greenpoints/internal/pointsync"
	"github.com/dukerupert/greenpoints/internal/redemption"
	"github.com/dukerupert/greenpoints/internal/store"
	ws "github.com/dukerupert/greenpoints/internal/websocket"
)

// loginLimit is the number of login attempts allowed per IP per minute.
const loginLimit = 10

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	mailer         *notify.EmailNotifier
	originPatterns []string
	authH          *handler.AuthHandler
	settingsH      *handler.SettingsHandler
	centerH        *handler.CenterHandler
	wasteH         *handler.WasteHandler
	materialH      *handler.MaterialHandler
	cleanupEventH  *handler.CleanupEventHandler
	rewardH        *handler.RewardHandler
	redemptionH    *handler.RedemptionHandler
	ledgerH        *handler.LedgerHandler
	sessionStore   *store.SessionStore
	userStore      *store.UserStore
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	settingsStore := store.NewSettingsStore(db)
	centerStore := store.NewCenterStore(db)
	wasteStore := store.NewWasteStore(db)
	materialStore := store.NewMaterialStore(db)
	eventStore := store.NewCleanupEventStore(db)
	rewardStore := store.NewRewardStore(db)
	ledgerStore := store.NewLedgerStore(db)

	// Redemption decisions reach the admin channel and, when configured,
	// the requesting user's inbox.
	mailer := notify.NewEmailNotifier(emailClient, userStore, settingsStore, logger.With("component", "email_notifier"))
	notifier := notify.Multi{hub, mailer}

	redemptions := redemption.NewService(db, notifier, logger.With("component", "redemption"))
	syncer := pointsync.NewSyncer(db, cfg.SyncConcurrency, logger.With("component", "pointsync"))

	return &Server{
		db:             db,
		hub:            hub,
		mailer:         mailer,
		originPatterns: originPatterns(cfg.BaseURL),
		authH: handler.NewAuthHandler(userStore, sessionStore, cfg.SessionDuration(),
			strings.HasPrefix(cfg.BaseURL, "https://"), logger.With("component", "auth")),
		settingsH:     handler.NewSettingsHandler(settingsStore, hub, logger.With("component", "settings")),
		centerH:       handler.NewCenterHandler(centerStore, userStore, hub, logger.With("component", "center")),
		wasteH:        handler.NewWasteHandler(wasteStore, hub, logger.With("component", "waste")),
		materialH:     handler.NewMaterialHandler(materialStore, centerStore, syncer, hub, logger.With("component", "material")),
		cleanupEventH: handler.NewCleanupEventHandler(eventStore, centerStore, hub, logger.With("component", "cleanup_event")),
		rewardH:       handler.NewRewardHandler(rewardStore, centerStore, redemptions, hub, logger.With("component", "reward")),
		redemptionH:   handler.NewRedemptionHandler(redemptions, logger.With("component", "redemption")),
		ledgerH:       handler.NewLedgerHandler(ledgerStore, userStore, hub, logger.With("component", "ledger")),
		sessionStore:  sessionStore,
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(loginLimit, time.Minute),
		logger:        logger,
	}
}

// originPatterns allows websocket upgrades from the configured public host.
func originPatterns(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// WaitForEmails blocks until queued redemption emails have been delivered
// or given up on.
func (s *Server) WaitForEmails() {
	s.mailer.Wait()
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.Handle("POST /login", middleware.RateLimit(s.rateLimiter)(http.HandlerFunc(s.authH.Login)))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	logged := middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
	return middleware.RequestID(logged)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	version, err := database.Version(s.db)
	if err != nil {
		s.logger.Error("health check version", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "schema_version": version})
}

func admin(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(h) }
func staff(h http.HandlerFunc) http.Handler { return middleware.RequireStaff(h) }

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Any authenticated user
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("GET /api/me/redemptions", s.redemptionH.Mine)
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("GET /api/rewards/{id}", s.rewardH.Get)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)
	mux.HandleFunc("GET /api/users/{id}/points", s.ledgerH.Balance)
	mux.HandleFunc("GET /api/users/{id}/transactions", s.ledgerH.Transactions)

	// Settings
	mux.Handle("GET /api/settings", admin(s.settingsH.List))
	mux.Handle("PUT /api/settings/{key}", admin(s.settingsH.Update))

	// Centers
	mux.Handle("GET /api/centers", admin(s.centerH.List))
	mux.Handle("POST /api/centers", admin(s.centerH.Create))
	mux.Handle("GET /api/centers/{id}", admin(s.centerH.Get))
	mux.Handle("PUT /api/centers/{id}", admin(s.centerH.Update))
	mux.Handle("DELETE /api/centers/{id}", admin(s.centerH.Delete))
	mux.Handle("POST /api/centers/{id}/approve", admin(s.centerH.Approve))
	mux.Handle("POST /api/centers/{id}/reject", admin(s.centerH.Reject))

	// Waste catalog
	mux.Handle("GET /api/waste-types", admin(s.wasteH.ListTypes))
	mux.Handle("POST /api/waste-types", admin(s.wasteH.CreateType))
	mux.Handle("PUT /api/waste-types/{id}", admin(s.wasteH.UpdateType))
	mux.Handle("DELETE /api/waste-types/{id}", admin(s.wasteH.DeleteType))
	mux.Handle("GET /api/waste-types/{id}/items", admin(s.wasteH.ListItems))
	mux.Handle("POST /api/waste-types/{id}/items", admin(s.wasteH.CreateItem))
	mux.Handle("PUT /api/waste-items/{id}", admin(s.wasteH.UpdateItem))
	mux.Handle("DELETE /api/waste-items/{id}", admin(s.wasteH.DeleteItem))

	// Materials and points
	mux.Handle("GET /api/materials", admin(s.materialH.List))
	mux.Handle("POST /api/materials", admin(s.materialH.Create))
	mux.Handle("PUT /api/materials/{id}", admin(s.materialH.Update))
	mux.Handle("DELETE /api/materials/{id}", admin(s.materialH.Delete))
	mux.Handle("POST /api/materials/{id}/sync", admin(s.materialH.Sync))
	mux.Handle("GET /api/centers/{id}/point-configs", staff(s.materialH.ListPointConfigs))
	mux.Handle("PUT /api/point-configs/{id}", staff(s.materialH.UpdatePointConfig))
	mux.Handle("GET /api/bonus-configs", admin(s.materialH.ListBonusConfigs))
	mux.Handle("POST /api/bonus-configs", admin(s.materialH.CreateBonusConfig))
	mux.Handle("DELETE /api/bonus-configs/{id}", admin(s.materialH.DeleteBonusConfig))

	// Cleanup events
	mux.Handle("GET /api/cleanup-events", staff(s.cleanupEventH.List))
	mux.Handle("POST /api/cleanup-events", staff(s.cleanupEventH.Create))
	mux.Handle("GET /api/cleanup-events/{id}", staff(s.cleanupEventH.Get))
	mux.Handle("PUT /api/cleanup-events/{id}", staff(s.cleanupEventH.Update))
	mux.Handle("DELETE /api/cleanup-events/{id}", staff(s.cleanupEventH.Delete))

	// Rewards
	mux.Handle("POST /api/rewards", staff(s.rewardH.Create))
	mux.Handle("PUT /api/rewards/{id}", staff(s.rewardH.Update))
	mux.Handle("DELETE /api/rewards/{id}", staff(s.rewardH.Delete))
	mux.Handle("POST /api/rewards/{id}/toggle-active", staff(s.rewardH.ToggleActive))

	// Redemptions; per-reward authorization happens in the service
	mux.Handle("GET /api/redemptions", staff(s.redemptionH.List))
	mux.Handle("POST /api/redemptions/{id}/approve", staff(s.redemptionH.Approve))
	mux.Handle("POST /api/redemptions/{id}/reject", staff(s.redemptionH.Reject))
	mux.Handle("POST /api/redemptions/bulk-approve", staff(s.redemptionH.BulkApprove))
	mux.Handle("POST /api/redemptions/bulk-reject", staff(s.redemptionH.BulkReject))
	mux.Handle("DELETE /api/redemptions/{id}", staff(s.redemptionH.Delete))

	// Ledger
	mux.Handle("POST /api/users/{id}/adjustments", admin(s.ledgerH.Adjust))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.originPatterns))
}
