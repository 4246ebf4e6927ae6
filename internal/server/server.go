package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/weeklycart/internal/handler"
	"github.com/dukerupert/weeklycart/internal/middleware"
	"github.com/dukerupert/weeklycart/internal/push"
	"github.com/dukerupert/weeklycart/internal/reset"
	"github.com/dukerupert/weeklycart/internal/share"
	"github.com/dukerupert/weeklycart/internal/snapshot"
	"github.com/dukerupert/weeklycart/internal/store"
	ws "github.com/dukerupert/weeklycart/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	listH       *handler.ListHandler
	settingsH   *handler.SettingsHandler
	shareH      *handler.ShareHandler
	importH     *handler.ImportHandler
	exportH     *handler.ExportHandler
	pushH       *handler.PushHandler
	snapshotH   *handler.SnapshotHandler
	scheduler   *reset.Scheduler
	snapshotMgr *snapshot.Manager
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, baseURL string, snapCfg snapshot.Config, pushCfg push.Config, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger.With("component", "websocket"))

	kv := store.NewKVStore(db)
	listStore, err := store.NewListStore(kv, logger.With("component", "list_store"))
	if err != nil {
		return nil, err
	}
	settingsStore := store.NewSettingsStore(kv)
	pushStore := store.NewPushStore(db)
	snapshotStore := store.NewSnapshotStore(db)

	var pushSvc *push.Service
	var notifier *push.Notifier
	var pushH *handler.PushHandler
	if pushCfg.Enabled() {
		pushSvc = push.NewService(pushCfg)
		notifier = push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushSvc, pushStore, logger.With("component", "push_handler"))
	}

	// The scheduler un-checks every list when a reset comes due, persists
	// the stamp, and fans the event out over websocket and push.
	scheduler := reset.NewScheduler(settingsStore, func() {
		listStore.ResetAll()
		hub.Broadcast(ws.NewMessage("reset", "completed", "", map[string]any{"auto": true}))
		if notifier != nil {
			notifier.NotifyAutoReset(len(listStore.Lists()))
		}
	}, logger.With("component", "scheduler"))

	snapshotMgr := snapshot.NewManager(snapCfg, listStore, snapshotStore, logger.With("component", "snapshot"))

	qr := share.NewQRService()

	return &Server{
		db:          db,
		hub:         hub,
		listH:       handler.NewListHandler(listStore, hub, logger.With("component", "list")),
		settingsH:   handler.NewSettingsHandler(settingsStore, scheduler, hub, logger.With("component", "settings")),
		shareH:      handler.NewShareHandler(listStore, qr, baseURL, logger.With("component", "share")),
		importH:     handler.NewImportHandler(listStore, hub, notifier, logger.With("component", "import")),
		exportH:     handler.NewExportHandler(listStore, logger.With("component", "export")),
		pushH:       pushH,
		snapshotH:   handler.NewSnapshotHandler(snapshotMgr, snapshotStore, listStore, hub, logger.With("component", "snapshot_handler")),
		scheduler:   scheduler,
		snapshotMgr: snapshotMgr,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}, nil
}

// Start brings up the background loops.
func (s *Server) Start(ctx context.Context) {
	s.scheduler.Start(ctx)
	if s.snapshotMgr.Enabled() {
		s.snapshotMgr.Start(ctx)
	}
	s.rateLimiter.StartCleanup(ctx, time.Hour)
}

// Stop tears the background loops down and waits for them.
func (s *Server) Stop() {
	s.scheduler.Stop()
	s.snapshotMgr.Stop()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// List API routes
	mux.HandleFunc("GET /api/lists", s.listH.List)
	mux.HandleFunc("POST /api/lists", s.listH.Create)
	mux.HandleFunc("PUT /api/lists/{id}", s.listH.Rename)
	mux.HandleFunc("DELETE /api/lists/{id}", s.listH.Delete)
	mux.HandleFunc("POST /api/lists/{id}/select", s.listH.Select)

	// Item API routes
	mux.HandleFunc("POST /api/lists/{id}/items", s.listH.CreateItem)
	mux.HandleFunc("PUT /api/lists/{id}/items/{item_id}", s.listH.UpdateItem)
	mux.HandleFunc("DELETE /api/lists/{id}/items/{item_id}", s.listH.DeleteItem)
	mux.HandleFunc("POST /api/lists/{id}/items/{item_id}/toggle", s.listH.ToggleItem)

	// Reset routes
	mux.HandleFunc("POST /api/lists/{id}/reset", s.listH.Reset)
	mux.HandleFunc("POST /api/reset", s.listH.ResetAll)
	mux.HandleFunc("POST /api/reset/check", s.settingsH.CheckNow)

	// Auto-reset settings
	mux.HandleFunc("GET /api/settings/auto-reset", s.settingsH.GetAutoReset)
	mux.HandleFunc("PUT /api/settings/auto-reset", s.settingsH.UpdateAutoReset)

	// Share routes, rate limited since they can hit the QR endpoint
	mux.HandleFunc("GET /api/share/url", s.rateLimitedHandler(s.shareH.URL))
	mux.HandleFunc("GET /api/share/text", s.rateLimitedHandler(s.shareH.Text))
	mux.HandleFunc("GET /api/share/qr", s.rateLimitedHandler(s.shareH.QR))

	// Export routes
	mux.HandleFunc("GET /api/export/json", s.exportH.JSON)
	mux.HandleFunc("GET /api/export/text", s.exportH.Text)

	// Import routes, rate limited since they accept untrusted payloads
	mux.HandleFunc("POST /api/import/preview", s.rateLimitedHandler(s.importH.Preview))
	mux.HandleFunc("POST /api/import/preview/file", s.rateLimitedHandler(s.importH.PreviewFile))
	mux.HandleFunc("POST /api/import", s.rateLimitedHandler(s.importH.Confirm))

	// Push notification routes
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	}

	// Snapshot routes
	mux.HandleFunc("GET /api/snapshots", s.snapshotH.List)
	mux.HandleFunc("POST /api/snapshots/now", s.snapshotH.RunNow)
	mux.HandleFunc("POST /api/snapshots/{id}/restore", s.snapshotH.Restore)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 30, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
