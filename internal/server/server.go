package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/kossichris/jeu-fa-api/internal/config"
	"github.com/kossichris/jeu-fa-api/internal/database"
	"github.com/kossichris/jeu-fa-api/internal/fadu"
	"github.com/kossichris/jeu-fa-api/internal/game"
)

type Server struct {
	port        int
	cfg         config.Config
	db          database.Service
	hub         *ConnectionHub
	registry    *SessionRegistry
	queue       *MatchmakingQueue
	persistence *PersistenceManager
	limiter     *RateLimiter
	health      *ConnectionHealth
	catalog     *fadu.Deck
}

func NewServer() (*Server, *http.Server) {
	cfg := config.Load()

	// Initialize database
	dbService := database.New()

	// Run migrations
	if err := runMigrations(dbService.DB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	persistence := NewPersistenceManager(dbService.DB())
	registry := NewSessionRegistry(cfg.Rules())

	// Load persisted state from database
	if err := loadPersistedState(persistence, registry); err != nil {
		log.Printf("Warning: Failed to load persisted state: %v", err)
		// Don't fatal - allow server to start with empty state
	}

	srv := &Server{
		port:        cfg.Port,
		cfg:         cfg,
		db:          dbService,
		hub:         NewConnectionHub(),
		registry:    registry,
		queue:       NewMatchmakingQueue(registry),
		persistence: persistence,
		limiter:     NewRateLimiter(20, time.Second),
		health:      NewConnectionHealth(),
		catalog:     fadu.NewDeck(rand.New(rand.NewSource(time.Now().UnixNano()))),
	}

	// Start background tasks
	go srv.periodicSaveTask()
	go srv.cleanupTask()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", srv.port),
		Handler:      srv.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return srv, httpServer
}

// runMigrations applies database migrations using goose
func runMigrations(db *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "./db/migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Println("Database migrations applied successfully")
	return nil
}

// loadPersistedState restores live sessions from the database
func loadPersistedState(pm *PersistenceManager, registry *SessionRegistry) error {
	snaps, err := pm.LoadActiveSnapshots()
	if err != nil {
		return fmt.Errorf("failed to load games: %w", err)
	}

	for _, snap := range snaps {
		registry.Restore(snap)
		log.Printf("Restored game: %s (phase: %s, turn %d)", snap.ID, snap.Phase, snap.Turn)
	}

	log.Printf("Loaded %d active games", len(snaps))
	return nil
}

// dispatchGameEvents fans session events out to the game's sockets. Called
// after the registry lock is released.
func (s *Server) dispatchGameEvents(gameID string, events []game.Event) {
	for _, ev := range events {
		s.hub.Broadcast(ScopeGame, gameID, string(ev.Type), ev.Data)
	}
}

// persistMutation saves the snapshot and any turn results the mutation
// produced. Failures are logged, never surfaced to the player.
func (s *Server) persistMutation(snap *game.Snapshot, events []game.Event) {
	if s.persistence == nil || snap == nil {
		return
	}
	if err := s.persistence.SaveSnapshot(snap); err != nil {
		log.Printf("Failed to persist game %s: %v", snap.ID, err)
	}
	for _, ev := range events {
		if ev.Type != game.EventTurnResult {
			continue
		}
		rec, ok := ev.Data["result"].(game.TurnRecord)
		if !ok {
			continue
		}
		if err := s.persistence.SaveTurnRecord(snap.ID, rec); err != nil {
			log.Printf("Failed to persist turn %d of game %s: %v", rec.Turn, snap.ID, err)
		}
	}
}

// playerName resolves a display name, falling back to a placeholder when the
// player table is unavailable or the ID is unregistered.
func (s *Server) playerName(id int) string {
	if s.persistence != nil {
		if name, err := s.persistence.GetPlayerName(id); err == nil {
			return name
		}
	}
	return fmt.Sprintf("Player %d", id)
}

// periodicSaveTask persists every live session twice a minute, catching
// state the per-mutation saves may have missed.
func (s *Server) periodicSaveTask() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if s.persistence == nil {
			continue
		}
		saved := 0
		for _, snap := range s.registry.ActiveSnapshots() {
			if err := s.persistence.SaveSnapshot(snap); err != nil {
				log.Printf("Periodic save failed for game %s: %v", snap.ID, err)
			} else {
				saved++
			}
		}
		log.Printf("Periodic save completed: %d games persisted", saved)
	}
}

// cleanupTask prunes finished games from the database and closes websockets
// that went silent.
func (s *Server) cleanupTask() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		for _, id := range s.health.InactiveConnections(10 * time.Minute) {
			s.hub.Close(id, "Inactive connection")
			s.health.RemoveConnection(id)
			s.limiter.RemoveConnection(id)
		}
		s.limiter.Cleanup()

		if s.persistence != nil {
			deleted, err := s.persistence.CleanupOldGames(24 * time.Hour)
			if err != nil {
				log.Printf("Cleanup task failed: %v", err)
				continue
			}
			if deleted > 0 {
				log.Printf("Cleanup task: deleted %d old finished games", deleted)
			}
		}
	}
}

// Shutdown saves all sessions and closes connections before the HTTP server
// stops accepting traffic.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Saving all games before shutdown...")
	if s.persistence != nil {
		for _, snap := range s.registry.ActiveSnapshots() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := s.persistence.SaveSnapshot(snap); err != nil {
				log.Printf("Shutdown save failed for game %s: %v", snap.ID, err)
			}
		}
	}

	s.hub.CloseAll("Server shutting down")

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
