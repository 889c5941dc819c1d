/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the renovation program server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Build the program engine (defaults or persisted state)
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: renovation.db)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/renovation.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - program/engine.go: The state owner behind the handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mosbuild/renovation-engine/api"
	"github.com/mosbuild/renovation-engine/factory"
	"github.com/mosbuild/renovation-engine/program"
	"github.com/mosbuild/renovation-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "renovation.db", "SQLite database path")
	flag.Parse()

	// Initialize store
	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	// Achievement catalog
	achievements, err := factory.DefaultAchievements()
	if err != nil {
		log.Fatalf("Failed to build achievement catalog: %v", err)
	}

	// Build the engine and resume persisted state, if any
	engine := program.NewEngine(program.Config{
		TotalBudget:  program.NewMoney(500_000_000_000),
		Achievements: achievements,
		Store:        st,
		RewardSink: func(u program.Unlock) {
			log.Printf("Achievement unlocked: %s (%s)", u.Achievement.Title, u.Achievement.Reward)
		},
	})

	ctx := context.Background()
	if state, err := st.Load(ctx); err != nil {
		log.Fatalf("Failed to load program state: %v", err)
	} else if state != nil {
		if err := engine.Restore(ctx, *state); err != nil {
			log.Fatalf("Failed to restore program state: %v", err)
		}
		log.Printf("Resumed program: %d projects", len(state.Projects))
	}

	// Create router
	router := api.NewRouter(api.NewHandler(engine))

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🏗️ Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
