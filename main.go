// Command sokoban starts the Sokoban push server.
//
// It supports these commands:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – plays a level in the terminal, reading moves from stdin
//  4. "validate" – checks level files and exits non-zero on the first invalid one
//
// Flags control host/port, level and session storage, debug logging, and
// optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/sokoban/api"
	"github.com/wricardo/sokoban/game/config"
	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/session"
	"github.com/wricardo/sokoban/transport/mcp"
	"github.com/wricardo/sokoban/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sokoban Push Server"
)

// options holds the resolved values of the global flags.
type options struct {
	host        string
	port        int
	configDir   string
	sessionsDir string
	databaseURL string
	watch       bool

	ngrokEnabled bool
	ngrokAuth    string
	ngrokDomain  string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		host:         cmd.String("host"),
		port:         int(cmd.Int("port")),
		configDir:    cmd.String("config-dir"),
		sessionsDir:  cmd.String("sessions-dir"),
		databaseURL:  cmd.String("database-url"),
		watch:        cmd.Bool("watch"),
		ngrokEnabled: cmd.Bool("ngrok"),
		ngrokAuth:    cmd.String("ngrok-auth"),
		ngrokDomain:  cmd.String("ngrok-domain"),
	}
}

// newApp builds the root command.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "sokoban",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing level files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory for session files when no database is configured",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection string for session persistence",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload level files when they change on disk",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServer,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, reusing a running API or starting an internal one",
				Action:  runStdioMCP,
			},
			{
				Name:      "play",
				Usage:     "Play a level in the terminal",
				ArgsUsage: "[level]",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "tick",
						Value: 100 * time.Millisecond,
						Usage: "Tick interval",
					},
				},
				Action: runPlay,
			},
			{
				Name:      "validate",
				Usage:     "Validate level files (defaults to every file in --config-dir)",
				ArgsUsage: "[file...]",
				Action:    runValidate,
			},
		},
	}
}

// main loads .env, then runs the selected command.
func main() {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// services bundles everything a server run owns.
type services struct {
	game        service.GameService
	sessions    *session.Manager
	configs     *config.Manager
	persistence session.SessionPersistence
	watcher     *config.Watcher
}

// Close stops the watcher and saves every session.
func (s *services) Close() {
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			log.Printf("Warning: Failed to stop config watcher: %v", err)
		}
	}
	if err := s.sessions.CheckpointAll(); err != nil {
		log.Printf("Warning: Failed to save sessions on shutdown: %v", err)
	}
	if closer, ok := s.persistence.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Printf("Warning: Failed to close session store: %v", err)
		}
	}
}

// initializeServices wires session/config managers and the game service.
// It also starts background routines that prune stale sessions and keep
// memory in sync with the session store until ctx is done.
func initializeServices(ctx context.Context, opts options) (*services, error) {
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	var persistence session.SessionPersistence
	if opts.databaseURL != "" {
		persistence, err = session.NewPostgresPersistence(opts.databaseURL, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to connect session database: %w", err)
		}
		log.Println("Persisting sessions to PostgreSQL")
	} else {
		persistence, err = session.NewFilePersistence(opts.sessionsDir, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		log.Printf("Persisting sessions to %s", opts.sessionsDir)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)

	if loaded, err := sessionManager.LoadAll(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	} else if loaded > 0 {
		log.Printf("Restored %d sessions", loaded)
	}

	svc := &services{
		game:        service.NewGameService(sessionManager, configManager),
		sessions:    sessionManager,
		configs:     configManager,
		persistence: persistence,
	}

	if opts.watch {
		watcher, err := config.NewWatcher(configManager)
		if err != nil {
			log.Printf("Warning: Level watcher disabled: %v", err)
		} else {
			svc.watcher = watcher
			go logLevelChanges(watcher)
		}
	}

	go sessionCleanupRoutine(ctx, sessionManager)
	go storeSyncRoutine(ctx, sessionManager, persistence)

	return svc, nil
}

func logLevelChanges(w *config.Watcher) {
	for name := range w.Events {
		log.Printf("Reloaded levels after change to %s", filepath.Base(name))
	}
}

// sessionCleanupRoutine periodically checkpoints and evicts sessions that have
// not been accessed within the retention window. Evicted sessions stay in the
// store and are restored on their next request.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := manager.EvictIdle(24 * time.Hour)
			if len(evicted) == 0 {
				continue
			}
			solved := 0
			for _, sess := range evicted {
				if sess.Solved() {
					solved++
				}
			}
			log.Printf("Evicted %d idle sessions (%d solved)", len(evicted), solved)
		}
	}
}

// storeSyncRoutine drops in-memory sessions whose stored copy was deleted.
func storeSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pruned := 0
		for _, sess := range manager.List() {
			if persistence.Exists(sess.ID) {
				continue
			}
			if err := manager.Evict(sess.ID); err == nil {
				pruned++
				log.Printf("Pruned session %s from memory (store entry deleted)", sess.ID)
			}
		}

		if pruned > 0 {
			log.Printf("Store sync: pruned %d orphaned sessions from memory", pruned)
		}
	}
}

// mcpHandler serves single MCP JSON-RPC messages over HTTP POST.
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the API at the root and the MCP endpoint at /mcp.
func newRouter(game service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(game, hub))
	mainRouter.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	log.Printf("Starting %s v%s", AppName, Version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc, err := initializeServices(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := opts.addr()
	mainRouter := newRouter(svc.game, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if opts.ngrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, opts, mainRouter)
		}()
	}

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-serveErr:
		cancel()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done.
func runNgrok(ctx context.Context, opts options, handler http.Handler) {
	if opts.ngrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// apiAvailable reports whether an API server answers at baseURL.
func apiAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses an API at --host/--port when
// one answers; otherwise it starts an internal HTTP API on a random loopback
// port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)

	// stdout belongs to the MCP protocol
	log.SetOutput(os.Stderr)

	externalURL := "http://" + opts.addr()
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	if apiAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		svc, err := initializeServices(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svc.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(svc.game, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + internalAddr
	}

	log.Printf("MCP stdio server ready (API at %s)", baseURL)
	if err := mcp.NewClient(baseURL).ServeStdio(); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runValidate loads every named level file, or every level in --config-dir,
// and reports problems. Boxes stuck in a corner away from any spot are
// reported as warnings.
func runValidate(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		dir := cmd.String("config-dir")
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read config directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && engine.IsLevelFile(entry.Name()) {
				files = append(files, filepath.Join(dir, entry.Name()))
			}
		}
	}

	failed := 0
	for _, file := range files {
		if err := validateLevelFile(cmd.Root().Writer, file); err != nil {
			fmt.Fprintf(cmd.Root().Writer, "✗ %s: %v\n", filepath.Base(file), err)
			failed++
		}
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d level files invalid", failed, len(files)), 1)
	}
	fmt.Fprintf(cmd.Root().Writer, "All %d level files valid\n", len(files))
	return nil
}

func validateLevelFile(out io.Writer, file string) error {
	level, err := engine.LoadLevelConfig(file)
	if err != nil {
		return err
	}
	ws, err := engine.BuildWorld(level)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ %s: %s (%dx%d)\n", filepath.Base(file), level.Name, ws.Bounds.Width(), ws.Bounds.Height())
	for _, pos := range engine.StuckBoxes(ws) {
		fmt.Fprintf(out, "  warning: box at (%d,%d) starts cornered away from any spot\n", pos.X, pos.Y)
	}
	return nil
}
