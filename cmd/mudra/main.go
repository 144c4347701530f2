package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address for the API and settings UI")
	dbPath := flag.String("db", "", "SQLite database path (default ~/.mudra/mudra.db)")
	camera := flag.Int("camera", capture.DefaultCamera, "camera device index")
	fps := flag.Int("fps", capture.DefaultFPS, "capture frame rate")
	pluginDir := flag.String("plugins", "", "plugin directory (default ~/.mudra/plugins)")
	replay := flag.String("replay", "", "replay a recorded tracker session instead of the live camera")
	staticDir := flag.String("static", "", "settings UI directory (default: autodetect)")
	headless := flag.Bool("headless", false, "run without the system tray")
	flag.Parse()

	fmt.Println("Mudra - Hand Gesture Cursor Control")

	if *dbPath == "" || *pluginDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dataDir := filepath.Join(homeDir, ".mudra")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		if *dbPath == "" {
			*dbPath = filepath.Join(dataDir, "mudra.db")
		}
		if *pluginDir == "" {
			*pluginDir = filepath.Join(dataDir, "plugins")
			if err := os.MkdirAll(*pluginDir, 0755); err != nil {
				log.Fatalf("Failed to create plugin directory: %v", err)
			}
		}
	}

	// Find the settings UI directory
	webDir := *staticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	cfg := app.Config{
		DBPath:    *dbPath,
		StaticDir: webDir,
		PluginDir: *pluginDir,
		Camera:    *camera,
		FPS:       *fps,
		Replay:    *replay,
	}

	var tr *tray.Tray
	if !*headless {
		tr = tray.New()
		cfg.OnUpdate = func(u control.Update) {
			tr.SetState(u.State)
		}
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	// Tracking is on from launch; the tray or the API pause it.
	if err := a.Session().Start(); err != nil {
		log.Printf("Failed to start tracking: %v", err)
	}

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := a.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if *headless {
		<-sigCh
		fmt.Println("Shutting down")
		return
	}

	tr.OnToggle(func(enabled bool) {
		if enabled {
			if err := a.Session().Start(); err != nil {
				log.Printf("Failed to resume tracking: %v", err)
			}
		} else {
			a.Session().Stop()
		}
	})
	tr.OnSettings(func() {
		if err := openBrowser(settingsURL(*addr)); err != nil {
			log.Printf("Failed to open settings: %v", err)
		}
	})
	tr.OnQuit(func() {
		a.Session().Stop()
	})

	go func() {
		<-sigCh
		tr.Quit()
	}()

	// Blocks until the quit menu item or a signal.
	tr.Run()
	fmt.Println("Shutting down")
}

// settingsURL turns a listen address into something a browser can open.
func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens the URL with the platform's default browser.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
