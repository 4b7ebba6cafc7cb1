package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrsinham/retinascan/cmd/retinascan/app"
	"github.com/mrsinham/retinascan/internal/api"
	"github.com/mrsinham/retinascan/internal/config"
	"github.com/mrsinham/retinascan/internal/session"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Define command-line flags
	configPath := flag.String("config", "", "Load configuration from YAML file")
	serverURL := flag.String("server", "", "Base URL of the analysis service (overrides config)")
	logFile := flag.String("log-file", "", "Write structured logs to this file (overrides config)")
	reportDir := flag.String("report-dir", "", "Directory for exported PDF reports (overrides config)")

	help := flag.Bool("help", false, "Show help message")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("retinascan %s\n", version)
		os.Exit(0)
	}

	// Show help
	if *help {
		printHelp()
		os.Exit(0)
	}

	// Load configuration; flags win over the file
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *reportDir != "" {
		cfg.ReportDir = *reportDir
	}

	// The TUI owns the terminal, so logs go to a file or nowhere
	log := zerolog.Nop()
	if cfg.LogFile != "" {
		w, err := openLogFile(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		log = zerolog.New(w).With().Timestamp().Logger()
	}

	sessionPath, err := session.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := app.Options{
		Client:    api.New(cfg.ServerURL, log),
		Sessions:  session.NewFileRepository(sessionPath),
		ReportDir: cfg.ReportDir,
		Log:       log,
	}

	if err := app.Run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openLogFile(path string) (io.Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func printHelp() {
	fmt.Println("retinascan")
	fmt.Println("==========")
	fmt.Println()
	fmt.Println("Terminal client for the RetinaScan AI diabetic retinopathy service.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  retinascan [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --server <URL>      Base URL of the analysis service (default: http://localhost:5000)")
	fmt.Println("  --config <FILE>     Load configuration from YAML file")
	fmt.Println("  --log-file <FILE>   Write structured logs to this file (disabled by default)")
	fmt.Println("  --report-dir <DIR>  Directory for exported PDF reports (default: 'reports')")
	fmt.Println("  --version           Show version")
	fmt.Println("  --help              Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Connect to a local analysis service")
	fmt.Println("  retinascan")
	fmt.Println()
	fmt.Println("  # Connect to a remote service with logging enabled")
	fmt.Println("  retinascan --server https://retinascan.example.org --log-file retinascan.log")
	fmt.Println()
	fmt.Println("Workflow:")
	fmt.Println("  Sign in (or create an account), enter the patient vitals, attach a")
	fmt.Println("  retinal scan (.png, .jpg or .dcm) and run the analysis. Past records")
	fmt.Println("  can be searched, filtered by severity stage, exported as PDF reports")
	fmt.Println("  and deleted.")
}
