package main

import (
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/yikzero/snapledger/internal/logger"
	"github.com/yikzero/snapledger/internal/receipt"
	"github.com/yikzero/snapledger/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("snapledger")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "snapledger.db", "Database file path")
		scannerType = fs.StringLong("scanner", "glm", "Scanner type: 'glm' or 'gemini'")
		glmKey      = fs.StringLong("glm-key", "", "Zhipu GLM API key (or set ZHIPU_API_KEY env var)")
		glmModel    = fs.StringLong("glm-model", "", "Zhipu GLM model name")
		glmURL      = fs.StringLong("glm-url", "", "Zhipu GLM API base URL")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "", "Google Gemini model name")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SNAPLEDGER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	log := logger.New()
	log.Info().Str("version", version).Msg("starting snapledger")

	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dbPath).Msg("opening database")
	}
	defer db.Close()

	var scanner scanning.Scanner
	switch *scannerType {
	case "glm":
		apiKey := *glmKey
		if apiKey == "" {
			apiKey = os.Getenv("ZHIPU_API_KEY")
		}
		// A missing key is reported per upload so the rest of the API
		// stays usable.
		if apiKey == "" {
			log.Warn().Msg("no GLM API key configured; uploads will fail until one is set")
		}
		scanner = scanning.NewGLM(apiKey, *glmModel, *glmURL)
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		scanner, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("initializing gemini scanner")
		}
	default:
		log.Fatal().Str("type", *scannerType).Msg("invalid scanner type, expected 'glm' or 'gemini'")
	}
	defer scanner.Close()

	service := receipt.NewService(db, scanner, log)
	server := receipt.NewServer(service, log)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	log.Info().Str("address", fmt.Sprintf("http://localhost%s", addr)).Str("scanner", *scannerType).Msg("server started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
}
