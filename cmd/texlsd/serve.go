package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/internal/config"
	"github.com/mava/digestif/internal/logging"
	"github.com/mava/digestif/lspcore"
	"github.com/mava/digestif/server"
)

var (
	serveTransport     string
	serveWebSocketAddr string
	serveDictionaryDir string
	serveMaxDepth      int
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"start"},
	Short:   "Start the language server",
	RunE:    runServe,
}

func init() {
	cfg, _ := config.Load()

	defaultTransport, defaultAddr, defaultDictDir, defaultMaxDepth := "stdio", "127.0.0.1:7737", "", 0
	if cfg != nil {
		defaultTransport = cfg.Transport
		defaultAddr = cfg.WebSocketAddr
		defaultDictDir = cfg.DictionaryDir
		defaultMaxDepth = cfg.MaxIncludeDepth
	}

	serveCmd.Flags().StringVar(&serveTransport, "transport", defaultTransport, `how to expose the server: "stdio" or "websocket"`)
	serveCmd.Flags().StringVar(&serveWebSocketAddr, "websocket-addr", defaultAddr, "listen address when --transport=websocket")
	serveCmd.Flags().StringVar(&serveDictionaryDir, "dictionary-dir", defaultDictDir, "directory of override/extension dictionary TOML files")
	serveCmd.Flags().IntVar(&serveMaxDepth, "max-include-depth", defaultMaxDepth, "maximum \\input nesting depth (0 selects the built-in default)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	core := lspcore.New(serveDictionaryDir, serveMaxDepth, cfg.SearchPath)

	watcher, err := dictionary.NewWatcher(core.Loader)
	if err != nil {
		logging.Warnw("dictionary watcher disabled", "error", err)
	} else if watcher != nil {
		defer watcher.Close()
	}

	transport := server.NewTransport(core)

	switch serveTransport {
	case "stdio":
		logging.Infow("starting texlsd", "transport", "stdio")
		return transport.RunStdio()
	case "websocket":
		return runWebSocket(transport)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or websocket)", serveTransport)
	}
}

func runWebSocket(transport *server.Transport) error {
	logging.Infow("starting texlsd", "transport", "websocket", "addr", serveWebSocketAddr)

	errChan := make(chan error, 1)
	go func() {
		errChan <- transport.ListenWebSocket(serveWebSocketAddr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
		logging.Infow("shutting down")
		return nil
	}
}
