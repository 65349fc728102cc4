// Command webagent runs the conversational agent HTTP server: a chat
// endpoint backed by a language model with web search and page fetching
// tools.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leofalp/webagent/internal/config"
	"github.com/leofalp/webagent/internal/server"
	"github.com/leofalp/webagent/internal/stats"
	"github.com/leofalp/webagent/patterns/react"
	"github.com/leofalp/webagent/pkg/logger"
	"github.com/leofalp/webagent/providers/ai"
	"github.com/leofalp/webagent/providers/ai/openai"
	"github.com/leofalp/webagent/providers/tool"
	"github.com/leofalp/webagent/providers/tool/duckduckgo"
	"github.com/leofalp/webagent/providers/tool/webfetch"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	cfgFile string
	port    int
	showVer bool
)

var rootCmd = &cobra.Command{
	Use:   "webagent",
	Short: "Tool-using conversational agent server",
	Long: `An HTTP server exposing a chat endpoint backed by a language model
that can search the web and fetch pages to answer questions with
current information.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVer {
			fmt.Printf("webagent %s (built %s)\n", Version, BuildDate)
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if port > 0 {
			cfg.Server.Port = port
		}

		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		defer logger.Sync()

		logger.Info("starting webagent",
			zap.String("version", Version),
			zap.String("addr", cfg.Addr()),
			zap.String("model", cfg.Model.Name),
		)

		return run(cfg)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	store, err := stats.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing usage store", zap.Error(err))
		}
	}()

	var provider ai.Provider = openai.NewProvider()
	if cfg.Model.APIKey != "" {
		provider = provider.WithAPIKey(cfg.Model.APIKey)
	}
	if cfg.Model.BaseURL != "" {
		provider = provider.WithBaseURL(cfg.Model.BaseURL)
	}

	catalog := tool.NewCatalogWithTools(
		duckduckgo.NewSearchTool(),
		webfetch.NewFetchTool(),
	)

	loop := react.New(provider, catalog,
		react.WithModel(cfg.Model.Name),
		react.WithSystemPrompt(cfg.Agent.SystemPrompt),
		react.WithMaxRounds(cfg.Agent.MaxRounds),
	)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: server.New(loop, store,
			server.WithRequestTimeout(time.Duration(cfg.Server.RequestTimeout)*time.Second),
			server.WithModelConfigured(cfg.Model.APIKey != ""),
		).Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
