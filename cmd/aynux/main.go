package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/core/llm"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/dispatch"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/metrics"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/routing"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/session"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/internal/profile"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/server"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/store"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/store/db/postgres"
)

var rootCmd = &cobra.Command{
	Use:   "aynux",
	Short: "Message routing engine: routes inbound conversational messages to domain handlers.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Try to load .env from the current directory; absence is fine.
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := loadProfile()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		engine, err := buildEngine(instanceProfile)
		if err != nil {
			slog.Error("failed to build routing engine", "error", err)
			return
		}

		s, err := server.NewServer(ctx, instanceProfile, engine.orchestrator, engine.hybrid, engine.exporter)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			return
		}

		c := make(chan os.Signal, 1)
		// SIGTERM is the graceful shutdown signal used by most process
		// managers (systemd, kubernetes).
		signal.Notify(c, terminationSignals...)

		go func() {
			if err := s.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("server stopped", "error", err)
				cancel()
			}
		}()

		printGreetings(instanceProfile)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		<-ctx.Done()
	},
}

var routeCmd = &cobra.Command{
	Use:   "route [message]",
	Short: "Route one message offline and print the decision as JSON.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceProfile := loadProfile()

		engine, err := buildEngine(instanceProfile)
		if err != nil {
			return err
		}

		result := engine.hybrid.Route(cmd.Context(), "", strings.Join(args, " "))
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

// engine bundles the wired routing components.
type engine struct {
	orchestrator *dispatch.Orchestrator
	hybrid       *routing.HybridRouter
	exporter     *metrics.PrometheusExporter
}

func loadProfile() *profile.Profile {
	p := &profile.Profile{
		Mode:   viper.GetString("mode"),
		Addr:   viper.GetString("addr"),
		Driver: viper.GetString("driver"),
		DSN:    viper.GetString("dsn"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		panic(err)
	}
	return p
}

func buildEngine(p *profile.Profile) (*engine, error) {
	tenants, err := newTenantStore(p)
	if err != nil {
		return nil, err
	}

	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())

	var generator routing.Generator
	if p.IsAIEnabled() {
		svc, err := llm.NewService(&llm.Config{
			Provider: p.LLMProvider,
			Model:    p.LLMModel,
			APIKey:   p.LLMAPIKey,
			BaseURL:  p.LLMBaseURL,
			Timeout:  p.LLMTimeout,
		})
		if err != nil {
			return nil, err
		}
		generator = svc
	} else {
		slog.Warn("no LLM API key configured, classification degrades to the default domain")
		generator = disabledGenerator{}
	}

	classifier := routing.NewIntentClassifier(generator, routing.ClassifierConfig{
		DefaultDomain: p.DefaultDomain,
		Timeout:       time.Duration(p.ClassifierTimeoutSeconds) * time.Second,
		RateLimit:     p.ClassifierRateLimit,
		Burst:         1,
		Metrics:       exporter,
	})

	scorer := routing.NewKeywordScorer(routing.DefaultKeywordConfigs(), p.DefaultDomain)

	var decisionCache *routing.DecisionCache
	if p.CacheSize > 0 {
		decisionCache = routing.NewDecisionCache(routing.DecisionCacheConfig{
			Capacity: p.CacheSize,
			TTL:      time.Duration(p.CacheTTLSeconds) * time.Second,
			Metrics:  exporter,
		})
	}

	hybrid := routing.NewHybridRouter(scorer, classifier, routing.DefaultDomainDescriptions(), routing.HybridConfig{
		Thresholds: routing.Thresholds{
			KeywordConfidenceThreshold: p.KeywordThreshold,
			UseAIConfirmation:          p.UseAIConfirmation,
			AIConfirmationThreshold:    p.AIConfirmationThreshold,
		},
		Cache:   decisionCache,
		Metrics: exporter,
	})

	bypass := routing.NewBypassEvaluator(tenants, p.DefaultDomain)
	sessions := session.NewSessionIsolationResolver(session.NewMemoryContextStore())

	registry := dispatch.NewRegistry(dispatch.NewStaticHandler("general_assistant",
		"Gracias por tu mensaje. Un agente te responderá a la brevedad."))
	for _, domain := range []string{"ecommerce", "credit", "healthcare", "erp_support"} {
		registry.Register(domain, dispatch.NewStaticHandler(domain+"_agent",
			"Tu consulta fue derivada al equipo de "+domain+"."))
	}

	orchestrator := dispatch.NewOrchestrator(bypass, hybrid, sessions, registry, exporter)
	return &engine{orchestrator: orchestrator, hybrid: hybrid, exporter: exporter}, nil
}

func newTenantStore(p *profile.Profile) (store.TenantStore, error) {
	switch p.Driver {
	case "postgres":
		return postgres.NewDB(p.DSN)
	default:
		return store.NewMemoryTenantStore(nil), nil
	}
}

// disabledGenerator stands in for the LLM client when no API key is
// configured. The classifier absorbs the error and falls back.
type disabledGenerator struct{}

func (disabledGenerator) Generate(context.Context, string, float32, int) (string, error) {
	return "", errors.New("llm classification is disabled")
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "memory")
	viper.SetDefault("addr", ":28090")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", ":28090", "address of server")
	rootCmd.PersistentFlags().String("driver", "memory", "rule store driver (postgres, memory)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, flag := range []string{"mode", "addr", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("aynux")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(routeCmd)
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("Aynux routing engine started on %s\n", p.Addr)
	fmt.Printf("Rule store driver: %s\n", p.Driver)
	fmt.Printf("Mode: %s\n", p.Mode)
	if p.IsDev() {
		fmt.Fprintln(os.Stderr, "Development mode is enabled")
	}
	if !p.IsAIEnabled() {
		fmt.Fprintln(os.Stderr, "LLM classification disabled (no API key)")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
