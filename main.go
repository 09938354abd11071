// lingochat — translation core for realtime multilingual chat: a
// multi-provider translation engine with fallback, caching, daily quota
// accounting, and progressive per-language message delivery.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lingochat/internal/adapters/db/sqlite"
	"lingochat/internal/adapters/detect"
	"lingochat/internal/adapters/provider/libretranslate"
	"lingochat/internal/adapters/provider/mymemory"
	"lingochat/internal/adapters/provider/offline"
	"lingochat/internal/adapters/provider/registry"
	"lingochat/internal/config"
	"lingochat/internal/domain"
	"lingochat/internal/usecase/chat"
	"lingochat/internal/usecase/quota"
	"lingochat/internal/usecase/translator"
)

var (
	version = "dev"

	configPath string
	asJSON     bool
)

// services holds the wired long-lived service objects. One instance per
// process: cache, ledger, and settings are shared singletons by design.
type services struct {
	log         *slog.Logger
	ledger      *quota.Ledger
	engine      *translator.Service
	broadcaster *chat.Broadcaster
	detector    *detect.Detector
	close       func()
}

func buildServices(ctx context.Context) (*services, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.Log)

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	kv := sqlite.NewKVRepo(db)

	limits := map[domain.ProviderTag]int{}
	if cfg.Quota.MyMemoryDailyLimit > 0 {
		limits[domain.ProviderMyMemory] = cfg.Quota.MyMemoryDailyLimit
	}
	if cfg.Quota.LibreTranslateDailyLimit > 0 {
		limits[domain.ProviderLibreTranslate] = cfg.Quota.LibreTranslateDailyLimit
	}
	ledger, err := quota.New(ctx, kv, log, quota.WithLimits(limits))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	reg := registry.New()
	reg.Register(mymemory.New(cfg.Providers.MyMemoryEmail, ledger,
		mymemory.WithTimeout(cfg.Providers.RequestTimeout.Std())))
	reg.Register(libretranslate.New(cfg.Providers.LibreTranslateURL, ledger,
		libretranslate.WithTimeout(cfg.Providers.RequestTimeout.Std())))
	reg.Register(offline.New())

	detector := detect.New()
	cache := translator.NewCache(
		translator.WithCacheSize(cfg.Cache.MaxSize),
		translator.WithCacheMaxAge(cfg.Cache.MaxAge.Std()),
	)
	engine, err := translator.New(ctx, translator.Deps{
		Providers: reg,
		Detector:  detector,
		Cache:     cache,
		Store:     kv,
		Log:       log,
	}, translator.WithAttemptTimeout(cfg.Engine.AttemptTimeout.Std()))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	broadcaster := chat.New(chat.Deps{
		Messages: sqlite.NewMessageRepo(db),
		Engine:   engine,
		Log:      log,
	})

	return &services{
		log:         log,
		ledger:      ledger,
		engine:      engine,
		broadcaster: broadcaster,
		detector:    detector,
		close:       func() { _ = db.Close() },
	}, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lingochat",
		Short:         "Multi-provider translation engine with fallback, caching, and quota accounting",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")
	root.AddCommand(newTranslateCmd(), newBroadcastCmd(), newQuotaCmd(), newDetectCmd())
	return root
}

func newTranslateCmd() *cobra.Command {
	var to, from string
	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text into one target language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := buildServices(ctx)
			if err != nil {
				return err
			}
			defer svc.close()
			res, err := svc.engine.Translate(ctx, strings.Join(args, " "), to, from)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(res)
			}
			fmt.Printf("%s\n", res.TranslatedText)
			fmt.Fprintf(os.Stderr, "%s -> %s via %s (confidence %.2f)\n",
				res.SourceLanguage, res.TargetLanguage, res.Provider, res.Confidence)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "target language code (required)")
	cmd.Flags().StringVar(&from, "from", "", "source language code (auto-detected when empty)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// stderrEmitter prints broadcast progress events as they arrive.
type stderrEmitter struct{}

func (stderrEmitter) Emit(name string, payload any) {
	b, _ := json.Marshal(payload)
	fmt.Fprintf(os.Stderr, "%s %s\n", name, b)
}

func newBroadcastCmd() *cobra.Command {
	var to []string
	var from string
	cmd := &cobra.Command{
		Use:   "broadcast <text>",
		Short: "Send a chat message translated into several languages progressively",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := buildServices(ctx)
			if err != nil {
				return err
			}
			defer svc.close()
			svc.broadcaster.SetEmitter(stderrEmitter{})
			msg, err := svc.broadcaster.Send(ctx, strings.Join(args, " "), from, to)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(msg)
			}
			for lang, text := range msg.Translations {
				fmt.Printf("%s: %s\n", lang, text)
			}
			if msg.TranslationWarning != "" {
				fmt.Fprintln(os.Stderr, "warning:", msg.TranslationWarning)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&to, "to", nil, "target language codes (required)")
	cmd.Flags().StringVar(&from, "from", "", "source language code (auto-detected when empty)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show today's per-provider API usage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()
			snapshot := svc.ledger.Snapshot()
			if asJSON {
				return printJSON(snapshot)
			}
			for _, q := range snapshot {
				fmt.Printf("%-15s %d/%d\n", q.Provider, q.CurrentUsage, q.DailyLimit)
			}
			return nil
		},
	}
}

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <text>",
		Short: "Detect the language of a text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(detect.New().Detect(strings.Join(args, " ")))
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
