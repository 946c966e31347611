package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fimfiction/internal/components/telemetry"
	"fimfiction/lib/configutil"
	"fimfiction/lib/model"
	"fimfiction/lib/restyutil"
	"fimfiction/lib/scrapers/fimfiction/core"
	"fimfiction/lib/serviceutil"
	"fimfiction/lib/storycache"
	libtelemetry "fimfiction/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	BaseURL           string              `json:"base_url"`
	UserAgent         string              `json:"user_agent"`
	RequestsPerSecond float64             `json:"requests_per_second"`
	TimeoutSeconds    int                 `json:"timeout_seconds"`
	BypassCloudflare  bool                `json:"bypass_cloudflare"`
	Username          string              `json:"username"`
	Password          string              `json:"password"`
	CachePath         string              `json:"cache_path"`
	Endpoints         core.Endpoints      `json:"endpoints"`
	Telemetry         libtelemetry.Config `json:"telemetry"`
}

var (
	configPath string
	verbose    bool
	dumpDir    string
)

var config Config
var registry = model.NewRegistry()
var tel telemetry.API = telemetry.SlogAPI{}
var providers libtelemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:   "fimfiction-cli",
	Short: "fimfiction-cli searches, reads and caches stories from fimfiction.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		serviceutil.InitSlog(verbose)

		var err error
		config, err = configutil.Load[Config](configPath, "fimfiction.json5")
		if errors.Is(err, os.ErrNotExist) && configPath == "" {
			slog.Debug("no config found, using defaults")
		} else if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		providers, err = libtelemetry.Setup(cmd.Context(), "fimfiction-cli", config.Telemetry)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return providers.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file, fimfiction.json5 is searched for otherwise. FIMFICTION_CONFIG may hold json5 overrides.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
	rootCmd.PersistentFlags().StringVar(&dumpDir, "dump-dir", "", "Write every http exchange to this directory.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds a client from the config and logs in if credentials
// are configured.
func newClient(ctx context.Context) (*core.Client, error) {
	opts := core.ClientOptions{
		BaseURL:           config.BaseURL,
		UserAgent:         config.UserAgent,
		RequestsPerSecond: config.RequestsPerSecond,
		Timeout:           time.Duration(config.TimeoutSeconds) * time.Second,
		BypassCloudflare:  config.BypassCloudflare,
		Endpoints:         config.Endpoints,
		Registry:          registry,
		Tel:               tel,
	}
	if dumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(dumpDir)
		if err != nil {
			return nil, err
		}
		opts.Dump = output
	}

	client, err := core.NewClient(opts)
	if err != nil {
		return nil, err
	}
	if config.Username == "" {
		return client, nil
	}

	slog.Info("logging in", "username", config.Username)
	err = client.Login(ctx, config.Username, config.Password)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// openCache opens the story cache, a config without cache_path yields a
// closed cache and false.
func openCache(ctx context.Context) (storycache.Cache, bool, error) {
	if config.CachePath == "" {
		return storycache.Cache{}, false, nil
	}
	cache, err := storycache.Open(ctx, config.CachePath, registry, tel)
	if err != nil {
		return storycache.Cache{}, false, err
	}
	return cache, true, nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
