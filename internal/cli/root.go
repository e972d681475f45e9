// Package cli implements the mandelview command line.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/cache"
	"github.com/marben/mandelview/internal/config"
	"github.com/marben/mandelview/internal/engine"
	"github.com/marben/mandelview/internal/landmarks"
	"github.com/marben/mandelview/internal/logging"
	"github.com/marben/mandelview/internal/palette"
)

var rootCmd = &cobra.Command{
	Use:   "mandelview",
	Short: "Parallel Mandelbrot renderer and explorer",
	Long: `mandelview evaluates the Mandelbrot set over a region of the complex
plane in parallel and lets you explore it from the terminal, a websocket
client, or as still images and zoom sequences.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/mandelview/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MANDELVIEW")
	// e.g. MANDELVIEW_ENGINE_WORKERS for engine.workers
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// env bundles what every subcommand needs after configuration is loaded.
type env struct {
	cfg     *config.Config
	logger  *logging.Logger
	catalog landmarks.Catalog
	eval    mandel.Evaluator
	closers []func() error
}

// setup loads the configuration and builds the evaluator. Logs go to the
// configured file, or to defaultLog when none is configured.
func setup(ctx context.Context, defaultLog string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = defaultLog
	}
	logger, err := logging.NewLogger(logFile, logging.ParseLevel(cfg.Logging.Level))
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger}
	e.closers = append(e.closers, logger.Close)

	e.catalog, err = landmarks.Load(cfg.LandmarksFile)
	if err != nil {
		e.close()
		return nil, err
	}
	if e.eval, err = e.evaluator(ctx); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

// evaluator builds the engine and wraps it in the configured cache.
func (e *env) evaluator(ctx context.Context) (mandel.Evaluator, error) {
	policy, err := engine.ParsePolicy(e.cfg.Engine.Policy)
	if err != nil {
		return nil, err
	}
	eng := engine.New(
		engine.WithWorkers(e.cfg.Engine.Workers),
		engine.WithPolicy(policy),
		engine.WithLogger(e.logger.WithComponent("engine")),
	)

	backend, err := cache.ParseBackend(e.cfg.Cache.Backend)
	if err != nil {
		return nil, err
	}
	var c cache.Cache
	switch backend {
	case cache.BackendNone:
		return eng, nil
	case cache.BackendMemory:
		c = cache.NewMemory(e.cfg.Cache.Size)
	case cache.BackendRedis:
		rdb, err := cache.DialRedis(ctx, e.cfg.Cache.RedisAddr, e.cfg.Cache.RedisPassword, e.cfg.Cache.RedisDB)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, rdb.Close)
		c = cache.NewRedis(rdb, cache.WithPrefix(e.cfg.Cache.Prefix), cache.WithTTL(e.cfg.Cache.TTL()))
	}
	e.logger.Debug("evaluator ready",
		"workers", eng.Workers(),
		"policy", string(eng.Policy()),
		"cache", backend,
	)
	return cache.NewEvaluator(eng, c, e.logger), nil
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

// region resolves a landmark name, falling back to the configured default
// region when name is empty.
func (e *env) region(name string) (mandel.Region, error) {
	if name == "" {
		return e.cfg.View.DefaultRegion.Region(), nil
	}
	return e.catalog.Lookup(name)
}

// scheme returns the cycle positioned at name, or at the configured scheme
// when name is empty.
func (e *env) scheme(name string) (palette.Cycle, error) {
	if name == "" {
		name = e.cfg.View.Scheme
	}
	return palette.CycleAt(name)
}
