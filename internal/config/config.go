package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/view"
)

// Config represents the complete mandelview configuration
type Config struct {
	Engine        EngineConfig  `mapstructure:"engine"`
	View          ViewConfig    `mapstructure:"view"`
	Server        ServerConfig  `mapstructure:"server"`
	Cache         CacheConfig   `mapstructure:"cache"`
	Zoom          ZoomConfig    `mapstructure:"zoom"`
	Logging       LoggingConfig `mapstructure:"logging"`
	LandmarksFile string        `mapstructure:"landmarks_file"`
}

// EngineConfig controls evaluation
type EngineConfig struct {
	// Workers is the worker budget (0 = 4 per CPU)
	Workers int `mapstructure:"workers"`
	// Policy is how rows are scheduled
	// Options: "contiguous", "row-per-task"
	Policy string `mapstructure:"policy"`
	// Threshold is the squared escape radius
	Threshold float64 `mapstructure:"threshold"`
	// MaxIterations caps the iteration count per pixel
	MaxIterations int `mapstructure:"max_iterations"`
	ResolutionX   int `mapstructure:"resolution_x"`
	ResolutionY   int `mapstructure:"resolution_y"`
}

// RegionConfig is a rectangle of the complex plane
type RegionConfig struct {
	Xmin float64 `mapstructure:"x_min"`
	Xmax float64 `mapstructure:"x_max"`
	Ymin float64 `mapstructure:"y_min"`
	Ymax float64 `mapstructure:"y_max"`
}

// Region converts the config to a mandel.Region.
func (r RegionConfig) Region() mandel.Region {
	return mandel.Region{Xmin: r.Xmin, Xmax: r.Xmax, Ymin: r.Ymin, Ymax: r.Ymax}
}

// ViewConfig controls interactive navigation
type ViewConfig struct {
	// MinDrag is the smallest accepted zoom rectangle side in screen units
	MinDrag float64 `mapstructure:"min_drag"`
	// ZoomStep is the zoom fraction per wheel notch
	ZoomStep float64 `mapstructure:"zoom_step"`
	// KeyZoom is the fraction each edge moves on +/- (must stay below 0.5)
	KeyZoom float64 `mapstructure:"key_zoom"`
	// KeyPan is the fraction of the span moved by an arrow key
	KeyPan float64 `mapstructure:"key_pan"`
	// Scheme is the initial colour scheme
	Scheme string `mapstructure:"scheme"`
	// DefaultRegion is the start view and the target of a reset
	DefaultRegion RegionConfig `mapstructure:"default_region"`
}

// ServerConfig controls the websocket server
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// FramesPerSecond limits frames sent to one connection
	FramesPerSecond float64 `mapstructure:"frames_per_second"`
	// Burst is the number of frames allowed above the steady rate
	Burst int `mapstructure:"burst"`
	// MaxPixels bounds the resolution a client may request
	MaxPixels int `mapstructure:"max_pixels"`
}

// CacheConfig controls matrix caching
type CacheConfig struct {
	// Backend selects the store
	// Options: "none", "memory", "redis"
	Backend string `mapstructure:"backend"`
	// Size is the number of matrices kept by the memory backend
	Size          int    `mapstructure:"size"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	// TTLSeconds expires Redis entries (0 = never)
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	Prefix     string `mapstructure:"prefix"`
}

// ZoomConfig controls zoom sequence rendering
type ZoomConfig struct {
	Frames int `mapstructure:"frames"`
	// Ratio is the geometric step ratio between consecutive frames
	Ratio float64 `mapstructure:"ratio"`
	// OutputDir receives the fractal_NNNN.png frames
	OutputDir string `mapstructure:"output_dir"`
	// Parallel is the number of frames rendered at once
	Parallel int `mapstructure:"parallel"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level
	// Options: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// File is the log destination (empty = stderr)
	File string `mapstructure:"file"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:       0,
			Policy:        "contiguous",
			Threshold:     mandel.DefaultThreshold,
			MaxIterations: mandel.DefaultMaxIter,
			ResolutionX:   mandel.DefaultResolution.X,
			ResolutionY:   mandel.DefaultResolution.Y,
		},
		View: ViewConfig{
			MinDrag:  view.DefaultMinDrag,
			ZoomStep: 0.1,
			KeyZoom:  0.25,
			KeyPan:   0.25,
			Scheme:   "bluey",
			DefaultRegion: RegionConfig{
				Xmin: mandel.DefaultRegion.Xmin,
				Xmax: mandel.DefaultRegion.Xmax,
				Ymin: mandel.DefaultRegion.Ymin,
				Ymax: mandel.DefaultRegion.Ymax,
			},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			FramesPerSecond: 10,
			Burst:           3,
			MaxPixels:       4096 * 4096,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			Size:       32,
			RedisAddr:  "localhost:6379",
			RedisDB:    0,
			TTLSeconds: 3600,
			Prefix:     "mandelview:matrix",
		},
		Zoom: ZoomConfig{
			Frames:    100,
			Ratio:     0.9,
			OutputDir: "frames",
			Parallel:  2,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		LandmarksFile: "",
	}
}

// Domain returns the evaluation domain over r described by the engine section.
func (c *Config) Domain(r mandel.Region) mandel.Domain {
	return mandel.Domain{
		Region:     r,
		Resolution: mandel.Resolution{X: c.Engine.ResolutionX, Y: c.Engine.ResolutionY},
		Threshold:  c.Engine.Threshold,
		MaxIter:    c.Engine.MaxIterations,
	}
}

// Settings converts the view section into transform settings.
func (c *ViewConfig) Settings() view.Settings {
	return view.Settings{
		Default:  c.DefaultRegion.Region(),
		MinDrag:  c.MinDrag,
		ZoomStep: c.ZoomStep,
		KeyZoom:  c.KeyZoom,
		KeyPan:   c.KeyPan,
	}
}

// TTL returns the Redis expiry as a time.Duration (0 means none)
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Engine defaults
	viper.SetDefault("engine.workers", defaults.Engine.Workers)
	viper.SetDefault("engine.policy", defaults.Engine.Policy)
	viper.SetDefault("engine.threshold", defaults.Engine.Threshold)
	viper.SetDefault("engine.max_iterations", defaults.Engine.MaxIterations)
	viper.SetDefault("engine.resolution_x", defaults.Engine.ResolutionX)
	viper.SetDefault("engine.resolution_y", defaults.Engine.ResolutionY)

	// View defaults
	viper.SetDefault("view.min_drag", defaults.View.MinDrag)
	viper.SetDefault("view.zoom_step", defaults.View.ZoomStep)
	viper.SetDefault("view.key_zoom", defaults.View.KeyZoom)
	viper.SetDefault("view.key_pan", defaults.View.KeyPan)
	viper.SetDefault("view.scheme", defaults.View.Scheme)
	viper.SetDefault("view.default_region.x_min", defaults.View.DefaultRegion.Xmin)
	viper.SetDefault("view.default_region.x_max", defaults.View.DefaultRegion.Xmax)
	viper.SetDefault("view.default_region.y_min", defaults.View.DefaultRegion.Ymin)
	viper.SetDefault("view.default_region.y_max", defaults.View.DefaultRegion.Ymax)

	// Server defaults
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.frames_per_second", defaults.Server.FramesPerSecond)
	viper.SetDefault("server.burst", defaults.Server.Burst)
	viper.SetDefault("server.max_pixels", defaults.Server.MaxPixels)

	// Cache defaults
	viper.SetDefault("cache.backend", defaults.Cache.Backend)
	viper.SetDefault("cache.size", defaults.Cache.Size)
	viper.SetDefault("cache.redis_addr", defaults.Cache.RedisAddr)
	viper.SetDefault("cache.redis_password", defaults.Cache.RedisPassword)
	viper.SetDefault("cache.redis_db", defaults.Cache.RedisDB)
	viper.SetDefault("cache.ttl_seconds", defaults.Cache.TTLSeconds)
	viper.SetDefault("cache.prefix", defaults.Cache.Prefix)

	// Zoom defaults
	viper.SetDefault("zoom.frames", defaults.Zoom.Frames)
	viper.SetDefault("zoom.ratio", defaults.Zoom.Ratio)
	viper.SetDefault("zoom.output_dir", defaults.Zoom.OutputDir)
	viper.SetDefault("zoom.parallel", defaults.Zoom.Parallel)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)

	viper.SetDefault("landmarks_file", defaults.LandmarksFile)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mandelview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mandelview"
	}
	return filepath.Join(home, ".config", "mandelview")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
