package config

import (
	"flag"
	"fmt"
)

// RegisterFlags binds the command-line switches to the fields of c. Values already in c become the
// flag defaults.
//
// Parameters:
//   - fs: the flag set to register on
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Assets.Root, "assets", c.Assets.Root, "asset root directory")
	fs.IntVar(&c.Window.Width, "width", c.Window.Width, "window width in screen coordinates")
	fs.IntVar(&c.Window.Height, "height", c.Window.Height, "window height in screen coordinates")
	fs.Float64Var(&c.Window.MaxFPS, "max-fps", c.Window.MaxFPS, "frame rate cap when vsync is off (0 = uncapped)")
	fs.BoolVar(&c.Renderer.VSync, "vsync", c.Renderer.VSync, "synchronize presentation with the display")
	fs.IntVar(&c.Renderer.MSAA, "msaa", c.Renderer.MSAA, "scene pass sample count (1 or 4)")
	fs.BoolVar(&c.Renderer.FallbackDevice, "fallback-device", c.Renderer.FallbackDevice, "force the software adapter")
	fs.Uint64Var(&c.Scene.Seed, "seed", c.Scene.Seed, "placement seed (0 = random)")
	fs.BoolVar(&c.Profile, "profile", c.Profile, "log frame timing summaries")
	fs.BoolVar(&c.Audio.Enabled, "audio", c.Audio.Enabled, "play the background track on click")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level (debug, info, warn, error)")
	fs.BoolVar(&c.Log.Development, "log-dev", c.Log.Development, "human-readable development logging")
}

// FromArgs builds the process configuration: defaults, then the YAML file named by -config, then
// every flag given explicitly on the command line.
//
// Parameters:
//   - name: the program name used in usage output
//   - args: the arguments without the program name
//
// Returns:
//   - Config: the resolved configuration
//   - error: flag, file or validation errors; flag.ErrHelp when -h was requested
func FromArgs(name string, args []string) (Config, error) {
	cfg := Default()
	var path string
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "YAML configuration file")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	loaded, err := Load(path)
	if err != nil {
		return loaded, err
	}

	// Explicit flags win over the file.
	replay := flag.NewFlagSet(name, flag.ContinueOnError)
	loaded.RegisterFlags(replay)
	var replayErr error
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" || replayErr != nil {
			return
		}
		if err := replay.Set(f.Name, f.Value.String()); err != nil {
			replayErr = fmt.Errorf("failed to apply -%s: %w", f.Name, err)
		}
	})
	if replayErr != nil {
		return loaded, replayErr
	}
	return loaded, loaded.Validate()
}
