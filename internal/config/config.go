package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/menta2k/batchcrop/internal/utils"
)

// FileName is the settings file looked up beside the executable
const FileName = "config.ini"

var (
	// ErrNotFound means no settings file existed; defaults were written in its place
	ErrNotFound = errors.New("config file not found")
	// ErrInvalid means the settings file could not be parsed or holds bad values
	ErrInvalid = errors.New("invalid config")
	// ErrPathsMissing means a configured folder does not exist
	ErrPathsMissing = errors.New("configured folder does not exist")
)

// Config holds the application configuration. It is loaded once and passed by value.
type Config struct {
	Settings Settings
	Preview  PreviewConfig
	Assist   AssistConfig
	Log      LogConfig
}

// Settings holds the folders and target ratio
type Settings struct {
	ImagesPath  string
	CroppedPath string
	AspectRatio float64
	Extensions  []string
}

// PreviewConfig bounds the size of the preview window image
type PreviewConfig struct {
	MaxWidth  int
	MaxHeight int
}

// AssistConfig selects an optional crop-position suggester
type AssistConfig struct {
	Backend   string
	URL       string
	Model     string
	AutoApply bool
}

// LogConfig controls log output
type LogConfig struct {
	File  string
	Debug bool
}

// Assist backends
const (
	BackendNone      = "none"
	BackendSaliency  = "saliency"
	BackendSmartcrop = "smartcrop"
	BackendOllama    = "ollama"
	BackendLlamaCpp  = "llamacpp"
)

// Default returns a configuration with folders next to baseDir
func Default(baseDir string) Config {
	return Config{
		Settings: Settings{
			ImagesPath:  filepath.Join(baseDir, "images"),
			CroppedPath: filepath.Join(baseDir, "cropped"),
			AspectRatio: 1.5,
			Extensions:  append([]string(nil), utils.DefaultExtensions...),
		},
		Preview: PreviewConfig{
			MaxWidth:  900,
			MaxHeight: 700,
		},
		Assist: AssistConfig{
			Backend: BackendNone,
		},
	}
}

// DefaultPath returns config.ini beside the executable
func DefaultPath() string {
	return filepath.Join(utils.ExecutableDir(), FileName)
}

// Load reads the settings file at path. A missing file is replaced with defaults
// and reported as ErrNotFound; the caller should stop and let the operator review it.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		def := Default(filepath.Dir(path))
		if err := def.SaveToFile(path); err != nil {
			return Config{}, err
		}
		return def, fmt.Errorf("%w: wrote defaults to %s", ErrNotFound, path)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if err := cfg.CheckPaths(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromFile parses an INI settings file
func LoadFromFile(filename string) (Config, error) {
	f, err := ini.Load(filename)
	if err != nil {
		return Config{}, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalid, filename, err)
	}

	cfg := Default(filepath.Dir(filename))

	settings := f.Section("Settings")
	for _, key := range []string{"ImagesPath", "CroppedPath", "AspectRatio"} {
		if !settings.HasKey(key) {
			return Config{}, fmt.Errorf("%w: missing Settings.%s", ErrInvalid, key)
		}
	}
	cfg.Settings.ImagesPath = settings.Key("ImagesPath").String()
	cfg.Settings.CroppedPath = settings.Key("CroppedPath").String()
	ratio, err := settings.Key("AspectRatio").Float64()
	if err != nil {
		return Config{}, fmt.Errorf("%w: Settings.AspectRatio: %v", ErrInvalid, err)
	}
	cfg.Settings.AspectRatio = ratio
	if settings.HasKey("Extensions") {
		cfg.Settings.Extensions = utils.ParseExtensions(settings.Key("Extensions").String())
	}

	preview := f.Section("Preview")
	cfg.Preview.MaxWidth = preview.Key("MaxWidth").MustInt(cfg.Preview.MaxWidth)
	cfg.Preview.MaxHeight = preview.Key("MaxHeight").MustInt(cfg.Preview.MaxHeight)

	assist := f.Section("Assist")
	cfg.Assist.Backend = strings.ToLower(assist.Key("Backend").MustString(cfg.Assist.Backend))
	cfg.Assist.URL = assist.Key("URL").String()
	cfg.Assist.Model = assist.Key("Model").String()
	cfg.Assist.AutoApply = assist.Key("AutoApply").MustBool(false)

	logSec := f.Section("Log")
	cfg.Log.File = logSec.Key("File").String()
	cfg.Log.Debug = logSec.Key("Debug").MustBool(false)

	return cfg, nil
}

// SaveToFile writes the configuration as INI. Optional sections are only
// written when they differ from their defaults.
func (c Config) SaveToFile(filename string) error {
	f := ini.Empty()

	settings := f.Section("Settings")
	settings.Key("ImagesPath").SetValue(c.Settings.ImagesPath)
	settings.Key("CroppedPath").SetValue(c.Settings.CroppedPath)
	settings.Key("AspectRatio").SetValue(strconv.FormatFloat(c.Settings.AspectRatio, 'g', -1, 64))
	if !sameStrings(c.Settings.Extensions, utils.DefaultExtensions) {
		settings.Key("Extensions").SetValue(strings.Join(c.Settings.Extensions, ","))
	}

	def := Default("")
	if c.Preview != def.Preview {
		f.Section("Preview").Key("MaxWidth").SetValue(strconv.Itoa(c.Preview.MaxWidth))
		f.Section("Preview").Key("MaxHeight").SetValue(strconv.Itoa(c.Preview.MaxHeight))
	}
	if c.Assist != def.Assist {
		assist := f.Section("Assist")
		assist.Key("Backend").SetValue(c.Assist.Backend)
		assist.Key("URL").SetValue(c.Assist.URL)
		assist.Key("Model").SetValue(c.Assist.Model)
		assist.Key("AutoApply").SetValue(strconv.FormatBool(c.Assist.AutoApply))
	}
	if c.Log != def.Log {
		f.Section("Log").Key("File").SetValue(c.Log.File)
		f.Section("Log").Key("Debug").SetValue(strconv.FormatBool(c.Log.Debug))
	}

	if err := f.SaveTo(filename); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration values are usable
func (c Config) Validate() error {
	s := c.Settings
	if s.ImagesPath == "" || s.CroppedPath == "" {
		return fmt.Errorf("%w: ImagesPath and CroppedPath must be set", ErrInvalid)
	}
	if math.IsNaN(s.AspectRatio) || math.IsInf(s.AspectRatio, 0) || s.AspectRatio <= 0 {
		return fmt.Errorf("%w: AspectRatio must be positive, got %v", ErrInvalid, s.AspectRatio)
	}
	if len(s.Extensions) == 0 {
		return fmt.Errorf("%w: Extensions cannot be empty", ErrInvalid)
	}
	if c.Preview.MaxWidth < 1 || c.Preview.MaxHeight < 1 {
		return fmt.Errorf("%w: Preview.MaxWidth and Preview.MaxHeight must be positive", ErrInvalid)
	}

	switch c.Assist.Backend {
	case BackendNone, BackendSaliency, BackendSmartcrop:
	case BackendOllama, BackendLlamaCpp:
		if c.Assist.Model == "" {
			return fmt.Errorf("%w: Assist.Model is required for backend %s", ErrInvalid, c.Assist.Backend)
		}
	default:
		return fmt.Errorf("%w: unknown Assist.Backend %q", ErrInvalid, c.Assist.Backend)
	}
	return nil
}

// CheckPaths verifies that both folders exist. Folders are never created here.
func (c Config) CheckPaths() error {
	for _, dir := range []string{c.Settings.ImagesPath, c.Settings.CroppedPath} {
		if !utils.DirExists(dir) {
			return fmt.Errorf("%w: %s", ErrPathsMissing, dir)
		}
	}
	return nil
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
