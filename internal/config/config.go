// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vmunix/introskip/internal/detect"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Libraries []LibraryConfig `toml:"libraries"`
	FFmpeg    FFmpegConfig    `toml:"ffmpeg"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	Chapters  ChaptersConfig  `toml:"chapters"`
	Playback  PlaybackConfig  `toml:"playback"`
	Schedule  ScheduleConfig  `toml:"schedule"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LibraryConfig names a directory of TV series.
type LibraryConfig struct {
	Name string `toml:"name"`
	Root string `toml:"root"`
}

type FFmpegConfig struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

// AnalysisConfig controls how episodes are queued and analyzed.
// Durations are in seconds unless noted.
type AnalysisConfig struct {
	MaxParallelism    int  `toml:"max_parallelism"`
	AnalyzeSeasonZero bool `toml:"analyze_season_zero"`

	// Percentage of an episode fingerprinted when searching for an
	// introduction, applied to episodes of at least five minutes.
	AnalysisPercent int `toml:"analysis_percent"`
	// Upper bound on the introduction window, in minutes.
	AnalysisLengthLimit int `toml:"analysis_length_limit"`

	MinimumIntroDuration   int `toml:"minimum_intro_duration"`
	MaximumIntroDuration   int `toml:"maximum_intro_duration"`
	MinimumCreditsDuration int `toml:"minimum_credits_duration"`
	MaximumCreditsDuration int `toml:"maximum_credits_duration"`

	BlackFrameMinimumPercentage int `toml:"black_frame_minimum_percentage"`

	// Comma separated library names. Empty analyzes every library.
	SelectedLibraries string `toml:"selected_libraries"`

	CachePath string `toml:"cache_path"`
}

type ChaptersConfig struct {
	IntroPattern   string `toml:"intro_pattern"`
	CreditsPattern string `toml:"credits_pattern"`
}

// PlaybackConfig adjusts how segments are presented to clients.
type PlaybackConfig struct {
	SecondsOfIntroToPlay  int    `toml:"seconds_of_intro_to_play"`
	ShowPromptAdjustment  int    `toml:"show_prompt_adjustment"`
	HidePromptAdjustment  int    `toml:"hide_prompt_adjustment"`
	SkipButtonVisible     bool   `toml:"skip_button_visible"`
	SkipButtonIntroText   string `toml:"skip_button_intro_text"`
	SkipButtonCreditsText string `toml:"skip_button_credits_text"`
}

type ScheduleConfig struct {
	Cron                string `toml:"cron"`
	ScanOnLibraryChange bool   `toml:"scan_on_library_change"`
}

// Load reads, parses and validates the configuration file.
// Returns *ConfigError when variables are missing or validation fails.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, applying
// defaults but skipping validation and missing variable checks.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	md, err := toml.Decode(content, &cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults(md)
	return &cfg, missing, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults(toml.MetaData{})
	return &cfg
}

func (c *Config) applyDefaults(md toml.MetaData) {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8585
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/introskip.db"
	}

	a := &c.Analysis
	if a.MaxParallelism == 0 {
		a.MaxParallelism = 2
	}
	if a.AnalysisPercent == 0 {
		a.AnalysisPercent = 25
	}
	if a.AnalysisLengthLimit == 0 {
		a.AnalysisLengthLimit = 10
	}
	if a.MinimumIntroDuration == 0 {
		a.MinimumIntroDuration = 15
	}
	if a.MaximumIntroDuration == 0 {
		a.MaximumIntroDuration = 120
	}
	if a.MinimumCreditsDuration == 0 {
		a.MinimumCreditsDuration = 15
	}
	if a.MaximumCreditsDuration == 0 {
		a.MaximumCreditsDuration = 300
	}
	if a.BlackFrameMinimumPercentage == 0 {
		a.BlackFrameMinimumPercentage = 85
	}
	if a.CachePath == "" {
		a.CachePath = "./data/cache"
	}

	// Patterns set to "" disable chapter matching, so only fill in absent keys.
	if !md.IsDefined("chapters", "intro_pattern") {
		c.Chapters.IntroPattern = detect.DefaultIntroChapterPattern
	}
	if !md.IsDefined("chapters", "credits_pattern") {
		c.Chapters.CreditsPattern = detect.DefaultCreditsChapterPattern
	}

	p := &c.Playback
	if !md.IsDefined("playback", "seconds_of_intro_to_play") {
		p.SecondsOfIntroToPlay = 2
	}
	if !md.IsDefined("playback", "show_prompt_adjustment") {
		p.ShowPromptAdjustment = 5
	}
	if !md.IsDefined("playback", "hide_prompt_adjustment") {
		p.HidePromptAdjustment = 10
	}
	if !md.IsDefined("playback", "skip_button_visible") {
		p.SkipButtonVisible = true
	}
	if p.SkipButtonIntroText == "" {
		p.SkipButtonIntroText = "Skip Intro"
	}
	if p.SkipButtonCreditsText == "" {
		p.SkipButtonCreditsText = "Next"
	}

	if !md.IsDefined("schedule", "scan_on_library_change") {
		c.Schedule.ScanOnLibraryChange = true
	}
}

// SelectedLibraryNames splits the selected_libraries allow-list.
func (a AnalysisConfig) SelectedLibraryNames() []string {
	var names []string
	for _, name := range strings.Split(a.SelectedLibraries, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// DetectSettings returns the analyzer thresholds.
func (c *Config) DetectSettings() detect.Settings {
	return detect.Settings{
		MinimumIntroDuration:        float64(c.Analysis.MinimumIntroDuration),
		MaximumIntroDuration:        float64(c.Analysis.MaximumIntroDuration),
		MinimumCreditsDuration:      float64(c.Analysis.MinimumCreditsDuration),
		MaximumCreditsDuration:      float64(c.Analysis.MaximumCreditsDuration),
		BlackFrameMinimumPercentage: c.Analysis.BlackFrameMinimumPercentage,
		IntroChapterPattern:         c.Chapters.IntroPattern,
		CreditsChapterPattern:       c.Chapters.CreditsPattern,
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces environment variable references and returns the
// references that could not be resolved. Unresolved references are left as is.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, op, arg := parts[1], parts[2], parts[3]

		value, ok := os.LookupEnv(name)
		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				missing = append(missing, name+": "+arg)
				return match
			}
			return value
		default:
			if !ok {
				missing = append(missing, name)
				return match
			}
			return value
		}
	})
	return result, missing
}
