package config

import (
	"fmt"
	"regexp"

	"github.com/robfig/cron/v3"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if len(c.Libraries) == 0 {
		errs = append(errs, "libraries: at least one library must be configured")
	}
	names := make(map[string]bool)
	for i, lib := range c.Libraries {
		if lib.Name == "" {
			errs = append(errs, fmt.Sprintf("libraries[%d].name: required", i))
		} else if names[lib.Name] {
			errs = append(errs, fmt.Sprintf("libraries[%d].name: duplicate library %q", i, lib.Name))
		}
		names[lib.Name] = true
		if lib.Root == "" {
			errs = append(errs, fmt.Sprintf("libraries[%d].root: required", i))
		}
	}

	a := c.Analysis
	if a.MaxParallelism < 1 {
		errs = append(errs, fmt.Sprintf("analysis.max_parallelism: must be at least 1, got %d", a.MaxParallelism))
	}
	if a.AnalysisPercent < 1 || a.AnalysisPercent > 100 {
		errs = append(errs, fmt.Sprintf("analysis.analysis_percent: must be between 1 and 100, got %d", a.AnalysisPercent))
	}
	if a.AnalysisLengthLimit < 1 {
		errs = append(errs, fmt.Sprintf("analysis.analysis_length_limit: must be at least 1 minute, got %d", a.AnalysisLengthLimit))
	}
	if a.MinimumIntroDuration >= a.MaximumIntroDuration {
		errs = append(errs, "analysis.minimum_intro_duration: must be less than maximum_intro_duration")
	}
	if a.MinimumCreditsDuration >= a.MaximumCreditsDuration {
		errs = append(errs, "analysis.minimum_credits_duration: must be less than maximum_credits_duration")
	}
	if a.BlackFrameMinimumPercentage < 1 || a.BlackFrameMinimumPercentage > 100 {
		errs = append(errs, fmt.Sprintf("analysis.black_frame_minimum_percentage: must be between 1 and 100, got %d", a.BlackFrameMinimumPercentage))
	}

	for key, pattern := range map[string]string{
		"chapters.intro_pattern":   c.Chapters.IntroPattern,
		"chapters.credits_pattern": c.Chapters.CreditsPattern,
	} {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}

	if c.Playback.SecondsOfIntroToPlay < 0 || c.Playback.ShowPromptAdjustment < 0 || c.Playback.HidePromptAdjustment < 0 {
		errs = append(errs, "playback: adjustments must not be negative")
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Sprintf("schedule.cron: %v", err))
		}
	}

	return errs
}
