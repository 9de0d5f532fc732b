package detect

// Settings holds the detection thresholds shared by the analyzers.
type Settings struct {
	MinimumIntroDuration   float64
	MaximumIntroDuration   float64
	MinimumCreditsDuration float64
	MaximumCreditsDuration float64

	// BlackFrameMinimumPercentage is how much of a frame must be black for it
	// to count as a black frame.
	BlackFrameMinimumPercentage int

	IntroChapterPattern   string
	CreditsChapterPattern string
}

// Default chapter name patterns.
const (
	DefaultIntroChapterPattern   = `(?i)(^|\s)(intro|introduction|op|opening)(\s+start)?$`
	DefaultCreditsChapterPattern = `(?i)(^|\s)(credits?|ending)(\s+start)?$`
)

// DefaultSettings returns the built-in thresholds.
func DefaultSettings() Settings {
	return Settings{
		MinimumIntroDuration:        15,
		MaximumIntroDuration:        120,
		MinimumCreditsDuration:      15,
		MaximumCreditsDuration:      300,
		BlackFrameMinimumPercentage: 85,
		IntroChapterPattern:         DefaultIntroChapterPattern,
		CreditsChapterPattern:       DefaultCreditsChapterPattern,
	}
}

func (s Settings) durationBounds(mode Mode) (minimum, maximum float64) {
	if mode == ModeCredits {
		return s.MinimumCreditsDuration, s.MaximumCreditsDuration
	}
	return s.MinimumIntroDuration, s.MaximumIntroDuration
}
