package domain

// Preferences controls how answers are phrased for the user.
type Preferences struct {
	AnswerStyle     string `yaml:"answer_style"`
	Recommendations bool   `yaml:"recommendations"`
	TechLevel       string `yaml:"tech_level"`
	Emoji           bool   `yaml:"emoji"`
}

// Responsibility lists what the user is on the hook for: the services they
// own and the error types they consider critical.
type Responsibility struct {
	Services       []string `yaml:"services"`
	CriticalErrors []string `yaml:"critical_errors"`
}

// WorkingHours is an inclusive HH:MM window in the user's local time.
type WorkingHours struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// UserProfile describes the user a session is personalized for. It is
// loaded once per session and read-only afterwards.
type UserProfile struct {
	Name           string         `yaml:"name"`
	Role           string         `yaml:"role"`
	Experience     string         `yaml:"experience"`
	Timezone       string         `yaml:"timezone"`
	Preferences    Preferences    `yaml:"preferences"`
	Responsibility Responsibility `yaml:"responsibility"`
	WorkingHours   WorkingHours   `yaml:"working_hours"`
}
