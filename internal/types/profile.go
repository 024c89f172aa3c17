package types

// Preferences holds behavior flags stored in the profile document.
type Preferences struct {
	AutoFillEnabled   bool `json:"auto_fill_enabled"`
	LearnNewQuestions bool `json:"learn_new_questions"`
}

// Profile is the persisted user document. The pipeline owns only
// LearnedQuestions; the remaining sections are read as answer material but
// never written.
type Profile struct {
	PersonalInfo     map[string]string `json:"personal_info"`
	Education        map[string]string `json:"education"`
	Professional     map[string]string `json:"professional"`
	LearnedQuestions map[string]string `json:"learned_questions"`
	Preferences      Preferences       `json:"preferences"`
}

// DefaultProfile returns the document written when no profile file exists yet.
func DefaultProfile() *Profile {
	return &Profile{
		PersonalInfo:     map[string]string{},
		Education:        map[string]string{},
		Professional:     map[string]string{},
		LearnedQuestions: map[string]string{},
		Preferences: Preferences{
			AutoFillEnabled:   true,
			LearnNewQuestions: true,
		},
	}
}
