package voices

// Profile binds a diarized speaker to the voice every one of their segments
// is synthesized with. Profiles are immutable once created.
type Profile struct {
	Speaker string
	// ReferencePath points at the cloning reference wav. Empty when the
	// speaker uses a built-in default voice.
	ReferencePath string
	// DefaultVoice is the built-in voice tag used when no reference exists.
	DefaultVoice string
	SampleRate   int
	Language     string
}

// Cloned reports whether the profile carries a cloning reference.
func (p *Profile) Cloned() bool {
	return p.ReferencePath != ""
}
