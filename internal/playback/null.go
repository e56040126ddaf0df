package playback

// Null is an Engine that accepts every call and does nothing.
type Null struct{}

var _ Engine = Null{}

// AddAudioClip does nothing.
func (Null) AddAudioClip(ClipID, string) {}

// Play does nothing.
func (Null) Play(ClipID, float64) {}
