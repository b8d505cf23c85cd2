package tts

// presets are named instruction texts a deployment can select as its
// default style guidance.
var presets = map[string]string{
	"announcer": `Voice: Clear, authoritative, and composed, projecting confidence and professionalism.

Tone: Neutral and informative, maintaining a balance between formality and approachability.

Punctuation: Structured with commas and pauses for clarity, ensuring information is digestible and well-paced.

Delivery: Steady and measured, with slight emphasis on key figures and deadlines to highlight critical points.`,

	"narrator": `Voice: Warm and steady.

Tone: Calm and engaging, suited to long-form reading.

Delivery: Even pacing with natural pauses at sentence boundaries.`,
}

// Preset returns the instruction text registered under name.
func Preset(name string) (string, bool) {
	text, ok := presets[name]
	return text, ok
}
