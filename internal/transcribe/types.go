package transcribe

// Result is the transcription response from the backend.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language"` // detected or declared; may be null upstream
	Segments []Segment `json:"segments"`
}

// Segment is a timestamped portion of the transcript.
type Segment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
	Words      []Word   `json:"words,omitempty"`
}

// Word is a single word with timing and probability.
type Word struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Word        string  `json:"word"`
	Probability float64 `json:"probability"`
}
