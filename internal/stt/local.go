package stt

// LocalSTTConfig holds configuration for the local whisper.cpp backend.
type LocalSTTConfig struct {
	BaseURL string // default: "http://localhost:8178"
}

// LocalSTT is OpenAISTT pointed at a whisper.cpp server, which speaks the
// same transcription API. Start it with:
// ./server -m models/ggml-base.en.bin --port 8178
type LocalSTT struct {
	*OpenAISTT
}

func NewLocalSTT(cfg LocalSTTConfig) *LocalSTT {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8178"
	}
	return &LocalSTT{
		OpenAISTT: NewOpenAISTT(OpenAISTTConfig{
			BaseURL: baseURL,
			// No API key needed for a local server.
		}),
	}
}

func (l *LocalSTT) Name() string { return "local-whisper" }
