package stt

import (
	"context"
	"fmt"
	"sync"
)

// Service wraps a provider behind a one-time initialization guard, so
// concurrent first requests share a single warm-up instead of racing on a
// nullable field.
type Service struct {
	newProvider func() (STTProvider, error)

	once     sync.Once
	provider STTProvider
	initErr  error
}

func NewService(newProvider func() (STTProvider, error)) *Service {
	return &Service{newProvider: newProvider}
}

func (s *Service) ready() (STTProvider, error) {
	s.once.Do(func() {
		s.provider, s.initErr = s.newProvider()
	})
	return s.provider, s.initErr
}

// Transcribe returns the transcript of the audio file at path.
func (s *Service) Transcribe(ctx context.Context, path string) (string, error) {
	p, err := s.ready()
	if err != nil {
		return "", fmt.Errorf("initialize transcriber: %w", err)
	}

	resp, err := p.Transcribe(ctx, TranscriptionRequest{FilePath: path})
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", path, err)
	}
	return resp.Text, nil
}
