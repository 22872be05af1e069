package gemini

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fpang/ai-video-generator/internal/auth"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Speech defaults.
const (
	DefaultVoice    = "Kore"
	DefaultLanguage = "en-US"

	// defaultSampleRate is the PCM rate Gemini TTS returns when the MIME
	// type does not say otherwise.
	defaultSampleRate = 24000
)

// Synthesizer turns narration text into a WAV file with Gemini speech
// generation.
type Synthesizer struct {
	gen      ContentGenerator
	model    string
	voice    string
	language string
}

// NewSynthesizer creates a Synthesizer. Empty voice or language fall back to
// DefaultVoice and DefaultLanguage.
func NewSynthesizer(gen ContentGenerator, model, voice, language string) *Synthesizer {
	if voice == "" {
		voice = DefaultVoice
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &Synthesizer{gen: gen, model: model, voice: voice, language: language}
}

// Synthesize speaks text and writes the audio to outPath as 16-bit PCM WAV.
func (s *Synthesizer) Synthesize(ctx context.Context, text, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("narration text is empty")
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: s.language,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: s.voice},
			},
		},
	}

	log.Debug().
		Str("model", s.model).
		Str("voice", s.voice).
		Str("language", s.language).
		Int("text_length", len(text)).
		Msg("Starting Gemini speech synthesis")

	start := time.Now()
	resp, err := s.gen.GenerateContent(ctx, s.model, genai.Text(text), config)
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Speech synthesis call failed")
		return auth.Classify(err)
	}

	pcm, mimeType := audioPart(resp)
	if len(pcm) == 0 {
		return fmt.Errorf("speech response contained no audio")
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	if err := WriteWAV(f, pcm, sampleRate(mimeType), 1); err != nil {
		f.Close()
		return fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close audio file: %w", err)
	}

	log.Info().
		Str("path", outPath).
		Int("pcm_bytes", len(pcm)).
		Str("mime_type", mimeType).
		Dur("duration", time.Since(start)).
		Msg("Narration audio synthesized")
	return nil
}

// audioPart returns the concatenated inline audio of the first candidate.
func audioPart(resp *genai.GenerateContentResponse) ([]byte, string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ""
	}
	var data []byte
	var mimeType string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if mimeType == "" {
			mimeType = part.InlineData.MIMEType
		}
		data = append(data, part.InlineData.Data...)
	}
	return data, mimeType
}

// sampleRate reads the rate parameter of a MIME type such as
// "audio/L16;codec=pcm;rate=24000".
func sampleRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(k, "rate") {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultSampleRate
}
