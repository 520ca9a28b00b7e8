package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hegedustibor/htgo-tts/voices"
)

type VoiceOption struct {
	Code  string
	Label string
}

// Request es una lectura pendiente de pasar por el altavoz.
type Request struct {
	ID        string
	Text      string
	CreatedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, req Request) (string, error)
}

// Service convierte los anuncios del bot en audio MP3. La voz queda fijada
// al arrancar desde la política; el sintetizador es el endpoint público de
// Google Translate, el mismo que usa htgo-tts.
type Service struct {
	voice   VoiceOption
	queue   Queue
	httpCli *http.Client
}

var supportedVoices = []VoiceOption{
	{Code: voices.Spanish, Label: "Español"},
	{Code: "es-es", Label: "Español España"},
	{Code: voices.English, Label: "Inglés US"},
	{Code: voices.EnglishUK, Label: "Inglés UK"},
	{Code: voices.Portuguese, Label: "Portugués"},
	{Code: voices.French, Label: "Francés"},
	{Code: voices.German, Label: "Alemán"},
}

func NewService(voiceCode string) *Service {
	voice, ok := findVoice(voiceCode)
	if !ok {
		voice = supportedVoices[0]
	}
	return &Service{
		voice: voice,
		httpCli: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func ListVoices() []VoiceOption {
	return append([]VoiceOption(nil), supportedVoices...)
}

func (s *Service) Voice() VoiceOption {
	return s.voice
}

func (s *Service) SetQueue(queue Queue) {
	s.queue = queue
}

// Announce encola el texto para leerlo en voz alta.
func (s *Service) Announce(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("texto vacío")
	}
	if s.queue == nil {
		return fmt.Errorf("speech: cola no disponible")
	}

	_, err := s.queue.Enqueue(ctx, Request{Text: text, CreatedAt: time.Now()})
	return err
}

// GenerateAudio sintetiza el texto completo, troceado en bloques del tamaño
// que el endpoint acepta.
func (s *Service) GenerateAudio(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("texto vacío")
	}

	const chunkSize = 200
	runes := []rune(text)
	buf := bytes.NewBuffer(nil)

	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		audio, err := s.fetchChunk(ctx, string(runes[start:end]))
		if err != nil {
			return nil, err
		}
		buf.Write(audio)
	}

	return buf.Bytes(), nil
}

func (s *Service) fetchChunk(ctx context.Context, text string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("q", text)
	params.Set("tl", s.voice.Code)
	params.Set("total", "1")
	params.Set("idx", "0")
	params.Set("textlen", fmt.Sprintf("%d", len([]rune(text))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://translate.google.com/translate_tts?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpCli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("speech: google tts status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func findVoice(code string) (VoiceOption, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return supportedVoices[0], true
	}
	for _, option := range supportedVoices {
		if strings.ToLower(option.Code) == code {
			return option, true
		}
	}
	// es-mx cae al código base es
	if idx := strings.Index(code, "-"); idx > 0 {
		return findVoice(code[:idx])
	}
	return VoiceOption{}, false
}
