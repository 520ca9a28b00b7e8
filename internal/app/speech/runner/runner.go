package runner

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/hajimehoshi/oto/v2"

	"cntBot/internal/app/events"
	"cntBot/internal/infrastructure/logger"
	speechusecase "cntBot/internal/usecase/speech"
)

type Config struct {
	Service *speechusecase.Service
	Bus     *events.Bus
	Log     *logger.Logger
}

// Runner consume la cola de lecturas de una en una: sintetiza, reproduce y
// publica el desenlace en el bus. El altavoz es uno solo, así que nunca hay
// dos reproducciones a la vez.
type Runner struct {
	cfg Config
	log *logger.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*speechusecase.Request
	closed bool

	cancelCurrent context.CancelFunc
	wg            sync.WaitGroup

	audioMu sync.Mutex
}

func New(cfg Config) *Runner {
	r := &Runner{cfg: cfg, log: cfg.Log}
	if r.log == nil {
		r.log = logger.NewNop()
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		<-ctx.Done()
		r.mu.Lock()
		r.closed = true
		if r.cancelCurrent != nil {
			r.cancelCurrent()
		}
		r.mu.Unlock()
		r.cond.Broadcast()
	}()
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

func (r *Runner) run(ctx context.Context) {
	for {
		req, ok := r.next(ctx)
		if !ok {
			return
		}
		r.speak(ctx, req)
	}
}

func (r *Runner) next(ctx context.Context) (*speechusecase.Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		if r.closed {
			return nil, false
		}
		if len(r.queue) > 0 {
			req := r.queue[0]
			r.queue = r.queue[1:]
			return req, true
		}

		r.cond.Wait()
		if ctx.Err() != nil {
			return nil, false
		}
	}
}

func (r *Runner) speak(ctx context.Context, req *speechusecase.Request) {
	if req == nil || r.cfg.Service == nil {
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	r.setCurrent(cancel)
	defer r.clearCurrent()

	audio, err := r.cfg.Service.GenerateAudio(childCtx, req.Text)
	if err != nil {
		r.fail(req, fmt.Errorf("speech synth: %w", err))
		return
	}

	if err := r.playAudio(childCtx, audio); err != nil {
		if ctx.Err() != nil {
			r.fail(req, context.Canceled)
			return
		}
		r.fail(req, err)
		return
	}

	r.publish(events.TopicSpeechSpoken, events.NewSpeechSpokenDTO(req.Text, nil))
}

func (r *Runner) playAudio(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return fmt.Errorf("audio vacío")
	}
	r.audioMu.Lock()
	defer r.audioMu.Unlock()

	decoder, err := mp3.NewDecoder(bytes.NewReader(audio))
	if err != nil {
		return fmt.Errorf("mp3 decoder: %w", err)
	}

	otoCtx, readyChan, err := oto.NewContext(decoder.SampleRate(), 2, 2)
	if err != nil {
		return fmt.Errorf("oto context: %w", err)
	}
	<-readyChan

	player := otoCtx.NewPlayer(decoder)
	player.Play()
	defer player.Close()

	ticker := time.NewTicker(15 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !player.IsPlaying() {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

func (r *Runner) fail(req *speechusecase.Request, err error) {
	if err != nil {
		r.log.Warn("speech runner", "error", err)
		r.publish(events.TopicAppError, map[string]any{
			"source": "speech",
			"error":  err.Error(),
		})
	}
	r.publish(events.TopicSpeechSpoken, events.NewSpeechSpokenDTO(req.Text, err))
}

func (r *Runner) setCurrent(cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelCurrent = cancel
}

func (r *Runner) clearCurrent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelCurrent = nil
}

func (r *Runner) Enqueue(ctx context.Context, req speechusecase.Request) (string, error) {
	if r.cfg.Service == nil {
		return "", fmt.Errorf("speech service no disponible")
	}

	req.ID = ensureID(req.ID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", fmt.Errorf("speech runner detenido")
	}

	r.queue = append(r.queue, &req)
	r.cond.Signal()
	return req.ID, nil
}

func (r *Runner) QueueLength() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *Runner) Close() error {
	r.mu.Lock()
	r.closed = true
	if r.cancelCurrent != nil {
		r.cancelCurrent()
	}
	r.queue = nil
	r.cond.Broadcast()
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}

func ensureID(id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return fmt.Sprintf("speech-%d", time.Now().UnixNano())
}

var _ speechusecase.Queue = (*Runner)(nil)
