package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by Enqueue when the preview queue is at capacity.
var ErrQueueFull = errors.New("preview queue full")

const queueCapacity = 8

type decodedTake struct {
	info    TakeInfo
	samples []int16
}

// Player decodes queued takes and emits 20ms PCM frames at real-time pace,
// crossfading from one take into the next when the next is ready in time.
type Player struct {
	decode Decoder
	logger *zap.Logger

	queue  chan TakeInfo
	frames chan []int16
	skip   chan struct{}

	mu        sync.RWMutex
	crossfade time.Duration
	current   TakeInfo
	position  time.Duration
	duration  time.Duration
}

// NewPlayer creates a preview player.
func NewPlayer(decode Decoder, crossfade time.Duration, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{
		decode:    decode,
		logger:    logger,
		queue:     make(chan TakeInfo, queueCapacity),
		frames:    make(chan []int16, 100),
		skip:      make(chan struct{}, 1),
		crossfade: crossfade,
	}
}

// Frames returns the channel of outgoing PCM frames. It is closed when Run returns.
func (p *Player) Frames() <-chan []int16 {
	return p.frames
}

// Enqueue adds a take to the preview queue without blocking.
func (p *Player) Enqueue(t TakeInfo) error {
	select {
	case p.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueSize returns the number of takes waiting to be decoded.
func (p *Player) QueueSize() int {
	return len(p.queue)
}

// Skip interrupts the take currently playing.
func (p *Player) Skip() {
	select {
	case p.skip <- struct{}{}:
	default:
	}
}

// SetCrossfade changes the crossfade used from the next transition on.
func (p *Player) SetCrossfade(d time.Duration) {
	p.mu.Lock()
	p.crossfade = d
	p.mu.Unlock()
}

// Crossfade returns the configured crossfade length.
func (p *Player) Crossfade() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.crossfade
}

// Status returns the take playing now and the playback position within it.
func (p *Player) Status() (take TakeInfo, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, p.position, p.duration
}

// Run plays the queue until ctx is cancelled.
func (p *Player) Run(ctx context.Context) {
	defer close(p.frames)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	decoded := make(chan *decodedTake, 2)
	go p.decodeLoop(ctx, decoded)

	var next *decodedTake
	start := 0
	for {
		cur := next
		if cur == nil {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-decoded:
				if !ok {
					return
				}
				cur, start = d, 0
			}
		}
		next, start = p.play(ctx, ticker, decoded, cur, start)
	}
}

func (p *Player) decodeLoop(ctx context.Context, out chan<- *decodedTake) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-p.queue:
			samples, err := p.decode(ctx, t.Path)
			if err != nil {
				p.logger.Warn("preview decode failed", zap.String("path", t.Path), zap.Error(err))
				continue
			}
			select {
			case out <- &decodedTake{info: t, samples: samples}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// play emits one take from frame start. If the following take is already
// decoded when the crossfade zone begins, the two are blended and the
// following take is returned with the frame index it should resume at.
func (p *Player) play(ctx context.Context, ticker *time.Ticker, decoded <-chan *decodedTake, dt *decodedTake, start int) (*decodedTake, int) {
	samples := dt.samples
	total := len(samples) / FrameSamples
	fade := int(p.Crossfade() / FrameDuration)
	if fade > total/2 {
		fade = total / 2
	}
	fadeStart := total - fade
	// frames before start were already played blended into the previous take
	from := max(start, fadeStart)

	// a Skip pressed while idle must not cut this take
	select {
	case <-p.skip:
	default:
	}

	p.setCurrent(dt.info, total)
	p.logger.Info("previewing", zap.String("take", dt.info.Name), zap.Int("frames", total))

	frame := func(buf []int16, i int) []int16 { return buf[i*FrameSamples : (i+1)*FrameSamples] }

	for i := start; i < fadeStart; i++ {
		if !p.send(ctx, ticker, frame(samples, i)) {
			return nil, 0
		}
		p.setPosition(i)
	}

	var next *decodedTake
	if total > from {
		select {
		case next = <-decoded:
		default:
		}
	}

	if next == nil {
		for i := from; i < total; i++ {
			if !p.send(ctx, ticker, frame(samples, i)) {
				return nil, 0
			}
			p.setPosition(i)
		}
		return nil, 0
	}

	nextTotal := len(next.samples) / FrameSamples
	span := total - from
	n := min(span, nextTotal)
	for i := 0; i < n; i++ {
		mixed := Crossfade(frame(samples, from+i), frame(next.samples, i), float64(i)/float64(span))
		if !p.send(ctx, ticker, mixed) {
			return nil, 0
		}
		p.setPosition(from + i)
	}
	p.logger.Info("crossfaded", zap.String("from", dt.info.Name), zap.String("to", next.info.Name))
	return next, n
}

// send waits for the next tick and emits frame. It returns false on skip or cancel.
func (p *Player) send(ctx context.Context, ticker *time.Ticker, frame []int16) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.skip:
		p.logger.Info("preview skipped")
		return false
	case <-ticker.C:
	}

	select {
	case p.frames <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Player) setCurrent(info TakeInfo, frames int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = info
	p.position = 0
	p.duration = time.Duration(frames) * FrameDuration
}

func (p *Player) setPosition(frame int) {
	p.mu.Lock()
	p.position = time.Duration(frame) * FrameDuration
	p.mu.Unlock()
}
