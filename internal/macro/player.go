package macro

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Handler processes one replayed request. A non-nil error stops playback.
type Handler func(line string) error

// Player replays macros from a Recorder.
type Player struct {
	recorder *Recorder

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPlayer creates a Player reading registers from recorder.
func NewPlayer(recorder *Recorder) *Player {
	return &Player{recorder: recorder}
}

// Play sends the requests in register to handler, count times (at least
// once). Playing the register being recorded is refused, since the
// recording would grow while it plays.
func (p *Player) Play(ctx context.Context, register rune, count int, handler Handler) error {
	if handler == nil {
		return errors.New("macro: nil handler")
	}
	name := NormalizeRegister(register)
	if name == 0 {
		return fmt.Errorf("%w: %c", ErrInvalidRegister, register)
	}
	if p.recorder.CurrentRegister() == name {
		return fmt.Errorf("%w to register %c", ErrRecording, name)
	}
	lines := p.recorder.Get(name)
	if len(lines) == 0 {
		return fmt.Errorf("%w: %c", ErrEmptyRegister, name)
	}
	count = max(count, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return ErrPlaying
	}
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
	}()

	for range count {
		for _, line := range lines {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := handler(line); err != nil {
				return fmt.Errorf("macro %c: %w", name, err)
			}
		}
	}

	p.recorder.setLastPlayed(name)
	return nil
}

// PlayLast replays the last played register.
func (p *Player) PlayLast(ctx context.Context, count int, handler Handler) error {
	register := p.recorder.LastPlayed()
	if register == 0 {
		return ErrNoLastMacro
	}
	return p.Play(ctx, register, count, handler)
}

// IsPlaying reports whether a playback is running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Cancel stops the running playback, if any.
func (p *Player) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}
