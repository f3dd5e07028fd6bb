package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConstants(t *testing.T) {
	// 48kHz * 20ms = 960 samples per channel
	if got := SampleRate * int(FrameDuration/time.Millisecond) / 1000; got != FrameSize {
		t.Errorf("FrameSize mismatch: want %d, got %d", got, FrameSize)
	}
	if FrameSamples != FrameSize*Channels {
		t.Errorf("FrameSamples = %d, want %d", FrameSamples, FrameSize*Channels)
	}
	if FrameBytes != FrameSamples*2 {
		t.Errorf("FrameBytes = %d, want %d", FrameBytes, FrameSamples*2)
	}
}

func TestSmoothstepBoundaries(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		if got := Smoothstep(tt.input); got != tt.want {
			t.Errorf("Smoothstep(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 100; i++ {
		x := float64(i) / 100.0
		if val := Smoothstep(x); val < prev {
			t.Errorf("Smoothstep not monotonic at %v", x)
		} else {
			prev = val
		}
	}
}

func TestCrossfadeEndpoints(t *testing.T) {
	out := []int16{1000, -1000, 500, -500}
	in := []int16{2000, -2000, 1500, -1500}
	for i, v := range Crossfade(out, in, 0) {
		if v != out[i] {
			t.Errorf("progress=0 sample[%d] = %d, want %d", i, v, out[i])
		}
	}
	for i, v := range Crossfade(out, in, 1) {
		if v != in[i] {
			t.Errorf("progress=1 sample[%d] = %d, want %d", i, v, in[i])
		}
	}
}

func TestCrossfadeMidpoint(t *testing.T) {
	got := Crossfade([]int16{1000, -1000}, []int16{3000, -3000}, 0.5)
	for i, want := range []int16{2000, -2000} {
		if got[i] != want {
			t.Errorf("progress=0.5 sample[%d] = %d, want %d", i, got[i], want)
		}
	}
}

func TestCrossfadeClipping(t *testing.T) {
	got := Crossfade([]int16{32767, -32768}, []int16{32767, -32768}, 0.5)
	if got[0] != 32767 || got[1] != -32768 {
		t.Errorf("extremes at midpoint = %v, want [32767 -32768]", got)
	}
	if clip16(40000) != 32767 || clip16(-40000) != -32768 {
		t.Error("clip16 does not clamp")
	}
}

func TestSamplesBytesRoundTrip(t *testing.T) {
	original := []int16{0, 1, -1, 32767, -32768, 12345, -6789}
	buf := SamplesToBytes(original)
	if len(buf) != len(original)*2 {
		t.Fatalf("SamplesToBytes length = %d, want %d", len(buf), len(original)*2)
	}
	got := BytesToSamples(append(buf, 0x7f)) // odd trailing byte dropped
	if len(got) != len(original) {
		t.Fatalf("BytesToSamples length = %d, want %d", len(got), len(original))
	}
	for i, v := range original {
		if got[i] != v {
			t.Errorf("round-trip sample[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func constantTake(frames int, v int16) []int16 {
	s := make([]int16, frames*FrameSamples)
	for i := range s {
		s[i] = v
	}
	return s
}

func fakeDecoder(takes map[string][]int16) Decoder {
	return func(ctx context.Context, path string) ([]int16, error) {
		s, ok := takes[path]
		if !ok {
			return nil, errors.New("no such take")
		}
		return s, nil
	}
}

func TestNewPlayer(t *testing.T) {
	p := NewPlayer(nil, 2*time.Second, nil)
	if p.Crossfade() != 2*time.Second {
		t.Errorf("Crossfade = %v, want 2s", p.Crossfade())
	}
	take, pos, dur := p.Status()
	if take.ID != "" || pos != 0 || dur != 0 {
		t.Errorf("initial status should be zero, got %v %v %v", take, pos, dur)
	}
	if p.QueueSize() != 0 {
		t.Errorf("QueueSize = %d, want 0", p.QueueSize())
	}
}

func TestEnqueueFull(t *testing.T) {
	p := NewPlayer(nil, 0, nil)
	for i := 0; i < queueCapacity; i++ {
		if err := p.Enqueue(TakeInfo{ID: "x"}); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}
	if err := p.Enqueue(TakeInfo{ID: "overflow"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue on full queue = %v, want ErrQueueFull", err)
	}
}

func TestPlayerPlaysTake(t *testing.T) {
	dec := fakeDecoder(map[string][]int16{"a.wav": constantTake(5, 7)})
	p := NewPlayer(dec, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	if err := p.Enqueue(TakeInfo{ID: "1", Name: "a", Path: "a.wav"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		select {
		case f := <-p.Frames():
			if len(f) != FrameSamples || f[0] != 7 {
				t.Fatalf("frame %d: len=%d first=%d", i, len(f), f[0])
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for frame %d", i)
		}
	}
	take, _, dur := p.Status()
	if take.Name != "a" || dur != 5*FrameDuration {
		t.Errorf("Status = %v, %v", take, dur)
	}
}

func TestPlayerCrossfadesIntoNext(t *testing.T) {
	dec := fakeDecoder(map[string][]int16{
		"a.wav": constantTake(10, 1000),
		"b.wav": constantTake(10, 3000),
	})
	p := NewPlayer(dec, 4*FrameDuration, nil)
	p.Enqueue(TakeInfo{Name: "a", Path: "a.wav"})
	p.Enqueue(TakeInfo{Name: "b", Path: "b.wav"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	// 6 plain frames of a, 4 blended, then 6 of b.
	var firsts []int16
	for len(firsts) < 16 {
		select {
		case f := <-p.Frames():
			firsts = append(firsts, f[0])
		case <-time.After(3 * time.Second):
			t.Fatalf("timeout after %d frames", len(firsts))
		}
	}
	if firsts[0] != 1000 || firsts[5] != 1000 {
		t.Errorf("pre-fade frames = %v", firsts[:6])
	}
	if firsts[6] != 1000 {
		t.Errorf("fade start = %d, want 1000 (progress 0)", firsts[6])
	}
	if firsts[8] != 2000 {
		t.Errorf("fade midpoint = %d, want 2000", firsts[8])
	}
	if firsts[10] != 3000 || firsts[15] != 3000 {
		t.Errorf("post-fade frames = %v", firsts[10:])
	}
}

func TestPlayerSkipsUndecodable(t *testing.T) {
	dec := fakeDecoder(map[string][]int16{"ok.wav": constantTake(2, 5)})
	p := NewPlayer(dec, 0, nil)
	p.Enqueue(TakeInfo{Path: "broken.wav"})
	p.Enqueue(TakeInfo{Path: "ok.wav"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case f := <-p.Frames():
		if f[0] != 5 {
			t.Errorf("first frame = %d, want 5 from ok.wav", f[0])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout")
	}
}

func TestPlayerClosesFramesOnCancel(t *testing.T) {
	p := NewPlayer(fakeDecoder(nil), 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	cancel()
	select {
	case _, ok := <-p.Frames():
		if ok {
			t.Error("unexpected frame after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Frames not closed after cancel")
	}
}

// collect reads frames until none arrives for idle.
func collect(t *testing.T, p *Player, idle time.Duration) []int16 {
	t.Helper()
	var firsts []int16
	for {
		select {
		case f := <-p.Frames():
			firsts = append(firsts, f[0])
		case <-time.After(idle):
			return firsts
		}
	}
}

func TestSkipWhileIdleKeepsNextTake(t *testing.T) {
	dec := fakeDecoder(map[string][]int16{"a.wav": constantTake(5, 7)})
	p := NewPlayer(dec, 0, nil)
	p.Skip()
	p.Skip() // must not block

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	if err := p.Enqueue(TakeInfo{Name: "a", Path: "a.wav"}); err != nil {
		t.Fatal(err)
	}

	if got := collect(t, p, 300*time.Millisecond); len(got) != 5 {
		t.Errorf("got %d frames, want all 5", len(got))
	}
}

func TestSkipCutsCurrentTake(t *testing.T) {
	dec := fakeDecoder(map[string][]int16{
		"long.wav":  constantTake(100, 1),
		"short.wav": constantTake(3, 2),
	})
	p := NewPlayer(dec, 0, nil)
	p.Enqueue(TakeInfo{Name: "long", Path: "long.wav"})
	p.Enqueue(TakeInfo{Name: "short", Path: "short.wav"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-p.Frames():
		case <-time.After(2 * time.Second):
			t.Fatal("long take did not start")
		}
	}
	p.Skip()

	got := collect(t, p, 300*time.Millisecond)
	var long, short int
	for _, v := range got {
		switch v {
		case 1:
			long++
		case 2:
			short++
		}
	}
	if long+2 >= 100 {
		t.Errorf("skip did not cut the long take: %d more frames", long)
	}
	if short != 3 {
		t.Errorf("short take frames = %d, want 3", short)
	}
}

func TestShortTakeAfterCrossfadeNotRepeated(t *testing.T) {
	dec := fakeDecoder(map[string][]int16{
		"a.wav": constantTake(20, 1000),
		"b.wav": constantTake(6, 3000),
	})
	p := NewPlayer(dec, 5*FrameDuration, nil)
	p.Enqueue(TakeInfo{Name: "a", Path: "a.wav"})
	p.Enqueue(TakeInfo{Name: "b", Path: "b.wav"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	// 15 plain frames of a, 5 blended with b's first 5, then b's last frame.
	got := collect(t, p, 300*time.Millisecond)
	if len(got) != 21 {
		t.Fatalf("got %d frames, want 21: %v", len(got), got)
	}
	if got[14] != 1000 || got[20] != 3000 {
		t.Errorf("frames = %v", got)
	}
}
