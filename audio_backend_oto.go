//go:build !headless

// audio_backend_oto.go - OTO v3 audio output implementation

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"sync"

	"github.com/ebitengine/oto/v3"
)

// sampleSource is whatever can hand over newly generated int16 PCM since
// the last drain — hw_apu.go's DrainSamples, behind an interface so tests
// can substitute a fixed sample feed.
type sampleSource interface {
	Samples() []int16
}

// OtoPlayer streams the APU's mixed mono int16 stream to the host sound
// device, the same oto.Player/oto.Context wiring the teacher's own
// backend used, narrowed from float32/stereo ring-buffer reads to a pull
// from DrainSamples each Read.
type OtoPlayer struct {
	ctx    *oto.Context
	player *oto.Player
	source sampleSource

	pending []int16 // leftover samples that didn't fill the last Read call
	started bool
	mutex   sync.Mutex
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   0,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{ctx: ctx}, nil
}

// SetupPlayer binds the sample source (normally a *DMG) and creates the
// oto.Player that will pull from it via Read.
func (op *OtoPlayer) SetupPlayer(source sampleSource) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.source = source
	op.player = op.ctx.NewPlayer(op)
}

// Read implements io.Reader for oto.Player: it drains whatever the source
// has generated since the last call, buffering any samples beyond what fit
// in p so nothing is dropped between calls, and pads with silence rather
// than blocking when the source hasn't produced enough yet.
func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	op.mutex.Lock()
	source := op.source
	op.mutex.Unlock()

	want := len(p) / 2
	if source != nil {
		op.pending = append(op.pending, source.Samples()...)
	}

	take := want
	if take > len(op.pending) {
		take = len(op.pending)
	}
	for i := 0; i < take; i++ {
		s := op.pending[i]
		p[i*2] = byte(s)
		p[i*2+1] = byte(s >> 8)
	}
	for i := take * 2; i < len(p); i++ {
		p[i] = 0
	}
	op.pending = op.pending[take:]

	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		op.player.Close()
		op.started = false
	}
}

func (op *OtoPlayer) Close() {
	op.Stop()
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		op.player.Close()
		op.player = nil
	}
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
