//go:build headless

package main

type OtoPlayer struct {
	started bool
	source  sampleSource
}

type sampleSource interface {
	Samples() []int16
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	return &OtoPlayer{}, nil
}

func (op *OtoPlayer) SetupPlayer(source sampleSource) {
	op.source = source
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	if op.source != nil {
		op.source.Samples()
	}
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.started = true
}

func (op *OtoPlayer) Stop() {
	op.started = false
}

func (op *OtoPlayer) Close() {
	op.started = false
}

func (op *OtoPlayer) IsStarted() bool {
	return op.started
}
