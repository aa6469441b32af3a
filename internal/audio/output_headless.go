//go:build headless

package audio

// Output is unavailable in headless builds.
type Output struct{}

// NewOutput always fails in headless builds.
func NewOutput(*Synth, int, int) (*Output, error) {
	return nil, ErrNoDevice
}

func (o *Output) Start()        {}
func (o *Output) Stop()         {}
func (o *Output) Playing() bool { return false }
func (o *Output) Close() error  { return nil }
