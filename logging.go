package wstask

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the concrete logger type threaded through the scheduler and
// every Core. It's the corpus's own house logging facade (logiface) over
// its house JSON backend (stumpy) — see logiface-stumpy/example_test.go
// for the New()/Option pattern this mirrors.
type Logger = logiface.Logger[*stumpy.Event]

// NewJSONLogger returns a Logger writing structured JSON lines to the
// given stumpy options (e.g. stumpy.L.WithWriter(w)). With no options, it
// behaves like stumpy.L.New(): enabled at LevelInformational, writing to
// os.Stderr.
func NewJSONLogger(opts ...logiface.Option[*stumpy.Event]) *Logger {
	return stumpy.L.New(opts...)
}
