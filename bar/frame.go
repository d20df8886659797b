package bar

import (
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame is everything the bar shows at one moment.
type Frame struct {
	Workspaces WorkspacesView `json:"workspaces"`
	Tray       TrayView       `json:"tray"`
	Clock      string         `json:"clock"`
	Layout     string         `json:"layout"`
	Audio      *AudioView     `json:"audio"`
}

// Sink receives frames from [Runner]. Frames are passed by value; the audio
// view must not be retained past the call.
type Sink interface {
	Emit(frame Frame) error
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(Frame) error

func (f SinkFunc) Emit(frame Frame) error {
	return f(frame)
}

// JSONSink writes each frame as a single line of JSON.
type JSONSink struct {
	mu  sync.Mutex
	enc *jsoniter.Encoder
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

func (s *JSONSink) Emit(frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.enc.Encode(frame)
}
