package progress

import "time"

// Step identifies the pipeline stage an event belongs to.
type Step string

const (
	StepDownload Step = "download"
	StepCompress Step = "compress"
	StepTag      Step = "tag"
	StepFinalize Step = "finalize"
	StepPublish  Step = "publish"
	// StepError is used for failures raised before any stage started.
	StepError Step = "error"
)

var stepRank = map[Step]int{
	StepDownload: 1,
	StepCompress: 2,
	StepTag:      3,
	StepFinalize: 4,
	StepPublish:  5,
	StepError:    6,
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	_, ok := stepRank[s]
	return ok
}

// Label returns the capitalized stage name used in human readable messages.
func (s Step) Label() string {
	switch s {
	case StepDownload:
		return "Download"
	case StepCompress:
		return "Compress"
	case StepTag:
		return "Tag"
	case StepFinalize:
		return "Finalize"
	case StepPublish:
		return "Publish"
	default:
		return "Pipeline"
	}
}

// Status is the lifecycle state carried by an event.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Event is a single progress notification. Events are values and are never
// mutated after emission.
type Event struct {
	Step       Step      `json:"step"`
	Status     Status    `json:"status"`
	Message    string    `json:"message"`
	Percent    *int      `json:"percent,omitempty"`
	FinalPath  string    `json:"final_path,omitempty"`
	RemoteName string    `json:"remote_name,omitempty"`
	Warning    string    `json:"warning,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
	Time       time.Time `json:"time"`
}

// Percent returns a pointer to p clamped to 0..100.
func Percent(p int) *int {
	p = min(max(p, 0), 100)
	return &p
}

// Emitter accepts ordered progress events.
type Emitter interface {
	Emit(Event) error
}

// Func adapts a plain function to the Emitter interface.
type Func func(Event) error

// Emit calls f.
func (f Func) Emit(ev Event) error {
	return f(ev)
}

// Discard drops every event.
var Discard Emitter = Func(func(Event) error { return nil })
