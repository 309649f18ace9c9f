package logsvc

import (
	"sync"

	"github.com/eduai/backend/core"
)

// Entry is a message logged by a Recorder.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Recorder is a core.Logger keeping the logged entries in memory (tests).
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) log(level, msg string, args []interface{}) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Args: args})
	r.mu.Unlock()
}

func (r *Recorder) Debug(msg string, args ...interface{}) { r.log("debug", msg, args) }
func (r *Recorder) Info(msg string, args ...interface{})  { r.log("info", msg, args) }
func (r *Recorder) Warn(msg string, args ...interface{})  { r.log("warn", msg, args) }
func (r *Recorder) Error(msg string, args ...interface{}) { r.log("error", msg, args) }
func (r *Recorder) Fatal(msg string, args ...interface{}) { r.log("fatal", msg, args) }

// Entries returns the entries of `level`, or all of them when level is empty.
func (r *Recorder) Entries(level string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []Entry
	for _, e := range r.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}
