package session

import (
	"context"
	"log/slog"
)

// Notice is a user-facing message. The original tool showed these as
// dialogs; here they go to whatever Notifier the session was built with.
type Notice struct {
	Level   slog.Level
	Message string
	Err     error
}

// Notifier receives notices from a session.
type Notifier interface {
	Notify(Notice)
}

// LogNotifier forwards notices to a slog logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs n at its level.
func (l LogNotifier) Notify(n Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var args []any
	if n.Err != nil {
		args = append(args, "error", n.Err)
	}
	logger.Log(context.Background(), n.Level, n.Message, args...)
}

// Recorder keeps every notice it receives.
type Recorder struct {
	Notices []Notice
}

// Notify appends n.
func (r *Recorder) Notify(n Notice) {
	r.Notices = append(r.Notices, n)
}

// Last returns the most recent notice.
func (r *Recorder) Last() (Notice, bool) {
	if len(r.Notices) == 0 {
		return Notice{}, false
	}
	return r.Notices[len(r.Notices)-1], true
}

// Reset drops all recorded notices.
func (r *Recorder) Reset() {
	r.Notices = nil
}

// Notifiers fans a notice out to each notifier in order.
type Notifiers []Notifier

// Notify forwards n to every notifier.
func (ns Notifiers) Notify(n Notice) {
	for _, x := range ns {
		x.Notify(n)
	}
}
