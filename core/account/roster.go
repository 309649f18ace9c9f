package account

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/scheduler"
	"github.com/eduai/backend/core/student"
)

type (
	// DeliveredFlags remembers which credentials were delivered.
	DeliveredFlags interface {
		// MarkDelivered sets the flag `key` and reports whether it was not set yet.
		MarkDelivered(ctx context.Context, key string) (bool, error)
		Unmark(ctx context.Context, key string) error
	}

	RosterProvisioner interface {
		ProvisionRosterStudent(ctx context.Context, s student.Student) (ProvisionResult, error)
	}

	// CompletionWatcher provisions the account of a roster row the first time a save leaves it with
	// a first name, a last name and an email. Each row is handled at most once per session.
	CompletionWatcher struct {
		flags       DeliveredFlags
		provisioner RosterProvisioner
		logger      core.Logger
	}

	RosterStore interface {
		Create(ctx context.Context, schoolID, userID string, ns student.NewStudent) (student.Student, error)
		SetFields(ctx context.Context, schoolID, id string, edits map[student.Field]string) (student.Student, error)
		Delete(ctx context.Context, schoolID, id string) error
	}

	// RowEditor saves roster cell edits after a quiet period: edits of a row are merged (last edit of
	// a field wins) and written together once no edit came in for the delay.
	RowEditor struct {
		students RosterStore
		watcher  *CompletionWatcher
		sched    *scheduler.Scheduler
		delay    time.Duration
		logger   core.Logger

		mu    sync.Mutex
		edits map[string]map[student.Field]string // {student ID: {field: value}}
		sheet map[string]map[string]ProvisionResult // {session ID: {student ID: created account}}
	}
)

func NewCompletionWatcher(flags DeliveredFlags, provisioner RosterProvisioner, logger core.Logger) *CompletionWatcher {
	return &CompletionWatcher{flags: flags, provisioner: provisioner, logger: logger}
}

func deliveredKey(sessionID, studentID string) string {
	return "session:" + sessionID + ":student:" + studentID
}

// RowSaved reacts to a saved roster row. It returns nil when nothing had to be provisioned.
func (w *CompletionWatcher) RowSaved(ctx context.Context, s student.Student) (*ProvisionResult, error) {
	if !s.Complete() || s.HasAccount() {
		return nil, nil
	}
	sess, ok := identity.SessionFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	key := deliveredKey(sess.ID, s.ID)
	first, err := w.flags.MarkDelivered(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "marking credentials delivered")
	}
	if !first {
		return nil, nil
	}

	res, err := w.provisioner.ProvisionRosterStudent(ctx, s)
	if err != nil {
		// let a later save try again
		if uerr := w.flags.Unmark(ctx, key); uerr != nil {
			w.logger.Warn("unmarking credentials delivered: "+uerr.Error(), uerr)
		}
		return nil, err
	}
	return &res, nil
}

func NewRowEditor(
	students RosterStore,
	watcher *CompletionWatcher,
	sched *scheduler.Scheduler,
	delay time.Duration,
	logger core.Logger,
) *RowEditor {
	return &RowEditor{
		students: students,
		watcher:  watcher,
		sched:    sched,
		delay:    delay,
		logger:   logger,
		edits:    make(map[string]map[student.Field]string),
		sheet:    make(map[string]map[string]ProvisionResult),
	}
}

// AddRow inserts a roster row. A row added complete is provisioned right away.
func (e *RowEditor) AddRow(ctx context.Context, schoolID string, ns student.NewStudent) (student.Student, *ProvisionResult, error) {
	s, err := e.students.Create(ctx, schoolID, "", ns)
	if err != nil {
		return student.Student{}, nil, err
	}
	res, err := e.watcher.RowSaved(ctx, s)
	if err != nil {
		e.logger.Error("provisioning roster row: "+err.Error(), err)
	}
	e.remember(ctx, s.ID, res)
	return s, res, nil
}

// Edit records a cell edit and (re)schedules the save of its row.
// ctx must carry the identity session; it is detached from its cancellation.
func (e *RowEditor) Edit(ctx context.Context, schoolID, studentID string, f student.Field, value string) {
	e.mu.Lock()
	row, ok := e.edits[studentID]
	if !ok {
		row = make(map[student.Field]string)
		e.edits[studentID] = row
	}
	row[f] = value
	e.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if !e.sched.Schedule(studentID, e.delay, func() { e.save(ctx, schoolID, studentID) }) {
		e.mu.Lock()
		delete(e.edits, studentID)
		e.mu.Unlock()
		e.logger.Warn("roster editor stopped, edit dropped", map[string]interface{}{"student_id": studentID})
	}
}

// Pending reports whether edits of the row wait to be saved.
func (e *RowEditor) Pending(studentID string) bool {
	return e.sched.Pending(studentID)
}

func (e *RowEditor) takeEdits(studentID string) map[student.Field]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	row := e.edits[studentID]
	delete(e.edits, studentID)
	return row
}

func (e *RowEditor) save(ctx context.Context, schoolID, studentID string) {
	edits := e.takeEdits(studentID)
	if len(edits) == 0 {
		return
	}
	s, err := e.students.SetFields(ctx, schoolID, studentID, edits)
	if err != nil {
		e.logger.Error("saving roster row: "+err.Error(), err, map[string]interface{}{"student_id": studentID})
		return
	}
	res, err := e.watcher.RowSaved(ctx, s)
	if err != nil {
		e.logger.Error("provisioning roster row: "+err.Error(), err, map[string]interface{}{"student_id": studentID})
		return
	}
	e.remember(ctx, studentID, res)
}

// remember keeps the credentials of an account created for the row, for the session of ctx.
func (e *RowEditor) remember(ctx context.Context, studentID string, res *ProvisionResult) {
	if res == nil || res.Exists || res.DefaultPassword == "" {
		return
	}
	sess, ok := identity.SessionFromContext(ctx)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, ok := e.sheet[sess.ID]
	if !ok {
		rows = make(map[string]ProvisionResult)
		e.sheet[sess.ID] = rows
	}
	rows[studentID] = *res
}

// Credentials returns the credentials created for the row during the session of ctx.
// Delivery by email may have failed; they stay available until the row is deleted or the session ends.
func (e *RowEditor) Credentials(ctx context.Context, studentID string) (ProvisionResult, error) {
	sess, ok := identity.SessionFromContext(ctx)
	if !ok {
		return ProvisionResult{}, ErrUnauthenticated
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	res, ok := e.sheet[sess.ID][studentID]
	if !ok {
		return ProvisionResult{}, ErrNoCredentials
	}
	return res, nil
}

// ForgetSession drops the credentials sheet of an ended session.
func (e *RowEditor) ForgetSession(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sheet, sessionID)
}

// Delete drops the pending edits of the row, then deletes it.
func (e *RowEditor) Delete(ctx context.Context, schoolID, studentID string) error {
	e.sched.Cancel(studentID)
	e.takeEdits(studentID)
	if sess, ok := identity.SessionFromContext(ctx); ok {
		e.mu.Lock()
		delete(e.sheet[sess.ID], studentID)
		e.mu.Unlock()
	}
	return e.students.Delete(ctx, schoolID, studentID)
}

// Flush saves the pending rows right away.
func (e *RowEditor) Flush() {
	e.sched.Flush()
}
