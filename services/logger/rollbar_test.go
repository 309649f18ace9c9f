package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/identity"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "API : ", 0), core.NewTestConfig())
	l.Enable(false)

	usr := identity.User{ID: "u1", Email: "jean.dupont@example.com", Metadata: identity.Metadata{
		AccountType:     "teacher",
		DefaultPassword: "s3cr3t!Pwd12",
	}}
	l.Error("delivering credentials", errors.New("smtp down"), usr, map[string]interface{}{"school_id": "s1"})

	out := buf.String()
	assert.Contains(t, out, "[error] delivering credentials")
	assert.Contains(t, out, "error: smtp down")
	assert.Contains(t, out, "user: u1 <jean.dupont@example.com> teacher")
	assert.Contains(t, out, "school_id: s1")
	assert.NotContains(t, out, "s3cr3t!Pwd12")
}

func TestNewReport(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	jean := identity.User{ID: "u1", Metadata: identity.Metadata{AccountType: "teacher"}}
	marie := identity.User{ID: "u2", Metadata: identity.Metadata{AccountType: "student"}}

	r := newReport("provisioning", []interface{}{
		jean, map[string]interface{}{"school_id": "s1"}, errA, marie,
		map[string]interface{}{"student_id": "st1", "school_id": "s2"}, errB, 42,
	})
	assert.Equal(t, "provisioning", r.msg)
	assert.Equal(t, errA, r.err)
	if assert.NotNil(t, r.user) {
		assert.Equal(t, "u1", r.user.ID, "the first user is reported")
	}
	assert.Equal(t, map[string]interface{}{
		"school_id":    "s2",
		"student_id":   "st1",
		"account_type": "teacher",
		"args":         []interface{}{"b", 42},
		"message":      "provisioning",
	}, r.custom)
	assert.Equal(t, []interface{}{"provisioning", rollbarSkip, errA, r.custom}, r.rollbarArgs())

	bare := newReport("started", nil)
	assert.Nil(t, bare.user)
	assert.Empty(t, bare.custom)
	assert.Equal(t, []interface{}{"started", rollbarSkip}, bare.rollbarArgs())
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Info("a")
	r.Error("b", 1)
	r.Error("c")

	assert.Len(t, r.Entries(""), 3)
	errs := r.Entries("error")
	if assert.Len(t, errs, 2) {
		assert.Equal(t, "b", errs[0].Msg)
		assert.Equal(t, []interface{}{1}, errs[0].Args)
	}
}
