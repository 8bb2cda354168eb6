package domain

import (
	"fmt"
	"time"
)

// DraftStatus is the review workflow state of a draft
type DraftStatus string

const (
	// StatusPending means the draft awaits an operator action
	StatusPending DraftStatus = "pending"
	// StatusPendingEdit means the operator asked to edit and the workflow
	// is waiting for replacement text
	StatusPendingEdit DraftStatus = "pending_edit"
	// StatusApproved means the stored text was approved as-is
	StatusApproved DraftStatus = "approved"
	// StatusEdited means operator-supplied text superseded the candidate
	StatusEdited DraftStatus = "edited"
	// StatusSkipped means the draft was discarded with no delivery
	StatusSkipped DraftStatus = "skipped"
)

// Draft is a candidate reply awaiting operator review. One active draft
// exists per chat; creating a new one replaces it.
type Draft struct {
	ID         string
	ChatID     string
	ChatTitle  string
	Text       string
	Confidence int
	Status     DraftStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// LastError holds the delivery failure that returned the draft to
	// pending, empty otherwise.
	LastError string
}

// IsTerminal reports whether the draft reached a final status
func (d *Draft) IsTerminal() bool {
	switch d.Status {
	case StatusApproved, StatusEdited, StatusSkipped:
		return true
	}
	return false
}

// Approve moves the draft to approved, forwarding the stored text unchanged
func (d *Draft) Approve() error {
	if d.Status != StatusPending {
		return fmt.Errorf("approve: draft is %s, want %s", d.Status, StatusPending)
	}
	d.Status = StatusApproved
	d.touch()
	return nil
}

// BeginEdit marks the draft as waiting for replacement text
func (d *Draft) BeginEdit() error {
	if d.Status != StatusPending {
		return fmt.Errorf("begin edit: draft is %s, want %s", d.Status, StatusPending)
	}
	d.Status = StatusPendingEdit
	d.touch()
	return nil
}

// ApplyEdit replaces the candidate text with operator-supplied text.
// Allowed from pending too, so an edit submitted without the explicit
// begin-edit step still lands.
func (d *Draft) ApplyEdit(text string) error {
	if d.Status != StatusPending && d.Status != StatusPendingEdit {
		return fmt.Errorf("apply edit: draft is %s", d.Status)
	}
	d.Text = text
	d.Status = StatusEdited
	d.touch()
	return nil
}

// Skip discards the draft with no delivery attempt
func (d *Draft) Skip() error {
	if d.IsTerminal() {
		return fmt.Errorf("skip: draft is %s", d.Status)
	}
	d.Status = StatusSkipped
	d.touch()
	return nil
}

// MarkSendFailed returns a delivered-but-failed draft to pending so the
// operator sees it as retryable instead of losing it silently.
func (d *Draft) MarkSendFailed(cause string) {
	d.Status = StatusPending
	d.LastError = cause
	d.touch()
}

func (d *Draft) touch() {
	d.UpdatedAt = time.Now()
}
