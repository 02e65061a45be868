package valueobjects

import "fmt"

// LogAction enumerates the side effects recorded in the access log.
type LogAction string

const (
	LogActionCollaboratorAdded      LogAction = "collaborator_added"
	LogActionCollaboratorRemoved    LogAction = "collaborator_removed"
	LogActionEmailSentConfirmation  LogAction = "email_sent_confirmation"
	LogActionEmailSentAccessGranted LogAction = "email_sent_access_granted"
	LogActionEmailSentRevocation    LogAction = "email_sent_revocation"
	LogActionEmailSentRenewal       LogAction = "email_sent_renewal"
	LogActionPaymentFailed          LogAction = "payment_failed"
)

func (a LogAction) IsValid() bool {
	switch a {
	case LogActionCollaboratorAdded, LogActionCollaboratorRemoved,
		LogActionEmailSentConfirmation, LogActionEmailSentAccessGranted,
		LogActionEmailSentRevocation, LogActionEmailSentRenewal,
		LogActionPaymentFailed:
		return true
	}
	return false
}

func (a LogAction) String() string {
	return string(a)
}

// LogStatus is the outcome of a logged side-effect attempt.
type LogStatus string

const (
	LogStatusSuccess LogStatus = "success"
	LogStatusFailed  LogStatus = "failed"
	LogStatusRetry   LogStatus = "retry"
)

func (s LogStatus) IsValid() bool {
	switch s {
	case LogStatusSuccess, LogStatusFailed, LogStatusRetry:
		return true
	}
	return false
}

func (s LogStatus) String() string {
	return string(s)
}

// NewLogAction validates a persisted action value.
func NewLogAction(s string) (LogAction, error) {
	a := LogAction(s)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid access log action: %s", s)
	}
	return a, nil
}

// NewLogStatus validates a persisted status value.
func NewLogStatus(s string) (LogStatus, error) {
	st := LogStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid access log status: %s", s)
	}
	return st, nil
}
