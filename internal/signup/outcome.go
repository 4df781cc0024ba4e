package signup

// User-facing messages for locally detected problems.
const (
	MsgEmailRequired   = "Please enter your email address"
	MsgCaptchaRequired = "Please complete the CAPTCHA"
	MsgGenericFailure  = "Something went wrong. Please try again."
)

// Outcome is the result of one Submit call.
type Outcome int

const (
	// OutcomeBusy means a submission was already in flight; nothing happened.
	OutcomeBusy Outcome = iota
	// OutcomeBlockedEmail means the email was empty after trimming.
	OutcomeBlockedEmail
	// OutcomeBlockedCaptcha means no CAPTCHA token was present.
	OutcomeBlockedCaptcha
	// OutcomeAccepted means the endpoint accepted the signup.
	OutcomeAccepted
	// OutcomeRejected means the endpoint declined the signup.
	OutcomeRejected
	// OutcomeFailed means the request failed or the reply was unusable.
	OutcomeFailed
)

var outcomeNames = [...]string{
	OutcomeBusy:           "busy",
	OutcomeBlockedEmail:   "blocked_email",
	OutcomeBlockedCaptcha: "blocked_captcha",
	OutcomeAccepted:       "accepted",
	OutcomeRejected:       "rejected",
	OutcomeFailed:         "failed",
}

// String returns the metric label for the outcome.
func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// Outcomes lists every outcome, in declaration order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeBusy, OutcomeBlockedEmail, OutcomeBlockedCaptcha,
		OutcomeAccepted, OutcomeRejected, OutcomeFailed,
	}
}

// Phase is where a form is in its submission cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}
