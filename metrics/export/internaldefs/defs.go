package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter of lifecycle events dropped under backpressure.
const AuditDroppedName = "gosession_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped lifecycle events due to dispatcher backpressure."

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful logins."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Rejected or failed logins."},
	{ID: goSession.MetricRestoreSuccess, Name: "gosession_restore_success_total", Help: "Stored sessions validated on initialize."},
	{ID: goSession.MetricRestoreFailure, Name: "gosession_restore_failure_total", Help: "Stored sessions rejected on initialize."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful credential refreshes."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Failed credential refreshes."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logouts, explicit or policy-driven."},
	{ID: goSession.MetricExpiryLogout, Name: "gosession_expiry_logout_total", Help: "Logouts forced by the expiry policy."},
	{ID: goSession.MetricExpiryPromptShown, Name: "gosession_expiry_prompt_shown_total", Help: "Expiry warnings shown to privileged users."},
	{ID: goSession.MetricExpiryPromptAccepted, Name: "gosession_expiry_prompt_accepted_total", Help: "Expiry warnings answered with extend."},
	{ID: goSession.MetricExpiryPromptDeclined, Name: "gosession_expiry_prompt_declined_total", Help: "Expiry warnings declined or unanswered."},
	{ID: goSession.MetricCredentialUndecodable, Name: "gosession_credential_undecodable_total", Help: "Credentials whose expiry could not be read."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricValidateLatency, Name: "gosession_validate_latency_seconds", Help: "Stored-session validation latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds, in order.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, the last being +Inf.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
