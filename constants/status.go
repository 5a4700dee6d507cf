package constants

// Stage is the lifecycle position of a single conversion request.
type Stage string

// Stable values (also written to the audit log).
const (
	StageReceived   Stage = "received"
	StageResolved   Stage = "resolved"
	StageAuthorized Stage = "authorized"
	StageExtracted  Stage = "extracted"
	StageParsed     Stage = "parsed"
	StageRendered   Stage = "rendered"
	StageCompleted  Stage = "completed" // terminal: result returned in memory
	StageSaved      Stage = "saved"     // terminal: result written to destination
	StageRejected   Stage = "rejected"  // terminal: authorization failed
	StageFailed     Stage = "failed"    // terminal failure
)
