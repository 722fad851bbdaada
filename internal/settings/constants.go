package settings

// DB config keys and defaults for settings.
const (
	// LedgerRetentionDaysKey controls how long usage entries are kept.
	LedgerRetentionDaysKey = "LEDGER_RETENTION_DAYS"
	// RolloverSweepIntervalSecondsKey controls the rollover sweep interval.
	RolloverSweepIntervalSecondsKey = "ROLLOVER_SWEEP_INTERVAL_SECONDS"
	// ReserveMaxRetriesKey controls lock-conflict retries during a reservation.
	ReserveMaxRetriesKey = "RESERVE_MAX_RETRIES"

	// DefaultLedgerRetentionDays keeps the full audit trail by default (0 = never delete).
	DefaultLedgerRetentionDays = 0
	// DefaultRolloverSweepIntervalSeconds is the fallback sweep interval (seconds).
	DefaultRolloverSweepIntervalSeconds = 300
	// DefaultReserveMaxRetries is the fallback retry budget for lock conflicts.
	DefaultReserveMaxRetries = 3
)
