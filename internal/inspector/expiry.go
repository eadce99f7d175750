package inspector

import (
	"math"
	"time"
)

// CertTimeLayout is the textual form of certificate validity dates, as
// printed by OpenSSL (e.g. "Jun  1 12:00:00 2026 GMT").
const CertTimeLayout = "Jan _2 15:04:05 2006 MST"

// ExpiryStatus classifies the remaining validity of a certificate
type ExpiryStatus string

// Expiry statuses
const (
	ExpiryHealthy ExpiryStatus = "healthy"
	ExpiryWarning ExpiryStatus = "warning"
	ExpiryExpired ExpiryStatus = "expired"
	ExpiryUnknown ExpiryStatus = "unknown"
)

// ExpiryWarningDays is the upper bound of the warning window
const ExpiryWarningDays = 30

// FormatCertTime renders t in CertTimeLayout, always in GMT
func FormatCertTime(t time.Time) string {
	return t.UTC().Format("Jan _2 15:04:05 2006") + " GMT"
}

// DaysRemaining returns the whole days between now and validTo, rounded
// toward the earlier value: 12h ahead is 0, 12h behind is -1.
func DaysRemaining(validTo string, now time.Time) (int, error) {
	expiry, err := time.Parse(CertTimeLayout, validTo)
	if err != nil {
		return 0, newError(KindDateParse, "", err)
	}

	days := expiry.Sub(now).Hours() / 24
	return int(math.Floor(days)), nil
}

// ClassifyExpiry maps a day count onto an ExpiryStatus
func ClassifyExpiry(days int) ExpiryStatus {
	switch {
	case days > ExpiryWarningDays:
		return ExpiryHealthy
	case days > 0:
		return ExpiryWarning
	default:
		return ExpiryExpired
	}
}
