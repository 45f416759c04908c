package oleps

import (
	"fmt"
	"math"
	"time"
)

// OLE Automation dates count days from 1899-12-30. The fractional part is
// the time of day and is never negative, even for dates before the epoch.
var oaEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

const (
	oaDateMin = -657435.0 // 0099-12-31, exclusive
	oaDateMax = 2958466.0 // 10000-01-01, exclusive
	msPerDay  = 86400000.0
)

// OADateError is the base type for all DATE conversion errors.
type OADateError struct {
	Message string
}

func (e *OADateError) Error() string {
	return e.Message
}

// OADateOutOfRange indicates a value before year 100 or after year 9999.
type OADateOutOfRange struct {
	OADateError
}

// OADateNaN indicates a NaN or infinite value.
type OADateNaN struct {
	OADateError
}

// OADateAsTime converts an OLE Automation date to a UTC time with
// millisecond resolution.
func OADateAsTime(d float64) (time.Time, error) {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return time.Time{}, &OADateNaN{OADateError{Message: fmt.Sprintf("invalid OLE date: %v", d)}}
	}
	if d <= oaDateMin || d >= oaDateMax {
		return time.Time{}, &OADateOutOfRange{OADateError{Message: fmt.Sprintf("OLE date out of range: %f", d)}}
	}

	days := math.Trunc(d)
	frac := math.Abs(d - days)
	ms := int64(math.Round(frac * msPerDay))
	if ms >= int64(msPerDay) {
		// Rounded up to midnight of the following day.
		ms -= int64(msPerDay)
		days++
	}
	return oaEpoch.AddDate(0, 0, int(days)).Add(time.Duration(ms) * time.Millisecond), nil
}

// OADateFromTime converts t to an OLE Automation date.
func OADateFromTime(t time.Time) float64 {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := float64((midnight.Unix() - oaEpoch.Unix()) / 86400)
	frac := float64(t.Sub(midnight).Milliseconds()) / msPerDay
	if days < 0 {
		return days - frac
	}
	return days + frac
}
