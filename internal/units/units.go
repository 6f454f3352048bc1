// Package units holds the speed units accepted for raw telemetry and the
// conversions into the km/h used by the feature table.
package units

import (
	"fmt"
	"strings"
)

const (
	MPS  = "mps"
	KMPH = "kmph"
	MPH  = "mph"
)

// ValidUnits lists the accepted unit names.
var ValidUnits = []string{MPS, KMPH, MPH}

// Parse normalises a unit name. "kph" and "km/h" are accepted as KMPH and
// "m/s" as MPS.
func Parse(unit string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case MPS, "m/s":
		return MPS, nil
	case KMPH, "kph", "km/h":
		return KMPH, nil
	case MPH:
		return MPH, nil
	default:
		return "", fmt.Errorf("unknown speed unit %q (valid: %s)", unit, strings.Join(ValidUnits, ", "))
	}
}

// ToKMPH converts a speed in the given unit to km/h. Unknown units are
// returned unchanged; call Parse first to reject them.
func ToKMPH(speed float64, unit string) float64 {
	switch unit {
	case MPS:
		return speed * 3.6
	case MPH:
		return speed * 1.609344
	default:
		return speed
	}
}
