package source

import "time"

// compactLayoutLen is the length of YYYYMMDDThhmmss without fraction or zone.
const compactLayoutLen = 15

// ParseBattleTime converts a compact battle timestamp (YYYYMMDDThhmmss[.sss]Z)
// into a UTC instant. The boolean is false for malformed input, in which case
// the returned time is the zero value and must not be used.
func ParseBattleTime(raw string) (time.Time, bool) {
	if len(raw) < compactLayoutLen+1 || raw[len(raw)-1] != 'Z' {
		return time.Time{}, false
	}
	if raw[8] != 'T' || !allDigits(raw[0:8]) || !allDigits(raw[9:compactLayoutLen]) {
		return time.Time{}, false
	}

	frac := raw[compactLayoutLen : len(raw)-1]
	if frac != "" {
		if len(frac) < 2 || len(frac) > 4 || frac[0] != '.' || !allDigits(frac[1:]) {
			return time.Time{}, false
		}
	}

	// 2006-01-02T15:04:05[.000]Z
	iso := make([]byte, 0, len(raw)+5)
	iso = append(iso, raw[0:4]...)
	iso = append(iso, '-')
	iso = append(iso, raw[4:6]...)
	iso = append(iso, '-')
	iso = append(iso, raw[6:8]...)
	iso = append(iso, 'T')
	iso = append(iso, raw[9:11]...)
	iso = append(iso, ':')
	iso = append(iso, raw[11:13]...)
	iso = append(iso, ':')
	iso = append(iso, raw[13:15]...)
	iso = append(iso, frac...)
	iso = append(iso, 'Z')

	t, err := time.Parse(time.RFC3339Nano, string(iso))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// FormatBattleTime renders t in the compact wire format with milliseconds.
func FormatBattleTime(t time.Time) string {
	return t.UTC().Format("20060102T150405.000Z")
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
