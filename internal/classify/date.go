package classify

// NormalizeDate converts a raw DD/MM/YYYY date string into ISO YYYY-MM-DD.
// It extracts characters at fixed offsets and reassembles them; it does not
// validate day or month ranges, so "35/13/2024" becomes "2024-13-35" just as
// the upstream feed produced it. Anything that is not exactly ten characters
// in the expected shape yields "" (unknown date). Never returns an error.
func NormalizeDate(raw string) string {
	if len(raw) != 10 {
		return ""
	}
	if raw[2] != '/' || raw[5] != '/' {
		return ""
	}
	for _, i := range [8]int{0, 1, 3, 4, 6, 7, 8, 9} {
		if raw[i] < '0' || raw[i] > '9' {
			return ""
		}
	}
	return raw[6:10] + "-" + raw[3:5] + "-" + raw[0:2]
}
