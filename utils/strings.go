package utils

// LastN masks all but the last n characters of s, and shortens it to at
// most n+3 characters. It is used to log secrets.
func LastN(s string, n int) string {
	if n < 0 {
		n = 0
	}
	out := []byte(s)
	if len(out) > n+3 {
		out = out[len(out)-n-3:]
	}
	for i := range out {
		if i < len(out)-n {
			out[i] = '*'
		}
	}
	return string(out)
}
