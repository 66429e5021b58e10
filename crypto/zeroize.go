package crypto

// Zeroize overwrites b with zeros in place. Safe to call on a nil or empty slice.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
