package common

const secretMask = "******"

// MaskSecret returns a masked placeholder for secrets, suitable for log
// lines and config summaries. Spec §7: "keys in config summaries are
// masked to xxxx...xxxx" — never the literal value.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	return secretMask
}

// IsMaskedSecret reports whether the supplied value is a masked placeholder.
func IsMaskedSecret(value string) bool {
	return value == secretMask
}
