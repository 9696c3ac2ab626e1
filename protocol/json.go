package protocol

// AppendString appends s to buf as a JSON string literal.
// Quotes, backslashes and control characters are escaped; every other
// byte is copied, so valid UTF-8 stays valid.
func AppendString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b == '"' || b == '\\':
			buf = append(buf, '\\', b)
		case b == '\n':
			buf = append(buf, '\\', 'n')
		case b == '\r':
			buf = append(buf, '\\', 'r')
		case b == '\t':
			buf = append(buf, '\\', 't')
		case b < 0x20:
			buf = append(buf, '\\', 'u', '0', '0', hexDigits[b>>4], hexDigits[b&0xF])
		default:
			buf = append(buf, b)
		}
	}
	return append(buf, '"')
}
