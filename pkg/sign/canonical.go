package sign

// IsCanonical reports whether the 64-byte r ∥ s pair passes the Graphene canonical-form check:
// neither component has its high bit set, and neither starts with a zero byte unless the
// following byte has its high bit set.
func IsCanonical(rs []byte) bool {
	if len(rs) != 64 {
		return false
	}
	return rs[0]&0x80 == 0 &&
		!(rs[0] == 0 && rs[1]&0x80 == 0) &&
		rs[32]&0x80 == 0 &&
		!(rs[32] == 0 && rs[33]&0x80 == 0)
}
