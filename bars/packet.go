package bars

// Header is the first byte of every packet ('B').
const Header byte = 'B'

// PacketSize returns the wire size of a packet carrying numBars levels.
func PacketSize(numBars int) int { return 1 + numBars }

// AppendPacket appends the header byte followed by levels to dst.
func AppendPacket(dst []byte, levels Levels) []byte {
	dst = append(dst, Header)
	return append(dst, levels...)
}

// EncodePacket returns a freshly allocated packet for levels.
func EncodePacket(levels Levels) []byte {
	return AppendPacket(make([]byte, 0, PacketSize(len(levels))), levels)
}
