package oggstream

// Ogg pages use a CRC-32 variant with polynomial 0x04C11DB7, no input
// or output reflection, a zero initial value and a zero final XOR.
// This is not the IEEE polynomial used by the standard library's
// hash/crc32 package, so a dedicated table is computed once here.

var crcTable [256]uint32

func init() {
	const poly = uint32(0x04C11DB7)
	for i := range crcTable {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// checksum computes the Ogg page CRC-32 over buf, which must have its
// four checksum bytes already zeroed.
func checksum(buf []byte) uint32 {
	var crc uint32
	for _, b := range buf {
		crc = (crc << 8) ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}
