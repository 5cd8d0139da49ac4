package frame

// SumComplement returns (sum(b) mod 256) XOR 0xFF.
func SumComplement(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum ^ 0xFF
}

// SpheroChecksum validates a Sphero frame: the trailing byte is the complemented sum of
// every byte after the two start-of-packet bytes.
func SpheroChecksum(f []byte) bool {
	if len(f) < 4 {
		return false
	}
	return SumComplement(f[2:len(f)-1]) == f[len(f)-1]
}
