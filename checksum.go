package pasori

// LCS computes the length checksum: the value that, added to n modulo 256,
// yields zero.
func LCS(n byte) byte {
	return byte(0) - n
}

// DCS computes the data checksum: the value that, added to the sum of
// payload modulo 256, yields zero.
func DCS(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return byte(0) - sum
}
