package fs_test

// pattern returns n bytes of a repeating, block-misaligned byte sequence so
// copies that land in the wrong place are caught.
func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 251)
	}
	return p
}
