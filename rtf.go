package pst

import "github.com/pstkit/pst/internal/rtf"

// DecompressRTF decodes a PidTagRtfCompressed payload into its original
// RTF bytes.
func DecompressRTF(data []byte) ([]byte, error) {
	out, err := rtf.DecompressRTF(data)
	return out, wrap("decompress rtf", err)
}

// CompressRTF encodes rtfData into a compressed-RTF stream, reusing
// dictionary matches against the fixed preamble and the data seen so
// far.
func CompressRTF(rtfData []byte) ([]byte, error) {
	out, err := rtf.CompressRTF(rtfData)
	return out, wrap("compress rtf", err)
}

// EncodeRTF wraps rtfData in an uncompressed compressed-RTF stream
// header, for producers that don't want to pay for LZ matching.
func EncodeRTF(rtfData []byte) []byte {
	return rtf.EncodeRTF(rtfData)
}
