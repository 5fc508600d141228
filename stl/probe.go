package stl

// probeMaxLookaheadTokens bounds how many whitespace-delimited tokens past
// the "solid" header the probe will scan looking for "facet" before
// demoting a tentatively-ASCII file to binary. Binary STL files frequently
// open with the bytes "solid" in their 80-byte header region; a genuine
// ASCII file reaches "facet" within a short distance (immediately, or after
// one optional solid-name token), so four tokens is generous without being
// fooled by binary garbage.
const probeMaxLookaheadTokens = 4

// binaryHeaderSize is the fixed length of the binary STL header, after
// which the little-endian uint32 face count is stored.
const binaryHeaderSize = 80

// probeResult reports the outcome of probeFormat.
type probeResult struct {
	isBinary    bool
	binaryFaces uint32 // valid only when isBinary
}

// probeFormat determines whether r holds ASCII or binary STL data and
// positions r's cursor at the first facet: for ASCII, immediately before the
// "facet" token opening the first facet; for binary, past the 84-byte
// header, at the start of the first facet record.
//
// If forceBinary is true, the ASCII heuristic is skipped entirely and the
// stream is treated as binary starting from offset 80.
func probeFormat(r *ByteReader, forceBinary bool) (probeResult, error) {
	r.SkipWhitespace()

	isASCII := false
	if !forceBinary {
		var head [5]byte
		if !r.DecodeBytes(head[:]) {
			return probeResult{}, ioError("STL file has invalid header.")
		}
		isASCII = string(head[:]) == "solid"
	}

	if isASCII {
		for i := 0; i < probeMaxLookaheadTokens; i++ {
			seekPoint := r.Position()
			tok, ok := r.ParseToken()
			if !ok {
				return probeResult{}, ioError("STL file is missing face data.")
			}
			if tok == "facet" {
				r.SetPosition(seekPoint)
				return probeResult{isBinary: false}, nil
			}
		}
		isASCII = false
	}

	r.SetPosition(binaryHeaderSize)
	var n uint32
	if !r.DecodeUint32(&n) {
		return probeResult{}, ioError("Binary STL file has invalid header.")
	}
	return probeResult{isBinary: true, binaryFaces: n}, nil
}
