package segbuf

import "math/rand"

const (
	testSegmentCount = 3000
	minSegmentLength = 1
	maxSegmentLength = 900
)

var testSegments [][]byte

func init() {
	testSegments = randomByteSlices(testSegmentCount, minSegmentLength, maxSegmentLength)
}

func randomBytes(min, max int) []byte {
	l := min + rand.Intn(max-min)
	p := make([]byte, l)
	rand.Read(p)
	return p
}

func randomByteSlices(n, min, max int) [][]byte {
	b := make([][]byte, n)
	for i := 0; i < n; i++ {
		b[i] = randomBytes(min, max)
	}

	return b
}

func randomSegment() []byte {
	return testSegments[rand.Intn(len(testSegments))]
}
