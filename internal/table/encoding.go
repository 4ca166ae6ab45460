package table

import (
	"bytes"
	"io"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// encodingSniffSize bounds how much of a file the charset detector reads.
const encodingSniffSize = 10 * 1024

// DetectEncoding guesses the charset of the given sample. Unknown or empty
// input falls back to UTF-8.
func DetectEncoding(sample []byte) string {
	if len(sample) == 0 {
		return "UTF-8"
	}
	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil || result.Charset == "" {
		return "UTF-8"
	}
	return result.Charset
}

// decodingReader wraps r so its bytes arrive as UTF-8, translating from the
// named charset. UTF-8 and ASCII pass through untouched; a charset the IANA
// index does not know also passes through rather than failing the read.
func decodingReader(r io.Reader, charset string) io.Reader {
	switch strings.ToUpper(charset) {
	case "", "UTF-8", "ASCII", "US-ASCII":
		return r
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return r
	}
	return transform.NewReader(r, enc.NewDecoder())
}

// sniffAndDecode detects the charset from the head of data and returns a
// reader over the whole of data decoded to UTF-8, plus the detected charset.
func sniffAndDecode(data []byte) (io.Reader, string) {
	sample := data
	if len(sample) > encodingSniffSize {
		sample = sample[:encodingSniffSize]
	}
	charset := DetectEncoding(sample)
	return decodingReader(bytes.NewReader(data), charset), charset
}
