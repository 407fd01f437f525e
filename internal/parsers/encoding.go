package parsers

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Decoder turns raw file bytes into UTF-8 text
type Decoder struct {
	Name   string
	Decode func(data []byte) ([]byte, error)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// UTF8Decoder accepts input that is already valid UTF-8
var UTF8Decoder = Decoder{
	Name: "utf-8",
	Decode: func(data []byte) ([]byte, error) {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("input is not valid utf-8")
		}
		return data, nil
	},
}

// Latin1Decoder decodes ISO-8859-1
var Latin1Decoder = Decoder{
	Name: "latin-1",
	Decode: func(data []byte) ([]byte, error) {
		return charmap.ISO8859_1.NewDecoder().Bytes(data)
	},
}

// Windows1252Decoder decodes cp1252
var Windows1252Decoder = Decoder{
	Name: "cp1252",
	Decode: func(data []byte) ([]byte, error) {
		return charmap.Windows1252.NewDecoder().Bytes(data)
	},
}

// DefaultDecoders is the order in which encodings are attempted
func DefaultDecoders() []Decoder {
	return []Decoder{UTF8Decoder, Latin1Decoder, Windows1252Decoder}
}

// DecodeWithFallback tries each decoder in order and returns the text of the
// first one that succeeds together with its name.
func DecodeWithFallback(data []byte, decoders []Decoder) (string, string, error) {
	if len(decoders) == 0 {
		return "", "", fmt.Errorf("no decoders configured")
	}

	var lastErr error
	for _, d := range decoders {
		out, err := d.Decode(data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", d.Name, err)
			continue
		}
		if !utf8.Valid(out) {
			lastErr = fmt.Errorf("%s: decoded output is not valid utf-8", d.Name)
			continue
		}
		return string(out), d.Name, nil
	}
	return "", "", lastErr
}
