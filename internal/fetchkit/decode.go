package fetchkit

import (
	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
)

// decodeToUTF8 detects the body's character encoding from the Content-Type
// header plus content sniffing and decodes it to UTF-8. Bodies already in
// UTF-8 are returned unchanged.
func decodeToUTF8(body []byte, contentType string) ([]byte, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if enc == unicode.UTF8 || name == "utf-8" {
		return body, nil
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: decode %s body", name)
	}
	return decoded, nil
}
