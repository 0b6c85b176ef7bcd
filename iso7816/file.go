package iso7816

import (
	"github.com/opencard/pkcs15mw/file"
	"github.com/opencard/pkcs15mw/path"
)

// SelectAndReadBinary selects p and reads its entire transparent body,
// satisfying pkcs15.FileReader for directory-file loading (ODF, AODF,
// PrKDF, PuKDF, CDF, DODF are all transparent EFs).
func (c Card) SelectAndReadBinary(p path.Path) (*file.File, []byte, error) {
	f, err := c.Select(p)
	if err != nil {
		return nil, nil, err
	}

	buf := make([]byte, f.Size)
	if len(buf) == 0 {
		return f, nil, nil
	}

	total := 0
	for total < len(buf) {
		n, err := c.ReadBinary(uint16(total), buf[total:])
		if err != nil {
			return f, nil, err
		}
		if n == 0 {
			break
		}
		total += n
	}
	return f, buf[:total], nil
}
