package util

import (
	"encoding/json"
	"io"
)

// FullDecode decodes a JSON body into obj and drains the reader to EOF so the
// connection can be reused. The drain result is intentionally ignored.
func FullDecode(r io.Reader, obj interface{}) error {
	d := json.NewDecoder(r)
	err := d.Decode(obj)
	io.Copy(io.Discard, r)
	return err
}
