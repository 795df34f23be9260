//go:build sonic

package jsonutil

import (
	"io"

	"github.com/bytedance/sonic"
)

var Marshal = sonic.Marshal
var Unmarshal = sonic.Unmarshal

func Encode(w io.Writer, v any) error {
	return sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func Decode(r io.Reader, v any) error {
	return sonic.ConfigDefault.NewDecoder(r).Decode(v)
}
