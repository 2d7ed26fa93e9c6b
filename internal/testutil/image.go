package testutil

import (
	"bytes"
	"image/color"

	"github.com/disintegration/imaging"
)

// PNG returns an encoded white image of the given size.
func PNG(w, h int) []byte {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(w, h, color.White), imaging.PNG); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
