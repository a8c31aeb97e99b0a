package app

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const pngDataURIPrefix = "data:image/png;base64,"

// QREncoder renders content as a PNG QR code wrapped in a data URI.
type QREncoder struct {
	Level qrcode.RecoveryLevel
	Size  int
}

func NewQREncoder() QREncoder {
	return QREncoder{Level: qrcode.Medium, Size: 256}
}

func (e QREncoder) Encode(content string) (string, error) {
	png, err := qrcode.Encode(content, e.Level, e.Size)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
