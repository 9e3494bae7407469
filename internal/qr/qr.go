// Package qr issues QR login credentials and renders them as images.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Credential returns the QR payload stored for a user. The plain user
// id keeps codes short and readable by cheap barcode scanners.
func Credential(userID string) string {
	return userID
}

// PNG renders a credential as a size×size PNG.
func PNG(data string, size int) ([]byte, error) {
	if data == "" {
		return nil, fmt.Errorf("qr data required")
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(data, qrcode.Medium, size)
}
