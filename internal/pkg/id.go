package pkg

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// roomIDAlphabet has no lowercase letters so ids survive case-insensitive sharing.
const roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRoomID - generates a short human-shareable room identifier.
func GenerateRoomID(length int) string {
	id := make([]byte, length)
	for i := range id {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomIDAlphabet))))
		if err != nil {
			return ""
		}
		id[i] = roomIDAlphabet[n.Int64()]
	}

	return string(id)
}

// GenerateConnectionID - generates a unique identifier for a transport connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}
