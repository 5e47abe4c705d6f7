package random

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	"time"
)

// Room codes skip characters that are easy to misread (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomCodeLength is the length of a shareable room code.
const RoomCodeLength = 6

func RoomCode() string {
	return Code(RoomCodeLength)
}

func Code(length int) string {
	if length <= 0 {
		return ""
	}
	limit := big.NewInt(int64(len(codeAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			out[i] = codeAlphabet[time.Now().UnixNano()%int64(len(codeAlphabet))]
			continue
		}
		out[i] = codeAlphabet[n.Int64()]
	}
	return string(out)
}

// Seed returns a value for seeding a math/rand source. It falls back to the
// clock when the system entropy source is unavailable.
func Seed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
