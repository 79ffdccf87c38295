package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SeedService derives per-session seeds from a server secret. Clients see
// session ids before they see boards, so the secret is what keeps a seed
// from being computed in advance.
type SeedService struct {
	secret []byte
}

func NewSeedService(secret string) *SeedService {
	return &SeedService{secret: []byte(secret)}
}

// NewSeed returns hex(HMAC-SHA256(secret, id)).
func (s *SeedService) NewSeed(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}
