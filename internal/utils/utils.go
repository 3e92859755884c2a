package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// GenToken returns a random url-safe token built from n random bytes.
func GenToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// SanitizeKey lowercases s and keeps only [a-z0-9_-].
func SanitizeKey(s string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(s) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// SanitizeKeys sanitizes every element, dropping the ones left empty.
func SanitizeKeys(ss []string) []string {
	res := []string{}
	for _, s := range ss {
		if k := SanitizeKey(s); k != "" {
			res = append(res, k)
		}
	}
	return res
}

const (
	NonceLifetime = 24 * time.Hour
	nonceLen      = 10
)

// Noncer mints and checks verification tokens for form submissions.
// A nonce is bound to an action and stays valid for between half and
// the whole of NonceLifetime.
type Noncer struct {
	key [32]byte
	now func() time.Time
}

func NewNoncer(secret []byte) *Noncer {
	return &Noncer{key: blake2b.Sum256(secret), now: time.Now}
}

func (n *Noncer) tick() int64 {
	half := int64(NonceLifetime / time.Second / 2)
	return (n.now().Unix() + half - 1) / half
}

func (n *Noncer) mac(action string, tick int64) string {
	h, err := blake2b.New256(n.key[:])
	if err != nil {
		// A 32 byte key is always accepted
		panic(err)
	}
	h.Write([]byte(strconv.FormatInt(tick, 10)))
	h.Write([]byte{'|'})
	h.Write([]byte(action))
	return hex.EncodeToString(h.Sum(nil))[:nonceLen*2]
}

func (n *Noncer) Create(action string) string {
	return n.mac(action, n.tick())
}

func (n *Noncer) Verify(action string, nonce string) bool {
	if nonce == "" {
		return false
	}
	tick := n.tick()
	for _, t := range []int64{tick, tick - 1} {
		if subtle.ConstantTimeCompare([]byte(n.mac(action, t)), []byte(nonce)) == 1 {
			return true
		}
	}
	return false
}
