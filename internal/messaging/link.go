// Package messaging builds click-to-chat deep links.
package messaging

import (
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
)

const DefaultHost = "wa.me"

// Linker renders https://<host>/<phone>?text=<message> links.
type Linker struct {
	host string
}

func NewLinker(host string) *Linker {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	return &Linker{host: host}
}

// Link escapes message the way encodeURIComponent does, so spaces become %20.
func (l *Linker) Link(phone, message string) (string, error) {
	digits := normalizePhone(phone)
	if digits == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number required")
	}
	return fmt.Sprintf("https://%s/%s?text=%s", l.host, digits, escape(message)), nil
}

// normalizePhone keeps digits only; wa.me rejects "+", spaces and dashes.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escape percent-encodes every byte outside A-Z a-z 0-9 and -_.!~*'(),
// the set encodeURIComponent leaves alone. url.QueryEscape encodes !'()*
// and turns spaces into "+", which chat apps show literally.
func escape(message string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(message))
	for i := 0; i < len(message); i++ {
		c := message[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
