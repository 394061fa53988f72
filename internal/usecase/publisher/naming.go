package publisher

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

const maxSlugLen = 60

// Slugify keeps letters, digits, '-' and '_' and lowercases the result.
func Slugify(hint string) string {
	var b strings.Builder
	for _, r := range hint {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	s := b.String()
	if s == "" {
		return "app"
	}
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}

type namer struct {
	prefix string
	now    func() time.Time
}

// Name is <prefix>-<slug>-<YYYYMMDDHHMMSS>.
func (n namer) Name(hint string) string {
	return fmt.Sprintf("%s-%s-%s", n.prefix, Slugify(hint), n.now().Format("20060102150405"))
}

// Finer appends a sub-second suffix after a collision on name.
func (n namer) Finer(name string) string {
	t := n.now()
	return fmt.Sprintf("%s-%s%06d", name, t.Format("150405"), t.Nanosecond()/1000)
}
