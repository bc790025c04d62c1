package services

import (
	"fmt"
	"math/rand"
	"strings"
)

// SlugExistsFunc reports whether a slug is already claimed by a record
// other than excludeID (0 to exclude nothing).
type SlugExistsFunc func(slug string, excludeID int) (bool, error)

const randomSlugLen = 8

// Slugify converts a title to a URL-safe slug: lowercase letters,
// digits and hyphens survive, uppercase is folded, runs of spaces
// become a single hyphen, everything else is dropped.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphens
	for _, r := range strings.TrimSpace(title) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// randomSlugBase builds a fallback base like "post-x7k2m9qa" for titles
// that slugify to nothing (e.g. titles written entirely in CJK).
func randomSlugBase(prefix string) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, randomSlugLen)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return prefix + "-" + string(b)
}

// GenerateUniqueSlug derives a slug for title that is unique at the
// moment of the check. Collisions get a numeric suffix: the first taken
// base yields "-2", then "-3" and so on. The first free candidate wins,
// which makes generation deterministic against a fixed slug set.
//
// The check-then-insert window is closed by the storage layer: the
// repository claims the slug index key in the insert transaction, and
// the caller retries generation on ErrSlugTaken.
func GenerateUniqueSlug(title string, excludeID int, exists SlugExistsFunc) (string, error) {
	return generateUniqueSlug(title, "post", excludeID, exists)
}

func generateUniqueSlug(title, fallbackPrefix string, excludeID int, exists SlugExistsFunc) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	base := Slugify(title)
	if base == "" {
		base = randomSlugBase(fallbackPrefix)
	}

	candidate := base
	for n := 2; ; n++ {
		taken, err := exists(candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
