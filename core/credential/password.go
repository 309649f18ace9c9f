// Package credential generates the default passwords of provisioned accounts and delivers them.
package credential

import (
	"crypto/rand"
	"io"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	UpperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	LowerChars   = "abcdefghijklmnopqrstuvwxyz"
	DigitChars   = "0123456789"
	SpecialChars = "!@#$%^&*-_+="
	allChars     = UpperChars + LowerChars + DigitChars + SpecialChars

	MinPasswordLen   = 12
	nameFragmentLen  = 3
	discriminatorLen = 4
)

var (
	nonLetterRegex   = regexp.MustCompile(`[^a-z]`)
	nonAlphaNumRegex = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// Generator generates default passwords.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator drawing from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader}
}

// NewGeneratorWithRand returns a Generator drawing from r.
func NewGeneratorWithRand(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Generate returns a password of at least 12 characters holding an uppercase letter, a lowercase letter,
// a digit and a special character, mixed with fragments of the names and of the optional discriminator.
//
// The parts (name fragments, discriminator, one character of each class and the random padding) are
// shuffled as a whole: the discriminator stays a contiguous substring of the password.
func (g *Generator) Generate(firstName, lastName string, discriminator ...string) (string, error) {
	parts := []string{NormalizeName(firstName), NormalizeName(lastName)}
	for _, class := range []string{UpperChars, LowerChars, SpecialChars, DigitChars} {
		c, err := g.pick(class)
		if err != nil {
			return "", err
		}
		parts = append(parts, c)
	}

	if len(discriminator) > 0 && discriminator[0] != "" {
		disc := NormalizeDiscriminator(discriminator[0])
		parts = append(parts[:2], append([]string{disc}, parts[2:]...)...)
	}

	length := 0
	for _, p := range parts {
		length += len(p)
	}
	for ; length < MinPasswordLen; length++ {
		c, err := g.pick(allChars)
		if err != nil {
			return "", err
		}
		parts = append(parts, c)
	}

	// Fisher-Yates
	for i := len(parts) - 1; i > 0; i-- {
		j, err := g.intn(i + 1)
		if err != nil {
			return "", err
		}
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ""), nil
}

func (g *Generator) intn(n int) (int, error) {
	v, err := rand.Int(g.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, errors.Wrap(err, "reading random source")
	}
	return int(v.Int64()), nil
}

func (g *Generator) pick(chars string) (string, error) {
	i, err := g.intn(len(chars))
	if err != nil {
		return "", err
	}
	return chars[i : i+1], nil
}

// NormalizeName lowers `name`, strips its diacritics and non-letters and keeps its first 3 letters.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		s = strings.ToLower(name)
	}
	s = nonLetterRegex.ReplaceAllString(s, "")
	if len(s) > nameFragmentLen {
		s = s[:nameFragmentLen]
	}
	return s
}

// NormalizeDiscriminator keeps the first 4 alphanumeric characters of `disc`.
func NormalizeDiscriminator(disc string) string {
	s := nonAlphaNumRegex.ReplaceAllString(disc, "")
	if len(s) > discriminatorLen {
		s = s[:discriminatorLen]
	}
	return s
}
