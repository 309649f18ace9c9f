package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, assert.AnError }

func assertPasswordPolicy(t *testing.T, pwd string) {
	t.Helper()
	assert.GreaterOrEqual(t, len(pwd), MinPasswordLen, pwd)
	assert.True(t, strings.ContainsAny(pwd, UpperChars), "no uppercase letter in %q", pwd)
	assert.True(t, strings.ContainsAny(pwd, LowerChars), "no lowercase letter in %q", pwd)
	assert.True(t, strings.ContainsAny(pwd, DigitChars), "no digit in %q", pwd)
	assert.True(t, strings.ContainsAny(pwd, SpecialChars), "no special character in %q", pwd)
	for _, r := range pwd {
		assert.True(t, strings.ContainsRune(allChars, r), "unexpected %q in %q", r, pwd)
	}
}

func TestGenerator_Generate(t *testing.T) {
	gen := NewGenerator()

	tests := []struct {
		name          string
		firstName     string
		lastName      string
		discriminator []string
		wantParts     []string
	}{
		{name: "names", firstName: "Jean", lastName: "Dupont", wantParts: []string{"jea", "dup"}},
		{name: "accented names", firstName: "Élodie", lastName: "Lefèvre", wantParts: []string{"elo", "lef"}},
		{name: "short names", firstName: "Al", lastName: "Li", wantParts: []string{"al", "li"}},
		{name: "empty names", firstName: "", lastName: ""},
		{name: "non letters only", firstName: "123", lastName: "--"},
		{
			name:          "discriminator",
			firstName:     "Jean",
			lastName:      "Dupont",
			discriminator: []string{"2024-A17"},
			wantParts:     []string{"jea", "dup", "2024"},
		},
		{name: "blank discriminator", firstName: "Jean", lastName: "Dupont", discriminator: []string{""}, wantParts: []string{"jea", "dup"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd, err := gen.Generate(tt.firstName, tt.lastName, tt.discriminator...)
			require.NoError(t, err)
			assertPasswordPolicy(t, pwd)
			for _, part := range tt.wantParts {
				assert.Contains(t, pwd, part)
			}
		})
	}
}

func TestGenerator_Generate_random(t *testing.T) {
	gen := NewGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pwd, err := gen.Generate("Jean", "Dupont", "S042")
		require.NoError(t, err)
		assertPasswordPolicy(t, pwd)
		assert.Contains(t, pwd, "S042")
		seen[pwd] = true
	}
	assert.Len(t, seen, 100)
}

func TestGenerator_Generate_randError(t *testing.T) {
	pwd, err := NewGeneratorWithRand(failingReader{}).Generate("Jean", "Dupont")
	require.Error(t, err)
	assert.Empty(t, pwd)
	assert.Contains(t, err.Error(), "reading random source")
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Jean", "jea"},
		{"DUPONT", "dup"},
		{"Élodie", "elo"},
		{"Chloé", "chl"},
		{"Jean-Marc", "jea"},
		{"O'Brien", "obr"},
		{"Ñu", "nu"},
		{"  ", ""},
		{"42", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.name))
		})
	}
}

func TestNormalizeDiscriminator(t *testing.T) {
	tests := []struct {
		disc string
		want string
	}{
		{"S042", "S042"},
		{"2024-A17", "2024"},
		{"a-b", "ab"},
		{"ab", "ab"},
		{"--", ""},
	}
	for _, tt := range tests {
		t.Run(tt.disc, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDiscriminator(tt.disc))
		})
	}
}
