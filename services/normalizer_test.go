package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNormalizeText(t *testing.T) {
	cases := map[string]string{
		"":                          "",
		"   ":                       "",
		"A Study on X":              "A Study on X",
		"  A   Study\n\ton X  ":     "A Study on X",
		"Deep\u00a0\u00a0Learning":  "Deep Learning",
		"line1\r\nline2\n\n\nline3": "line1 line2 line3",
		"\u2003em space\u3000cjk ":  "em space cjk",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeText(in), "input %q", in)
	}
}

func TestNormalizeText_PropertiesHold(t *testing.T) {
	inputs := []string{
		"", " a ", "a  b", "\t\tx\n\ny  z  ", "already clean", "  \n ", "ü ö ä",
		strings.Repeat(" word ", 50),
	}
	for _, in := range inputs {
		out := NormalizeText(in)
		assert.NotContains(t, out, "  ", "doubled whitespace for %q", in)
		assert.Equal(t, strings.TrimSpace(out), out, "untrimmed for %q", in)
		assert.Equal(t, out, NormalizeText(out), "not idempotent for %q", in)
	}
}

func TestTextNormalizer_NFC(t *testing.T) {
	decomposed := "Cafe\u0301  Society"
	tn := NewTextNormalizer(zap.NewNop(), true)

	out := tn.Normalize(decomposed)
	assert.Equal(t, "Caf\u00e9 Society", out)
	assert.Equal(t, out, tn.Normalize(out))

	plain := NewTextNormalizer(zap.NewNop(), false)
	assert.Equal(t, "Cafe\u0301 Society", plain.Normalize(decomposed))
}

func TestTextNormalizer_NormalizeAllDropsBlanks(t *testing.T) {
	tn := NewTextNormalizer(zap.NewNop(), true)
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, tn.NormalizeAll([]string{" Jane  Doe", "", "  ", "John\nRoe"}))
	assert.Empty(t, tn.NormalizeAll(nil))
}
