package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nps_survey/internal/domain"
)

func TestSanitizeText(t *testing.T) {
	cases := map[string]string{
		"":                                 "",
		"  plain text  ":                   "plain text",
		"<b>bold</b> move":                 "bold move",
		"fish &amp; chips":                 "fish  chips",
		"bell\x07 and\x00 nul":             "bell and nul",
		"c1\u0085char":                     "c1char",
		"<script>alert(1)</script>after":   "alert(1)after",
		"\t\n  tabbed and new-lined \r\n ": "tabbed and new-lined",
	}
	for in, want := range cases {
		assert.Equal(t, want, domain.SanitizeText(in), "input %q", in)
	}
}

func TestSanitizeEmail(t *testing.T) {
	assert.Nil(t, domain.SanitizeEmail(""))
	got := domain.SanitizeEmail(" User@Example.COM ")
	require.NotNil(t, got)
	assert.Equal(t, "user@example.com", *got)
}

func TestStripRatio(t *testing.T) {
	assert.Zero(t, domain.StripRatio(""))
	assert.Zero(t, domain.StripRatio("nothing to strip"))
	assert.InDelta(t, 0.5, domain.StripRatio("<ab>abcd"), 0.0001)
}
