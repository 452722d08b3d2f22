package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLikeMatchesLiterally(t *testing.T) {
	cases := map[string]string{
		"printer":  "printer",
		"100%":     `100\%`,
		"crm_1025": `crm\_1025`,
		`c:\temp`:  `c:\\temp`,
		`50%_off\`: `50\%\_off\\`,
	}
	for in, want := range cases {
		assert.Equal(t, want, escapeLike(in), in)
	}
}

func TestNormalizePage(t *testing.T) {
	limit, offset := normalizePage(0, -5)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = normalizePage(500, 400)
	assert.Equal(t, MaxPageSize, limit)
	assert.Equal(t, 400, offset)
}
