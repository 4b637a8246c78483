package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/userix/userix/internal/database"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "muster", want: "%muster%"},
		{in: "_", want: `%\_%`},
		{in: "100%", want: `%100\%%`},
		{in: `a\b`, want: `%a\\b%`},
		{in: "", want: "%%"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, database.ContainsPattern(tt.in))
		})
	}
}
