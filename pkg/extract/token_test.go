package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToken(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  string
		found bool
	}{
		{
			name:  "script assignment",
			body:  `<script>post.yyp_pass='abc123';</script>`,
			want:  "abc123",
			found: true,
		},
		{
			name:  "plain assignment",
			body:  `<script>var yyp_pass = "tok42";</script>`,
			want:  "tok42",
			found: true,
		},
		{
			name:  "hidden input",
			body:  `<input type="hidden" name="yyp_pass" value="deadbeef">`,
			want:  "deadbeef",
			found: true,
		},
		{
			name:  "no token",
			body:  `<html><body>场馆预约</body></html>`,
			found: false,
		},
		{
			name:  "empty value does not count",
			body:  `post.yyp_pass=''`,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Token(tt.body)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenPatternPriority(t *testing.T) {
	// When several shapes are present, the script assignment wins.
	body := `post.yyp_pass='first'; <input name="yyp_pass" value="second">`
	got, ok := Token(body)
	assert.True(t, ok)
	assert.Equal(t, "first", got)
}
