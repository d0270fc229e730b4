package validate

import (
	"reflect"
	"testing"
)

// ============================================================================
// CountOutsideQuotes Tests
// ============================================================================

func TestCountOutsideQuotes(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim byte
		want  int
	}{
		{
			name:  "plain commas",
			line:  "a,b,c",
			delim: ',',
			want:  2,
		},
		{
			name:  "empty line",
			line:  "",
			delim: ',',
			want:  0,
		},
		{
			name:  "no delimiter present",
			line:  "abc",
			delim: ',',
			want:  0,
		},
		{
			name:  "comma inside double quotes excluded",
			line:  `a,"b,c"`,
			delim: ',',
			want:  1,
		},
		{
			name:  "comma inside single quotes excluded",
			line:  "a,'b,c'",
			delim: ',',
			want:  1,
		},
		{
			name:  "backslash-escaped quote does not open a span",
			line:  `a,\"b,c`,
			delim: ',',
			want:  2,
		},
		{
			name:  "other quote char is literal inside a span",
			line:  `a,"it's,fine",c`,
			delim: ',',
			want:  2,
		},
		{
			name:  "unclosed quote swallows the rest",
			line:  `a,"b,c,d`,
			delim: ',',
			want:  1,
		},
		{
			name:  "pipe delimiter",
			line:  "a|b|c|d",
			delim: '|',
			want:  3,
		},
		{
			name:  "tab delimiter",
			line:  "a\tb\tc",
			delim: '\t',
			want:  2,
		},
		{
			name:  "adjacent delimiters count individually",
			line:  "a,,b",
			delim: ',',
			want:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountOutsideQuotes(tt.line, tt.delim); got != tt.want {
				t.Errorf("CountOutsideQuotes(%q, %q) = %d, want %d", tt.line, tt.delim, got, tt.want)
			}
		})
	}
}

// ============================================================================
// SplitQuoted Tests
// ============================================================================

func TestSplitQuoted(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim byte
		want  []string
	}{
		{
			name:  "plain fields",
			line:  "a,b,c",
			delim: ',',
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "empty line yields one empty field",
			line:  "",
			delim: ',',
			want:  []string{""},
		},
		{
			name:  "trailing delimiter yields trailing empty field",
			line:  "a,b,",
			delim: ',',
			want:  []string{"a", "b", ""},
		},
		{
			name:  "quoted delimiter stays in field",
			line:  `a,"b,c",d`,
			delim: ',',
			want:  []string{"a", "b,c", "d"},
		},
		{
			name:  "doubled quote folds to one literal quote",
			line:  `a,"say ""hi""",b`,
			delim: ',',
			want:  []string{"a", `say "hi"`, "b"},
		},
		{
			name:  "doubled single quote inside single-quoted span",
			line:  "a,'it''s',b",
			delim: ',',
			want:  []string{"a", "it's", "b"},
		},
		{
			name:  "other quote char kept as content",
			line:  `"it's",b`,
			delim: ',',
			want:  []string{"it's", "b"},
		},
		{
			name:  "empty quoted field",
			line:  `a,"",b`,
			delim: ',',
			want:  []string{"a", "", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitQuoted(tt.line, tt.delim); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitQuoted(%q, %q) = %q, want %q", tt.line, tt.delim, got, tt.want)
			}
		})
	}
}
