package emailutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "only separators and whitespace",
			input:    " ,\n , \n",
			expected: nil,
		},
		{
			name:     "single address",
			input:    "a@b.com",
			expected: []string{"a@b.com"},
		},
		{
			name:     "comma separated",
			input:    "a@b.com, c@d.com",
			expected: []string{"a@b.com", "c@d.com"},
		},
		{
			name:     "newline separated",
			input:    "a@b.com\nc@d.com",
			expected: []string{"a@b.com", "c@d.com"},
		},
		{
			name:     "duplicate across separators",
			input:    "a@b.com, a@b.com\nc@d.com",
			expected: []string{"a@b.com", "c@d.com"},
		},
		{
			name:     "dedup is case-sensitive",
			input:    "a@b.com, A@B.COM",
			expected: []string{"a@b.com", "A@B.COM"},
		},
		{
			name:     "first occurrence order preserved",
			input:    "c@d.com, a@b.com, c@d.com, e@f.com, a@b.com",
			expected: []string{"c@d.com", "a@b.com", "e@f.com"},
		},
		{
			name:     "whitespace trimmed including CRLF",
			input:    "  a@b.com \r\n\t c@d.com ,",
			expected: []string{"a@b.com", "c@d.com"},
		},
		{
			name:     "non-email garbage survives parsing",
			input:    "not an email, a@b.com",
			expected: []string{"not an email", "a@b.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseList(tt.input))
		})
	}
}

func TestParseListNoDuplicates(t *testing.T) {
	inputs := []string{
		"a@b.com,a@b.com,a@b.com",
		"x,y,z,x,y,z\nx",
		"a@b.com\na@b.com, c@d.com,c@d.com",
	}
	for _, input := range inputs {
		list := ParseList(input)
		seen := make(map[string]bool)
		for _, entry := range list {
			assert.False(t, seen[entry], "duplicate %q in %v", entry, list)
			seen[entry] = true
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"a@b.com", true},
		{"good@x.com", true},
		{"first.last@sub.domain.org", true},
		{"weird+tag@host.io", true},
		{"bad-email", false},
		{"no-at-sign.com", false},
		{"missing@dot", false},
		{"two@@at.com", false},
		{"spaces in@name.com", false},
		{"@host.com", false},
		{"user@.", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValid(tt.addr))
		})
	}
}

func TestPartition(t *testing.T) {
	list := ParseList("bad-email, good@x.com")
	valid, invalid := Partition(list)
	assert.Equal(t, []string{"good@x.com"}, valid)
	assert.Equal(t, []string{"bad-email"}, invalid)
}

func TestPartitionIsCompleteAndDisjoint(t *testing.T) {
	list := ParseList("a@b.com, nope, c@d.com\nalso bad, e@f.com")
	valid, invalid := Partition(list)

	assert.Len(t, valid, 3)
	assert.Len(t, invalid, 2)
	assert.Equal(t, len(list), len(valid)+len(invalid))

	// Every entry lands in exactly one subset.
	membership := make(map[string]int)
	for _, v := range valid {
		membership[v]++
	}
	for _, v := range invalid {
		membership[v]++
	}
	for _, entry := range list {
		assert.Equal(t, 1, membership[entry], "entry %q", entry)
	}

	// Relative order from the original list is preserved in each subset.
	assert.Equal(t, []string{"a@b.com", "c@d.com", "e@f.com"}, valid)
	assert.Equal(t, []string{"nope", "also bad"}, invalid)
}

func TestRemove(t *testing.T) {
	list := ParseList("a@b.com, a@b.com, c@d.com")
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, list)

	removed := Remove(list, "a@b.com")
	assert.Equal(t, []string{"c@d.com"}, removed)
	assert.Equal(t, "c@d.com", Rejoin(removed))

	// Removing something absent is a no-op.
	assert.Equal(t, []string{"c@d.com"}, Remove(removed, "missing@x.com"))
}

func TestRejoinRoundTrip(t *testing.T) {
	list := []string{"a@b.com", "c@d.com", "e@f.com"}
	assert.Equal(t, "a@b.com, c@d.com, e@f.com", Rejoin(list))
	assert.Equal(t, list, ParseList(Rejoin(list)))
	assert.Equal(t, "", Rejoin(nil))
}
