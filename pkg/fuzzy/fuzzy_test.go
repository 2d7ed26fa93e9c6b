package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcess(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello  world"},
		{"  INVOICE_42 ", "invoice_42"},
		{"café", "caf"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Process(tt.in), tt.in)
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100, Ratio("", ""))
	assert.Equal(t, 0, Ratio("abc", ""))
	assert.Equal(t, 100, Ratio("invoice", "invoice"))
	assert.Equal(t, 75, Ratio("abcd", "abce"))
	assert.Equal(t, 0, Ratio("abc", "xyz"))
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 100, PartialRatio("abc", "xxabcxx"))
	assert.Equal(t, 100, PartialRatio("xxabcxx", "abc"))
	assert.Equal(t, 0, PartialRatio("", "abc"))
	assert.Less(t, PartialRatio("abc", "xyz"), 50)
}

func TestTokenSortRatio(t *testing.T) {
	assert.Equal(t, 100, TokenSortRatio("new york mets", "mets NEW york"))
	assert.Equal(t, 100, PartialTokenSortRatio("mets new york", "new york"))
}

func TestTokenSetRatio(t *testing.T) {
	assert.Equal(t, 100, TokenSetRatio("a b c", "c b a d"))
	assert.Equal(t, 0, TokenSetRatio("", "a"))
}

func TestPartialTokenSetRatio(t *testing.T) {
	doc := "invoice total 42"

	assert.Equal(t, 100, PartialTokenSetRatio(doc, "invoice total"))
	assert.Equal(t, 100, PartialTokenSetRatio(doc, "total invoice"))
	assert.Equal(t, 100, PartialTokenSetRatio("invoice amount due", "invoice total"))
	assert.Less(t, PartialTokenSetRatio("receipt store milk", "invoice total"), 100)
	assert.Equal(t, 0, PartialTokenSetRatio("", "invoice"))
	assert.Equal(t, 0, PartialTokenSetRatio("invoice", "   "))
}

func TestWRatio(t *testing.T) {
	assert.Equal(t, 100, WRatio("invoice", "INVOICE!"))
	assert.Equal(t, 0, WRatio("invoice", "?"))

	score := WRatio("total", "invoice total 42")
	assert.Greater(t, score, 50)
	assert.LessOrEqual(t, score, 100)
}

func TestScoresStayInRange(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"receipt", "store milk"},
		{"Ünïcödé text", "unicode"},
		{"x", "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"},
	}
	scorers := []Scorer{Ratio, PartialRatio, TokenSortRatio, TokenSetRatio, PartialTokenSetRatio, WRatio}
	for _, p := range pairs {
		for _, s := range scorers {
			got := s(p[0], p[1])
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		}
	}
}

func TestExtract(t *testing.T) {
	choices := []string{"receipt", "invoice", "invoices", "invoice"}

	got := Extract("invoice", choices, Ratio, 3)

	assert.Len(t, got, 3)
	assert.Equal(t, Match{Choice: "invoice", Score: 100, Index: 1}, got[0])
	assert.Equal(t, Match{Choice: "invoice", Score: 100, Index: 3}, got[1])
	assert.Equal(t, "invoices", got[2].Choice)

	assert.Len(t, Extract("x", choices, Ratio, 0), 4)
	assert.Empty(t, Extract("x", nil, Ratio, 5))
}
