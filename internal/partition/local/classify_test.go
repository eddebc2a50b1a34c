package local

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line     string
		wantType string
		wantText string
	}{
		{"Quarterly Report", TypeTitle, "Quarterly Report"},
		{"Revenue grew by ten percent in the third quarter.", TypeNarrativeText, "Revenue grew by ten percent in the third quarter."},
		{"• Lower emissions", TypeListItem, "Lower emissions"},
		{"- Higher margins", TypeListItem, "Higher margins"},
		{"1. Scope one", TypeListItem, "Scope one"},
		{"b) Scope two", TypeListItem, "Scope two"},
		{"A. Smith", TypeTitle, "A. Smith"},
		{"2024", TypeUncategorized, "2024"},
		{"$4.5 million", TypeUncategorized, "$4.5 million"},
		{"see appendix", TypeUncategorized, "see appendix"},
	}
	for _, tt := range tests {
		gotType, gotText := classify(tt.line)
		require.Equal(t, tt.wantType, gotType, tt.line)
		require.Equal(t, tt.wantText, gotText, tt.line)
	}
}

func TestSegmentJoinsWrappedLines(t *testing.T) {
	t.Parallel()

	text := "\nOverview\nThe company reduced its emissions and\nimproved supplier audits.\n• Item one\n  \n42\n"
	blocks := segment(text)
	require.Equal(t, []block{
		{Type: TypeTitle, Text: "Overview"},
		{Type: TypeNarrativeText, Text: "The company reduced its emissions and improved supplier audits."},
		{Type: TypeListItem, Text: "Item one"},
		{Type: TypeUncategorized, Text: "42"},
	}, blocks)
}

func TestSegmentEmpty(t *testing.T) {
	t.Parallel()

	require.Empty(t, segment(" \n\n\t"))
}
