package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(files []FileMetadata) []int64 {
	out := make([]int64, 0, len(files))
	for _, f := range files {
		out = append(out, f.ID)
	}
	return out
}

func sampleFiles() []FileMetadata {
	return []FileMetadata{
		{ID: 1, Filename: "Report.pdf"},
		{ID: 2, Filename: "holiday.png"},
		{ID: 3, Filename: "report-draft.docx"},
	}
}

func TestListingRemove(t *testing.T) {
	l := NewListing()
	l.Replace(sampleFiles())

	l.Remove(2)
	assert.Equal(t, []int64{1, 3}, ids(l.Files()))

	l.Remove(42)
	assert.Equal(t, []int64{1, 3}, ids(l.Files()), "unknown id is a no-op")

	l.Remove(1)
	l.Remove(3)
	assert.Zero(t, l.Len())
}

func TestListingReplaceCopies(t *testing.T) {
	files := sampleFiles()
	l := NewListing()
	l.Replace(files)
	files[0].Filename = "mutated"

	f, ok := l.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "Report.pdf", f.Filename)
}

func TestListingMergeUploaded(t *testing.T) {
	l := NewListing()
	l.Replace(sampleFiles())

	added := l.MergeUploaded([]FileMetadata{
		{ID: 4, Filename: "new.txt"},
		{ID: 2, Filename: "holiday.png"},
		{ID: 5, Filename: "other.txt"},
		{ID: 4, Filename: "new.txt"},
	})

	assert.Equal(t, 2, added)
	assert.Equal(t, []int64{4, 5, 1, 2, 3}, ids(l.Files()))
}

func TestListingFilter(t *testing.T) {
	l := NewListing()
	l.Replace(sampleFiles())

	assert.Equal(t, []int64{1, 3}, ids(l.Filter("REPORT")))
	assert.Equal(t, []int64{1, 2, 3}, ids(l.Filter("")))
	assert.Equal(t, []int64{1, 2, 3}, ids(l.Filter("   ")))
	assert.Empty(t, l.Filter("spreadsheet"))
	assert.NotNil(t, l.Filter("spreadsheet"))
}
