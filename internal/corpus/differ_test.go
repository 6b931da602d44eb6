package corpus

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

func doc(name string) *Document {
	return &Document{FileName: name, Path: "/corpus/" + name}
}

func names(docs []*Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.FileName)
	}
	return out
}

func TestComputeUploadSet_DuplicateFilenames(t *testing.T) {
	files := []*Document{doc("A"), doc("B"), doc("A"), doc("C")}

	result := ComputeUploadSet(files, nil, false)

	assert.Equal(t, []string{"A", "B", "C"}, names(result.ToUpload))
	assert.Equal(t, []string{"A"}, result.SkippedDuplicateFilenames)
	assert.Empty(t, result.SkippedAlreadyUploaded)
}

func TestComputeUploadSet_ResumeSkipsLedger(t *testing.T) {
	files := []*Document{doc("A"), doc("B"), doc("C")}
	uploaded := mapset.NewSet("B")

	result := ComputeUploadSet(files, uploaded, true)

	assert.Equal(t, []string{"A", "C"}, names(result.ToUpload))
	assert.Equal(t, []string{"B"}, result.SkippedAlreadyUploaded)
	assert.Empty(t, result.SkippedDuplicateFilenames)
}

func TestComputeUploadSet_NonResumeIgnoresLedger(t *testing.T) {
	files := []*Document{doc("A"), doc("B")}
	uploaded := mapset.NewSet("A", "B")

	result := ComputeUploadSet(files, uploaded, false)

	assert.Equal(t, []string{"A", "B"}, names(result.ToUpload))
	assert.Empty(t, result.SkippedAlreadyUploaded)
}

func TestComputeUploadSet_OrderPreserved(t *testing.T) {
	files := []*Document{doc("z"), doc("m"), doc("a"), doc("m")}

	result := ComputeUploadSet(files, nil, false)

	assert.Equal(t, []string{"z", "m", "a"}, names(result.ToUpload))
}
