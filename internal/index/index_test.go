package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anacrolix/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, root string) *Index {
	t.Helper()
	return New(root, log.Default, WithProbing(false))
}

func TestListOrderingAndElision(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "b.mp3"), "bb")
	mustWriteFile(t, filepath.Join(dir, "a.mp4"), "a")
	mustWriteFile(t, filepath.Join(dir, ".hidden.mp4"), "h")
	mustWriteFile(t, filepath.Join(dir, "readme.txt"), "unclassified")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Zebra"), 0o755))

	idx := newTestIndex(t, dir)
	children, total, err := idx.List(RootID, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 3, total, "want 3 visible children (Zebra, a.mp4, b.mp3), got %+v", children)

	assert.Equal(t, "Zebra", children[0].Title)
	assert.Equal(t, KindContainer, children[0].Kind)
	assert.Equal(t, "a.mp4", children[1].Title)
	assert.Equal(t, "b.mp3", children[2].Title)
}

func TestListIsStableAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "a.mp4"), "a")
	idx := newTestIndex(t, dir)

	first, _, err := idx.List(RootID, 0, 0)
	require.NoError(t, err)
	second, _, err := idx.List(RootID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID, "ID reassigned across calls")
}

func TestPagination(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		mustWriteFile(t, filepath.Join(dir, alphaName(i)+".mp3"), "x")
	}
	idx := newTestIndex(t, dir)

	page, total, err := idx.List(RootID, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	assert.Len(t, page, 3)
}

func TestGoneAfterDelete(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.mp4")
	mustWriteFile(t, target, "a")
	idx := newTestIndex(t, dir)

	children, _, err := idx.List(RootID, 0, 0)
	require.NoError(t, err)
	require.Len(t, children, 1)
	id := children[0].ID

	require.NoError(t, os.Remove(target))
	_, _, err = idx.List(RootID, 0, 0)
	require.NoError(t, err)

	_, err = idx.Lookup(id)
	assert.ErrorIs(t, err, ErrGone)
}

func TestListReportsSubdirectoryChildCount(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "photos")
	require.NoError(t, os.Mkdir(sub, 0o755))
	mustWriteFile(t, filepath.Join(sub, "one.jpg"), "a")
	mustWriteFile(t, filepath.Join(sub, "two.jpg"), "b")
	mustWriteFile(t, filepath.Join(sub, ".hidden.jpg"), "h")

	idx := newTestIndex(t, dir)
	children, _, err := idx.List(RootID, 0, 0)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "photos", children[0].Title)
	assert.Equal(t, KindContainer, children[0].Kind)
	assert.Equal(t, 2, children[0].ChildCount, "want photos/ to report its true non-zero child count from the parent listing, not 0")
}

func TestClassifyRootHasNoParent(t *testing.T) {
	dir := t.TempDir()
	idx := newTestIndex(t, dir)
	obj, err := idx.Classify(RootID)
	require.NoError(t, err)
	assert.EqualValues(t, -1, obj.ParentID)
	assert.Equal(t, KindContainer, obj.Kind)
}

func TestUpdateIDBumpsOnChange(t *testing.T) {
	dir := t.TempDir()
	idx := newTestIndex(t, dir)

	before := idx.UpdateID()
	_, _, err := idx.List(RootID, 0, 0)
	require.NoError(t, err)

	mustWriteFile(t, filepath.Join(dir, "new.mp3"), "x")
	_, _, err = idx.List(RootID, 0, 0)
	require.NoError(t, err)

	after := idx.UpdateID()
	assert.Greater(t, after, before, "want UpdateID to increase after a new child appears")

	_, _, err = idx.List(RootID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, after, idx.UpdateID(), "want UpdateID unchanged when nothing changed")
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func alphaName(i int) string {
	return string(rune('a' + i))
}
