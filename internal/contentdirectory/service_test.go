package contentdirectory

import (
	"os"
	"path/filepath"
	"testing"

	"zerodlna/internal/index"
	"zerodlna/internal/upnp"

	"github.com/anacrolix/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, dir string) *Service {
	t.Helper()
	idx := index.New(dir, log.Default, index.WithProbing(false))
	return &Service{Index: idx, BaseURL: func() string { return "http://localhost:8200/" }}
}

func browseArgsXML(objectID, browseFlag, startIdx, count string) []byte {
	return []byte(`<u:Browse xmlns:u="` + ServiceType + `">` +
		`<ObjectID>` + objectID + `</ObjectID>` +
		`<BrowseFlag>` + browseFlag + `</BrowseFlag>` +
		`<Filter>*</Filter>` +
		`<StartingIndex>` + startIdx + `</StartingIndex>` +
		`<RequestedCount>` + count + `</RequestedCount>` +
		`<SortCriteria></SortCriteria></u:Browse>`)
}

func TestBrowseDirectChildrenRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("x"), 0o644))
	svc := newTestService(t, dir)

	args, err := svc.Handle("Browse", browseArgsXML("0", "BrowseDirectChildren", "0", "0"), nil)
	require.NoError(t, err)

	values := toMap(args)
	assert.Equal(t, "1", values["NumberReturned"])
	assert.Equal(t, "1", values["TotalMatches"])
}

func TestBrowseMetadataRoot(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	args, err := svc.Handle("Browse", browseArgsXML("0", "BrowseMetadata", "0", "0"), nil)
	require.NoError(t, err)
	assert.Equal(t, "1", toMap(args)["NumberReturned"])
}

func TestBrowseBadObjectIDReturns402(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	_, err := svc.Handle("Browse", browseArgsXML("notanumber", "BrowseMetadata", "0", "0"), nil)
	assertUPnPCode(t, err, upnp.InvalidArgsErrorCode)
}

func TestBrowseBadBrowseFlagReturns402(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	_, err := svc.Handle("Browse", browseArgsXML("0", "Bogus", "0", "0"), nil)
	assertUPnPCode(t, err, upnp.InvalidArgsErrorCode)
}

func TestBrowseNoSuchObjectReturns701(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	_, err := svc.Handle("Browse", browseArgsXML("999", "BrowseMetadata", "0", "0"), nil)
	assertUPnPCode(t, err, upnp.NoSuchObjectErrorCode)
}

func TestUnsupportedActionReturns401(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	_, err := svc.Handle("Nonexistent", nil, nil)
	assertUPnPCode(t, err, upnp.InvalidActionErrorCode)
}

func TestGetSortAndSearchCapabilities(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	args, err := svc.Handle("GetSortCapabilities", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "dc:title", toMap(args)["SortCaps"])

	args, err = svc.Handle("GetSearchCapabilities", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "", toMap(args)["SearchCaps"])
}

func TestGetSystemUpdateID(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	args, err := svc.Handle("GetSystemUpdateID", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "0", toMap(args)["Id"], "want initial UpdateID 0")
}

func toMap(args [][2]string) map[string]string {
	m := make(map[string]string, len(args))
	for _, a := range args {
		m[a[0]] = a[1]
	}
	return m
}

func assertUPnPCode(t *testing.T, err error, want uint) {
	t.Helper()
	require.Error(t, err)
	ue, ok := err.(upnp.Error)
	require.True(t, ok, "want upnp.Error, got %T: %v", err, err)
	assert.Equal(t, want, ue.Code)
}
