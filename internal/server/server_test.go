package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"zerodlna/internal/config"
	"zerodlna/internal/connectionmanager"
	"zerodlna/internal/contentdirectory"
	"zerodlna/internal/deviceid"
	"zerodlna/internal/index"

	"github.com/anacrolix/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer builds a Server wired against dir without binding any real
// socket, mirroring what Start does after net.Listen succeeds.
func newTestServer(t *testing.T, dir string) *Server {
	t.Helper()
	cfg := config.Config{Directory: dir, Port: 8200}
	require.NoError(t, cfg.Normalize())

	identity := deviceid.New(cfg.Directory, "Test Server", filepath.Join(t.TempDir(), "udn"), log.Default)
	idx := index.New(cfg.Directory, log.Default, index.WithProbing(false))

	s := &Server{cfg: cfg, identity: identity, logger: log.Default, idx: idx}
	s.contentDirectory = &contentdirectory.Service{Index: idx, BaseURL: func() string { return s.baseURL }}
	s.connectionManager = &connectionmanager.Service{}
	s.baseURL = "http://127.0.0.1:8200/"
	s.rootDescXML = buildRootDesc(identity)
	return s
}

func TestDescriptionXMLServed(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	rr := httptest.NewRecorder()
	s.newMux().ServeHTTP(rr, httptest.NewRequest("GET", "/description.xml", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<friendlyName>Test Server</friendlyName>")
	assert.Contains(t, rr.Body.String(), contentdirectory.ServiceType)
}

func TestSCPDRoutesServed(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	mux := s.newMux()

	for _, path := range []string{"/ContentDirectory.xml", "/ConnectionManager.xml"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestMediaRangeRequest(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("0123456789", 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), []byte(content), 0o644))

	s := newTestServer(t, dir)
	mux := s.newMux()

	children, _, err := s.idx.List(index.RootID, 0, 0)
	require.NoError(t, err)
	require.Len(t, children, 1)
	id := children[0].ID

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/media/"+strconv.FormatInt(int64(id), 10)+"/a.mp3", nil)
	req.Header.Set("Range", "bytes=10-19")
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusPartialContent, rr.Code, rr.Body.String())
	assert.Equal(t, content[10:20], rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("contentFeatures.dlna.org"))
}

func TestMediaRangeRequestBareIDNoTitle(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("0123456789", 30)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), []byte(content), 0o644))

	s := newTestServer(t, dir)
	mux := s.newMux()

	children, _, err := s.idx.List(index.RootID, 0, 0)
	require.NoError(t, err)
	require.Len(t, children, 1)
	id := children[0].ID

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/media/"+strconv.FormatInt(int64(id), 10), nil)
	req.Header.Set("Range", "bytes=100-199")
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusPartialContent, rr.Code, rr.Body.String())
	assert.Equal(t, content[100:200], rr.Body.String())
}

func TestMediaHeadRequest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("hello"), 0o644))

	s := newTestServer(t, dir)
	mux := s.newMux()

	children, _, err := s.idx.List(index.RootID, 0, 0)
	require.NoError(t, err)
	id := children[0].ID

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest("HEAD", "/media/"+strconv.FormatInt(int64(id), 10)+"/a.mp3", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, rr.Body.Len(), "HEAD should have no body")
}

func TestMediaUnknownIDReturns404(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	rr := httptest.NewRecorder()
	s.newMux().ServeHTTP(rr, httptest.NewRequest("GET", "/media/999/nope.mp3", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMediaSymlinkEscapeIsRejected(t *testing.T) {
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.mp3"), []byte("shh"), 0o644))

	dir := t.TempDir()
	link := filepath.Join(dir, "escape.mp3")
	if err := os.Symlink(filepath.Join(outside, "secret.mp3"), link); err != nil {
		t.Skipf("symlinks unavailable: %s", err)
	}
	s := newTestServer(t, dir)

	children, _, err := s.idx.List(index.RootID, 0, 0)
	require.NoError(t, err)
	require.Len(t, children, 1)
	id := children[0].ID

	rr := httptest.NewRecorder()
	s.newMux().ServeHTTP(rr, httptest.NewRequest("GET", "/media/"+strconv.FormatInt(int64(id), 10)+"/escape.mp3", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code, "want symlink escape rejected")
}

func TestSOAPBrowseDispatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("x"), 0o644))
	s := newTestServer(t, dir)

	body := `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>` +
		`<u:Browse xmlns:u="` + contentdirectory.ServiceType + `">` +
		`<ObjectID>0</ObjectID><BrowseFlag>BrowseDirectChildren</BrowseFlag>` +
		`<Filter>*</Filter><StartingIndex>0</StartingIndex><RequestedCount>0</RequestedCount>` +
		`<SortCriteria></SortCriteria></u:Browse></s:Body></s:Envelope>`

	req := httptest.NewRequest("POST", contentDirectoryControlURL, strings.NewReader(body))
	req.Header.Set("SOAPACTION", `"`+contentdirectory.ServiceType+`#Browse"`)
	rr := httptest.NewRecorder()
	s.newMux().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "<NumberReturned>1</NumberReturned>")
}

func TestSOAPBrowseFaultOnBadObjectID(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	body := `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>` +
		`<u:Browse xmlns:u="` + contentdirectory.ServiceType + `">` +
		`<ObjectID>bogus</ObjectID><BrowseFlag>BrowseMetadata</BrowseFlag>` +
		`<Filter>*</Filter><StartingIndex>0</StartingIndex><RequestedCount>0</RequestedCount>` +
		`<SortCriteria></SortCriteria></u:Browse></s:Body></s:Envelope>`

	req := httptest.NewRequest("POST", contentDirectoryControlURL, strings.NewReader(body))
	req.Header.Set("SOAPACTION", `"`+contentdirectory.ServiceType+`#Browse"`)
	rr := httptest.NewRecorder()
	s.newMux().ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code, "want SOAP fault")
	assert.Contains(t, rr.Body.String(), "UPnPError")
	assert.Contains(t, rr.Body.String(), "<errorCode>402</errorCode>")
}

func TestBrowseHTMLPage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("x"), 0o644))
	s := newTestServer(t, dir)

	rr := httptest.NewRecorder()
	s.newMux().ServeHTTP(rr, httptest.NewRequest("GET", "/browse", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "a.mp3")
}
