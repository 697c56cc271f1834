package index

import (
	"strings"

	"zerodlna/internal/upnpav"
)

type mimeEntry struct {
	MimeType string
	Class    string
	// Mediaish is true for audio/video, where a cheaply-probed duration is
	// worth attempting (spec.md §3).
	Mediaish bool
}

// mimeTable is the authoritative extension → (MIME, upnp class) mapping from
// spec.md §3. Lookups are case-insensitive; anything absent is hidden from
// browsing (spec.md §9 Open Question (b), resolved conservatively).
var mimeTable = map[string]mimeEntry{
	"mp4":  {"video/mp4", upnpav.ClassVideoItem, true},
	"m4v":  {"video/mp4", upnpav.ClassVideoItem, true},
	"mov":  {"video/mp4", upnpav.ClassVideoItem, true},
	"mkv":  {"video/x-matroska", upnpav.ClassVideoItem, true},
	"avi":  {"video/x-msvideo", upnpav.ClassVideoItem, true},
	"webm": {"video/webm", upnpav.ClassVideoItem, true},
	"ts":   {"video/mp2t", upnpav.ClassVideoItem, true},
	"m2ts": {"video/mp2t", upnpav.ClassVideoItem, true},

	"mp3":  {"audio/mpeg", upnpav.ClassMusicTrack, true},
	"flac": {"audio/flac", upnpav.ClassMusicTrack, true},
	"wav":  {"audio/wav", upnpav.ClassMusicTrack, true},
	"aac":  {"audio/mp4", upnpav.ClassMusicTrack, true},
	"m4a":  {"audio/mp4", upnpav.ClassMusicTrack, true},
	"ogg":  {"audio/ogg", upnpav.ClassMusicTrack, true},

	"jpg":  {"image/jpeg", upnpav.ClassPhoto, false},
	"jpeg": {"image/jpeg", upnpav.ClassPhoto, false},
	"png":  {"image/png", upnpav.ClassPhoto, false},
	"gif":  {"image/gif", upnpav.ClassPhoto, false},
}

// classifyExtension returns the MIME entry for a filename, and whether it is
// classified at all (browsable).
func classifyExtension(name string) (mimeEntry, bool) {
	ext := strings.TrimPrefix(strings.ToLower(extOf(name)), ".")
	e, ok := mimeTable[ext]
	return e, ok
}

func extOf(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/'; i-- {
		if name[i] == '.' {
			return name[i:]
		}
	}
	return ""
}

// MimeTypeByName is exported for the HTTP layer, which needs to set
// Content-Type from a resolved filesystem path without going through the
// full Index (e.g. after a lookup has already happened).
func MimeTypeByName(name string) (string, bool) {
	e, ok := classifyExtension(name)
	if !ok {
		return "", false
	}
	return e.MimeType, true
}
