package index

import (
	"sync"
	"time"

	"github.com/anacrolix/ffprobe"
	"github.com/anacrolix/generics"
	"github.com/anacrolix/log"
)

// probeCacheKey mirrors the teacher's ffmpegInfoCacheKey: a file is only
// ever probed once per (path, mtime) pair, so a directory that doesn't
// change is never reprobed.
type probeCacheKey struct {
	path    string
	modTime int64
}

// prober computes the "cheaply available" duration field spec.md §3 allows
// for media items, with a permanent cache so each file version is probed at
// most once. A nil *prober disables probing entirely (spec.md's NoProbe
// equivalent).
type prober struct {
	logger log.Logger

	mu    sync.Mutex
	cache map[probeCacheKey]generics.Option[time.Duration]
}

func newProber(logger log.Logger) *prober {
	return &prober{
		logger: logger,
		cache:  make(map[probeCacheKey]generics.Option[time.Duration]),
	}
}

// Duration returns the probed duration of path, or an unset Option if
// probing failed or found nothing. It never returns an error: probe
// failures are a spec.md §7 "transient" concern, logged and otherwise
// ignored, since duration is optional metadata.
func (p *prober) Duration(path string, modTime time.Time) generics.Option[time.Duration] {
	if p == nil {
		return generics.Option[time.Duration]{}
	}
	key := probeCacheKey{path, modTime.UnixNano()}
	p.mu.Lock()
	if d, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return d
	}
	p.mu.Unlock()

	d := p.probe(path)

	p.mu.Lock()
	p.cache[key] = d
	p.mu.Unlock()
	return d
}

func (p *prober) probe(path string) (ret generics.Option[time.Duration]) {
	info, err := ffprobe.Run(path)
	if err != nil {
		p.logger.Levelf(log.Debug, "ffprobe %q: %s", path, err)
		return
	}
	dur, err := info.Duration()
	if err != nil {
		p.logger.Levelf(log.Debug, "ffprobe %q: no duration: %s", path, err)
		return
	}
	ret.Set(dur)
	return
}
