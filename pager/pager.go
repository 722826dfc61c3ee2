// Package pager implements a paged buffer manager: a fixed-size-page file,
// an LRU-cached working set of resident pages, and writeback-before-eviction
// so a dirty page is never lost when its slot is reused.
package pager

import (
	"os"

	"go.uber.org/zap"

	"pagedkv/cache"
	"pagedkv/dberr"
	"pagedkv/internal/dblog"
)

// PageSize is the fixed on-disk and in-memory page width; every node, leaf
// or internal, is exactly one page.
const PageSize = 4096

// DefaultMaxPages is a small fixed ceiling on total page count.
const DefaultMaxPages = 131072

// DefaultCacheCapacity is how many pages stay resident before Get starts
// writing back and evicting.
const DefaultCacheCapacity = 64

// Page is one fixed-size page, either resident from disk or freshly
// allocated and not yet written.
type Page struct {
	Data  [PageSize]byte
	Num   uint32
	Dirty bool
}

// Pager owns the database file exclusively and is the sole path through
// which its pages are read or written.
type Pager struct {
	file      *os.File
	cache     *cache.Cache[uint32, *Page]
	maxPages  uint32
	pageCount uint32 // one past the highest page number ever handed out
	diskPages uint32 // how many whole pages the file holds: those present at Open, extended by writeback
	log       *zap.SugaredLogger
}

// Option configures Open.
type Option func(*options)

type options struct {
	maxPages      uint32
	cacheCapacity int
	log           *zap.SugaredLogger
}

// WithMaxPages overrides DefaultMaxPages.
func WithMaxPages(n uint32) Option {
	return func(o *options) { o.maxPages = n }
}

// WithCacheCapacity overrides DefaultCacheCapacity.
func WithCacheCapacity(n int) Option {
	return func(o *options) { o.cacheCapacity = n }
}

// WithLogger overrides the default no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) { o.log = log }
}

// Open opens (creating if necessary) the database file at path. It returns
// dberr.Corrupted if the file's size is not a whole multiple of PageSize.
func Open(path string, opts ...Option) (*Pager, error) {
	o := options{
		maxPages:      DefaultMaxPages,
		cacheCapacity: DefaultCacheCapacity,
		log:           dblog.Noop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, dberr.Wrapf(err, "pager: open %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, dberr.Wrapf(err, "pager: stat %s", path)
	}
	if fi.Size()%PageSize != 0 {
		f.Close()
		return nil, dberr.Corrupted
	}
	diskPages := uint32(fi.Size() / PageSize)

	p := &Pager{
		file:      f,
		cache:     cache.New[uint32, *Page](o.cacheCapacity),
		maxPages:  o.maxPages,
		pageCount: diskPages,
		diskPages: diskPages,
		log:       o.log,
	}
	p.log.Debugw("pager opened", "path", path, "disk_pages", diskPages)
	return p, nil
}

// PageCount reports one past the highest page number ever handed out by Get
// (equivalently, how many pages the file logically contains).
func (p *Pager) PageCount() uint32 { return p.pageCount }

// GetFree returns the next never-before-used page number, without
// materializing or reserving it. The caller reserves it by calling Get on
// the returned number.
func (p *Pager) GetFree() uint32 { return p.pageCount }

// Get returns a mutable reference to page n, reading it from disk if the
// file already holds it (present at Open, or written back since), or handing
// back a freshly zeroed page otherwise. It returns dberr.OutOfBound if n is at or beyond
// the configured page ceiling.
//
// The returned *Page is only guaranteed valid until the next Get or Clean
// call: once page n is evicted, its bytes are written back and the object
// is dropped from the cache, so writes through a *Page obtained before an
// intervening Get are not guaranteed to reach the file. Callers that mutate
// a page across other Get calls (e.g. while walking its children) must
// re-Get it immediately before the write that needs to stick.
func (p *Pager) Get(n uint32) (*Page, error) {
	if n >= p.maxPages {
		return nil, dberr.OutOfBound
	}
	if pg, ok := p.cache.Get(n); ok {
		return pg, nil
	}

	pg := &Page{Num: n}
	if n < p.diskPages {
		if err := p.readPage(n, pg); err != nil {
			return nil, err
		}
	}
	p.cache.Set(n, pg)
	if n+1 > p.pageCount {
		p.pageCount = n + 1
	}
	if err := p.evictOverCapacity(); err != nil {
		return nil, err
	}
	return pg, nil
}

func (p *Pager) readPage(n uint32, pg *Page) error {
	off := int64(n) * PageSize
	if _, err := p.file.ReadAt(pg.Data[:], off); err != nil {
		return dberr.Wrapf(err, "pager: read page %d", n)
	}
	return nil
}

// evictOverCapacity writes back and drops cache entries until the cache is
// at or under capacity. Set alone can push it one entry over; this is the
// explicit, fallible step that brings it back down. If writeback fails
// partway through, the page that failed to flush is reinserted so no data
// is lost, and the error is returned.
func (p *Pager) evictOverCapacity() error {
	for {
		n, pg, ok := p.cache.Invalidate()
		if !ok {
			return nil
		}
		if err := p.writeBack(n, pg); err != nil {
			p.cache.Set(n, pg)
			return err
		}
		p.log.Debugw("page evicted", "page", n)
	}
}

func (p *Pager) writeBack(n uint32, pg *Page) error {
	if !pg.Dirty {
		return nil
	}
	off := int64(n) * PageSize
	if _, err := p.file.WriteAt(pg.Data[:], off); err != nil {
		return dberr.Wrapf(err, "pager: write back page %d", n)
	}
	pg.Dirty = false
	if n+1 > p.diskPages {
		p.diskPages = n + 1
	}
	return nil
}

// Flush writes page n back to disk if it is resident and dirty. It returns
// dberr.NullPage if n is not currently resident in the cache. It does not
// change the cache's membership or recency.
func (p *Pager) Flush(n uint32) error {
	pg, ok := p.cache.Peek(n)
	if !ok {
		return dberr.NullPage
	}
	return p.writeBack(n, pg)
}

// FlushAll writes every resident dirty page back to disk. Pages that are
// not resident are simply not visited; there is nothing to flush.
func (p *Pager) FlushAll() error {
	for _, n := range p.cache.Keys() {
		pg, ok := p.cache.Peek(n)
		if !ok {
			continue
		}
		if err := p.writeBack(n, pg); err != nil {
			return err
		}
	}
	return nil
}

// Clean evicts every resident page that is currently over the configured
// cache capacity, writing each back first. Under normal operation Get
// already keeps the cache at or under capacity; Clean exists for callers
// that want to shrink resident memory on demand (e.g. before Close).
func (p *Pager) Clean() error {
	return p.evictOverCapacity()
}

// Close flushes every resident page and closes the underlying file.
func (p *Pager) Close() error {
	if err := p.FlushAll(); err != nil {
		return err
	}
	p.log.Debugw("pager closed", "page_count", p.pageCount)
	return dberr.Wrap(p.file.Close(), "pager: close")
}
