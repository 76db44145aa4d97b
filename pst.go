// Package pst opens Outlook PST files and exposes their message store,
// folder hierarchy, messages and attachments as read-only façades over
// the NDB, LTP and compressed-RTF layers in internal/.
package pst

import (
	"fmt"
	"os"
	"sync"

	"github.com/pstkit/pst/internal/ltp"
	"github.com/pstkit/pst/internal/ndb"
	"github.com/pstkit/pst/internal/node"
	"github.com/pstkit/pst/messaging"
)

// File is an opened PST file: its header, its node store, and the
// single mutex-guarded handle every read ultimately goes through.
type File struct {
	f             *os.File
	header        *ndb.Header
	nodes         *node.Store
	decodeString8 ltp.CodePageDecoder
}

type options struct {
	decodeString8 ltp.CodePageDecoder
}

// OpenOption configures Open.
type OpenOption func(*options)

// WithCodePageDecoder overrides the decoder used for every 8-bit
// PtString8 property; the code page is not chosen from
// PidTagInternetCodepage. The default is ltp.DefaultCodePageDecoder
// (Windows-1252).
func WithCodePageDecoder(d ltp.CodePageDecoder) OpenOption {
	return func(o *options) { o.decodeString8 = d }
}

// guardedReaderAt serializes every ReadAt against the file handle behind
// a single mutex, per the ambient concurrency model: readers at any
// layer may call concurrently, but only one physical read happens at a
// time and the lock is released before the caller decodes the bytes.
type guardedReaderAt struct {
	mu *sync.Mutex
	f  *os.File
}

func (g *guardedReaderAt) ReadAt(p []byte, off int64) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.f.ReadAt(p, off)
}

// Open reads path's header and prepares its node store. The file stays
// open until Close is called.
func Open(path string, opts ...OpenOption) (*File, error) {
	o := options{decodeString8: ltp.DefaultCodePageDecoder}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, wrap("open file", err)
	}

	guarded := &guardedReaderAt{mu: &sync.Mutex{}, f: f}

	header, err := ndb.ReadHeader(guarded)
	if err != nil {
		f.Close()
		return nil, wrap("read header", err)
	}

	return &File{
		f:             f,
		header:        header,
		nodes:         node.NewStore(guarded, header),
		decodeString8: o.decodeString8,
	}, nil
}

// Close releases the underlying file handle.
func (p *File) Close() error {
	return p.f.Close()
}

// Header returns the parsed NDB header (version, dialect, root page).
func (p *File) Header() *ndb.Header { return p.header }

// OpenStore decodes the message store's property context, the entry
// point into the folder hierarchy and everything reachable from it.
func (p *File) OpenStore() (*messaging.Store, error) {
	s, err := messaging.OpenStore(p.nodes, p.decodeString8)
	if err != nil {
		return nil, wrap("open store", err)
	}
	return s, nil
}

// OpenRootFolder is a convenience wrapping Store.IPMSubTreeEntryID and
// OpenFolder: the visible folder hierarchy's root.
func OpenRootFolder(s *messaging.Store) (*messaging.Folder, error) {
	id, err := s.IPMSubTreeEntryID()
	if err != nil {
		return nil, wrap("ipm subtree entry id", err)
	}
	f, err := s.OpenFolder(id)
	if err != nil {
		return nil, wrap(fmt.Sprintf("open folder %s", id.NID), err)
	}
	return f, nil
}
