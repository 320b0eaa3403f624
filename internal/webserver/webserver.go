// Package webserver implements the HTTP resource server, serving the
// virtual filesystem's content with optional gzip transport encoding
// and a diagnostics dashboard.
package webserver

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"runtime"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/desertwitch/bundlefs"
	"github.com/desertwitch/bundlefs/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"
)

const (
	defaultCacheTTL      = 60 * time.Second
	defaultCacheCapacity = 128
)

var (
	//go:embed templates/*.html
	templateFS    embed.FS
	indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

	// errInvalidArgument is for an invalid constructor argument.
	errInvalidArgument = errors.New("invalid argument")
)

// ResourceServer serves files of a [bundlefs.FS] over HTTP. Responses
// are gzip-encoded when the client accepts it, reusing pre-compressed
// bundle entries as-is and deflating everything else at open time.
// Deflated buffers are kept in a TTL cache to avoid repeated work.
type ResourceServer struct {
	version string
	started time.Time

	fsys  *bundlefs.FS
	rbuf  *logging.RingBuffer
	cache *ttlcache.Cache[string, []byte]
}

// NewResourceServer returns a pointer to a new [ResourceServer].
func NewResourceServer(fsys *bundlefs.FS, rbuf *logging.RingBuffer, version string) (*ResourceServer, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: need filesystem", errInvalidArgument)
	}
	if rbuf == nil {
		return nil, fmt.Errorf("%w: need ring buffer", errInvalidArgument)
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, []byte](defaultCacheTTL),
		ttlcache.WithCapacity[string, []byte](defaultCacheCapacity),
	)
	go cache.Start()

	return &ResourceServer{
		version: version,
		started: time.Now(),
		fsys:    fsys,
		rbuf:    rbuf,
		cache:   cache,
	}, nil
}

// Close stops the cache janitor.
func (s *ResourceServer) Close() {
	s.cache.Stop()
}

// Serve serves the resource server as part of a [http.Server].
func (s *ResourceServer) Serve(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "(webserver) PANIC: %v\n", r)
				debug.PrintStack()
			}
		}()
		s.rbuf.Printf("serving resources on %s\n", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.rbuf.Printf("HTTP error: %v\n", err)
		}
	}()

	return srv
}

// Handler returns the route table of the resource server.
func (s *ResourceServer) Handler() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", s.dashboardHandler)
	router.HandleFunc("/metrics.json", s.metricsHandler)
	router.HandleFunc("/reset", s.resetHandler)
	router.PathPrefix("/files/").HandlerFunc(s.fileHandler)

	return router
}

// fileHandler serves a single file of the virtual filesystem. Clients
// accepting gzip get the content compressed, with pre-compressed
// bundle entries passing through untouched; everyone else gets the
// plain bytes, inflated from storage when necessary.
func (s *ResourceServer) fileHandler(w http.ResponseWriter, r *http.Request) {
	fpath := strings.TrimPrefix(r.URL.Path, "/files/")
	if fpath == "" || strings.Contains(fpath, "..") {
		http.NotFound(w, r)

		return
	}

	wantGzip := strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")

	data, gzipped, err := s.content(fpath, wantGzip)
	if err != nil {
		switch {
		case errors.Is(err, bundlefs.ErrNotExist):
			http.NotFound(w, r)
		default:
			s.rbuf.Printf("%q->Serve: %v\n", fpath, err)
			http.Error(w, "failed to serve resource", http.StatusInternalServerError)
		}

		return
	}

	if ctype := mime.TypeByExtension(path.Ext(fpath)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	if gzipped {
		w.Header().Set("Content-Encoding", "gzip")
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))

	_, _ = w.Write(data)
}

// content materializes a file's bytes in the requested encoding. The
// gzip variant is looked up in and fed into the TTL cache.
func (s *ResourceServer) content(fpath string, wantGzip bool) ([]byte, bool, error) {
	if wantGzip {
		if item := s.cache.Get(fpath); item != nil {
			return item.Value(), true, nil
		}
	}

	f, err := s.fsys.Open(fpath, !wantGzip, wantGzip)
	if err != nil {
		return nil, false, err //nolint:wrapcheck
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, fmt.Errorf("failed to drain: %w", err)
	}

	if f.Gzipped() {
		s.cache.Set(fpath, data, ttlcache.DefaultTTL)
	}

	return data, f.Gzipped(), nil
}

type dashboardData struct {
	AllocBytes       string   `json:"allocBytes"`
	CacheHits        uint64   `json:"cacheHits"`
	CacheMisses      uint64   `json:"cacheMisses"`
	DataRoot         string   `json:"dataRoot"`
	Errors           int64    `json:"errors"`
	Logs             []string `json:"logs"`
	Mode             string   `json:"mode"`
	OpenDirs         int64    `json:"openDirs"`
	OpenFiles        int64    `json:"openFiles"`
	RingBufferSize   int      `json:"ringBufferSize"`
	SysBytes         string   `json:"sysBytes"`
	TotalDeflates    int64    `json:"totalDeflates"`
	TotalDeflated    string   `json:"totalDeflated"`
	TotalInflates    int64    `json:"totalInflates"`
	TotalInflated    string   `json:"totalInflated"`
	TotalOpenedDirs  int64    `json:"totalOpenedDirs"`
	TotalOpenedFiles int64    `json:"totalOpenedFiles"`
	TotalServedBytes string   `json:"totalServedBytes"`
	Uptime           string   `json:"uptime"`
	Version          string   `json:"version"`
}

func (s *ResourceServer) collectMetrics() dashboardData {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	lines := s.rbuf.Lines()
	slices.Reverse(lines)

	cm := s.cache.Metrics()

	return dashboardData{
		AllocBytes:       humanize.IBytes(m.Alloc),
		CacheHits:        cm.Hits,
		CacheMisses:      cm.Misses,
		DataRoot:         s.fsys.DataRoot(),
		Errors:           s.fsys.Metrics.Errors.Load(),
		Logs:             lines,
		Mode:             s.mode(),
		OpenDirs:         s.fsys.Metrics.OpenDirs.Load(),
		OpenFiles:        s.fsys.Metrics.OpenFiles.Load(),
		RingBufferSize:   s.rbuf.Size(),
		SysBytes:         humanize.IBytes(m.Sys),
		TotalDeflates:    s.fsys.Metrics.TotalDeflates.Load(),
		TotalDeflated:    nonNegBytes(s.fsys.Metrics.TotalDeflatedBytes.Load()),
		TotalInflates:    s.fsys.Metrics.TotalInflates.Load(),
		TotalInflated:    nonNegBytes(s.fsys.Metrics.TotalInflatedBytes.Load()),
		TotalOpenedDirs:  s.fsys.Metrics.TotalOpenedDirs.Load(),
		TotalOpenedFiles: s.fsys.Metrics.TotalOpenedFiles.Load(),
		TotalServedBytes: nonNegBytes(s.fsys.Metrics.TotalReadBytes.Load()),
		Uptime:           humanize.Time(s.started),
		Version:          s.version,
	}
}

func (s *ResourceServer) mode() string {
	if s.fsys.DataRoot() != "" {
		return "direct"
	}

	return "bundle"
}

func (s *ResourceServer) dashboardHandler(w http.ResponseWriter, _ *http.Request) {
	data := s.collectMetrics()

	if err := indexTemplate.Execute(w, data); err != nil {
		s.rbuf.Printf("HTTP template execution error: %v\n", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *ResourceServer) metricsHandler(w http.ResponseWriter, _ *http.Request) {
	data := s.collectMetrics()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *ResourceServer) resetHandler(w http.ResponseWriter, _ *http.Request) {
	s.fsys.Metrics.Reset()
	s.cache.DeleteAll()

	s.rbuf.Println("Metrics reset via API.")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Metrics reset.")
}

// nonNegBytes renders a byte counter, clamping below zero.
func nonNegBytes(v int64) string {
	if v < 0 {
		return humanize.IBytes(0)
	}

	return humanize.IBytes(uint64(v))
}
