package ops

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hpungsan/ldspec/internal/cache"
	"github.com/hpungsan/ldspec/internal/catalog"
	"github.com/hpungsan/ldspec/internal/config"
	"github.com/hpungsan/ldspec/internal/db"
	"github.com/hpungsan/ldspec/internal/errors"
	"github.com/hpungsan/ldspec/internal/fetch"
	"github.com/hpungsan/ldspec/internal/htmldoc"
	"github.com/hpungsan/ldspec/internal/markdown"
	"github.com/hpungsan/ldspec/internal/rdfgraph"
	"github.com/hpungsan/ldspec/internal/toc"
)

// Defaults for lookup operations.
const (
	DefaultSectionDepth = 2
	// NotFoundSampleDepth bounds the TOC depth sampled for a missing section.
	NotFoundSampleDepth = 3
	NotFoundSampleSize  = 10
)

// Fetcher retrieves upstream documents.
type Fetcher interface {
	Fetch(ctx context.Context, uri, accept string) (*fetch.Response, error)
}

// Options wires a Service. Catalog and Fetcher are required.
type Options struct {
	Catalog  *catalog.Catalog
	Fetcher  Fetcher
	Cache    *cache.Cache
	Renderer markdown.Renderer
	Logger   *slog.Logger
	// DB, when set, keeps fetched bodies across restarts.
	DB *sql.DB
}

// Service answers lookups against the catalog, fetching and caching
// upstream documents on demand. Safe for concurrent use.
type Service struct {
	catalog  *catalog.Catalog
	fetcher  Fetcher
	cache    *cache.Cache
	renderer markdown.Renderer
	logger   *slog.Logger
	db       *sql.DB
}

// NewService creates a Service, filling unset optional dependencies.
func NewService(opts Options) *Service {
	s := &Service{
		catalog:  opts.Catalog,
		fetcher:  opts.Fetcher,
		cache:    opts.Cache,
		renderer: opts.Renderer,
		logger:   opts.Logger,
		db:       opts.DB,
	}
	if s.cache == nil {
		s.cache = cache.New(cache.DefaultTTL)
	}
	if s.renderer == nil {
		s.renderer = markdown.NewConverter()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// NewFromConfig builds a Service from configuration. Cache metrics are
// registered on reg when it is non-nil. database may be nil.
func NewFromConfig(cfg *config.Config, database *sql.DB, reg prometheus.Registerer, logger *slog.Logger, version string) (*Service, error) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	fetcher := fetch.New(fetch.Options{
		Timeout:       cfg.FetchTimeout(),
		MaxBodyBytes:  cfg.MaxBodyBytes,
		RatePerSecond: cfg.RateLimitPerSecond,
		UserAgent:     "ldspec/" + version,
	})

	opts := Options{
		Catalog: cat.Filter(cfg.AllowedVersions()),
		Fetcher: fetcher,
		Cache:   cache.New(cfg.CacheTTL(), cache.WithMetrics(cache.NewMetrics(reg))),
		Logger:  logger,
	}
	if cfg.PersistCache {
		opts.DB = database
	}
	return NewService(opts), nil
}

// Catalog returns the version-filtered catalog the service answers from.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Service) spec(key string) (catalog.Entry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return catalog.Entry{}, errors.NewInvalidRequest("spec_key is required")
	}
	spec, ok := s.catalog.Spec(key)
	if !ok {
		return catalog.Entry{}, errors.NewUnknownKey("spec", key, s.catalog.SpecKeys())
	}
	return spec, nil
}

func (s *Service) namespace(key string) (catalog.Entry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return catalog.Entry{}, errors.NewInvalidRequest("ns_key is required")
	}
	ns, ok := s.catalog.Namespace(key)
	if !ok {
		return catalog.Entry{}, errors.NewUnknownKey("namespace", key, s.catalog.NamespaceKeys())
	}
	return ns, nil
}

// body returns the stored body of uri when the persistent store has a fresh
// copy, otherwise fetches it. stored reports which one happened. Fetched
// bodies are not written back here; callers keep them with keep once they
// have parsed.
func (s *Service) body(ctx context.Context, uri, accept string) (resp *fetch.Response, stored bool, err error) {
	if s.db != nil {
		if d, err := db.GetDocument(s.db, uri, s.cache.TTL()); err == nil {
			s.logger.Debug("document loaded from store", "uri", uri, "bytes", len(d.Body))
			return &fetch.Response{Body: d.Body, ContentType: d.ContentType, URL: uri}, true, nil
		}
	}

	start := time.Now()
	resp, err = s.fetcher.Fetch(ctx, uri, accept)
	if err != nil {
		s.logger.Warn("fetch failed", "uri", uri, "error", err)
		return nil, false, err
	}
	s.logger.Info("fetched", "uri", uri, "bytes", len(resp.Body), "elapsed", time.Since(start))
	return resp, false, nil
}

// keep writes a parsed body to the persistent store.
func (s *Service) keep(uri string, resp *fetch.Response) {
	if s.db == nil {
		return
	}
	d := &db.Document{URI: uri, ContentType: resp.ContentType, Body: resp.Body}
	if err := db.PutDocument(s.db, d); err != nil {
		s.logger.Warn("store document failed", "uri", uri, "error", err)
	}
}

// discard drops a stored body that no longer parses so the next load
// fetches it again.
func (s *Service) discard(uri string) {
	if s.db == nil {
		return
	}
	if err := db.DeleteDocument(s.db, uri); err != nil {
		s.logger.Warn("delete stored document failed", "uri", uri, "error", err)
	}
}

// document returns the parsed HTML of spec.
func (s *Service) document(ctx context.Context, spec catalog.Entry) (*htmldoc.Document, error) {
	art, err := s.cache.GetOrLoad(ctx, cache.Key(cache.KindDocument, spec.Key), func(ctx context.Context) (cache.Artifact, error) {
		resp, stored, err := s.body(ctx, spec.URI, fetch.AcceptHTML)
		if err != nil {
			return cache.Artifact{}, err
		}
		doc, err := htmldoc.Parse(bytes.NewReader(resp.Body))
		if err != nil {
			if stored {
				s.discard(spec.URI)
			}
			return cache.Artifact{}, err
		}
		if !stored {
			s.keep(spec.URI, resp)
		}
		return cache.DocumentArtifact(doc), nil
	})
	if err != nil {
		return nil, errors.NewUpstreamFailure("Failed to fetch spec", err)
	}
	return art.Document, nil
}

// tableOfContents returns the TOC of spec.
func (s *Service) tableOfContents(ctx context.Context, spec catalog.Entry) ([]toc.Entry, error) {
	art, err := s.cache.GetOrLoad(ctx, cache.Key(cache.KindTOC, spec.Key), func(ctx context.Context) (cache.Artifact, error) {
		doc, err := s.document(ctx, spec)
		if err != nil {
			return cache.Artifact{}, err
		}
		return cache.TOCArtifact(toc.Extract(doc)), nil
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewUpstreamFailure("Failed to fetch spec", err)
	}
	return art.TOC, nil
}

// graph returns the parsed vocabulary of ns.
func (s *Service) graph(ctx context.Context, ns catalog.Entry) (*rdfgraph.Graph, error) {
	art, err := s.cache.GetOrLoad(ctx, cache.Key(cache.KindGraph, ns.Key), func(ctx context.Context) (cache.Artifact, error) {
		resp, stored, err := s.body(ctx, ns.URI, fetch.AcceptRDF)
		if err != nil {
			return cache.Artifact{}, err
		}
		g, err := rdfgraph.Parse(bytes.NewReader(resp.Body), resp.ContentType)
		if err != nil {
			if stored {
				s.discard(ns.URI)
			}
			return cache.Artifact{}, err
		}
		if !stored {
			s.keep(ns.URI, resp)
		}
		s.logger.Debug("parsed namespace", "ns", ns.Key, "triples", g.Len())
		return cache.GraphArtifact(g), nil
	})
	if err != nil {
		return nil, errors.NewUpstreamFailure("Failed to fetch namespace", err)
	}
	return art.Graph, nil
}
