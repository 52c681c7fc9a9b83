package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgorham/queryboard/internal/cache"
	"github.com/mgorham/queryboard/internal/service/logger"
	"github.com/mgorham/queryboard/model"
)

var ErrQueryNotFound = errors.New("query not found")

// Catalog discovers runnable query scripts by scanning the query directory.
// Each listing re-reads the directory, so renamed or removed scripts are
// reflected on the next call; only the per-script metadata extraction is
// cached, keyed by path and mtime so edits invalidate implicitly.
type Catalog struct {
	dir       string
	metaCache cache.Cache
}

// New builds a catalog over dir. metaCache may be nil, in which case every
// listing re-parses every script.
func New(dir string, metaCache cache.Cache) *Catalog {
	return &Catalog{dir: dir, metaCache: metaCache}
}

// Discover returns one definition per *.py file directly inside the query
// directory, sorted by filename. A missing directory yields an empty list.
func (c *Catalog) Discover(ctx context.Context) []model.QueryDefinition {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil
	}

	var defs []model.QueryDefinition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".py") {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), ".py")
		path := filepath.Join(c.dir, entry.Name())
		meta := c.scriptMetadata(ctx, path, entry)

		def := model.QueryDefinition{
			Identifier: stem,
			Title:      titleize(stem),
			FilePath:   path,
			Summary:    meta.Summary,
		}
		if meta.Title != "" {
			def.Title = meta.Title
		}
		defs = append(defs, def)
	}
	return defs
}

// GetByID returns the definition matching id in the current discovery
// snapshot.
func (c *Catalog) GetByID(ctx context.Context, id string) (model.QueryDefinition, error) {
	for _, def := range c.Discover(ctx) {
		if def.Identifier == id {
			return def, nil
		}
	}
	return model.QueryDefinition{}, fmt.Errorf("%w: %q", ErrQueryNotFound, id)
}

func (c *Catalog) scriptMetadata(ctx context.Context, path string, entry os.DirEntry) scriptMeta {
	if c.metaCache == nil {
		return extractScriptMeta(path)
	}

	info, err := entry.Info()
	if err != nil {
		return extractScriptMeta(path)
	}

	key := metaCacheKey(path, info.ModTime().UnixNano())
	var meta scriptMeta
	if err := c.metaCache.Get(ctx, key, &meta); err == nil {
		return meta
	}

	meta = extractScriptMeta(path)
	if err := c.metaCache.Put(ctx, key, meta, c.metaCache.GetDefaultTTL()); err != nil {
		logger.Log.Debug().Err(err).Str("script", path).Msg("unable to cache script metadata")
	}
	return meta
}

func metaCacheKey(path string, mtimeNanos int64) string {
	return fmt.Sprintf("meta:%s:%d", path, mtimeNanos)
}
