package ops

import (
	"fmt"

	"github.com/hpungsan/ldspec/internal/db"
)

// ClearCacheOutput reports what ClearCache removed.
type ClearCacheOutput struct {
	Entries   int   `json:"entries"`
	Documents int64 `json:"documents"`
}

// ClearCache drops every cached artifact and, when persistence is enabled,
// every stored document body.
func (s *Service) ClearCache() (*ClearCacheOutput, error) {
	out := &ClearCacheOutput{Entries: s.cache.Len()}
	s.cache.Clear()

	if s.db != nil {
		n, err := db.ClearDocuments(s.db)
		if err != nil {
			return nil, err
		}
		out.Documents = n
	}

	s.logger.Info("cache cleared", "entries", out.Entries, "documents", out.Documents)
	return out, nil
}

// Text summarizes the cleared counts.
func (o *ClearCacheOutput) Text() string {
	return fmt.Sprintf("Cleared %d cached entries and %d stored documents.", o.Entries, o.Documents)
}
