package challenge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Catalog holds every challenge definition found at startup. It is
// read-only after Load, so lookups need no locking.
type Catalog struct {
	byID map[string]*Challenge
}

// NewCatalog builds a catalog from in-memory challenges.
func NewCatalog(challenges ...*Challenge) *Catalog {
	cat := &Catalog{byID: make(map[string]*Challenge, len(challenges))}
	for _, ch := range challenges {
		cat.byID[ch.ID] = ch
	}
	return cat
}

// Load reads every *.json and *.yaml definition from dir. The file
// name stem is the challenge id and overrides any id field inside the
// file. A missing or unreadable directory yields an empty catalog;
// individual files that fail to parse are skipped. Neither case aborts
// startup.
func Load(dir string) *Catalog {
	cat := &Catalog{byID: make(map[string]*Challenge)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("failed to read challenges directory")
		return cat
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("failed to read challenge file")
			continue
		}

		var ch Challenge
		if ext == ".json" {
			err = json.Unmarshal(data, &ch)
		} else {
			err = yaml.Unmarshal(data, &ch)
		}
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("failed to parse challenge file")
			continue
		}

		ch.ID = strings.TrimSuffix(entry.Name(), ext)
		cat.byID[ch.ID] = &ch
	}

	log.Info().Int("count", len(cat.byID)).Str("dir", dir).Msg("challenges loaded")
	return cat
}

// ChallengeByID looks up a challenge by its id.
func (c *Catalog) ChallengeByID(id string) (*Challenge, bool) {
	ch, ok := c.byID[id]
	return ch, ok
}

// Challenges returns all loaded challenges sorted by id.
func (c *Catalog) Challenges() []*Challenge {
	out := make([]*Challenge, 0, len(c.byID))
	for _, ch := range c.byID {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of loaded challenges.
func (c *Catalog) Len() int {
	return len(c.byID)
}
