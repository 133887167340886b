package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/profilewatch/profile-ui-api/internal/worker"
)

// LoadSites reads per-site extraction configs from a JSON file keyed by site
// name. Entries without an explicit name inherit their map key.
func LoadSites(path string) (map[string]worker.SiteConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	var sites map[string]worker.SiteConfig
	if err := json.Unmarshal(raw, &sites); err != nil {
		return nil, fmt.Errorf("parse sites file %s: %w", path, err)
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("sites file %s defines no sites", path)
	}

	for key, site := range sites {
		if site.Name == "" {
			site.Name = key
			sites[key] = site
		}
		if err := site.Validate(); err != nil {
			return nil, fmt.Errorf("site %q: %w", key, err)
		}
	}

	return sites, nil
}
