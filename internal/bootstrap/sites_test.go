package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSitesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSites(t *testing.T) {
	t.Parallel()

	path := writeSitesFile(t, `{
		"chirper": {
			"profile_url": "https://chirper.test/u/%s",
			"posts_url": "https://chirper.test/api/u/%s/posts?page=%d",
			"username_meta": "og:title",
			"items_expr": "items",
			"post_id_expr": "id",
			"content_expr": "text"
		}
	}`)

	sites, err := LoadSites(path)
	require.NoError(t, err)
	require.Len(t, sites, 1)

	site := sites["chirper"]
	assert.Equal(t, "chirper", site.Name, "name should fall back to the map key")
	assert.Equal(t, "https://chirper.test/u/%s", site.ProfileURL)
	assert.Equal(t, "items", site.ItemsExpr)
}

func TestLoadSites_ExplicitNameWins(t *testing.T) {
	t.Parallel()

	path := writeSitesFile(t, `{
		"chirper": {
			"name": "chirper-eu",
			"profile_url": "https://chirper.test/u/%s",
			"posts_url": "https://chirper.test/api/u/%s/posts?page=%d",
			"username_meta": "og:title",
			"items_expr": "items",
			"post_id_expr": "id",
			"content_expr": "text"
		}
	}`)

	sites, err := LoadSites(path)
	require.NoError(t, err)
	assert.Equal(t, "chirper-eu", sites["chirper"].Name)
}

func TestLoadSites_RejectsInvalidSite(t *testing.T) {
	t.Parallel()

	path := writeSitesFile(t, `{
		"chirper": {
			"profile_url": "https://chirper.test/u/%s",
			"posts_url": "https://chirper.test/api/u/%s/posts?page=%d"
		}
	}`)

	_, err := LoadSites(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `site "chirper"`)
}

func TestLoadSites_RejectsEmptyFile(t *testing.T) {
	t.Parallel()

	path := writeSitesFile(t, `{}`)
	_, err := LoadSites(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defines no sites")
}

func TestLoadSites_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadSites(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
