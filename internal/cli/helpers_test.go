package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const productsSource = `package controllers

// @mount('/products')
// @middleware('audit')
type ProductController struct{}

// @get('/', name='products.list')
func (p *ProductController) List(c *router.Context) error { return nil }

// @get('/:id', requirements={id: @int})
// @middleware('auth')
func (p *ProductController) Show(c *router.Context) error { return nil }

// @all('/:id/ping')
func (p *ProductController) Ping(c *router.Context) error { return nil }
`

const healthSource = `package health

// @mount('/')
type HealthController struct{}

// @get('/healthz')
func (h *HealthController) Check(c *router.Context) error { return nil }
`

const brokenSource = `package broken

// @mount('/broken')
type BrokenController struct{}

// @get('/x', name='x'
func (b *BrokenController) X(c *router.Context) error { return nil }
`

// writeTree creates files under a fresh temp dir and returns its path
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{Format: FormatTable, LogLevel: "silent"}
	require.NoError(t, cfg.Validate())
	return cfg
}
