package template

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

func newTestMaterializer(t *testing.T) (*Materializer, string) {
	t.Helper()
	templatesDir := t.TempDir()
	base := filepath.Join(templatesDir, "premium-static", "base")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "src"), 0o755))

	files := map[string]string{
		"index.html":  "<h1>{{BUSINESS_NAME}}</h1><p>{{HERO_SUBTITLE}}</p>",
		"src/app.tsx": "export const city = \"{{CITY}}\";\n{{#IF_WHATSAPP}}<a href=\"{{WHATSAPP_LINK}}\">{{CTA_TEXT}}</a>{{/IF_WHATSAPP}}",
		"style.css":   ":root { --primary: {{PRIMARY_COLOR}}; }",
		"logo.png":    "\x89PNG{{BUSINESS_NAME}}",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(base, name), []byte(content), 0o644))
	}

	return NewMaterializer(Config{TemplatesDir: templatesDir, DefaultTemplate: "premium-static"}), templatesDir
}

func sampleOnboarding() *db.Onboarding {
	address := "Rua Augusta 100"
	return &db.Onboarding{
		OrderID:         42,
		BusinessName:    "Bella Italia",
		BusinessEmail:   "contato@bellaitalia.com",
		BusinessPhone:   "+55 11 98765-4321",
		HasWhatsApp:     true,
		BusinessAddress: &address,
		Niche:           consts.NicheRestaurant,
		PrimaryCity:     "São Paulo",
		State:           "SP",
		Services:        []string{"Massas", "Pizzas"},
		PrimaryService:  "Restaurante italiano",
		Tone:            consts.ToneFriendly,
		PrimaryCTA:      consts.CTAWhatsApp,
		IsComplete:      true,
	}
}

func TestSelectDefaultsToPremiumStatic(t *testing.T) {
	m, _ := newTestMaterializer(t)
	require.Equal(t, "premium-static", m.Select(sampleOnboarding()))
	require.Equal(t, "premium-static", m.Select(nil))
}

func TestExists(t *testing.T) {
	m, _ := newTestMaterializer(t)
	require.True(t, m.Exists("premium-static"))
	require.False(t, m.Exists("no-such-template"))
}

func TestMaterializeReplacesWorkspace(t *testing.T) {
	m, _ := newTestMaterializer(t)
	workspace := filepath.Join(t.TempDir(), "site-42")

	// Leftovers from an aborted run must not survive.
	require.NoError(t, os.MkdirAll(workspace, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workspace, "stale.txt"), []byte("old"), 0o644))

	require.NoError(t, m.Materialize("premium-static", workspace))

	_, err := os.Stat(filepath.Join(workspace, "stale.txt"))
	require.True(t, os.IsNotExist(err))
	require.FileExists(t, filepath.Join(workspace, "index.html"))
	require.FileExists(t, filepath.Join(workspace, "src", "app.tsx"))
}

func TestMaterializeUnknownTemplate(t *testing.T) {
	m, _ := newTestMaterializer(t)
	require.Error(t, m.Materialize("missing", filepath.Join(t.TempDir(), "site")))
}

func TestSubstituteRewritesTokens(t *testing.T) {
	m, _ := newTestMaterializer(t)
	workspace := filepath.Join(t.TempDir(), "site-42")
	require.NoError(t, m.Materialize("premium-static", workspace))

	require.NoError(t, m.Substitute(workspace, sampleOnboarding(), &db.Order{ID: 42}))

	html, err := os.ReadFile(filepath.Join(workspace, "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), "Bella Italia")
	require.NotContains(t, string(html), "{{BUSINESS_NAME}}")

	tsx, err := os.ReadFile(filepath.Join(workspace, "src", "app.tsx"))
	require.NoError(t, err)
	require.Contains(t, string(tsx), "São Paulo")
	require.Contains(t, string(tsx), "https://wa.me/5511987654321")
	require.Contains(t, string(tsx), "Fale no WhatsApp")

	css, err := os.ReadFile(filepath.Join(workspace, "style.css"))
	require.NoError(t, err)
	require.Contains(t, string(css), "#1a1a2e")
}

func TestSubstituteDropsConditionalBlockWithoutData(t *testing.T) {
	m, _ := newTestMaterializer(t)
	workspace := filepath.Join(t.TempDir(), "site-43")
	require.NoError(t, m.Materialize("premium-static", workspace))

	ob := sampleOnboarding()
	ob.HasWhatsApp = false
	require.NoError(t, m.Substitute(workspace, ob, &db.Order{ID: 43}))

	tsx, err := os.ReadFile(filepath.Join(workspace, "src", "app.tsx"))
	require.NoError(t, err)
	require.NotContains(t, string(tsx), "wa.me")
	require.NotContains(t, string(tsx), "{{#IF_WHATSAPP}}")
}

func TestSubstituteSkipsBinaryFiles(t *testing.T) {
	m, _ := newTestMaterializer(t)
	dir := filepath.Join(t.TempDir(), "site-44")
	require.NoError(t, m.Materialize("premium-static", dir))
	require.NoError(t, m.Substitute(dir, sampleOnboarding(), &db.Order{ID: 44}))

	png, err := os.ReadFile(filepath.Join(dir, "logo.png"))
	require.NoError(t, err)
	require.Contains(t, string(png), "{{BUSINESS_NAME}}")
}

func TestTestimonialsTokens(t *testing.T) {
	ob := sampleOnboarding()
	raw, err := json.Marshal([]db.Testimonial{{Name: "Ana", Text: "Ótimo!", Rating: 5}})
	require.NoError(t, err)
	ob.Testimonials = raw

	tokens := buildTokens(ob, &db.Order{ID: 42})
	require.Contains(t, tokens["TESTIMONIALS_JSON"], "Ana")

	flags := buildFlags(ob)
	require.True(t, flags["TESTIMONIALS"])
}
