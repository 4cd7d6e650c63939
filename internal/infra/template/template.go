package template

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

// Materializer copies a site template into an order workspace and rewrites
// its placeholder tokens from the onboarding brief.
type Materializer struct {
	cfg Config
}

var _ interfaces.Materializer = (*Materializer)(nil)

func NewMaterializer(cfg Config) *Materializer {
	return &Materializer{cfg: cfg}
}

// nicheTemplates maps niches that have a dedicated template. Everything else
// falls back to the default.
var nicheTemplates = map[consts.Niche]string{}

func (m *Materializer) Select(onboarding *db.Onboarding) string {
	if onboarding != nil {
		if id, ok := nicheTemplates[onboarding.Niche]; ok {
			return id
		}
	}
	return m.cfg.DefaultTemplate
}

// baseDir is where a template's copyable files live. Assets next to base,
// like previews, never reach a workspace.
func (m *Materializer) baseDir(templateID string) string {
	return filepath.Join(m.cfg.TemplatesDir, templateID, "base")
}

func (m *Materializer) Exists(templateID string) bool {
	info, err := os.Stat(m.baseDir(templateID))
	return err == nil && info.IsDir()
}

// Materialize rebuilds targetDir from the template, dropping whatever was
// there before.
func (m *Materializer) Materialize(templateID, targetDir string) error {
	src := m.baseDir(templateID)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("template %s has no base dir, %v", templateID, err)
	}
	if err := os.RemoveAll(targetDir); err != nil {
		return fmt.Errorf("err clearing workspace %s, %v", targetDir, err)
	}
	if err := copyTree(src, targetDir); err != nil {
		return fmt.Errorf("err copying template %s, %v", templateID, err)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// textExtensions are the file types token substitution touches. Binaries
// pass through untouched.
var textExtensions = map[string]bool{
	".tsx": true, ".jsx": true, ".ts": true, ".js": true,
	".css": true, ".html": true, ".htm": true,
	".md": true, ".mdx": true, ".json": true, ".txt": true,
}

var conditionalPattern = regexp.MustCompile(`(?s)\{\{#IF_([A-Z_]+)\}\}(.*?)\{\{/IF_[A-Z_]+\}\}`)

// Substitute rewrites placeholder tokens in every text file of the
// workspace. Unknown tokens are left in place so a half-filled brief is
// visible in review instead of silently blanked.
func (m *Materializer) Substitute(targetDir string, onboarding *db.Onboarding, order *db.Order) error {
	tokens := buildTokens(onboarding, order)
	flags := buildFlags(onboarding)

	return filepath.WalkDir(targetDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("err reading %s, %v", path, err)
		}
		content := string(raw)
		if !strings.Contains(content, "{{") {
			return nil
		}

		content = applyConditionals(content, flags)
		for token, value := range tokens {
			content = strings.ReplaceAll(content, "{{"+token+"}}", value)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("err writing %s, %v", path, err)
		}
		return nil
	})
}

// applyConditionals keeps the body of blocks whose flag is set and drops the
// rest.
func applyConditionals(content string, flags map[string]bool) string {
	return conditionalPattern.ReplaceAllStringFunc(content, func(block string) string {
		matches := conditionalPattern.FindStringSubmatch(block)
		if flags[matches[1]] {
			return matches[2]
		}
		return ""
	})
}

func buildFlags(ob *db.Onboarding) map[string]bool {
	flags := map[string]bool{}
	if ob == nil {
		return flags
	}
	flags["WHATSAPP"] = ob.HasWhatsApp
	flags["TESTIMONIALS"] = len(parseTestimonials(ob)) > 0
	flags["LOGO"] = strValue(ob.LogoURL) != ""
	flags["SOCIALS"] = strValue(ob.SocialFacebook) != "" || strValue(ob.SocialInstagram) != "" ||
		strValue(ob.SocialLinkedIn) != "" || strValue(ob.SocialYouTube) != ""
	flags["HOURS"] = len(ob.BusinessHours) > 0 && string(ob.BusinessHours) != "null"
	flags["ADDRESS"] = strValue(ob.BusinessAddress) != ""
	return flags
}

func buildTokens(ob *db.Onboarding, order *db.Order) map[string]string {
	tokens := map[string]string{
		"YEAR": fmt.Sprintf("%d", time.Now().Year()),
	}
	if order != nil {
		tokens["ORDER_ID"] = fmt.Sprintf("%d", order.ID)
	}
	if ob == nil {
		return tokens
	}

	tokens["BUSINESS_NAME"] = ob.BusinessName
	tokens["BUSINESS_EMAIL"] = ob.BusinessEmail
	tokens["BUSINESS_PHONE"] = ob.BusinessPhone
	tokens["BUSINESS_ADDRESS"] = strValue(ob.BusinessAddress)
	tokens["CITY"] = ob.PrimaryCity
	tokens["STATE"] = ob.State
	tokens["NICHE"] = string(ob.Niche)
	tokens["PRIMARY_SERVICE"] = ob.PrimaryService
	tokens["SERVICES_LIST"] = strings.Join(ob.Services, ", ")
	tokens["SERVICE_AREAS"] = strings.Join(ob.ServiceAreas, ", ")
	tokens["SITE_DESCRIPTION"] = strValue(ob.SiteDescription)
	tokens["ABOUT_TEXT"] = strValue(ob.AboutOwner)
	tokens["PRIMARY_COLOR"] = strOr(ob.PrimaryColor, "#1a1a2e")
	tokens["SECONDARY_COLOR"] = strOr(ob.SecondaryColor, "#16213e")
	tokens["ACCENT_COLOR"] = strOr(ob.AccentColor, "#e94560")
	tokens["LOGO_URL"] = strValue(ob.LogoURL)
	tokens["CTA_TEXT"] = strOr(ob.CTAText, defaultCTAText(ob.PrimaryCTA))
	tokens["SOCIAL_FACEBOOK"] = strValue(ob.SocialFacebook)
	tokens["SOCIAL_INSTAGRAM"] = strValue(ob.SocialInstagram)
	tokens["SOCIAL_LINKEDIN"] = strValue(ob.SocialLinkedIn)
	tokens["SOCIAL_YOUTUBE"] = strValue(ob.SocialYouTube)
	tokens["WHATSAPP_LINK"] = whatsappLink(ob)
	tokens["HERO_TITLE"] = ob.BusinessName
	tokens["HERO_SUBTITLE"] = heroSubtitle(ob)
	tokens["TESTIMONIALS_JSON"] = testimonialsJSON(ob)
	tokens["BUSINESS_HOURS_JSON"] = hoursJSON(ob)
	return tokens
}

func heroSubtitle(ob *db.Onboarding) string {
	if desc := strValue(ob.SiteDescription); desc != "" {
		return desc
	}
	return fmt.Sprintf("%s em %s, %s", ob.PrimaryService, ob.PrimaryCity, ob.State)
}

func whatsappLink(ob *db.Onboarding) string {
	if !ob.HasWhatsApp {
		return ""
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, ob.BusinessPhone)
	return "https://wa.me/" + digits
}

func parseTestimonials(ob *db.Onboarding) []db.Testimonial {
	if len(ob.Testimonials) == 0 {
		return nil
	}
	var testimonials []db.Testimonial
	if err := json.Unmarshal(ob.Testimonials, &testimonials); err != nil {
		slog.Warn("err parsing testimonials", "orderID", ob.OrderID, "error", err)
		return nil
	}
	return testimonials
}

func testimonialsJSON(ob *db.Onboarding) string {
	testimonials := parseTestimonials(ob)
	if len(testimonials) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(testimonials)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func hoursJSON(ob *db.Onboarding) string {
	if len(ob.BusinessHours) == 0 || string(ob.BusinessHours) == "null" {
		return "{}"
	}
	return string(ob.BusinessHours)
}

func defaultCTAText(cta consts.CTA) string {
	switch cta {
	case consts.CTACall:
		return "Ligue agora"
	case consts.CTAWhatsApp:
		return "Fale no WhatsApp"
	case consts.CTAEmail:
		return "Envie um e-mail"
	default:
		return "Entre em contato"
	}
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strOr(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
