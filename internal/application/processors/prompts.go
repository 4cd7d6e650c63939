package processors

import (
	"fmt"
	"strings"

	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

const strategySystemPrompt = `Você é um estrategista digital sênior. Escreva em português do Brasil,
em markdown, de forma direta e acionável para o dono de um pequeno negócio.`

const copySystemPrompt = `Você é um copywriter para sites de pequenos negócios. Responda APENAS com um
objeto JSON onde cada chave é o nome de um placeholder e cada valor é o texto final, sem markdown.`

const siteSystemPrompt = `Você gera sites estáticos completos. Responda APENAS com um objeto JSON no formato
{"files": {"caminho/arquivo": "conteúdo completo"}}. Use apenas caminhos relativos. O site deve ser
HTML, CSS e JavaScript puros, responsivo e pronto para publicar, com pelo menos index.html, uma folha
de estilos e uma página por seção escolhida no briefing.`

// brief renders the onboarding answers as prompt context.
func brief(ob *db.Onboarding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Negócio: %s (%s)\n", ob.BusinessName, ob.Niche)
	fmt.Fprintf(&b, "Cidade: %s, %s\n", ob.PrimaryCity, ob.State)
	fmt.Fprintf(&b, "Serviço principal: %s\n", ob.PrimaryService)
	if len(ob.Services) > 0 {
		fmt.Fprintf(&b, "Serviços: %s\n", strings.Join(ob.Services, ", "))
	}
	if len(ob.ServiceAreas) > 0 {
		fmt.Fprintf(&b, "Áreas atendidas: %s\n", strings.Join(ob.ServiceAreas, ", "))
	}
	if ob.SiteObjective != nil && *ob.SiteObjective != "" {
		fmt.Fprintf(&b, "Objetivo do site: %s\n", *ob.SiteObjective)
	}
	if ob.SiteDescription != nil && *ob.SiteDescription != "" {
		fmt.Fprintf(&b, "Descrição: %s\n", *ob.SiteDescription)
	}
	if len(ob.SelectedPages) > 0 {
		fmt.Fprintf(&b, "Páginas: %s\n", strings.Join(ob.SelectedPages, ", "))
	}
	fmt.Fprintf(&b, "Tom de voz: %s\n", ob.Tone)
	fmt.Fprintf(&b, "Chamada principal: %s\n", ob.PrimaryCTA)
	if ob.AboutOwner != nil && *ob.AboutOwner != "" {
		fmt.Fprintf(&b, "Sobre: %s\n", *ob.AboutOwner)
	}
	if ob.YearsInBusiness != nil {
		fmt.Fprintf(&b, "Anos de mercado: %d\n", *ob.YearsInBusiness)
	}
	return b.String()
}

func strategyPrompt(ob *db.Onboarding) string {
	return fmt.Sprintf(`Monte um briefing estratégico digital para o negócio abaixo, com posicionamento,
público-alvo, diferenciais a destacar no site e sugestões de conteúdo por página.

%s`, brief(ob))
}

func copyPrompt(ob *db.Onboarding) string {
	return fmt.Sprintf(`Escreva os textos finais do site para o negócio abaixo. Responda com um objeto JSON
cujas chaves sejam exatamente: HERO_TITLE, HERO_SUBTITLE, ABOUT_TEXT, CTA_TEXT.

%s`, brief(ob))
}

func sitePrompt(ob *db.Onboarding) string {
	colors := ""
	if ob.PrimaryColor != nil {
		colors = fmt.Sprintf("Cores: primária %s", *ob.PrimaryColor)
		if ob.AccentColor != nil {
			colors += fmt.Sprintf(", destaque %s", *ob.AccentColor)
		}
		colors += "\n"
	}
	return fmt.Sprintf(`Gere o site estático completo para o negócio abaixo.
%s%s`, brief(ob), colors)
}
