package bot

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SaimonDevStore/SJOFERTAS/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)

// ExtractURLs returns every link in text, in order of appearance.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

const markdownControl = "_*`["

// boldText renders text in bold. Markdown control characters cannot be
// escaped inside an entity, so the entity is closed around each of them.
func boldText(text string) string {
	var b strings.Builder
	start := 0
	for i, r := range text {
		if !strings.ContainsRune(markdownControl, r) {
			continue
		}
		writeBold(&b, text[start:i])
		b.WriteByte('\\')
		b.WriteRune(r)
		start = i + 1
	}
	writeBold(&b, text[start:])
	return b.String()
}

func writeBold(b *strings.Builder, segment string) {
	if segment == "" {
		return
	}
	b.WriteByte('*')
	b.WriteString(segment)
	b.WriteByte('*')
}

// FormatProduct renders the offer message in Telegram Markdown. link is the
// URL as the user sent it.
func FormatProduct(record models.ProductRecord, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | _%s_\n\n", boldText(record.Name), record.Delivery)
	fmt.Fprintf(&b, "💵 *%s*\n\n", record.Price)
	fmt.Fprintf(&b, "🎯 Link do produto:\n%s", EscapeLink(link))
	return b.String()
}

// EscapeLink backslash-escapes _ * [ and ` so the link survives Markdown.
func EscapeLink(link string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, link)
}

const (
	processingText    = "🔍 Extraindo dados do produto..."
	extractFailedText = "❌ Erro ao extrair dados do produto."
	genericFailure    = "❌ Erro ao processar o link. Tente novamente."
)

const welcomeText = `🤖 *Bot de Ofertas - Formatador Automático*

📌 *Como usar:*
Envie um link de produto da Shopee ou AliExpress e receba o anúncio formatado automaticamente!

✅ *Plataformas suportadas:*
• Shopee
• AliExpress

🚀 *Teste agora!*`

const statusText = "✅ *Bot Online e Funcionando!*\n\n" +
	"🌐 Plataformas: Shopee, AliExpress\n" +
	"⚡ Status: *Operacional*"
