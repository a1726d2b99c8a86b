package email

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// corpMailDomain es el sufijo fijo para derivar la casilla del dueño a partir
// de su Knox ID.
const corpMailDomain = "@samsung.com"

// removalDateLayout es el formato largo de la fecha de remoción.
const removalDateLayout = "January 2, 2006"

// Templates por defecto del aviso de expiración IAM al dueño. Los settings
// pueden traer subject/body custom; estos se usan cuando vienen vacíos.
const (
	defaultIamExpirationSubject = "[Action Required] Your cloud IAM access is expiring"

	defaultIamExpirationBody = `Dear {requestor},

Your cloud IAM access is approaching its end date and is scheduled for removal.

Knox ID: {knoxId}
Permission: {permission}
Cloud Platform: {cloudPlatform}
End Date: {endDate}
Approval ID: {approvalId}

Unless an extension is approved, the permission above will be removed on {removalDate}.

https://assetportal.secsso.net/iam/extension

If you have already requested an extension, please disregard this notice.`
)

// OwnerVars son los valores para los tokens del template del dueño.
// El set de tokens es fijo y documentado; no se infiere por reflexión.
type OwnerVars struct {
	RemovalDate   string
	Requestor     string
	KnoxID        string
	Permission    string
	CloudPlatform string
	EndDate       string
	ApprovalID    string
}

// RenderOwnerTemplate reemplaza cada ocurrencia literal de los tokens
// {removalDate}, {requestor}, {knoxId}, {permission}, {cloudPlatform},
// {endDate} y {approvalId} en el body. Es reemplazo de substring, no un
// engine de templates: preserva compatibilidad exacta con templates ya
// guardados por usuarios.
func RenderOwnerTemplate(body string, v OwnerVars) string {
	r := strings.NewReplacer(
		"{removalDate}", v.RemovalDate,
		"{requestor}", v.Requestor,
		"{knoxId}", v.KnoxID,
		"{permission}", v.Permission,
		"{cloudPlatform}", v.CloudPlatform,
		"{endDate}", v.EndDate,
		"{approvalId}", v.ApprovalID,
	)
	return r.Replace(body)
}

// TextToHTML convierte texto plano a HTML línea por línea: una línea que
// empieza con http:// o https:// se vuelve un párrafo con anchor, una línea
// no vacía un párrafo, y una línea vacía un <br>.
func TextToHTML(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://"):
			u := html.EscapeString(trimmed)
			fmt.Fprintf(&b, `<p><a href="%s">%s</a></p>`, u, u)
		case trimmed != "":
			fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(trimmed))
		default:
			b.WriteString("<br>")
		}
	}
	return b.String()
}

// htmlShell envuelve el contenido en el layout estándar de notificación.
func htmlShell(title, inner string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, Helvetica, sans-serif; max-width: 640px; margin: 0 auto;">
  <div style="background-color: #1428a0; color: #ffffff; padding: 16px 24px;">
    <h2 style="margin: 0; font-size: 18px;">%s</h2>
  </div>
  <div style="padding: 24px; border: 1px solid #e0e0e0; border-top: none;">%s</div>
  <div style="padding: 12px 24px; color: #888888; font-size: 12px;">This is an automated notification. Please do not reply to this email.</div>
</div>`, html.EscapeString(title), inner)
}

var stripTagsRe = regexp.MustCompile(`<[^>]*>`)

// StripHTMLTags deriva texto plano de un body HTML removiendo los tags.
func StripHTMLTags(s string) string {
	return strings.TrimSpace(stripTagsRe.ReplaceAllString(s, ""))
}

// orNA renderiza campos opcionales ausentes como "N/A" literal.
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
