package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/util"
)

// ─── DTOs de entrada ───
//
// Registros provistos por el caller (scan de expiraciones, handlers HTTP).
// Son inputs de solo lectura, este core no los posee ni los persiste.

// ModificationData describe un cambio sobre un ítem administrado.
type ModificationData struct {
	Action   string `json:"action"`
	ItemType string `json:"itemType"`
	ItemName string `json:"itemName"`
	UserName string `json:"userName"`
	Details  string `json:"details"`
	// Timestamp ya formateado por el caller.
	Timestamp string `json:"timestamp"`
}

// IamAccountRecord es una cuenta IAM próxima a expirar.
type IamAccountRecord struct {
	Requestor     string `json:"requestor"`
	KnoxID        string `json:"knoxId"`
	Permission    string `json:"permission"`
	CloudPlatform string `json:"cloudPlatform"`
	Department    string `json:"department"`
	EndDate       string `json:"endDate"`
	ApprovalID    string `json:"approvalId"`
}

// IamExpirationData agrupa las cuentas de un batch de expiración.
type IamExpirationData struct {
	Accounts []IamAccountRecord `json:"accounts"`
}

// VmRecord es una VM próxima a expirar.
type VmRecord struct {
	Name           string `json:"name"`
	KnoxID         string `json:"knoxId"`
	Requestor      string `json:"requestor"`
	Department     string `json:"department"`
	EndDate        string `json:"endDate"`
	ApprovalNumber string `json:"approvalNumber"`
}

// VmExpirationData agrupa las VMs de un batch de expiración.
type VmExpirationData struct {
	Vms []VmRecord `json:"vms"`
}

// ─── Builders ───
//
// Cada builder evalúa su gate (flag de habilitación + destinatario admin)
// ANTES del camino de envío: un tipo de notificación deshabilitado o sin
// destinatario no toca ni la red ni el log de auditoría.

// SendModificationNotification envía al admin un resumen HTML de una
// modificación. Gateado por enable_admin_notifications y la presencia de un
// destinatario admin. Retorna el resultado del único SendEmail.
func (s *Service) SendModificationNotification(ctx context.Context, data ModificationData) bool {
	cfg, err := s.provider.GetSystemSettings(ctx)
	if err != nil || cfg == nil || !cfg.EnableAdminNotifications || cfg.AdminRecipient() == "" {
		return false
	}

	subject := fmt.Sprintf("Asset Modification: %s %s - %s", data.Action, data.ItemType, data.ItemName)
	inner := "<p>An item in the asset management system has been modified.</p>" +
		detailTable([][2]string{
			{"Action", data.Action},
			{"Item Type", data.ItemType},
			{"Item Name", data.ItemName},
			{"Modified By", data.UserName},
			{"Details", data.Details},
			{"Timestamp", data.Timestamp},
		})

	return s.SendEmail(ctx, OutboundMessage{
		To:      cfg.AdminRecipient(),
		Subject: subject,
		HTML:    htmlShell("Modification Notification", inner),
	})
}

// SendVmExpirationNotification envía al admin un único email listando todas
// las VMs por expirar. Campos opcionales ausentes se renderizan como "N/A".
// Gateado por notify_on_vm_expiration y destinatario admin.
func (s *Service) SendVmExpirationNotification(ctx context.Context, data VmExpirationData) bool {
	cfg, err := s.provider.GetSystemSettings(ctx)
	if err != nil || cfg == nil || !cfg.NotifyOnVmExpiration || cfg.AdminRecipient() == "" {
		return false
	}

	var rows strings.Builder
	for _, vm := range data.Vms {
		fmt.Fprintf(&rows,
			"<tr><td%s>%s</td><td%s>%s</td><td%s>%s</td><td%s>%s</td><td%s>%s</td><td%s>%s</td></tr>",
			cellStyle, html.EscapeString(orNA(vm.Name)),
			cellStyle, html.EscapeString(orNA(vm.KnoxID)),
			cellStyle, html.EscapeString(orNA(vm.Requestor)),
			cellStyle, html.EscapeString(orNA(vm.Department)),
			cellStyle, html.EscapeString(orNA(vm.EndDate)),
			cellStyle, html.EscapeString(orNA(vm.ApprovalNumber)),
		)
	}
	inner := fmt.Sprintf(`<p>The following %d VM(s) are approaching their end date.</p>
<table style="border-collapse: collapse; width: 100%%;">
<tr>%s%s%s%s%s%s</tr>
%s
</table>`,
		len(data.Vms),
		headerCell("VM Name"), headerCell("Knox ID"), headerCell("Requestor"),
		headerCell("Department"), headerCell("End Date"), headerCell("Approval No."),
		rows.String(),
	)

	return s.SendEmail(ctx, OutboundMessage{
		To:      cfg.AdminRecipient(),
		Subject: fmt.Sprintf("VM Expiration Notice: %d VM(s) approaching end date", len(data.Vms)),
		HTML:    htmlShell("VM Expiration Notice", inner),
	})
}

// SendIamExpirationNotification procesa un batch de cuentas IAM por expirar.
// Por CADA cuenta hace dos envíos independientes: el aviso al dueño (casilla
// derivada del Knox ID) y una copia al admin describiendo esa cuenta. Un
// fallo por cuenta se registra y no aborta el resto del batch. Retorna true
// si al menos un envío (dueño o admin) del batch salió bien.
func (s *Service) SendIamExpirationNotification(ctx context.Context, data IamExpirationData) bool {
	cfg, err := s.provider.GetSystemSettings(ctx)
	if err != nil || cfg == nil || !cfg.NotifyOnIamExpiration || cfg.AdminRecipient() == "" {
		return false
	}
	admin := cfg.AdminRecipient()

	log := logger.From(ctx).With(
		logger.Component("email.Service"),
		logger.Op("SendIamExpirationNotification"),
		logger.Count(len(data.Accounts)),
	)

	anySent := false
	for _, acct := range data.Accounts {
		ownerAddr := acct.KnoxID + corpMailDomain

		if s.SendIamExpirationOwnerNotification(ctx, acct) {
			anySent = true
		} else {
			log.Warn("owner notification failed",
				logger.To(util.MaskEmail(ownerAddr)),
				logger.String("knox_id", acct.KnoxID),
			)
		}

		subject := fmt.Sprintf("IAM Access Expiration: %s (%s)", acct.KnoxID, orNA(acct.Permission))
		inner := "<p>The following cloud IAM access is approaching its end date.</p>" +
			detailTable([][2]string{
				{"Requestor", orNA(acct.Requestor)},
				{"Knox ID", orNA(acct.KnoxID)},
				{"Permission", orNA(acct.Permission)},
				{"Cloud Platform", orNA(acct.CloudPlatform)},
				{"Department", orNA(acct.Department)},
				{"End Date", orNA(acct.EndDate)},
				{"Approval ID", orNA(acct.ApprovalID)},
			}) +
			fmt.Sprintf("<p>An expiration notice was also sent to %s.</p>", html.EscapeString(ownerAddr))

		if s.SendEmail(ctx, OutboundMessage{
			To:      admin,
			Subject: subject,
			HTML:    htmlShell("IAM Access Expiration", inner),
		}) {
			anySent = true
		} else {
			log.Warn("admin notification failed", logger.String("knox_id", acct.KnoxID))
		}
	}

	return anySent
}

// SendIamExpirationOwnerNotification envía el aviso de expiración al dueño
// del acceso. Requiere el transporte YA inicializado: no dispara lazy init,
// retorna false inmediato si el handle es nil. La fecha de remoción es 7 días
// calendario desde ahora; subject/body salen de los settings si traen
// template custom no vacío, si no de los defaults.
func (s *Service) SendIamExpirationOwnerNotification(ctx context.Context, acct IamAccountRecord) bool {
	if s.currentTransport() == nil {
		logger.From(ctx).Debug("owner notification skipped: transport not initialized",
			logger.Component("email.Service"),
			logger.String("knox_id", acct.KnoxID),
		)
		return false
	}

	cfg, err := s.provider.GetSystemSettings(ctx)
	if err != nil || cfg == nil {
		return false
	}

	subject := strings.TrimSpace(cfg.IamExpirationSubject)
	if subject == "" {
		subject = defaultIamExpirationSubject
	}
	body := cfg.IamExpirationBody
	if strings.TrimSpace(body) == "" {
		body = defaultIamExpirationBody
	}

	rendered := RenderOwnerTemplate(body, OwnerVars{
		RemovalDate:   s.now().AddDate(0, 0, 7).Format(removalDateLayout),
		Requestor:     acct.Requestor,
		KnoxID:        acct.KnoxID,
		Permission:    acct.Permission,
		CloudPlatform: acct.CloudPlatform,
		EndDate:       acct.EndDate,
		ApprovalID:    acct.ApprovalID,
	})

	return s.SendEmail(ctx, OutboundMessage{
		To:      acct.KnoxID + corpMailDomain,
		Subject: subject,
		HTML:    htmlShell("IAM Access Expiration Notice", TextToHTML(rendered)),
	})
}

// ─── helpers de render ───

const cellStyle = ` style="border: 1px solid #dddddd; padding: 6px 10px;"`

func headerCell(label string) string {
	return fmt.Sprintf(`<th style="border: 1px solid #dddddd; padding: 6px 10px; background-color: #f4f4f4; text-align: left;">%s</th>`, html.EscapeString(label))
}

func detailTable(rows [][2]string) string {
	var b strings.Builder
	b.WriteString(`<table style="border-collapse: collapse;">`)
	for _, r := range rows {
		fmt.Fprintf(&b,
			`<tr><td style="border: 1px solid #dddddd; padding: 6px 10px; background-color: #f4f4f4; font-weight: bold;">%s</td><td%s>%s</td></tr>`,
			html.EscapeString(r[0]), cellStyle, html.EscapeString(r[1]),
		)
	}
	b.WriteString("</table>")
	return b.String()
}
