package settings

import "context"

// SystemSettings es la configuración de correo y notificaciones del sistema.
// Es propiedad del almacén externo; este core la consume, nunca la escribe.
type SystemSettings struct {
	SMTPHost        string `yaml:"smtp_host" json:"smtpHost"`
	SMTPPort        int    `yaml:"smtp_port" json:"smtpPort"`
	SMTPUser        string `yaml:"smtp_user" json:"smtpUser"`
	SMTPPassword    string `yaml:"smtp_password" json:"smtpPassword"`
	SMTPPasswordEnc string `yaml:"smtp_password_enc" json:"smtpPasswordEnc"`
	FromAddress     string `yaml:"from_address" json:"fromAddress"`
	SiteName        string `yaml:"site_name" json:"siteName"`

	AdminEmail   string `yaml:"admin_email" json:"adminEmail"`
	CompanyEmail string `yaml:"company_email" json:"companyEmail"`

	EnableAdminNotifications bool `yaml:"enable_admin_notifications" json:"enableAdminNotifications"`
	NotifyOnIamExpiration    bool `yaml:"notify_on_iam_expiration" json:"notifyOnIamExpiration"`
	NotifyOnVmExpiration     bool `yaml:"notify_on_vm_expiration" json:"notifyOnVmExpiration"`

	// Templates opcionales para el mail de expiración IAM. Si están vacíos se
	// usan los templates por defecto.
	IamExpirationSubject string `yaml:"iam_expiration_subject" json:"iamExpirationSubject"`
	IamExpirationBody    string `yaml:"iam_expiration_body" json:"iamExpirationBody"`
}

// MailConfigured indica si hay configuración mínima para enviar correo.
// Sin host o sin from-address el sistema está "no configurado" y todo envío
// debe fallar rápido sin tocar la red.
func (s *SystemSettings) MailConfigured() bool {
	return s != nil && s.SMTPHost != "" && s.FromAddress != ""
}

// AdminRecipient retorna el destinatario administrativo efectivo:
// admin_email con fallback a company_email.
func (s *SystemSettings) AdminRecipient() string {
	if s == nil {
		return ""
	}
	if s.AdminEmail != "" {
		return s.AdminEmail
	}
	return s.CompanyEmail
}

// Provider es la única fuente de configuración de correo.
// Puede retornar nil (sin settings) o una configuración parcial.
// La configuración se relee fresca en cada uso, nunca se cachea.
type Provider interface {
	GetSystemSettings(ctx context.Context) (*SystemSettings, error)
}
