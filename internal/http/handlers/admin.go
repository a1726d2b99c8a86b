/*
Admin Handler (admin.go)
───────────────────────────────────────────────────────────────────────────────
Operaciones administrativas, protegidas por X-Admin-API-Key:

- POST /v1/admin/email/initialize -> fuerza la (re)inicialización del transporte
- POST /v1/admin/email/test       -> manda un mail de prueba

El test acepta un override SMTP opcional para probar credenciales ANTES de
guardarlas en los settings: en ese caso se construye un transporte descartable
que se verifica y usa una sola vez, sin tocar el handle compartido del service.
*/
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/mailjohn/internal/email"
	"github.com/dropDatabas3/mailjohn/internal/rate"
	"github.com/go-chi/chi/v5"
)

// AdminHandler expone las operaciones administrativas del notificador.
type AdminHandler struct {
	Svc     *email.Service
	Factory email.TransportFactory // opcional; default NewSMTPTransport
	Limiter rate.Limiter           // opcional
	APIKey  string
}

// Register registra las rutas admin con el guard de API key.
func (h *AdminHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequireAdminKey(h.APIKey))
		r.Post("/v1/admin/email/initialize", h.initialize)
		r.Post("/v1/admin/email/test", h.testEmail)
	})
}

func (h *AdminHandler) initialize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]bool{"initialized": h.Svc.Initialize(r.Context())})
}

type smtpOverrideIn struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FromAddress string `json:"from_address"`
	SiteName    string `json:"site_name"`
}

type testEmailIn struct {
	To      string          `json:"to"`
	Subject string          `json:"subject"`
	Body    string          `json:"body"`
	SMTP    *smtpOverrideIn `json:"smtp"` // opcional: probar credenciales sin guardarlas
}

func (h *AdminHandler) testEmail(w http.ResponseWriter, r *http.Request) {
	if !rlOr429(w, r, h.Limiter, "admin:test:"+r.RemoteAddr) {
		return
	}
	var in testEmailIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, "invalid_json", "malformed request body", http.StatusBadRequest)
		return
	}
	if in.To == "" {
		writeErr(w, "invalid_request", "to is required", http.StatusBadRequest)
		return
	}
	if in.Subject == "" {
		in.Subject = "SMTP test"
	}
	if in.Body == "" {
		in.Body = "This is a test message. If you can read this, outbound email works."
	}

	// Sin override: pasa por el service con sus settings vigentes.
	if in.SMTP == nil {
		sent := h.Svc.SendEmail(r.Context(), email.OutboundMessage{
			To:      in.To,
			Subject: in.Subject,
			HTML:    email.TextToHTML(in.Body),
			Text:    in.Body,
		})
		writeJSON(w, map[string]bool{"sent": sent})
		return
	}

	// Con override: transporte descartable, verificado y usado una sola vez.
	factory := h.Factory
	if factory == nil {
		factory = email.NewSMTPTransport
	}
	port := in.SMTP.Port
	if port == 0 {
		port = 587
	}
	user := in.SMTP.Username
	if user == "" {
		user = in.SMTP.FromAddress
	}
	t := factory(email.TransportConfig{
		Host:   in.SMTP.Host,
		Port:   port,
		Secure: port == 465,
		User:   user,
		Pass:   in.SMTP.Password,
	})
	if err := t.Verify(); err != nil {
		writeErr(w, "smtp_verify_failed", err.Error(), http.StatusBadGateway)
		return
	}
	fromName := in.SMTP.SiteName
	if fromName == "" {
		fromName = email.DefaultSiteName
	}
	id, err := t.Send(email.OutboundMessage{
		To:          in.To,
		Subject:     in.Subject,
		HTML:        email.TextToHTML(in.Body),
		Text:        in.Body,
		FromAddress: in.SMTP.FromAddress,
		FromName:    fromName,
	})
	if err != nil {
		writeErr(w, "smtp_send_failed", err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"sent": true, "message_id": id})
}
