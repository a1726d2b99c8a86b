/*
Notify Handler (notify.go)
───────────────────────────────────────────────────────────────────────────────
Endpoints que la app de assets llama para disparar notificaciones salientes.
El contrato es best-effort: la respuesta siempre es 200 con {"sent": bool};
el detalle de cada intento queda en LOGS/email_notifications.log.

Endpoints registrados (chi)
- POST /v1/notify/modification    -> notificación de alta/baja/modificación
- POST /v1/notify/vm-expiration   -> batch de VMs por vencer (un solo mail)
- POST /v1/notify/iam-expiration  -> cuentas IAM por vencer (owner + admin)
*/
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/mailjohn/internal/email"
	"github.com/dropDatabas3/mailjohn/internal/rate"
	"github.com/go-chi/chi/v5"
)

// NotifyHandler expone los flujos de notificación sobre HTTP.
type NotifyHandler struct {
	Svc     *email.Service
	Limiter rate.Limiter // opcional
}

// Register registra las rutas de notificación.
func (h *NotifyHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Post("/v1/notify/modification", h.modification)
		r.Post("/v1/notify/vm-expiration", h.vmExpiration)
		r.Post("/v1/notify/iam-expiration", h.iamExpiration)
	})
}

func (h *NotifyHandler) modification(w http.ResponseWriter, r *http.Request) {
	if !rlOr429(w, r, h.Limiter, rate.NotifyKey("modification", r.RemoteAddr)) {
		return
	}
	var in email.ModificationData
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, "invalid_json", "malformed request body", http.StatusBadRequest)
		return
	}
	sent := h.Svc.SendModificationNotification(r.Context(), in)
	writeJSON(w, map[string]bool{"sent": sent})
}

func (h *NotifyHandler) vmExpiration(w http.ResponseWriter, r *http.Request) {
	if !rlOr429(w, r, h.Limiter, rate.NotifyKey("vm-expiration", r.RemoteAddr)) {
		return
	}
	var in email.VmExpirationData
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, "invalid_json", "malformed request body", http.StatusBadRequest)
		return
	}
	if len(in.Vms) == 0 {
		writeErr(w, "invalid_request", "vms must not be empty", http.StatusBadRequest)
		return
	}
	sent := h.Svc.SendVmExpirationNotification(r.Context(), in)
	writeJSON(w, map[string]bool{"sent": sent})
}

func (h *NotifyHandler) iamExpiration(w http.ResponseWriter, r *http.Request) {
	if !rlOr429(w, r, h.Limiter, rate.NotifyKey("iam-expiration", r.RemoteAddr)) {
		return
	}
	var in email.IamExpirationData
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, "invalid_json", "malformed request body", http.StatusBadRequest)
		return
	}
	if len(in.Accounts) == 0 {
		writeErr(w, "invalid_request", "accounts must not be empty", http.StatusBadRequest)
		return
	}
	sent := h.Svc.SendIamExpirationNotification(r.Context(), in)
	writeJSON(w, map[string]bool{"sent": sent})
}
