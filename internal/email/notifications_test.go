package email

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestModification_GatedByFlag(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.EnableAdminNotifications = false
	h := newHarness(t, cfg)

	if h.svc.SendModificationNotification(context.Background(), ModificationData{Action: "Updated"}) {
		t.Fatalf("disabled notification type must return false")
	}
	if h.transport.sentCount() != 0 {
		t.Fatalf("gate must prevent network calls")
	}
	if len(auditLines(t, h.audit)) != 0 {
		t.Fatalf("gate must prevent audit entries")
	}
}

func TestModification_GatedByMissingRecipient(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.EnableAdminNotifications = true
	cfg.AdminEmail = ""
	cfg.CompanyEmail = ""
	h := newHarness(t, cfg)

	if h.svc.SendModificationNotification(context.Background(), ModificationData{Action: "Updated"}) {
		t.Fatalf("missing recipient must return false")
	}
	if len(auditLines(t, h.audit)) != 0 {
		t.Fatalf("no audit entries expected")
	}
}

func TestModification_SendsToAdmin(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.EnableAdminNotifications = true
	h := newHarness(t, cfg)

	ok := h.svc.SendModificationNotification(context.Background(), ModificationData{
		Action:    "Updated",
		ItemType:  "VM",
		ItemName:  "web-01",
		UserName:  "operator",
		Details:   "memory 8GB -> 16GB",
		Timestamp: "2024-05-10 09:00",
	})
	if !ok {
		t.Fatalf("send should succeed")
	}
	sent := h.transport.sent[0]
	if sent.To != "admin@example.com" {
		t.Fatalf("to = %q", sent.To)
	}
	if !strings.Contains(sent.Subject, "Updated VM - web-01") {
		t.Fatalf("subject = %q", sent.Subject)
	}
	for _, frag := range []string{"web-01", "operator", "memory 8GB -&gt; 16GB", "2024-05-10 09:00"} {
		if !strings.Contains(sent.HTML, frag) {
			t.Fatalf("html missing %q", frag)
		}
	}
}

func TestModification_CompanyEmailFallback(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.EnableAdminNotifications = true
	cfg.AdminEmail = ""
	cfg.CompanyEmail = "company@example.com"
	h := newHarness(t, cfg)

	if !h.svc.SendModificationNotification(context.Background(), ModificationData{Action: "Created"}) {
		t.Fatalf("send should succeed")
	}
	if h.transport.sent[0].To != "company@example.com" {
		t.Fatalf("to = %q", h.transport.sent[0].To)
	}
}

func TestVmExpiration_RendersNA(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.NotifyOnVmExpiration = true
	h := newHarness(t, cfg)

	ok := h.svc.SendVmExpirationNotification(context.Background(), VmExpirationData{
		Vms: []VmRecord{
			{Name: "web-01", KnoxID: "jdoe", Requestor: "John Doe", Department: "Infra", EndDate: "2024-06-01", ApprovalNumber: "AP-9"},
			{Name: "db-02", EndDate: "2024-06-02"}, // campos opcionales ausentes
		},
	})
	if !ok {
		t.Fatalf("send should succeed")
	}
	if h.transport.sentCount() != 1 {
		t.Fatalf("one batch email expected, got %d", h.transport.sentCount())
	}
	html := h.transport.sent[0].HTML
	if !strings.Contains(html, "web-01") || !strings.Contains(html, "db-02") {
		t.Fatalf("all vms must be listed")
	}
	if !strings.Contains(html, "N/A") {
		t.Fatalf("missing optional fields must render as N/A")
	}
}

func TestVmExpiration_Gated(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.NotifyOnVmExpiration = false
	h := newHarness(t, cfg)

	if h.svc.SendVmExpirationNotification(context.Background(), VmExpirationData{Vms: []VmRecord{{Name: "x"}}}) {
		t.Fatalf("disabled type must return false")
	}
	if len(auditLines(t, h.audit)) != 0 || h.transport.sentCount() != 0 {
		t.Fatalf("gate must prevent audit entries and network calls")
	}
}

func TestIamExpiration_Gated(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.NotifyOnIamExpiration = false
	h := newHarness(t, cfg)

	ok := h.svc.SendIamExpirationNotification(context.Background(), IamExpirationData{
		Accounts: []IamAccountRecord{{KnoxID: "jdoe"}},
	})
	if ok {
		t.Fatalf("disabled type must return false")
	}
	if len(auditLines(t, h.audit)) != 0 || h.transport.sentCount() != 0 {
		t.Fatalf("gate must prevent audit entries and network calls")
	}
}

func TestIamExpiration_OwnerAddressDerivation(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.NotifyOnIamExpiration = true
	h := newHarness(t, cfg)

	// Inicializar para que el owner notification no se saltee.
	if !h.svc.Initialize(context.Background()) {
		t.Fatalf("init failed")
	}

	ok := h.svc.SendIamExpirationNotification(context.Background(), IamExpirationData{
		Accounts: []IamAccountRecord{{KnoxID: "jdoe", Requestor: "John Doe", Permission: "ec2:Admin", EndDate: "2024-05-20"}},
	})
	if !ok {
		t.Fatalf("batch should report success")
	}
	// Un owner + un admin por cuenta.
	if h.transport.sentCount() != 2 {
		t.Fatalf("want 2 sends, got %d", h.transport.sentCount())
	}
	if h.transport.sent[0].To != "jdoe@samsung.com" {
		t.Fatalf("owner address = %q", h.transport.sent[0].To)
	}
	if h.transport.sent[1].To != "admin@example.com" {
		t.Fatalf("admin address = %q", h.transport.sent[1].To)
	}
	if !strings.Contains(h.transport.sent[1].HTML, "jdoe@samsung.com") {
		t.Fatalf("admin copy must note the owner address")
	}
}

func TestIamExpiration_BatchResilience(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.NotifyOnIamExpiration = true
	h := newHarness(t, cfg)
	if !h.svc.Initialize(context.Background()) {
		t.Fatalf("init failed")
	}
	// El envío al dueño de la segunda cuenta falla; el batch debe continuar.
	h.transport.failFor = map[string]error{
		"bob@samsung.com": errors.New("550 user unknown"),
	}

	ok := h.svc.SendIamExpirationNotification(context.Background(), IamExpirationData{
		Accounts: []IamAccountRecord{
			{KnoxID: "alice", EndDate: "2024-05-20"},
			{KnoxID: "bob", EndDate: "2024-05-21"},
			{KnoxID: "carol", EndDate: "2024-05-22"},
		},
	})
	if !ok {
		t.Fatalf("batch with partial failures should still return true")
	}

	// 2 owner OK + 3 admin OK = 5 envíos efectivos.
	if h.transport.sentCount() != 5 {
		t.Fatalf("want 5 delivered sends, got %d", h.transport.sentCount())
	}
	lines := auditLines(t, h.audit)
	// 6 intentos en total, cada uno con su entrada.
	if len(lines) != 6 {
		t.Fatalf("want 6 audit entries, got %d", len(lines))
	}
	var failed int
	for _, ln := range lines {
		if strings.Contains(ln, "[FAILED]") {
			failed++
			if !strings.Contains(ln, "bob@samsung.com") {
				t.Fatalf("unexpected failed entry: %q", ln)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("want 1 failed entry, got %d", failed)
	}
}

func TestIamExpiration_AllFail(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.NotifyOnIamExpiration = true
	h := newHarness(t, cfg)
	if !h.svc.Initialize(context.Background()) {
		t.Fatalf("init failed")
	}
	h.transport.sendErr = errors.New("421 service not available")

	ok := h.svc.SendIamExpirationNotification(context.Background(), IamExpirationData{
		Accounts: []IamAccountRecord{{KnoxID: "alice"}, {KnoxID: "bob"}},
	})
	if ok {
		t.Fatalf("batch where nothing was delivered must return false")
	}
}

func TestOwnerNotification_RequiresInitializedTransport(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.NotifyOnIamExpiration = true
	h := newHarness(t, cfg)

	// Sin Initialize previo: no dispara lazy init, retorna false inmediato.
	if h.svc.SendIamExpirationOwnerNotification(context.Background(), IamAccountRecord{KnoxID: "jdoe"}) {
		t.Fatalf("owner notification must not lazy-init the transport")
	}
	if *h.factory != 0 {
		t.Fatalf("no transport should be built, got %d", *h.factory)
	}
	if len(auditLines(t, h.audit)) != 0 {
		t.Fatalf("no audit entries expected")
	}
}

func TestOwnerNotification_DefaultTemplateAndRemovalDate(t *testing.T) {
	t.Parallel()

	cfg := configured()
	h := newHarness(t, cfg)
	if !h.svc.Initialize(context.Background()) {
		t.Fatalf("init failed")
	}

	ok := h.svc.SendIamExpirationOwnerNotification(context.Background(), IamAccountRecord{
		KnoxID:        "jdoe",
		Requestor:     "John Doe",
		Permission:    "s3:ReadOnly",
		CloudPlatform: "AWS",
		EndDate:       "2024-05-20",
		ApprovalID:    "APR-7",
	})
	if !ok {
		t.Fatalf("owner send should succeed")
	}

	sent := h.transport.sent[0]
	if sent.Subject != defaultIamExpirationSubject {
		t.Fatalf("subject = %q", sent.Subject)
	}
	// now fijo en el harness: 2024-05-10 + 7 días = May 17, 2024.
	if !strings.Contains(sent.HTML, "May 17, 2024") {
		t.Fatalf("removal date missing in body: %q", sent.HTML)
	}
	if !strings.Contains(sent.HTML, "John Doe") || !strings.Contains(sent.HTML, "APR-7") {
		t.Fatalf("account fields missing in body")
	}
	if strings.Contains(sent.HTML, "{knoxId}") {
		t.Fatalf("residual template token in body")
	}
	if !strings.Contains(sent.HTML, "<a href=") {
		t.Fatalf("url line should render as anchor")
	}
}

func TestOwnerNotification_CustomTemplate(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.IamExpirationSubject = "Aviso: acceso por vencer"
	cfg.IamExpirationBody = "Hola {requestor}, tu acceso {permission} vence el {endDate}."
	h := newHarness(t, cfg)
	if !h.svc.Initialize(context.Background()) {
		t.Fatalf("init failed")
	}

	if !h.svc.SendIamExpirationOwnerNotification(context.Background(), IamAccountRecord{
		KnoxID: "jdoe", Requestor: "Juan", Permission: "gcs:Admin", EndDate: "2024-05-20",
	}) {
		t.Fatalf("owner send should succeed")
	}

	sent := h.transport.sent[0]
	if sent.Subject != "Aviso: acceso por vencer" {
		t.Fatalf("custom subject not used: %q", sent.Subject)
	}
	if !strings.Contains(sent.HTML, "Hola Juan, tu acceso gcs:Admin vence el 2024-05-20.") {
		t.Fatalf("custom body not rendered: %q", sent.HTML)
	}
}
