package email

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/auditlog"
	"github.com/dropDatabas3/mailjohn/internal/settings"
)

// ─── fakes ───

type fakeProvider struct {
	mu    sync.Mutex
	s     *settings.SystemSettings
	err   error
	calls int
}

func (f *fakeProvider) GetSystemSettings(_ context.Context) (*settings.SystemSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.s, f.err
}

func (f *fakeProvider) set(s *settings.SystemSettings) {
	f.mu.Lock()
	f.s = s
	f.mu.Unlock()
}

type fakeTransport struct {
	mu        sync.Mutex
	host      string
	verifyErr error
	sendErr   error
	failFor   map[string]error // errores por destinatario
	sent      []OutboundMessage
}

func (t *fakeTransport) Verify() error { return t.verifyErr }

func (t *fakeTransport) Send(msg OutboundMessage) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.failFor[msg.To]; ok {
		return "", err
	}
	if t.sendErr != nil {
		return "", t.sendErr
	}
	t.sent = append(t.sent, msg)
	return "<test-id@" + t.host + ">", nil
}

func (t *fakeTransport) Host() string { return t.host }

func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func configured() *settings.SystemSettings {
	return &settings.SystemSettings{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    587,
		FromAddress: "noreply@example.com",
		SiteName:    "Asset Portal",
		AdminEmail:  "admin@example.com",
	}
}

type harness struct {
	svc       *Service
	provider  *fakeProvider
	transport *fakeTransport
	audit     *auditlog.Log
	factory   *int // cantidad de transportes construidos
}

func newHarness(t *testing.T, s *settings.SystemSettings) *harness {
	t.Helper()

	provider := &fakeProvider{s: s}
	transport := &fakeTransport{host: "smtp.example.com"}
	audit := auditlog.New(t.TempDir())
	builds := 0

	svc, err := NewService(ServiceConfig{
		Settings: provider,
		Audit:    audit,
		TransportFactory: func(cfg TransportConfig) Transport {
			builds++
			transport.host = cfg.Host
			return transport
		},
		Now: func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &harness{svc: svc, provider: provider, transport: transport, audit: audit, factory: &builds}
}

func auditLines(t *testing.T, l *auditlog.Log) []string {
	t.Helper()
	b, err := os.ReadFile(l.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read audit log: %v", err)
	}
	s := strings.TrimRight(string(b), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// ─── Initialize ───

func TestInitialize_NotConfigured(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &settings.SystemSettings{FromAddress: "noreply@example.com"}) // sin host

	if h.svc.Initialize(context.Background()) {
		t.Fatalf("Initialize should return false without smtp host")
	}
	if *h.factory != 0 {
		t.Fatalf("no transport should be built, got %d", *h.factory)
	}
	if h.svc.currentTransport() != nil {
		t.Fatalf("transport must stay nil")
	}
}

func TestInitialize_NilSettings(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	if h.svc.Initialize(context.Background()) {
		t.Fatalf("Initialize should return false with nil settings")
	}
}

func TestInitialize_VerifyFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, configured())
	h.transport.verifyErr = errors.New("535 authentication failed")

	if h.svc.Initialize(context.Background()) {
		t.Fatalf("Initialize should return false on verify failure")
	}
	if h.svc.currentTransport() != nil {
		t.Fatalf("failed verify must not retain the instance")
	}
}

func TestInitialize_Success(t *testing.T) {
	t.Parallel()

	h := newHarness(t, configured())
	if !h.svc.Initialize(context.Background()) {
		t.Fatalf("Initialize should succeed")
	}
	if h.svc.currentTransport() == nil {
		t.Fatalf("transport should be installed")
	}
}

func TestInitialize_FailedAttemptKeepsVerifiedHandle(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{s: configured()}
	audit := auditlog.New(t.TempDir())
	good := &fakeTransport{host: "smtp.example.com"}
	bad := &fakeTransport{host: "smtp.example.com", verifyErr: errors.New("dial tcp: timeout")}
	builds := 0

	svc, err := NewService(ServiceConfig{
		Settings: provider,
		Audit:    audit,
		TransportFactory: func(cfg TransportConfig) Transport {
			builds++
			if builds == 1 {
				return good
			}
			return bad
		},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if !svc.Initialize(context.Background()) {
		t.Fatalf("first Initialize should succeed")
	}
	if svc.Initialize(context.Background()) {
		t.Fatalf("second Initialize should fail (bad verify)")
	}
	// El handle verificado no debe ser pisado por el intento fallido.
	if svc.currentTransport() != good {
		t.Fatalf("verified handle was clobbered by a failing attempt")
	}
}

// ─── SendEmail ───

func TestSendEmail_Success(t *testing.T) {
	t.Parallel()

	h := newHarness(t, configured())
	ok := h.svc.SendEmail(context.Background(), OutboundMessage{
		To:      "dest@example.com",
		Subject: "Hola",
		HTML:    "<p>Hola <b>mundo</b></p>",
	})
	if !ok {
		t.Fatalf("SendEmail should succeed")
	}

	if h.transport.sentCount() != 1 {
		t.Fatalf("want 1 send, got %d", h.transport.sentCount())
	}
	sent := h.transport.sent[0]
	if sent.FromAddress != "noreply@example.com" || sent.FromName != "Asset Portal" {
		t.Fatalf("from mismatch: %q %q", sent.FromAddress, sent.FromName)
	}
	if sent.Text != "Hola mundo" {
		t.Fatalf("text should default to stripped html, got %q", sent.Text)
	}

	lines := auditLines(t, h.audit)
	if len(lines) != 1 {
		t.Fatalf("want exactly 1 audit entry, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[SUCCESS] To: dest@example.com | Subject: Hola | MessageID: <test-id@smtp.example.com>") {
		t.Fatalf("unexpected audit line: %q", lines[0])
	}
}

func TestSendEmail_DefaultSiteName(t *testing.T) {
	t.Parallel()

	cfg := configured()
	cfg.SiteName = ""
	h := newHarness(t, cfg)

	if !h.svc.SendEmail(context.Background(), OutboundMessage{To: "a@b.c", Subject: "s", HTML: "<p>x</p>"}) {
		t.Fatalf("send should succeed")
	}
	if h.transport.sent[0].FromName != DefaultSiteName {
		t.Fatalf("got from name %q", h.transport.sent[0].FromName)
	}
}

func TestSendEmail_LazyInitInline(t *testing.T) {
	t.Parallel()

	h := newHarness(t, configured())
	if h.svc.currentTransport() != nil {
		t.Fatalf("precondition: transport nil")
	}
	if !h.svc.SendEmail(context.Background(), OutboundMessage{To: "a@b.c", Subject: "s", HTML: "<p>x</p>"}) {
		t.Fatalf("send with lazy init should succeed")
	}
	if *h.factory != 1 {
		t.Fatalf("want 1 transport build, got %d", *h.factory)
	}
}

func TestSendEmail_NotConfigured(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &settings.SystemSettings{}) // vacío
	ok := h.svc.SendEmail(context.Background(), OutboundMessage{To: "a@b.c", Subject: "s", HTML: "<p>x</p>"})
	if ok {
		t.Fatalf("send should fail fast")
	}
	if h.transport.sentCount() != 0 {
		t.Fatalf("no network attempt expected")
	}
	lines := auditLines(t, h.audit)
	if len(lines) != 1 {
		t.Fatalf("want exactly 1 audit entry, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[FAILED]") || !strings.Contains(lines[0], "Error: Email service not configured") {
		t.Fatalf("unexpected audit line: %q", lines[0])
	}
}

func TestSendEmail_SendFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, configured())
	h.transport.sendErr = errors.New("451 try again later")

	if h.svc.SendEmail(context.Background(), OutboundMessage{To: "a@b.c", Subject: "s", HTML: "<p>x</p>"}) {
		t.Fatalf("send should fail")
	}
	lines := auditLines(t, h.audit)
	if len(lines) != 1 {
		t.Fatalf("want exactly 1 audit entry, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[FAILED]") || !strings.Contains(lines[0], "451 try again later") {
		t.Fatalf("unexpected audit line: %q", lines[0])
	}
}

func TestSendEmail_NoDeduplication(t *testing.T) {
	t.Parallel()

	h := newHarness(t, configured())
	msg := OutboundMessage{To: "a@b.c", Subject: "repetido", HTML: "<p>x</p>"}

	if !h.svc.SendEmail(context.Background(), msg) || !h.svc.SendEmail(context.Background(), msg) {
		t.Fatalf("both sends should succeed")
	}
	if h.transport.sentCount() != 2 {
		t.Fatalf("want 2 independent sends, got %d", h.transport.sentCount())
	}
	if got := len(auditLines(t, h.audit)); got != 2 {
		t.Fatalf("want 2 independent audit entries, got %d", got)
	}
}

func TestSendEmail_ConcurrentLazyInit(t *testing.T) {
	t.Parallel()

	h := newHarness(t, configured())

	const n = 10
	var wg sync.WaitGroup
	results := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.svc.SendEmail(context.Background(), OutboundMessage{
				To: "a@b.c", Subject: "concurrente", HTML: "<p>x</p>",
			})
		}(i)
	}
	wg.Wait()

	for i, ok := range results {
		if !ok {
			t.Fatalf("send %d failed", i)
		}
	}
	if got := len(auditLines(t, h.audit)); got != n {
		t.Fatalf("want %d audit entries, got %d", n, got)
	}
}
