// mailjohnctl: CLI admin para el notificador (vía /v1/admin y /v1/notify).
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	APIKey    string
	OutFormat string
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("X-Admin-API-Key", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("MAILJOHN_URL", "http://localhost:8080")
		apiKey  = envOr("MAILJOHN_ADMIN_KEY", "")
		out     = envOr("MAILJOHN_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "mailjohnctl",
		Short: "CLI admin del servicio de notificaciones por email",
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env MAILJOHN_URL)")
	root.PersistentFlags().StringVar(&apiKey, "admin-api-key", apiKey, "API key admin (env MAILJOHN_ADMIN_KEY)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	httpClient := &http.Client{Timeout: timeout}
	cl := &client{BaseURL: baseURL, APIKey: apiKey, OutFormat: out, HTTP: httpClient}

	// ping: usa GET /healthz (no requiere API key)
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Ping al servicio (GET /healthz)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/healthz", nil, nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("ping fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, []byte(`{"ok":true}`))
			return nil
		},
	}

	// grupo email
	emailCmd := &cobra.Command{
		Use:   "email",
		Short: "Operaciones sobre el transporte SMTP (requiere X-Admin-API-Key)",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Forzar (re)inicialización del transporte SMTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/v1/admin/email/initialize", []byte(`{}`), nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("init fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	var testTo, testSubject, testBody string
	var testHost, testFrom, testUser, testPass string
	var testPort int
	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Mandar un mail de prueba (con override SMTP opcional)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if testTo == "" {
				return fmt.Errorf("--to es requerido")
			}
			payload := map[string]any{"to": testTo}
			if testSubject != "" {
				payload["subject"] = testSubject
			}
			if testBody != "" {
				payload["body"] = testBody
			}
			if testHost != "" {
				payload["smtp"] = map[string]any{
					"host":         testHost,
					"port":         testPort,
					"username":     testUser,
					"password":     testPass,
					"from_address": testFrom,
				}
			}
			b, _ := json.Marshal(payload)
			status, body, err := cl.do("POST", "/v1/admin/email/test", b, nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("test fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	testCmd.Flags().StringVar(&testTo, "to", "", "Destinatario del mail de prueba")
	testCmd.Flags().StringVar(&testSubject, "subject", "", "Subject (opcional)")
	testCmd.Flags().StringVar(&testBody, "body", "", "Cuerpo en texto plano (opcional)")
	testCmd.Flags().StringVar(&testHost, "smtp-host", "", "Override: host SMTP")
	testCmd.Flags().IntVar(&testPort, "smtp-port", 0, "Override: puerto SMTP (default 587)")
	testCmd.Flags().StringVar(&testUser, "smtp-user", "", "Override: username SMTP")
	testCmd.Flags().StringVar(&testPass, "smtp-pass", "", "Override: password SMTP")
	testCmd.Flags().StringVar(&testFrom, "smtp-from", "", "Override: from address")

	emailCmd.AddCommand(initCmd)
	emailCmd.AddCommand(testCmd)

	// notify: disparo manual de un flujo (útil para probar templates)
	var notifyFile string
	notifyCmd := &cobra.Command{
		Use:   "notify [modification|vm-expiration|iam-expiration]",
		Short: "Disparar una notificación con el payload JSON de --file (o stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			switch kind {
			case "modification", "vm-expiration", "iam-expiration":
			default:
				return fmt.Errorf("tipo inválido %q", kind)
			}
			var payload []byte
			var err error
			if notifyFile != "" {
				payload, err = os.ReadFile(notifyFile)
			} else {
				payload, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return err
			}
			status, body, err := cl.do("POST", "/v1/notify/"+kind, payload, nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("notify fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	notifyCmd.Flags().StringVar(&notifyFile, "file", "", "Archivo JSON con el payload (default: stdin)")

	root.AddCommand(pingCmd)
	root.AddCommand(emailCmd)
	root.AddCommand(notifyCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
