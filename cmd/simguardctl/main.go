package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Operator  string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Operator != "" {
		req.Header.Set("X-Operator-ID", c.Operator)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

// call ejecuta el request e imprime la respuesta; status no-2xx es error.
func (c *client) call(name, method, path string, payload any) error {
	status, body, err := c.do(method, path, payload)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("%s failed: status=%d body=%s", name, status, strings.TrimSpace(string(body)))
	}
	c.print(status, body)
	return nil
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
		fmt.Println(strings.TrimSpace(string(body)))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL  = envOr("SIMGUARD_URL", "http://localhost:8080")
		operator = envOr("SIMGUARD_OPERATOR", "")
		out      = envOr("SIMGUARD_OUT", "json")
		timeout  = 30 * time.Second
	)

	cl := &client{}
	root := &cobra.Command{
		Use:           "simguardctl",
		Short:         "CLI para el API de simguard (chequeos de SIM swap y pagos)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if out != "json" && out != "text" {
				return fmt.Errorf("--out must be json or text")
			}
			*cl = client{BaseURL: baseURL, Operator: operator, OutFormat: out, HTTP: &http.Client{Timeout: timeout}}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del API (env SIMGUARD_URL)")
	root.PersistentFlags().StringVar(&operator, "operator", operator, "Operador que firma los bypass (env SIMGUARD_OPERATOR)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	// health
	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Estado del servicio (GET /healthz)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("health", http.MethodGet, "/healthz", nil)
		},
	})

	// check <phone>
	root.AddCommand(&cobra.Command{
		Use:   "check <phoneNumber>",
		Short: "Último SIM swap y nivel de riesgo de un número",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("check", http.MethodGet, "/security/sim-swap-check?phoneNumber="+url.QueryEscape(args[0]), nil)
		},
	})

	// batch <phone>...
	root.AddCommand(&cobra.Command{
		Use:   "batch <phoneNumber>...",
		Short: "Chequeo de SIM swap para varios números",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("batch", http.MethodPost, "/security/batch-sim-swap-check", map[string]any{"phoneNumbers": args})
		},
	})

	// history <phone>
	root.AddCommand(&cobra.Command{
		Use:   "history <phoneNumber>",
		Short: "Historial de SIM swaps de un número",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("history", http.MethodGet, "/security/sim-swap-history/"+url.PathEscape(args[0]), nil)
		},
	})

	// pay
	var (
		payID, payWorker, payMethod, payPhone, payVerify string
		payAmount                                        float64
		payBypass                                        bool
	)
	payCmd := &cobra.Command{
		Use:   "pay",
		Short: "Pago protegido (POST /payments/secure-payment)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if payBypass && cl.Operator == "" {
				return fmt.Errorf("--bypass requires --operator")
			}
			return cl.call("pay", http.MethodPost, "/payments/secure-payment", map[string]any{
				"paymentId":          payID,
				"workerId":           payWorker,
				"amount":             payAmount,
				"method":             payMethod,
				"phoneNumber":        payPhone,
				"bypassSimSwapCheck": payBypass,
				"verificationMethod": payVerify,
			})
		},
	}
	payCmd.Flags().StringVar(&payID, "payment-id", "", "Id del intento de pago (opcional, se genera si falta)")
	payCmd.Flags().StringVar(&payWorker, "worker", "", "Id del trabajador")
	payCmd.Flags().Float64Var(&payAmount, "amount", 0, "Monto")
	payCmd.Flags().StringVar(&payMethod, "method", "mobile_money", "Medio de pago")
	payCmd.Flags().StringVar(&payPhone, "phone", "", "Número destino (E.164)")
	payCmd.Flags().StringVar(&payVerify, "verification-method", "", "email|alternate_phone|security_questions")
	payCmd.Flags().BoolVar(&payBypass, "bypass", false, "Saltear el chequeo de SIM swap (queda auditado)")
	_ = payCmd.MarkFlagRequired("worker")
	_ = payCmd.MarkFlagRequired("amount")
	_ = payCmd.MarkFlagRequired("phone")
	root.AddCommand(payCmd)

	// verify
	var (
		verChallenge, verPayment, verToken, verPhone, verMethod, verCode string
		verAnswers                                                       map[string]string
	)
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirmar un challenge (POST /security/verify-after-swap)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verChallenge == "" && verPayment == "" && verToken == "" {
				return fmt.Errorf("one of --challenge, --payment-id or --token is required")
			}
			return cl.call("verify", http.MethodPost, "/security/verify-after-swap", map[string]any{
				"challengeId":        verChallenge,
				"paymentId":          verPayment,
				"token":              verToken,
				"phoneNumber":        verPhone,
				"verificationMethod": verMethod,
				"verificationData":   map[string]any{"code": verCode, "answers": verAnswers},
			})
		},
	}
	verifyCmd.Flags().StringVar(&verChallenge, "challenge", "", "Id del challenge")
	verifyCmd.Flags().StringVar(&verPayment, "payment-id", "", "Id del intento de pago")
	verifyCmd.Flags().StringVar(&verToken, "token", "", "Token del link de verificación")
	verifyCmd.Flags().StringVar(&verPhone, "phone", "", "Número del miembro (E.164)")
	verifyCmd.Flags().StringVar(&verMethod, "method", "email", "email|alternate_phone|security_questions")
	verifyCmd.Flags().StringVar(&verCode, "code", "", "Código recibido")
	verifyCmd.Flags().StringToStringVar(&verAnswers, "answer", nil, "Respuesta questionID=texto (repetible)")
	_ = verifyCmd.MarkFlagRequired("phone")
	root.AddCommand(verifyCmd)

	// challenge <id>
	root.AddCommand(&cobra.Command{
		Use:   "challenge <id>",
		Short: "Estado de un challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("challenge", http.MethodGet, "/security/challenges/"+url.PathEscape(args[0]), nil)
		},
	})

	// audit
	var audPayment, audPhone string
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Entradas del audit log por pago o por número",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if audPayment != "" {
				q.Set("paymentId", audPayment)
			}
			if audPhone != "" {
				q.Set("phoneNumber", audPhone)
			}
			if len(q) == 0 {
				return fmt.Errorf("--payment-id or --phone is required")
			}
			return cl.call("audit", http.MethodGet, "/security/audit?"+q.Encode(), nil)
		},
	}
	auditCmd.Flags().StringVar(&audPayment, "payment-id", "", "Id del intento de pago")
	auditCmd.Flags().StringVar(&audPhone, "phone", "", "Número (E.164)")
	root.AddCommand(auditCmd)

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
