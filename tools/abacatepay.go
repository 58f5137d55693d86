package tools

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storia/apperr"
)

// AbacatePayClient cria e consulta cobranças PIX na AbacatePay.
type AbacatePayClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewAbacatePayClient(apiKey string) *AbacatePayClient {
	return NewAbacatePayClientWithBaseURL(apiKey, "https://api.abacatepay.com/v1")
}

func NewAbacatePayClientWithBaseURL(apiKey, baseURL string) *AbacatePayClient {
	return &AbacatePayClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type AbacateCustomer struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Cellphone string `json:"cellphone"`
	TaxID     string `json:"taxId"`
}

type AbacateProduct struct {
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Price      int64  `json:"price"`
}

type AbacateBillingRequest struct {
	Customer      AbacateCustomer   `json:"customer"`
	Amount        int64             `json:"amount"`
	Description   string            `json:"description"`
	Frequency     string            `json:"frequency"` // "ONE_TIME"
	Methods       []string          `json:"methods"`   // ["PIX"]
	Products      []AbacateProduct  `json:"products"`
	ReturnURL     string            `json:"returnUrl"`
	CompletionURL string            `json:"completionUrl"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type AbacateBilling struct {
	ID       string            `json:"id"`
	URL      string            `json:"url"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Metadata map[string]string `json:"metadata"`
	Products []AbacateProduct  `json:"products"`
}

func (c *AbacatePayClient) CreateBilling(ctx context.Context, billing AbacateBillingRequest) (*AbacateBilling, error) {
	b, _ := json.Marshal(billing)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/billing/create", bytes.NewReader(b))
	if err != nil {
		return nil, apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço da AbacatePay.", err)
	}
	return c.send(req)
}

func (c *AbacatePayClient) GetBilling(ctx context.Context, billingID string) (*AbacateBilling, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/billing/get?id="+url.QueryEscape(billingID), nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço da AbacatePay.", err)
	}
	return c.send(req)
}

func (c *AbacatePayClient) send(req *http.Request) (*AbacateBilling, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço da AbacatePay.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço da AbacatePay.",
			fmt.Errorf("abacatepay error %d: %s", resp.StatusCode, string(raw)))
	}

	var parsed struct {
		Data  *AbacateBilling `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço da AbacatePay.", err)
	}
	if parsed.Error != "" || parsed.Data == nil {
		return nil, apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço da AbacatePay.",
			fmt.Errorf("falha ao obter os dados de pagamento: %s", parsed.Error))
	}
	return parsed.Data, nil
}

// VerifyAbacateSignature valida o header "Abacate-Signature":
// HMAC-SHA256 do corpo bruto com o segredo do webhook, em base64.
func VerifyAbacateSignature(payload []byte, signature, secret string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return apperr.New(apperr.KIND_INVALID_SIGNATURE, "Webhook Error: assinatura ausente.")
	}

	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return apperr.New(apperr.KIND_INVALID_SIGNATURE, "Webhook Error: assinatura malformada.")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return apperr.New(apperr.KIND_INVALID_SIGNATURE, "Webhook Error: assinatura inválida.")
	}
	return nil
}
