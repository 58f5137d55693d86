package tools

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storia/apperr"
)

// StripeClient cobre as três operações que usamos da Stripe: criar sessão de
// checkout embutido, listar os line items de uma sessão e validar assinatura
// de webhook.
type StripeClient struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewStripeClient(secretKey string) *StripeClient {
	return NewStripeClientWithBaseURL(secretKey, "https://api.stripe.com")
}

func NewStripeClientWithBaseURL(secretKey, baseURL string) *StripeClient {
	return &StripeClient{
		secretKey:  secretKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type CheckoutSessionParams struct {
	CustomerEmail     string
	PriceID           string
	ClientReferenceID string
	ReturnURL         string
	Metadata          map[string]string
}

type StripeCheckoutSession struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type StripeLineItem struct {
	PriceID   string
	ProductID string
}

func (s *StripeClient) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*StripeCheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("ui_mode", "embedded")
	form.Set("customer_email", params.CustomerEmail)
	form.Set("client_reference_id", params.ClientReferenceID)
	form.Set("return_url", params.ReturnURL)
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var session StripeCheckoutSession
	if err := s.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *StripeClient) ListLineItems(ctx context.Context, sessionID string) ([]StripeLineItem, error) {
	var parsed struct {
		Data []struct {
			Price struct {
				ID      string `json:"id"`
				Product string `json:"product"`
			} `json:"price"`
		} `json:"data"`
	}
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID) + "/line_items"
	if err := s.do(ctx, http.MethodGet, path, nil, &parsed); err != nil {
		return nil, err
	}

	items := make([]StripeLineItem, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		items = append(items, StripeLineItem{PriceID: d.Price.ID, ProductID: d.Price.Product})
	}
	return items, nil
}

func (s *StripeClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço da Stripe.", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço da Stripe.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço da Stripe.",
			fmt.Errorf("stripe error %d: %s", resp.StatusCode, string(raw)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço da Stripe.", err)
	}
	return nil
}

// stripeSignatureTolerance limita a idade aceita de um evento assinado, para
// não aceitar replays antigos de payloads legítimos.
const stripeSignatureTolerance = 5 * time.Minute

// VerifyStripeSignature valida o header "Stripe-Signature"
// (formato "t=<unix>,v1=<hex>,..."): HMAC-SHA256 do payload "t.<body>" com o
// segredo do endpoint.
func VerifyStripeSignature(payload []byte, header, secret string) error {
	return verifyStripeSignatureAt(payload, header, secret, time.Now())
}

func verifyStripeSignatureAt(payload []byte, header, secret string, now time.Time) error {
	var ts int64
	var sigs [][]byte

	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return apperr.New(apperr.KIND_INVALID_SIGNATURE, "Webhook Error: timestamp inválido.")
			}
			ts = n
		case "v1":
			sig, err := hex.DecodeString(v)
			if err != nil {
				continue
			}
			sigs = append(sigs, sig)
		}
	}

	if ts == 0 || len(sigs) == 0 {
		return apperr.New(apperr.KIND_INVALID_SIGNATURE, "Webhook Error: assinatura ausente ou malformada.")
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > stripeSignatureTolerance || age < -stripeSignatureTolerance {
		return apperr.New(apperr.KIND_INVALID_SIGNATURE, "Webhook Error: evento fora da janela de tolerância.")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range sigs {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return apperr.New(apperr.KIND_INVALID_SIGNATURE, "Webhook Error: assinatura inválida.")
}
