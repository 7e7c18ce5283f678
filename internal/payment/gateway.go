package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Domenick1991/chauffeur/config"
	"github.com/Domenick1991/chauffeur/internal/domain"
)

var ErrInvalidResourcePath = errors.New("invalid payment resource path")

const checkoutsPath = "/v1/checkouts"

type ParameterError struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type Result struct {
	Code            string           `json:"code"`
	Description     string           `json:"description"`
	ParameterErrors []ParameterError `json:"parameterErrors,omitempty"`
}

type CheckoutRequest struct {
	Amount                domain.Money
	MerchantTransactionID string
	Billing               domain.BillingInfo
}

type CheckoutResponse struct {
	ID     string `json:"id"`
	NDC    string `json:"ndc"`
	Result Result `json:"result"`
}

type StatusResponse struct {
	ID                    string `json:"id"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	Result                Result `json:"result"`
}

// Gateway is the hosted-checkout provider.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
	PaymentStatus(ctx context.Context, resourcePath string) (*StatusResponse, error)
}

// GatewayError is a non-2xx answer from the provider. Result is filled when
// the body could be decoded.
type GatewayError struct {
	StatusCode int
	Result     Result
}

func (e *GatewayError) Error() string {
	if e.Result.Code != "" {
		return fmt.Sprintf("payment gateway returned %d: %s %s", e.StatusCode, e.Result.Code, e.Result.Description)
	}
	return fmt.Sprintf("payment gateway returned %d", e.StatusCode)
}

type HTTPGateway struct {
	baseURL     string
	entityID    string
	accessToken string
	paymentType string
	client      *http.Client
}

func NewHTTPGateway(cfg config.PaymentConfig) *HTTPGateway {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPGateway{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		entityID:    cfg.EntityID,
		accessToken: cfg.AccessToken,
		paymentType: cfg.PaymentType,
		client:      &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	form := url.Values{}
	form.Set("entityId", g.entityID)
	form.Set("amount", req.Amount.Decimal())
	form.Set("currency", req.Amount.Currency)
	form.Set("paymentType", g.paymentType)
	form.Set("merchantTransactionId", req.MerchantTransactionID)

	c := req.Billing.Contact
	setIf(form, "customer.givenName", c.FirstName)
	setIf(form, "customer.surname", c.LastName)
	setIf(form, "customer.email", c.Email)
	setIf(form, "customer.mobile", c.MobileNumber)
	if a := req.Billing.Address; a != nil {
		setIf(form, "billing.street1", a.Street)
		setIf(form, "billing.city", a.City)
		setIf(form, "billing.state", a.State)
		setIf(form, "billing.country", a.Country)
		setIf(form, "billing.postcode", a.Postcode)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+checkoutsPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out CheckoutResponse
	if err := g.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) PaymentStatus(ctx context.Context, resourcePath string) (*StatusResponse, error) {
	if err := ValidateResourcePath(resourcePath); err != nil {
		return nil, err
	}
	u := g.baseURL + resourcePath + "?entityId=" + url.QueryEscape(g.entityID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	var out StatusResponse
	if err := g.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read payment gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gerr := &GatewayError{StatusCode: resp.StatusCode}
		var wrapped struct {
			Result Result `json:"result"`
		}
		if json.Unmarshal(body, &wrapped) == nil {
			gerr.Result = wrapped.Result
		}
		return gerr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode payment gateway response: %w", err)
	}
	return nil
}

// ValidateResourcePath accepts only /v1/checkouts/{id}/payment style paths
// so a caller-supplied value cannot point the lookup anywhere else.
func ValidateResourcePath(p string) error {
	if !strings.HasPrefix(p, checkoutsPath+"/") || strings.ContainsAny(p, "?#") || strings.Contains(p, "..") {
		return ErrInvalidResourcePath
	}
	if _, ok := CheckoutIDFromPath(p); !ok {
		return ErrInvalidResourcePath
	}
	return nil
}

// CheckoutIDFromPath extracts the checkout id from a resource path.
func CheckoutIDFromPath(p string) (string, bool) {
	rest := strings.TrimPrefix(p, checkoutsPath+"/")
	if rest == p {
		return "", false
	}
	id, _, _ := strings.Cut(rest, "/")
	if id == "" {
		return "", false
	}
	return id, true
}

// ResourcePathFor is the status path the provider hands back for a checkout.
func ResourcePathFor(checkoutID string) string {
	return checkoutsPath + "/" + checkoutID + "/payment"
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
