package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"math"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// PaymentGateway collects the external part of a hybrid payment.
type PaymentGateway interface {
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error)
	VerifySignature(orderId, statusCode, grossAmount, signature string) bool
}

type PaymentLinkRequest struct {
	OrderId    string
	Amount     float64
	ItemId     string
	ItemName   string
	PayerName  string
	PayerEmail string
	PayerPhone string
}

type PaymentLink struct {
	ExternalPaymentId string
	RedirectURL       string
}

type midtransGateway struct {
	client            snap.Client
	serverKey         string
	finishRedirectURL string
}

func NewMidtransGateway(serverKey string, isProduction bool, finishRedirectURL string) PaymentGateway {
	env := midtrans.Sandbox
	if isProduction {
		env = midtrans.Production
	}
	g := &midtransGateway{
		serverKey:         serverKey,
		finishRedirectURL: finishRedirectURL,
	}
	g.client.New(serverKey, env)
	return g
}

func (g *midtransGateway) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	if g.serverKey == "" {
		return nil, fmt.Errorf("payment gateway is not configured")
	}
	amount := int64(math.Ceil(req.Amount))
	if amount <= 0 {
		return nil, fmt.Errorf("external amount must be positive")
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderId,
			GrossAmt: amount,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.PayerName,
			Email: req.PayerEmail,
			Phone: req.PayerPhone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    req.ItemId,
				Price: amount,
				Qty:   1,
				Name:  req.ItemName,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}
	if g.finishRedirectURL != "" {
		snapReq.Callbacks = &snap.Callbacks{Finish: g.finishRedirectURL}
	}

	resp, midErr := g.client.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("midtrans error: %v", midErr.GetMessage())
	}
	return &PaymentLink{
		ExternalPaymentId: resp.Token,
		RedirectURL:       resp.RedirectURL,
	}, nil
}

// VerifySignature checks SHA512(order_id + status_code + gross_amount + server_key).
func (g *midtransGateway) VerifySignature(orderId, statusCode, grossAmount, signature string) bool {
	if g.serverKey == "" {
		return false
	}
	expected := Signature(orderId, statusCode, grossAmount, g.serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func Signature(orderId, statusCode, grossAmount, serverKey string) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(orderId+statusCode+grossAmount+serverKey)))
}
