// Package settings holds the academy-wide system settings, i.e. the payment gateways.
package settings

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

// GlobalID is the id of the singleton settings row.
const GlobalID = "global"

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type Settings struct {
	Gateways  Gateways  `json:"gateways"`
	UpdatedAt time.Time `json:"updatedAt"` // UTC; zero until saved
}

type Service struct {
	store    store.Store
	currency string
}

func NewService(st store.Store, currency string) *Service {
	return &Service{store: st, currency: currency}
}

// Get returns the saved settings, or the defaults when none were saved.
func (svc *Service) Get(ctx context.Context) (Settings, error) {
	row, found, err := store.SelectByID(ctx, svc.store, store.SystemSettings, GlobalID)
	if err != nil {
		return Settings{}, errors.Wrap(err, "getting settings")
	}
	if !found {
		return Settings{Gateways: DefaultGateways()}, nil
	}
	gateways, err := DecodeGateways(row.Bytes("gateways"))
	if err != nil {
		return Settings{}, err
	}
	return Settings{Gateways: gateways, UpdatedAt: row.Time("updated_at")}, nil
}

func (svc *Service) Save(ctx context.Context, g Gateways) (Settings, error) {
	if err := g.validate(); err != nil {
		return Settings{}, err
	}
	data, err := json.Marshal(g)
	if err != nil {
		return Settings{}, errors.Wrap(err, "encoding gateways")
	}
	row, err := svc.store.Upsert(ctx, store.SystemSettings, []string{"id"}, store.Row{
		"id":         GlobalID,
		"gateways":   string(data),
		"updated_at": core.NowFunc(),
	})
	if err != nil {
		return Settings{}, errors.Wrap(err, "saving settings")
	}
	return Settings{Gateways: g, UpdatedAt: row.Time("updated_at")}, nil
}

// EnabledGateways is the public view of the payment options.
func (svc *Service) EnabledGateways(ctx context.Context) ([]PublicGateway, error) {
	s, err := svc.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.Gateways.Public(), nil
}

// StartPayment returns where to pay amount through the gateway of kind.
// Only the manual gateway is integrated; it answers with a UPI payment URI.
func (svc *Service) StartPayment(ctx context.Context, kind string, amount float64, note string) (string, error) {
	if amount <= 0 {
		return "", core.NewFieldError("amount", "amount must be greater than 0")
	}
	s, err := svc.Get(ctx)
	if err != nil {
		return "", err
	}
	switch kind {
	case KindManual:
		m := s.Gateways.Manual
		if m == nil || !m.Enabled {
			return "", ErrGatewayUnavailable
		}
		return upiURI(m.UpiID, m.PayeeName, amount, svc.currency, note), nil
	default:
		return "", ErrGatewayUnavailable
	}
}

// PaymentURI is the UPI URI encoded in the public payment QR code.
func (svc *Service) PaymentURI(ctx context.Context, amount float64, note string) (string, error) {
	return svc.StartPayment(ctx, KindManual, amount, note)
}

// upiURI keeps the parameter order UPI apps expect (url.Values would sort them).
func upiURI(upiID, payee string, amount float64, currency, note string) string {
	params := [][2]string{
		{"pa", upiID},
		{"pn", payee},
		{"am", strconv.FormatFloat(amount, 'f', 2, 64)},
		{"cu", currency},
		{"tn", note},
	}
	var b strings.Builder
	b.WriteString("upi://pay?")
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(strings.ReplaceAll(url.QueryEscape(p[1]), "+", "%20"))
	}
	return b.String()
}
