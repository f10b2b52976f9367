package settings

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

// Gateway kinds
const (
	KindManual   = "manual"
	KindRazorpay = "razorpay"
)

// Gateways is keyed by gateway kind; a kind absent from the object is not configured.
type Gateways struct {
	Manual   *ManualGateway   `json:"manual,omitempty"`
	Razorpay *RazorpayGateway `json:"razorpay,omitempty"`
}

// ManualGateway is a UPI transfer verified by hand by the office.
type ManualGateway struct {
	Enabled   bool   `json:"enabled"`
	Name      string `json:"name"`
	UpiID     string `json:"upiId"`
	PayeeName string `json:"payeeName"`
}

// RazorpayGateway is declared but not integrated: payments through it fail with ErrGatewayUnavailable.
type RazorpayGateway struct {
	Enabled   bool   `json:"enabled"`
	Name      string `json:"name"`
	KeyID     string `json:"keyId"`
	KeySecret string `json:"keySecret"`
}

// PublicGateway is what students and guests are shown of an enabled gateway.
type PublicGateway struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	UpiID     string `json:"upiId,omitempty"`
	PayeeName string `json:"payeeName,omitempty"`
}

// DefaultGateways is used until an administrator saves the settings.
func DefaultGateways() Gateways {
	return Gateways{
		Manual:   &ManualGateway{Name: "UPI"},
		Razorpay: &RazorpayGateway{Name: "Razorpay"},
	}
}

// DecodeGateways parses a gateways object, rejecting unknown kinds and fields.
func DecodeGateways(data []byte) (Gateways, error) {
	var g Gateways
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		return Gateways{}, errors.Wrap(err, "decoding gateways")
	}
	return g, nil
}

func (g Gateways) validate() error {
	var flds []core.FieldError
	if m := g.Manual; m != nil && m.Enabled {
		if core.CleanString(m.UpiID) == "" {
			flds = append(flds, core.FieldError{Field: "gateways.manual.upiId", Error: "this field is required"})
		}
		if core.CleanString(m.PayeeName) == "" {
			flds = append(flds, core.FieldError{Field: "gateways.manual.payeeName", Error: "this field is required"})
		}
	}
	if r := g.Razorpay; r != nil && r.Enabled && core.CleanString(r.KeyID) == "" {
		flds = append(flds, core.FieldError{Field: "gateways.razorpay.keyId", Error: "this field is required"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid gateways"), flds...)
	}
	return nil
}

// Public returns the enabled gateways without their secrets.
func (g Gateways) Public() []PublicGateway {
	pub := make([]PublicGateway, 0, 2)
	if m := g.Manual; m != nil && m.Enabled {
		pub = append(pub, PublicGateway{Kind: KindManual, Name: m.Name, UpiID: m.UpiID, PayeeName: m.PayeeName})
	}
	if r := g.Razorpay; r != nil && r.Enabled {
		pub = append(pub, PublicGateway{Kind: KindRazorpay, Name: r.Name})
	}
	return pub
}
