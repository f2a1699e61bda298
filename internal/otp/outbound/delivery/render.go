package delivery

import (
	"math"
	"strings"
	"text/template"

	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
)

// DefaultTemplate is used when an agent has no template configured.
const DefaultTemplate = "Your verification code is {{.OTP}}. It expires in {{.ExpiresInMinutes}} minutes. Ref: {{.Reference}}"

type messageData struct {
	OTP              string
	Reference        string
	ExpiresInMinutes int
	Target           entity.Target
}

// Renderer turns an OTPValue into the text sent to the recipient.
type Renderer struct {
	tmpl  *template.Template
	clock clock.Clocker
}

func NewRenderer(name, text string, clk clock.Clocker) (*Renderer, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultTemplate
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, err
	}

	return &Renderer{tmpl: tmpl, clock: clk}, nil
}

func (r *Renderer) Render(otp entity.OTPValue) (string, error) {
	minutes := int(math.Ceil(otp.ExpiresAt.Sub(r.clock.Now()).Minutes()))
	if minutes < 0 {
		minutes = 0
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, messageData{
		OTP:              otp.Value,
		Reference:        otp.Reference,
		ExpiresInMinutes: minutes,
		Target:           otp.Target,
	}); err != nil {
		return "", err
	}

	return sb.String(), nil
}
