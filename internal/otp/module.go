package otp

import (
	"context"
	"errors"
	"fmt"

	"github.com/shandysiswandi/gotp/internal/otp/inbound"
	"github.com/shandysiswandi/gotp/internal/otp/outbound/delivery"
	"github.com/shandysiswandi/gotp/internal/otp/outbound/receipt"
	"github.com/shandysiswandi/gotp/internal/otp/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/config"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
	"github.com/shandysiswandi/gotp/internal/pkg/mail"
	"github.com/shandysiswandi/gotp/internal/pkg/messaging"
	"github.com/shandysiswandi/gotp/internal/pkg/router"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
)

var (
	// ErrMailNotConfigured is returned when a mail agent is configured without a mail client.
	ErrMailNotConfigured = errors.New("otp: mail agent requires a mail client")
	// ErrMessagingNotConfigured is returned when a broker agent is configured without messaging.
	ErrMessagingNotConfigured = errors.New("otp: broker agent requires messaging")
	// ErrUnknownDriver is returned for an unsupported delivery driver.
	ErrUnknownDriver = errors.New("otp: unknown delivery driver")
)

type Dependency struct {
	Config     config.Config              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Storage    usecase.StorageFactory     `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	// Mail and Messaging are only required by the agents that use them.
	Mail      mail.Mail
	Messaging messaging.Messaging
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	setting, err := LoadSetting(dep.Config, dep.Validator)
	if err != nil {
		return err
	}

	uc, err := newUsecase(dep, setting)
	if err != nil {
		return err
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

func newUsecase(dep Dependency, setting *Setting) (*usecase.Usecase, error) {
	schemas, err := CompileSchemas(setting.Schemas)
	if err != nil {
		return nil, err
	}

	agents, err := newDeliveryAgents(dep, setting.DeliveryAgents)
	if err != nil {
		return nil, err
	}

	receiptFactory, err := newReceiptFactory(dep, setting.Receipt)
	if err != nil {
		return nil, err
	}

	return usecase.New(usecase.Dependency{
		Schemas:    schemas,
		Agents:     agents,
		Storage:    dep.Storage,
		Receipt:    receiptFactory,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	}), nil
}

func newDeliveryAgents(dep Dependency, settings []DeliveryAgentSetting) ([]usecase.DeliveryAgent, error) {
	agents := make([]usecase.DeliveryAgent, 0, len(settings))
	for _, s := range settings {
		match, err := compileMatch(s.Match)
		if err != nil {
			return nil, fmt.Errorf("otp: delivery agent %q: %w", s.Name, err)
		}

		factory, err := newDeliveryFactory(dep, s)
		if err != nil {
			return nil, fmt.Errorf("otp: delivery agent %q: %w", s.Name, err)
		}

		agents = append(agents, usecase.DeliveryAgent{Name: s.Name, Match: match, Factory: factory})
	}

	return agents, nil
}

func newDeliveryFactory(dep Dependency, s DeliveryAgentSetting) (usecase.DeliveryFactory, error) {
	body, err := delivery.NewRenderer(s.Name, s.Template, dep.Clock)
	if err != nil {
		return nil, err
	}

	switch s.Driver {
	case DriverMail:
		if dep.Mail == nil {
			return nil, ErrMailNotConfigured
		}

		return func(context.Context) (usecase.Delivery, error) {
			return delivery.NewMail(dep.Mail, s.Subject, body, dep.UUID, dep.Instrument), nil
		}, nil

	case DriverSNS:
		region := dep.Config.GetString("aws.sns.region")

		return func(ctx context.Context) (usecase.Delivery, error) {
			client, err := delivery.NewSNSClient(ctx, region)
			if err != nil {
				return nil, err
			}

			return delivery.NewSMS(client, body, dep.Instrument), nil
		}, nil

	case DriverWebhook:
		cfg := delivery.WebhookConfig{
			URL:        s.URL,
			Headers:    s.Headers,
			Timeout:    s.Timeout(),
			MaxRetries: s.MaxRetries,
		}

		return func(context.Context) (usecase.Delivery, error) {
			return delivery.NewWebhook(cfg, body, dep.UUID, dep.Instrument), nil
		}, nil

	case DriverBroker:
		if dep.Messaging == nil {
			return nil, ErrMessagingNotConfigured
		}

		return func(context.Context) (usecase.Delivery, error) {
			return delivery.NewBroker(dep.Messaging, s.Topic, body, dep.UUID, dep.Instrument), nil
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, s.Driver)
}

// newReceiptFactory returns nil when receipts are disabled. The signer is
// built up front so a short secret fails at startup.
func newReceiptFactory(dep Dependency, s ReceiptSetting) (usecase.ReceiptFactory, error) {
	if !s.Enabled {
		return nil, nil
	}

	signer, err := jwt.NewHS512(jwt.Config{Secret: []byte(s.Secret)})
	if err != nil {
		return nil, fmt.Errorf("otp: receipt: %w", err)
	}

	return func(context.Context) (usecase.ReceiptGenerator, error) {
		return receipt.New(receipt.Dependency{
			Config: receipt.Config{
				Issuer:   s.Issuer,
				Audience: s.Audience,
				TTL:      s.TTL(),
			},
			JWT:        signer,
			Hash:       dep.HMAC,
			Clock:      dep.Clock,
			UUID:       dep.UUID,
			Instrument: dep.Instrument,
		}), nil
	}, nil
}
