package otp

import (
	"fmt"
	"regexp"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gotp/internal/otp/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/config"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
)

const settingKey = "modules.otp"

// Driver names accepted by delivery_agents[].driver.
const (
	DriverMail    = "mail"
	DriverSNS     = "sns"
	DriverWebhook = "webhook"
	DriverBroker  = "broker"
)

// Charset aliases. Any other fragment is used literally.
var charsetAliases = map[string]string{
	"digits":       "0123456789",
	"uppercase":    "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"lowercase":    "abcdefghijklmnopqrstuvwxyz",
	"alphanumeric": "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz",
}

type Setting struct {
	Schemas        []SchemaSetting        `mapstructure:"schemas" validate:"required,min=1,dive"`
	DeliveryAgents []DeliveryAgentSetting `mapstructure:"delivery_agents" validate:"required,min=1,dive"`
	Receipt        ReceiptSetting         `mapstructure:"receipt"`
}

type MatchSetting struct {
	Type         string `mapstructure:"type" validate:"omitempty,oneof=msisdn email"`
	ValuePattern string `mapstructure:"value_pattern" validate:"omitempty,regexp"`
}

type CharsetSetting struct {
	Charset []string `mapstructure:"charset" validate:"required,min=1,dive,charset"`
	Length  int      `mapstructure:"length" validate:"gt=0"`
}

type AgingSetting struct {
	SuccessValidateCount int `mapstructure:"success_validate_count" validate:"gte=1"`
	PurgeFromDBInSeconds int `mapstructure:"purge_from_db_in_seconds" validate:"gt=0"`
	CanResendInSeconds   int `mapstructure:"can_resend_in_seconds" validate:"gte=0"`
	ExpiresInSeconds     int `mapstructure:"expires_in_seconds" validate:"gt=0"`
}

type SchemaSetting struct {
	Name      string         `mapstructure:"name" validate:"required"`
	Match     *MatchSetting  `mapstructure:"match"`
	OTP       CharsetSetting `mapstructure:"otp"`
	Reference CharsetSetting `mapstructure:"reference"`
	Aging     AgingSetting   `mapstructure:"aging"`
}

type DeliveryAgentSetting struct {
	Name           string            `mapstructure:"name" validate:"required"`
	Driver         string            `mapstructure:"driver" validate:"required,oneof=mail sns webhook broker"`
	Match          *MatchSetting     `mapstructure:"match"`
	Subject        string            `mapstructure:"subject"`
	Template       string            `mapstructure:"template"`
	URL            string            `mapstructure:"url" validate:"required_if=Driver webhook"`
	Headers        map[string]string `mapstructure:"headers"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxRetries     uint64            `mapstructure:"max_retries"`
	Topic          string            `mapstructure:"topic" validate:"required_if=Driver broker"`
}

type ReceiptSetting struct {
	Enabled    bool     `mapstructure:"enabled"`
	Issuer     string   `mapstructure:"issuer" validate:"required_if=Enabled true"`
	Audience   []string `mapstructure:"audience"`
	TTLSeconds int      `mapstructure:"ttl_seconds" validate:"required_if=Enabled true,gte=0"`
	Secret     string   `mapstructure:"secret" validate:"required_if=Enabled true"`
}

// TTL returns the receipt lifetime.
func (r ReceiptSetting) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// Timeout returns the per-attempt timeout of a webhook agent.
func (d DeliveryAgentSetting) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// LoadSetting decodes and validates the otp module settings.
func LoadSetting(cfg config.Config, v validator.Validator) (*Setting, error) {
	var s Setting
	if err := cfg.Unmarshal(settingKey, &s); err != nil {
		return nil, fmt.Errorf("otp: load %s: %w", settingKey, err)
	}

	if err := v.Validate(s); err != nil {
		return nil, fmt.Errorf("otp: invalid %s: %w", settingKey, err)
	}

	return &s, nil
}

// CompileSchemas turns schema settings into entity schemas, keeping order.
func CompileSchemas(settings []SchemaSetting) ([]entity.Schema, error) {
	schemas := make([]entity.Schema, 0, len(settings))
	for _, s := range settings {
		match, err := compileMatch(s.Match)
		if err != nil {
			return nil, fmt.Errorf("otp: schema %q: %w", s.Name, err)
		}

		schemas = append(schemas, entity.Schema{
			Name:      s.Name,
			Match:     match,
			OTP:       compileCharset(s.OTP),
			Reference: compileCharset(s.Reference),
			Aging: entity.Aging{
				SuccessValidateCount: s.Aging.SuccessValidateCount,
				PurgeFromDBIn:        time.Duration(s.Aging.PurgeFromDBInSeconds) * time.Second,
				CanResendIn:          time.Duration(s.Aging.CanResendInSeconds) * time.Second,
				ExpiresIn:            time.Duration(s.Aging.ExpiresInSeconds) * time.Second,
			},
		})
	}

	return schemas, nil
}

func compileCharset(s CharsetSetting) entity.CharsetSpec {
	return entity.CharsetSpec{
		Charset: lo.Map(s.Charset, func(fragment string, _ int) string {
			if alias, ok := charsetAliases[fragment]; ok {
				return alias
			}
			return fragment
		}),
		Length: s.Length,
	}
}

// compileMatch returns nil for an absent or empty match, which matches every target.
func compileMatch(m *MatchSetting) (entity.Predicate, error) {
	if m == nil || (m.Type == "" && m.ValuePattern == "") {
		return nil, nil
	}

	var pattern *regexp.Regexp
	if m.ValuePattern != "" {
		var err error
		if pattern, err = regexp.Compile(m.ValuePattern); err != nil {
			return nil, fmt.Errorf("%w: value_pattern: %w", entity.ErrInvalidConfig, err)
		}
	}

	typ := entity.TargetType(m.Type)

	return func(t entity.Target) bool {
		if typ != "" && t.Type != typ {
			return false
		}

		return pattern == nil || pattern.MatchString(t.Value)
	}, nil
}
