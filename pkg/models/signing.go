package models

import (
	"strings"

	"github.com/huanfeng/apprebrand/internal/errors"
)

// MinPasswordLength is the shortest password keytool accepts
const MinPasswordLength = 6

// DistinguishedName holds the X.500 fields of the signing certificate
type DistinguishedName struct {
	CommonName         string `mapstructure:"common_name" yaml:"common_name"`
	OrganizationalUnit string `mapstructure:"organizational_unit" yaml:"organizational_unit"`
	Organization       string `mapstructure:"organization" yaml:"organization"`
	Locality           string `mapstructure:"locality" yaml:"locality"`
	State              string `mapstructure:"state" yaml:"state"`
	Country            string `mapstructure:"country" yaml:"country"`
}

// String renders the name in keytool's -dname form, skipping empty fields
func (d DistinguishedName) String() string {
	fields := []struct{ key, value string }{
		{"CN", d.CommonName},
		{"OU", d.OrganizationalUnit},
		{"O", d.Organization},
		{"L", d.Locality},
		{"ST", d.State},
		{"C", d.Country},
	}

	var parts []string
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			continue
		}
		parts = append(parts, f.key+"="+strings.ReplaceAll(v, ",", `\,`))
	}
	return strings.Join(parts, ", ")
}

// SigningCredentials describes the Android upload keystore
type SigningCredentials struct {
	KeystorePath      string
	Alias             string
	Password          string
	ValidityDays      int
	DistinguishedName DistinguishedName
}

// Validate checks the parameters before keytool is invoked
func (c SigningCredentials) Validate() error {
	if strings.TrimSpace(c.Alias) == "" {
		return errors.NewValidationError("KEY_ALIAS_REQUIRED", "key alias is required")
	}
	if len(c.Password) < MinPasswordLength {
		return errors.NewValidationError("KEY_PASSWORD_TOO_SHORT",
			"keystore password must be at least 6 characters")
	}
	if c.ValidityDays <= 0 {
		return errors.NewValidationError("KEY_VALIDITY_INVALID", "validity must be a positive number of days")
	}
	if strings.TrimSpace(c.DistinguishedName.CommonName) == "" {
		return errors.NewValidationError("KEY_COMMON_NAME_REQUIRED", "certificate common name is required")
	}
	return nil
}

// IOSSigning carries the platform B signing parameters
type IOSSigning struct {
	TeamID             string `mapstructure:"team_id" yaml:"team_id"`
	SigningStyle       string `mapstructure:"signing_style" yaml:"signing_style"`
	IdentityType       string `mapstructure:"identity_type" yaml:"identity_type"`
	MinPlatformVersion string `mapstructure:"min_platform_version" yaml:"min_platform_version"`
	ExportMethod       string `mapstructure:"export_method" yaml:"export_method"`
}
