package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huanfeng/apprebrand/internal/i18n"
	"github.com/huanfeng/apprebrand/pkg/materializer"
	"github.com/huanfeng/apprebrand/pkg/models"
)

// prompter asks the operator for missing values on a line-oriented terminal
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{reader: bufio.NewReader(in), out: out}
}

func (p *prompter) readLine() (string, error) {
	input, err := p.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func (p *prompter) promptWithDefault(prompt, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}

	input, err := p.readLine()
	if err != nil {
		return "", err
	}
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// promptRequired re-asks until a non-empty answer is given
func (p *prompter) promptRequired(prompt, defaultValue string) (string, error) {
	for {
		v, err := p.promptWithDefault(prompt, defaultValue)
		if err != nil || v != "" {
			return v, err
		}
		fmt.Fprintln(p.out, i18n.T("prompt.required"))
	}
}

func (p *prompter) promptInt(prompt string, defaultValue int) (int, error) {
	for {
		v, err := p.promptWithDefault(prompt, strconv.Itoa(defaultValue))
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(v)
		if convErr == nil {
			return n, nil
		}
		fmt.Fprintln(p.out, i18n.T("prompt.notNumber"))
	}
}

func (p *prompter) promptBool(prompt string, defaultValue bool) (bool, error) {
	defaultStr := "y/N"
	if defaultValue {
		defaultStr = "Y/n"
	}

	fmt.Fprintf(p.out, "%s [%s]: ", prompt, defaultStr)
	input, err := p.readLine()
	if err != nil {
		return false, err
	}
	input = strings.ToLower(input)
	if input == "" {
		return defaultValue, nil
	}
	return input == "y" || input == "yes", nil
}

// confirmer answers the overwrite question once; --yes pre-accepts it
func (p *prompter) confirmer(assumeYes bool) materializer.Confirmer {
	if assumeYes {
		return materializer.AlwaysConfirm
	}
	return materializer.ConfirmFunc(func(prompt string) (bool, error) {
		return p.promptBool(prompt, false)
	})
}

// signingSource collects keystore parameters only when a keystore must be generated
func (p *prompter) signingSource(defaults models.SigningConfig, password string) func() (models.SigningCredentials, error) {
	return func() (models.SigningCredentials, error) {
		fmt.Fprintln(p.out, i18n.T("prompt.signing.header"))
		creds := models.SigningCredentials{DistinguishedName: defaults.DName}
		var err error

		if creds.Alias, err = p.promptRequired(i18n.T("prompt.signing.alias"), defaults.Alias); err != nil {
			return creds, err
		}
		if password == "" {
			if password, err = p.promptRequired(i18n.T("prompt.signing.password"), ""); err != nil {
				return creds, err
			}
		}
		creds.Password = password
		if creds.ValidityDays, err = p.promptInt(i18n.T("prompt.signing.validity"), defaults.ValidityDays); err != nil {
			return creds, err
		}

		dn := &creds.DistinguishedName
		fields := []struct {
			id    string
			value *string
		}{
			{"prompt.signing.commonName", &dn.CommonName},
			{"prompt.signing.orgUnit", &dn.OrganizationalUnit},
			{"prompt.signing.organization", &dn.Organization},
			{"prompt.signing.locality", &dn.Locality},
			{"prompt.signing.state", &dn.State},
			{"prompt.signing.country", &dn.Country},
		}
		for _, f := range fields {
			if *f.value, err = p.promptWithDefault(i18n.T(f.id), *f.value); err != nil {
				return creds, err
			}
		}
		return creds, nil
	}
}
