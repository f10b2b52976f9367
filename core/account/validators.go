package account

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/academia/core"
)

var (
	statusTag  = "accstatus"
	statusText = "status must be one of: " + strings.Join(Statuses, ", ")

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to account attributes"
)

// PasswordChange is submitted by a logged in account.
type PasswordChange struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`

	attrs []string
}

// PasswordReset is submitted by an admin. An empty Password resets to the default password.
type PasswordReset struct {
	Password string `json:"password"`

	attrs []string
}

// WithAttributes sets the account attributes the new password must not resemble.
func (pc PasswordChange) WithAttributes(attrs ...string) PasswordChange {
	pc.attrs = attrs
	return pc
}

func (pr PasswordReset) WithAttributes(attrs ...string) PasswordReset {
	pr.attrs = attrs
	return pr
}

// InitValidators registers the account validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	validate.RegisterStructValidation(passwordStructValidation, PasswordChange{}, PasswordReset{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

func statusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range Statuses {
		if status == s {
			return true
		}
	}
	return false
}

func passwordStructValidation(sl validator.StructLevel) {
	switch pwd := sl.Current().Interface().(type) {
	case PasswordChange:
		if pwd.NewPassword != "" {
			validatePassword(pwd.NewPassword, "newPassword", "NewPassword", pwd.attrs, sl)
		}
	case PasswordReset:
		if pwd.Password != "" {
			validatePassword(pwd.Password, "password", "Password", pwd.attrs, sl)
		}
	}
}

// validatePassword applies the password policy to explicit passwords:
// - minLen: 6
// - no whitespace
// - no account attrs similarity
func validatePassword(pwd, field, structField string, attrs []string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, field, structField, tag, "")
	}

	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
	}
	for _, attr := range attrs {
		if similarity(pwd, attr) >= pwdMaxSim {
			reportErr(pwdAttrSimTag)
			return
		}
	}
}

func similarity(pwd, attr string) float64 {
	if attr == "" {
		return 0
	}
	pwd, attr = strings.ToLower(pwd), strings.ToLower(attr)
	return difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
}
