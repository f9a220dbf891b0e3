package profile

import (
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/semillero/core"
)

var (
	phoneTag   = "phone_ar"
	phoneText  = "invalid phone number format"
	phoneRegex = regexp.MustCompile(`^\+54\s?9?\s?\d{2,4}\s?\d{4}-?\d{4}$`)

	phoneForWhatsAppTag  = "phone_for_whatsapp"
	phoneForWhatsAppText = "a phone number is required to enable WhatsApp"
)

// Update is the payload a user submits to change their preferences.
type Update struct {
	Phone            string `json:"phone" validate:"omitempty,phone_ar"`
	WhatsAppEnabled  bool   `json:"whatsappEnabled"`
	EmailEnabled     bool   `json:"emailEnabled"`
	NotificationTime string `json:"notificationTime" validate:"omitempty,hhmm"`
	Timezone         string `json:"timezone" validate:"omitempty,max=64"`
}

func (u *Update) clean() {
	u.Phone = core.CleanString(u.Phone)
	u.NotificationTime = core.CleanString(u.NotificationTime)
	u.Timezone = core.CleanString(u.Timezone)
}

// Validate cleans then validates u.
func (u *Update) Validate(validate *validator.Validate) error {
	u.clean()
	return validate.Struct(u)
}

// Apply builds the Profile u describes for identity, filling defaults for blank fields.
func (u Update) Apply(identity string, now time.Time) Profile {
	p := Profile{
		Identity:         identity,
		Phone:            u.Phone,
		WhatsAppEnabled:  u.WhatsAppEnabled,
		EmailEnabled:     u.EmailEnabled,
		NotificationTime: u.NotificationTime,
		Timezone:         u.Timezone,
		UpdatedAt:        now.UTC(),
	}
	if p.NotificationTime == "" {
		p.NotificationTime = DefaultNotificationTime
	}
	if p.Timezone == "" {
		p.Timezone = DefaultTimezone
	}
	return p
}

// InitValidators registers the profile-specific tags and struct rules.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	validate.RegisterStructValidation(updateStructValidation, Update{})
	core.RegisterCustomTranslation(validate, translator, phoneForWhatsAppTag, phoneForWhatsAppText)
}

// Custom Validators

// phoneValidation accepts Argentine mobile numbers, ignoring whitespace.
func phoneValidation(fl validator.FieldLevel) bool {
	return ValidPhone(fl.Field().String())
}

func ValidPhone(phone string) bool {
	return phoneRegex.MatchString(strings.Join(strings.Fields(phone), ""))
}

// updateStructValidation rejects enabling WhatsApp without a phone on file.
func updateStructValidation(sl validator.StructLevel) {
	u, ok := sl.Current().Interface().(Update)
	if !ok {
		return
	}
	if u.WhatsAppEnabled && u.Phone == "" {
		sl.ReportError(u.Phone, "phone", "Phone", phoneForWhatsAppTag, "")
	}
}
