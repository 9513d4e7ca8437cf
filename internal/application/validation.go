package application

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/example/classroom-scheduler/internal/scheduler"
)

const dateLayout = "2006-01-02"

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag   = "notblank"
	hhmmTag       = "hhmm"
	weekdayTag    = "weekday"
	roomStatusTag = "room_status"
	dateTag       = "date"
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(hhmmTag, hhmmValidation)
	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	_ = validate.RegisterValidation(roomStatusTag, roomStatusValidation)
	_ = validate.RegisterValidation(dateTag, dateValidation)

	registerCustomTranslations(notBlankTag, hhmmTag, weekdayTag, roomStatusTag, dateTag)
}

// registerCustomTranslations installs messages for the custom tags. The
// registration callback is a no-op because the default translations are
// already registered.
func registerCustomTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomTag)
	}
}

func translateCustomTag(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case hhmmTag:
		return fe.Field() + " must be in HH:MM format"
	case weekdayTag:
		return fe.Field() + " must be a weekday name"
	case roomStatusTag:
		return fe.Field() + " must be one of FREE, OCCUPIED, MAINTENANCE, RESCHEDULED"
	case dateTag:
		return fe.Field() + " must be a date in YYYY-MM-DD format"
	default:
		return ""
	}
}

func fieldString(fl validator.FieldLevel) (string, bool) {
	if fl.Field().Kind() != reflect.String {
		return "", false
	}
	return fl.Field().String(), true
}

func notBlankValidation(fl validator.FieldLevel) bool {
	value, ok := fieldString(fl)
	return ok && strings.TrimSpace(value) != ""
}

func hhmmValidation(fl validator.FieldLevel) bool {
	value, ok := fieldString(fl)
	if !ok {
		return false
	}
	_, err := scheduler.ParseTimeOfDay(value)
	return err == nil
}

func weekdayValidation(fl validator.FieldLevel) bool {
	value, ok := fieldString(fl)
	if !ok {
		return false
	}
	_, err := scheduler.ParseWeekday(value)
	return err == nil
}

func roomStatusValidation(fl validator.FieldLevel) bool {
	value, ok := fieldString(fl)
	return ok && StatusValue(value).Valid()
}

func dateValidation(fl validator.FieldLevel) bool {
	value, ok := fieldString(fl)
	if !ok {
		return false
	}
	_, err := time.Parse(dateLayout, value)
	return err == nil
}

// validateStruct runs the struct tags of v and returns the failures keyed by
// JSON field name. The result is never nil.
func validateStruct(v any) *ValidationError {
	vErr := &ValidationError{}
	err := validate.Struct(v)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("_", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), fe.Translate(translator))
	}
	return vErr
}

// validateWindow checks that start and end are given together and form a
// non-empty interval. A nil interval means no window was supplied.
func validateWindow(start, end *string, vErr *ValidationError) *scheduler.Interval {
	if start == nil && end == nil {
		return nil
	}
	if start == nil || end == nil {
		vErr.add("end_time", "start_time and end_time must be provided together")
		return nil
	}
	interval, err := scheduler.ParseInterval(*start, *end)
	if err != nil {
		if errors.Is(err, scheduler.ErrEmptyInterval) {
			vErr.add("end_time", "end_time must be after start_time")
		}
		return nil
	}
	return &interval
}
