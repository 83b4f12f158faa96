package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// now é trocado nos testes
	now = time.Now
)

// Errors mapeia campo (nome json) → mensagem para o usuário.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("password_mix", passwordMix)
		_ = v.RegisterValidation("not_past", notPast)
		validate = v
	})
	return validate
}

// Struct valida um formulário e devolve Errors quando algo falha
func Struct(form interface{}) error {
	err := instance().Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	out := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, exists := out[fe.Field()]; exists {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

// AsErrors extrai os erros de campo, se houver
func AsErrors(err error) (Errors, bool) {
	var out Errors
	if errors.As(err, &out) {
		return out, true
	}
	return nil, false
}

func passwordMix(fl validator.FieldLevel) bool {
	var lower, upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// notPast aceita hoje ou uma data futura no formato YYYY-MM-DD
func notPast(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	date, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return false
	}
	current := now()
	today := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, time.Local)
	return !date.Before(today)
}

// fieldMessages guarda os textos por campo. A chave é "Form.campo.tag",
// "campo.tag" ou "campo.*"; %s recebe o parâmetro já com a palavra
// "символ" flexionada.
var fieldMessages = map[string]string{
	"email.required":            "Email обязателен",
	"email.email":               "Некорректный email",
	"guest_email.email":         "Некорректный email",
	"password.required":         "Пароль обязателен",
	"password.min":              "Пароль должен содержать минимум %s",
	"password.password_mix":     "Пароль должен содержать заглавные и строчные буквы, и цифры",
	"confirm_password.required": "Подтвердите пароль",
	"confirm_password.eqfield":  "Пароли не совпадают",

	"full_name.required":  "Имя обязательно",
	"full_name.min":       "Имя должно содержать минимум %s",
	"full_name.max":       "Имя слишком длинное",
	"guest_name.required": "Имя обязательно",
	"guest_name.min":      "Имя должно содержать минимум %s",
	"guest_name.max":      "Имя слишком длинное",
	"username.min":        "Имя пользователя должно содержать минимум %s",
	"username.max":        "Имя пользователя слишком длинное",
	"username.alphanum":   "Имя пользователя может содержать только латинские буквы и цифры",
	"avatar_url.url":      "Некорректная ссылка на аватар",
	"birth_date.datetime": "Некорректная дата рождения",

	"title.required":          "Название обязательно",
	"ItemForm.title.required": "Название подарка обязательно",
	"title.min":               "Название должно содержать минимум %s",
	"title.max":               "Название слишком длинное (макс. %s)",
	"description.max":         "Описание слишком длинное (макс. %s)",
	"emoji.max":               "Слишком много emoji",
	"event_date.not_past":     "Дата события не может быть в прошлом",
	"event_date.datetime":     "Некорректная дата события",
	"access_type.*":           "Выберите тип доступа",
	"price.gte":               "Цена не может быть отрицательной",
	"price.lte":               "Цена слишком большая",
	"link.url":                "Некорректная ссылка",
	"image_url.url":           "Некорректная ссылка на изображение",
	"priority.*":              "Выберите приоритет",
	"status.*":                "Выберите статус",
	"marketplace.max":         "Название магазина слишком длинное",
	"comment.max":             "Комментарий слишком длинный (макс. %s)",
}

func message(fe validator.FieldError) string {
	form := strings.SplitN(fe.Namespace(), ".", 2)[0]
	field := fe.Field()
	for _, key := range []string{form + "." + field + "." + fe.Tag(), field + "." + fe.Tag(), field + ".*"} {
		if text, ok := fieldMessages[key]; ok {
			if strings.Contains(text, "%s") {
				return fmt.Sprintf(text, chars(fe.Param()))
			}
			return text
		}
	}
	return genericMessage(fe)
}

// chars devolve "3 символа", "5 символов", "21 символ"
func chars(param string) string {
	n, err := strconv.Atoi(param)
	if err != nil {
		return param
	}
	switch {
	case n%10 == 1 && n%100 != 11:
		return param + " символ"
	case n%10 >= 2 && n%10 <= 4 && (n%100 < 12 || n%100 > 14):
		return param + " символа"
	default:
		return param + " символов"
	}
}

func genericMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "Обязательное поле"
	case "email":
		return "Некорректный email"
	case "url":
		return "Некорректная ссылка"
	case "min":
		if isString {
			return "Минимум " + chars(fe.Param())
		}
		return fmt.Sprintf("Значение не может быть меньше %s", fe.Param())
	case "max":
		if isString {
			return "Максимум " + chars(fe.Param())
		}
		return fmt.Sprintf("Значение не может быть больше %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Значение не может быть меньше %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Значение не может быть больше %s", fe.Param())
	case "oneof":
		return "Недопустимое значение"
	case "datetime":
		return "Некорректная дата"
	default:
		return "Некорректное значение"
	}
}
