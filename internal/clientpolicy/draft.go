package clientpolicy

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
)

// Fields поля формы черновика. Условия и профили форма не собирает.
type Fields struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1024"`
	Enabled     bool   `json:"enabled"`
}

// DefaultFields значения формы по умолчанию.
func DefaultFields() Fields {
	return Fields{Enabled: true}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func fieldsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return jsonName(f.Tag.Get("json"))
		})
	})
	return validate
}

// DraftController владеет состоянием формы еще не созданной политики.
// Не потокобезопасен: синхронизацию обеспечивает Workflow.
type DraftController struct {
	fields Fields
	errs   map[string]string
}

func NewDraftController() *DraftController {
	d := &DraftController{}
	d.Initialize()
	return d
}

// Initialize сбрасывает форму к значениям по умолчанию.
func (d *DraftController) Initialize() {
	d.fields = DefaultFields()
	d.errs = nil
}

func (d *DraftController) Fields() Fields { return d.fields }

// Errors ошибки последней валидации (поле -> ключ сообщения).
func (d *DraftController) Errors() map[string]string {
	if len(d.errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(d.errs))
	for k, v := range d.errs {
		out[k] = v
	}
	return out
}

// Set привязка формы.
func (d *DraftController) Set(f Fields) {
	d.fields = f
}

// Reset загружает в форму снимок созданной политики.
func (d *DraftController) Reset(p domain.ClientPolicy) {
	d.fields = Fields{Name: p.Name, Description: p.Description, Enabled: p.Enabled}
	d.errs = nil
}

// Submit валидирует поля и возвращает кандидата с пустыми условиями и профилями.
// Уникальность имени здесь не проверяется.
func (d *DraftController) Submit(f Fields) (domain.ClientPolicy, error) {
	d.fields = f
	d.errs = nil

	f.Name = domain.NormalizeName(f.Name)

	if err := fieldsValidator().Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.ClientPolicy{}, err
		}
		d.errs = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			d.errs[fe.Field()] = messageFor(fe.Tag())
		}
		return domain.ClientPolicy{}, &domain.ValidationError{Fields: d.Errors()}
	}

	candidate := domain.NewClientPolicy(f.Name, f.Description)
	candidate.Enabled = f.Enabled
	return candidate, nil
}

func messageFor(tag string) string {
	switch tag {
	case "required":
		return MsgRequired
	case "max":
		return MsgTooLong
	default:
		return tag
	}
}

func jsonName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}
