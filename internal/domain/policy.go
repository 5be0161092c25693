package domain

import (
	"encoding/json"
	"strings"
)

// Condition предикат, ограничивающий применение профилей политики.
// Редактирование условий живет вне консоли создания, поэтому содержимое непрозрачно.
type Condition struct {
	Condition     string          `json:"condition"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

// ProfileReference ссылка на клиентский профиль по имени.
type ProfileReference string

// ClientPolicy именованный набор условий и профилей, применяемый к поведению OAuth/OIDC клиентов.
// Имя уникально в пределах коллекции реалма: удаление идентифицирует политику только по имени.
type ClientPolicy struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Enabled     bool               `json:"enabled"`
	Conditions  []Condition        `json:"conditions"`
	Profiles    []ProfileReference `json:"profiles"`
}

// NewClientPolicy собирает политику в состоянии "только что создана": включена, без условий и профилей.
func NewClientPolicy(name, description string) ClientPolicy {
	return ClientPolicy{
		Name:        name,
		Description: description,
		Enabled:     true,
		Conditions:  []Condition{},
		Profiles:    []ProfileReference{},
	}
}

// Clone возвращает глубокую копию (слайсы не разделяются с оригиналом).
func (p ClientPolicy) Clone() ClientPolicy {
	out := p
	out.Conditions = make([]Condition, len(p.Conditions))
	for i, c := range p.Conditions {
		out.Conditions[i] = Condition{Condition: c.Condition}
		if c.Configuration != nil {
			out.Conditions[i].Configuration = append(json.RawMessage(nil), c.Configuration...)
		}
	}
	out.Profiles = append(make([]ProfileReference, 0, len(p.Profiles)), p.Profiles...)
	return out
}

// MarshalJSON гарантирует "[]" вместо null для пустых условий и профилей:
// admin API ожидает массивы.
func (p ClientPolicy) MarshalJSON() ([]byte, error) {
	type alias ClientPolicy
	a := alias(p)
	if a.Conditions == nil {
		a.Conditions = []Condition{}
	}
	if a.Profiles == nil {
		a.Profiles = []ProfileReference{}
	}
	return json.Marshal(a)
}

// UnmarshalJSON: отсутствующий "enabled" трактуется как true, как у сервера.
func (p *ClientPolicy) UnmarshalJSON(data []byte) error {
	type alias ClientPolicy
	a := alias{Enabled: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = ClientPolicy(a)
	return nil
}

// PolicyCollection весь список политик реалма. Хранилище умеет только заменить его целиком.
// Все методы чистые: коллекция никогда не мутирует на месте.
type PolicyCollection []ClientPolicy

// Clone глубокая копия. nil превращается в пустую коллекцию.
func (c PolicyCollection) Clone() PolicyCollection {
	out := make(PolicyCollection, len(c))
	for i, p := range c {
		out[i] = p.Clone()
	}
	return out
}

// Append возвращает новую коллекцию с политикой в конце. Исходный backing array не затрагивается.
func (c PolicyCollection) Append(p ClientPolicy) PolicyCollection {
	out := make(PolicyCollection, 0, len(c)+1)
	out = append(out, c.Clone()...)
	return append(out, p.Clone())
}

// WithoutName возвращает коллекцию без записей с указанным именем, порядок остальных сохраняется.
func (c PolicyCollection) WithoutName(name string) PolicyCollection {
	out := make(PolicyCollection, 0, len(c))
	for _, p := range c {
		if p.Name != name {
			out = append(out, p.Clone())
		}
	}
	return out
}

// IndexOf позиция политики по имени или -1.
func (c PolicyCollection) IndexOf(name string) int {
	for i, p := range c {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (c PolicyCollection) ContainsName(name string) bool {
	return c.IndexOf(name) >= 0
}

func (c PolicyCollection) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// DuplicateNames имена, встречающиеся больше одного раза (в порядке первого повтора).
func (c PolicyCollection) DuplicateNames() []string {
	seen := make(map[string]int, len(c))
	var dups []string
	for _, p := range c {
		seen[p.Name]++
		if seen[p.Name] == 2 {
			dups = append(dups, p.Name)
		}
	}
	return dups
}

// PolicyDocument тело запроса/ответа admin API: {"policies": [...]}.
type PolicyDocument struct {
	Policies PolicyCollection `json:"policies"`
}

// MarshalJSON пустой список пишем как [], иначе сервер примет null за "не менять".
func (d PolicyDocument) MarshalJSON() ([]byte, error) {
	policies := d.Policies
	if policies == nil {
		policies = PolicyCollection{}
	}
	return json.Marshal(struct {
		Policies []ClientPolicy `json:"policies"`
	}{Policies: policies})
}

// NormalizeName убирает пробелы по краям; пустая после нормализации строка считается незаполненной.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
