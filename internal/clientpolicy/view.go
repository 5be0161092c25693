package clientpolicy

import "github.com/xela07ax/clientpolicy-console/internal/domain"

// Scaffold пустая секция условий или профилей с кнопкой "добавить".
type Scaffold struct {
	Kind       string `json:"kind"` // "conditions" | "profiles"
	TitleKey   string `json:"titleKey"`
	EmptyKey   string `json:"emptyKey"`
	AddKey     string `json:"addKey"`
	AddTarget  string `json:"addTarget,omitempty"`
	ItemsCount int    `json:"itemsCount"`
}

// ConfirmDialog описание модального окна подтверждения удаления.
type ConfirmDialog struct {
	TitleKey      string `json:"titleKey"`
	MessageKey    string `json:"messageKey"`
	ContinueLabel string `json:"continueLabel"`
	Variant       string `json:"variant"`
}

// View модель представления, зависящая от фазы. Рендерер получает тег фазы, а не набор флагов.
type View struct {
	Realm           string            `json:"realm"`
	Phase           domain.Phase      `json:"phase"`
	Title           string            `json:"title"`
	Role            string            `json:"role"`
	Fields          Fields            `json:"fields"`
	Errors          map[string]string `json:"errors,omitempty"`
	SaveLabel       string            `json:"saveLabel"`
	SaveEnabled     bool              `json:"saveEnabled"`
	CancelLabel     string            `json:"cancelLabel"`
	DeleteAvailable bool              `json:"deleteAvailable"`
	DeleteLabel     string            `json:"deleteLabel,omitempty"`
	Confirm         *ConfirmDialog    `json:"confirm,omitempty"`
	Scaffolds       []Scaffold        `json:"scaffolds,omitempty"`
	Busy            bool              `json:"busy"`
	Terminal        bool              `json:"terminal"`
	NextPath        string            `json:"nextPath,omitempty"`
}

// Render строит представление из снимка мастера.
func Render(s State) View {
	v := View{
		Realm:       s.Realm,
		Phase:       s.Phase,
		Title:       MsgCreatePolicyTitle,
		Role:        domain.ScopeViewRealm,
		Fields:      s.Fields,
		Errors:      s.Errors,
		SaveLabel:   MsgSave,
		SaveEnabled: s.Phase == domain.PhaseDraft,
		CancelLabel: MsgCancel,
		Busy:        s.Phase.Pending(),
	}

	if s.Phase == domain.PhaseDeleted {
		return renderDeleted(v, s)
	}

	// Deleting показываем как Created: политика еще существует, пока шлюз не ответил.
	created := s.Current != nil && (s.Phase == domain.PhaseCreated || s.Phase == domain.PhaseDeleting)
	if !created {
		return v
	}

	v.Title = s.Current.Name
	v.CancelLabel = MsgReload
	v.DeleteAvailable = s.Phase == domain.PhaseCreated
	v.DeleteLabel = MsgDeleteClientPolicy
	if s.ConfirmPending {
		v.Confirm = &ConfirmDialog{
			TitleKey:      MsgDeleteConfirmTitle,
			MessageKey:    MsgDeleteConfirm,
			ContinueLabel: MsgDelete,
			Variant:       "danger",
		}
	}
	v.Scaffolds = []Scaffold{
		{
			Kind:       "conditions",
			TitleKey:   MsgConditions,
			EmptyKey:   MsgEmptyConditions,
			AddKey:     MsgAddCondition,
			AddTarget:  ClientPoliciesPath(s.Realm),
			ItemsCount: len(s.Current.Conditions),
		},
		{
			Kind:       "profiles",
			TitleKey:   MsgClientProfiles,
			EmptyKey:   MsgEmptyProfiles,
			AddKey:     MsgAddClientProfile,
			ItemsCount: len(s.Current.Profiles),
		},
	}
	return v
}

// renderDeleted финальный экран: политики больше нет, форма закрыта, остается уйти на список.
func renderDeleted(v View, s State) View {
	v.Terminal = true
	v.Title = MsgDeleteSuccess
	if s.Current != nil {
		v.Title = s.Current.Name
	}
	v.SaveEnabled = false
	v.CancelLabel = ""
	v.NextPath = ClientPoliciesPath(s.Realm)
	return v
}
