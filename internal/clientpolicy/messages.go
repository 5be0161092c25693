package clientpolicy

// Ключи сообщений. Перевод делает фронтенд.
const (
	MsgLoadError          = "realm-settings:loadClientPoliciesError"
	MsgCreateSuccess      = "realm-settings:createClientPolicySuccess"
	MsgCreateError        = "realm-settings:createClientPolicyError"
	MsgDuplicateName      = "realm-settings:duplicateClientPolicyName"
	MsgDeleteSuccess      = "realm-settings:deleteClientPolicySuccess"
	MsgDeleteError        = "realm-settings:deleteClientPolicyError"
	MsgDeleteConfirmTitle = "realm-settings:deleteClientPolicyConfirmTitle"
	MsgDeleteConfirm      = "realm-settings:deleteClientPolicyConfirm"
	MsgCreatePolicyTitle  = "realm-settings:createPolicy"
	MsgRequired           = "common:required"
	MsgTooLong            = "common:maxLength"
	MsgEmptyConditions    = "realm-settings:emptyConditions"
	MsgEmptyProfiles      = "realm-settings:emptyProfiles"
	MsgAddCondition       = "realm-settings:addCondition"
	MsgAddClientProfile   = "realm-settings:addClientProfile"
	MsgConditions         = "realm-settings:conditions"
	MsgClientProfiles     = "realm-settings:clientProfiles"
	MsgSave               = "common:save"
	MsgCancel             = "common:cancel"
	MsgReload             = "realm-settings:reload"
	MsgDelete             = "common:delete"
	MsgDeleteClientPolicy = "realm-settings:deleteClientPolicy"
)
