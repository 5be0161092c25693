package clientpolicy

import "net/url"

// ClientPoliciesPath маршрут списка политик реалма.
func ClientPoliciesPath(realm string) string {
	return "/" + url.PathEscape(realm) + "/realm-settings/clientPolicies"
}
