package model

// Preferences holds the user's settings. Absent settings are zero values.
// IncludeSchemePrefix controls whether consumers see "Bearer <token>" or the
// raw token.
type Preferences struct {
	SetupComplete       bool
	HAURL               string
	HAToken             string
	DebugMode           bool
	HAURLDev            string
	HATokenDev          string
	IncludeSchemePrefix bool
}

// PreferencesPatch carries a partial settings update. Nil fields are left
// unchanged.
type PreferencesPatch struct {
	SetupComplete       *bool
	HAURL               *string
	HAToken             *string
	DebugMode           *bool
	HAURLDev            *string
	HATokenDev          *string
	IncludeSchemePrefix *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p PreferencesPatch) IsEmpty() bool {
	return p.SetupComplete == nil && p.HAURL == nil && p.HAToken == nil &&
		p.DebugMode == nil && p.HAURLDev == nil && p.HATokenDev == nil &&
		p.IncludeSchemePrefix == nil
}

// AutomationTarget is a Home Assistant instance and its long-lived access token.
type AutomationTarget struct {
	BaseURL string
	Token   string
}

// Configured reports whether both the URL and token are set.
func (t AutomationTarget) Configured() bool {
	return t.BaseURL != "" && t.Token != ""
}

// AutomationTarget selects the development instance when debug mode is on.
func (p Preferences) AutomationTarget() AutomationTarget {
	if p.DebugMode {
		return AutomationTarget{BaseURL: p.HAURLDev, Token: p.HATokenDev}
	}
	return AutomationTarget{BaseURL: p.HAURL, Token: p.HAToken}
}
