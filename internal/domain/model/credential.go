package model

import "time"

// TabID identifies a browser tab. NoTab marks traffic that is not associated
// with any tab and doubles as "no owner" on a CredentialRecord.
type TabID int64

// NoTab is the tab ID browsers report for background requests.
const NoTab TabID = -1

// CredentialRecord is the single transient credential captured from live
// traffic. Token holds the bearer value without the scheme prefix.
// Found is true only while Token is non-empty and no clearing event has
// happened since it was recorded.
type CredentialRecord struct {
	Token      string
	SourceURL  string
	OwnerTabID TabID
	Found      bool
	CapturedAt time.Time
}

// EmptyCredential returns the cleared record.
func EmptyCredential() CredentialRecord {
	return CredentialRecord{OwnerTabID: NoTab}
}

// HasOwner reports whether the record is bound to a tab.
func (r CredentialRecord) HasOwner() bool {
	return r.OwnerTabID != NoTab
}

// Display returns the token as consumers should see it, either raw or with
// the "Bearer " scheme prefix.
func (r CredentialRecord) Display(includeSchemePrefix bool) string {
	if r.Token == "" {
		return ""
	}
	if includeSchemePrefix {
		return bearerPrefix + r.Token
	}
	return r.Token
}

// StoredCredential is the persisted credential entry. The owner tab is
// deliberately absent; it only lives in memory.
type StoredCredential struct {
	Token string
	URL   string
}
