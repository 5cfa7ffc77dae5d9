package application

import "github.com/ericfisherdev/bearerwatch/internal/domain/model"

// ExtractCandidates returns the distinct Authorization values in records, in
// order of first occurrence, each paired with the URL of the first record
// that carried it. Records without an Authorization header are skipped.
// Deduplication is on the literal header value, not the URL: a credential
// replayed against many endpoints yields a single candidate.
func ExtractCandidates(records []model.TrafficRecord) []model.CandidateCredential {
	seen := make(map[string]struct{})
	candidates := make([]model.CandidateCredential, 0)

	for _, rec := range records {
		value, ok := rec.AuthorizationValue()
		if !ok {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		candidates = append(candidates, model.CandidateCredential{
			URL:                rec.URL,
			AuthorizationValue: value,
		})
	}

	return candidates
}
