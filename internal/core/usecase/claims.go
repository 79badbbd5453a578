package usecase

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

const claimRetrievalK = 2

var claimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+[\s-]*(?:year|yr)s?[\s-]*old`),
	regexp.MustCompile(`(?i)\b(?:m|f|male|female)\b.*(?:surgery|procedure|operation|treatment)`),
	regexp.MustCompile(`(?i)(?:surgery|procedure|operation|treatment).*\b(?:m|f|male|female)\b`),
	regexp.MustCompile(`(?i)patient.*(?:surgery|procedure|operation|treatment)`),
	regexp.MustCompile(`(?i)claim.*(?:approved|rejected|coverage)`),
}

// ClaimClassifier recognises queries that describe a concrete patient
// scenario rather than a general policy question.
type ClaimClassifier struct{}

func (ClaimClassifier) IsClaim(query string) bool {
	for _, p := range claimPatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

var (
	ageWithGender   = regexp.MustCompile(`(?i)(\d+)(?:[-\s]?(?:years?|yrs?|y))?[,\s]*(?:old|age)?[,\s]*(?:m|f|male|female)\b`)
	ageOnly         = regexp.MustCompile(`(?i)(\d+)[-\s]*(?:years?|yrs?)[-\s]*old`)
	genderPattern   = regexp.MustCompile(`(?i)(?:^|[\s,\d])(male|female|m|f)\b`)
	procedureBefore = regexp.MustCompile(`(?i)\b([a-z]{3,}(?:\s+[a-z]{3,})?)\s+(surgery|procedure|operation|treatment)\b`)
	procedureAfter  = regexp.MustCompile(`(?i)(?:surgery|procedure|operation|treatment)[\s:]+([^,.]+)`)
	locationPattern = regexp.MustCompile(`(?i)\b(?:in|at|from)\s+([a-z][a-z\s]*?)\s*(?:,|\.|$)`)
	policyAge       = regexp.MustCompile(`(?i)(\d+)[\s-]*(month|day|year|yr)s?[\s-]+(?:old[\s-]+)?(?:insurance\s+)?policy`)
	policySince     = regexp.MustCompile(`(?i)policy\s+(?:of|for|since|aged?)?\s*(\d+)\s*(month|day|year|yr)s?`)
)

var procedureStopwords = map[string]struct{}{
	"for": {}, "the": {}, "and": {}, "had": {}, "has": {}, "needs": {}, "need": {},
	"underwent": {}, "undergo": {}, "undergoing": {}, "claim": {}, "with": {},
}

// ExtractClaimDetails pulls claim fields out of free text. Unmatched
// fields hold domain.NotApplicable.
func ExtractClaimDetails(query string) domain.ClaimDetails {
	return domain.ClaimDetails{
		Age:            extractAge(query),
		Gender:         extractGender(query),
		Procedure:      extractProcedure(query),
		Location:       extractLocation(query),
		PolicyDuration: extractPolicyDuration(query),
	}
}

// QueryUnderstood renders claim details the way they are echoed back to
// callers.
func QueryUnderstood(d domain.ClaimDetails) string {
	return fmt.Sprintf("Patient: %s year old %s, Procedure: %s, Location: %s, Policy Age: %s",
		d.Age, d.Gender, d.Procedure, d.Location, d.PolicyDuration)
}

func extractAge(query string) string {
	if m := ageWithGender.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	if m := ageOnly.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	return domain.NotApplicable
}

func extractGender(query string) string {
	m := genderPattern.FindStringSubmatch(query)
	if m == nil {
		return domain.NotApplicable
	}
	switch strings.ToLower(m[1]) {
	case "m", "male":
		return "M"
	default:
		return "F"
	}
}

func extractProcedure(query string) string {
	if m := procedureBefore.FindString(query); m != "" {
		words := strings.Fields(strings.ToLower(m))
		for len(words) > 1 {
			if _, stop := procedureStopwords[words[0]]; !stop {
				break
			}
			words = words[1:]
		}
		if len(words) > 1 {
			return strings.Join(words, " ")
		}
	}
	if m := procedureAfter.FindStringSubmatch(query); m != nil {
		if p := strings.TrimSpace(m[1]); p != "" {
			return p
		}
	}
	return domain.NotApplicable
}

func extractLocation(query string) string {
	m := locationPattern.FindStringSubmatch(query)
	if m == nil {
		return domain.NotApplicable
	}
	loc := strings.TrimSpace(m[1])
	if loc == "" {
		return domain.NotApplicable
	}
	return loc
}

func extractPolicyDuration(query string) string {
	m := policyAge.FindStringSubmatch(query)
	if m == nil {
		m = policySince.FindStringSubmatch(query)
	}
	if m == nil {
		return domain.NotApplicable
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.NotApplicable
	}
	unit := strings.ToLower(m[2])
	if unit == "yr" {
		unit = "year"
	}
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

// CoverageAnalyzer derives an approval decision from three targeted
// retrievals. The gates are lexical presence checks, so the decision is
// always marked heuristic.
type CoverageAnalyzer struct {
	retriever *Retriever
}

func NewCoverageAnalyzer(retriever *Retriever) *CoverageAnalyzer {
	return &CoverageAnalyzer{retriever: retriever}
}

func (a *CoverageAnalyzer) Analyze(ctx context.Context, s *Session, d domain.ClaimDetails) domain.CoverageDecision {
	procedureClauses := a.retriever.Retrieve(ctx, s, "coverage for "+d.Procedure, claimRetrievalK)
	waitingClauses := a.retriever.Retrieve(ctx, s, "waiting period for "+d.Procedure, claimRetrievalK)
	locationClauses := a.retriever.Retrieve(ctx, s, "hospital network "+d.Location, claimRetrievalK)

	decision := domain.CoverageDecision{
		ProcedureCovered:     anyContains(procedureClauses, "covered"),
		WaitingPeriodCleared: noneContains(waitingClauses, "waiting period"),
		LocationApproved:     anyContains(locationClauses, "network hospital"),
		Heuristic:            true,
	}
	decision.Approved = decision.ProcedureCovered && decision.WaitingPeriodCleared && decision.LocationApproved
	decision.Status = "REJECTED"
	if decision.Approved {
		decision.Status = "APPROVED"
	}

	all := make([]domain.RetrievalResult, 0, 3*claimRetrievalK)
	all = append(all, procedureClauses...)
	all = append(all, waitingClauses...)
	all = append(all, locationClauses...)
	decision.Clauses = clauseReferences(all)
	return decision
}

func DecisionSummary(d domain.CoverageDecision) string {
	if d.Approved {
		return "Claim APPROVED"
	}
	return "Claim REJECTED"
}

func anyContains(results []domain.RetrievalResult, needle string) bool {
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Text), needle) {
			return true
		}
	}
	return false
}

func noneContains(results []domain.RetrievalResult, needle string) bool {
	return !anyContains(results, needle)
}

func clauseReferences(results []domain.RetrievalResult) []domain.ClauseReference {
	out := make([]domain.ClauseReference, 0, len(results))
	for _, r := range results {
		out = append(out, domain.ClauseReference{
			ClauseID:       fmt.Sprintf("Page %d, chunk %d", r.Page, r.ChunkIndex+1),
			ClauseText:     r.Text,
			RelevanceScore: math.Min(r.Score, 1.0),
		})
	}
	return out
}
