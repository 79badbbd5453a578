package chunking

import (
	"math"
	"regexp"
	"strings"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

// Importance weights. Every chunk starts at BaseImportance; the total is
// capped at 1.
const (
	BaseImportance         = 0.40
	PrimaryContentBoost    = 0.15
	SecondaryContentBoost  = 0.05
	NumericUnitBoost       = 0.15
	PercentageBoost        = 0.05
	DefinitionalBoost      = 0.10
	KeyTermWeight          = 0.04
	KeyTermCap             = 0.20
	MedicalIndicatorWeight = 0.03
	MedicalIndicatorCap    = 0.12
)

var (
	numericUnitPattern  = regexp.MustCompile(`(?i)\d+\s*(?:days?|months?|years?|inr|rupees?|rs\.?)\b`)
	percentagePattern   = regexp.MustCompile(`\d+(?:\.\d+)?\s*%`)
	definitionalPattern = regexp.MustCompile(`(?i)\b(?:means|defined as|refers to|includes|shall mean)\b`)
	medicalPattern      = regexp.MustCompile(`(?i)\b(?:treatment|surgery|procedure|therapy|medical|clinical|hospitali[sz]ation|diagnosis)\b`)
)

var policyKeyTerms = []string{
	"hospital", "coverage", "waiting", "grace", "benefit",
	"limit", "policy", "insured", "premium", "claim",
}

// KeywordClassifier assigns content categories by keyword presence.
// Precedence: definition, time_period, coverage, exclusion, general.
type KeywordClassifier struct{}

var classifierRules = []struct {
	kind     domain.ContentType
	keywords []string
}{
	{domain.ContentDefinition, []string{"definition", "means", "defined as"}},
	{domain.ContentTimePeriod, []string{"waiting period", "grace period", "months", "days"}},
	{domain.ContentCoverage, []string{"coverage", "covered", "benefit", "limit"}},
	{domain.ContentExclusion, []string{"exclusion", "not covered", "excluded"}},
}

func (KeywordClassifier) Classify(text string) domain.ContentType {
	lower := strings.ToLower(text)
	for _, rule := range classifierRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.kind
			}
		}
	}
	return domain.ContentGeneral
}

// ImportanceScore rates how likely a chunk is to hold a policy fact.
func ImportanceScore(text string, contentType domain.ContentType) float64 {
	score := BaseImportance

	switch contentType {
	case domain.ContentDefinition, domain.ContentTimePeriod:
		score += PrimaryContentBoost
	case domain.ContentCoverage, domain.ContentExclusion:
		score += SecondaryContentBoost
	}

	if numericUnitPattern.MatchString(text) {
		score += NumericUnitBoost
	}
	if percentagePattern.MatchString(text) {
		score += PercentageBoost
	}
	if definitionalPattern.MatchString(text) {
		score += DefinitionalBoost
	}

	lower := strings.ToLower(text)
	keyTerms := 0
	for _, term := range policyKeyTerms {
		if strings.Contains(lower, term) {
			keyTerms++
		}
	}
	score += math.Min(float64(keyTerms)*KeyTermWeight, KeyTermCap)

	medical := len(medicalPattern.FindAllStringIndex(text, -1))
	score += math.Min(float64(medical)*MedicalIndicatorWeight, MedicalIndicatorCap)

	return math.Min(score, 1.0)
}
