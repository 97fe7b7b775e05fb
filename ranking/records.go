package ranking

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OperatorIdentity is the read-only identity of an operator as seen by the ranking.
type OperatorIdentity struct {
	Code       string
	Name       string
	NationalID string
	Position   string
	Phone      string
	JoinDate   *time.Time
	Zone       string
	Sponsor    string
	Task       string
}

// ControlVariableRecord is one programmed/executed value for an operator over a scheduling window.
type ControlVariableRecord struct {
	OperatorCode    string
	VariableCode    string
	ProgrammedValue decimal.Decimal
	ExecutedValue   decimal.Decimal
	WindowStart     time.Time
	WindowEnd       time.Time
	ExecutionDate   *time.Time
}

// IncidentRecord is a novelty registered for an operator; WindowEnd is nil while it is still open.
type IncidentRecord struct {
	OperatorCode string
	FactorCode   string
	WindowStart  time.Time
	WindowEnd    *time.Time
	Observation  string
}

// Kind is the aggregation a control variable feeds.
type Kind int

const (
	KindUnclassified Kind = iota
	KindBonus
	KindKm
)

func (k Kind) String() string {
	switch k {
	case KindBonus:
		return "bonus"
	case KindKm:
		return "km"
	default:
		return "unclassified"
	}
}

var (
	bonusKeywords = []string{"bono", "incentivo"}
	kmKeywords    = []string{"km", "kilometr"}
)

// ClassifyVariable decides which aggregation a variable code belongs to.
// Bonus keywords are tested first, so a code never feeds both.
func ClassifyVariable(variableCode string) Kind {
	code := strings.ToLower(variableCode)
	for _, kw := range bonusKeywords {
		if strings.Contains(code, kw) {
			return KindBonus
		}
	}
	for _, kw := range kmKeywords {
		if strings.Contains(code, kw) {
			return KindKm
		}
	}
	return KindUnclassified
}

// VariableKeywords returns every keyword that makes a variable code relevant to the ranking.
func VariableKeywords() []string {
	out := make([]string, 0, len(bonusKeywords)+len(kmKeywords))
	out = append(out, bonusKeywords...)
	return append(out, kmKeywords...)
}

// Kind classifies the record by its variable code.
func (r ControlVariableRecord) Kind() Kind {
	return ClassifyVariable(r.VariableCode)
}

// ReferenceDate is the date used to place the record on the timeline.
func (r ControlVariableRecord) ReferenceDate() time.Time {
	if r.ExecutionDate != nil && !r.ExecutionDate.IsZero() {
		return *r.ExecutionDate
	}
	return r.WindowEnd
}

// DurationDays counts the inclusive calendar days of the incident, running open incidents through today.
// The result is never below one.
func (r IncidentRecord) DurationDays(today time.Time) int {
	start := truncateDay(r.WindowStart)
	end := truncateDay(today)
	if r.WindowEnd != nil {
		end = truncateDay(*r.WindowEnd)
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
