package classifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Seniority labels.
const (
	SeniorityExecutive  = "Executive"
	SenioritySenior     = "Senior"
	SeniorityMid        = "Mid-Level"
	SeniorityEntry      = "Entry"
	SeniorityIntern     = "Intern"
	SeniorityConsultant = "Consultant"
	SeniorityVolunteer  = "Volunteer"
	SeniorityUnknown    = "Unknown"
)

var (
	executiveGrade    = regexp.MustCompile(`^(SG|DSG|USG|ASG|DG|DDG|ADG|D-?[12])([^A-Z0-9]|$)`)
	professionalGrade = regexp.MustCompile(`^P-?(\d{1,2})([^0-9]|$)`)
	nationalGrade     = regexp.MustCompile(`^NO-?([A-E])([^A-Z]|$)`)
	generalGrade      = regexp.MustCompile(`^G-?(\d{1,2})([^0-9]|$)`)
)

func normalizeGrade(grade string) string {
	return strings.ToUpper(strings.TrimSpace(grade))
}

// leadershipGrade reports whether grade is an executive band or a
// professional grade at or above minProfessional.
func leadershipGrade(grade string, minProfessional int) (string, bool) {
	g := normalizeGrade(grade)
	if g == "" {
		return "", false
	}
	if executiveGrade.MatchString(g) {
		return fmt.Sprintf("grade %q is an executive band", grade), true
	}
	if m := professionalGrade.FindStringSubmatch(g); m != nil && minProfessional > 0 {
		if n, _ := strconv.Atoi(m[1]); n >= minProfessional {
			return fmt.Sprintf("grade %q is at or above P-%d", grade, minProfessional), true
		}
	}
	return "", false
}

// Seniority maps a grade code to a seniority label.
func Seniority(grade string) string {
	g := normalizeGrade(grade)
	if g == "" {
		return SeniorityUnknown
	}

	switch {
	case strings.Contains(g, "INTERN"):
		return SeniorityIntern
	case strings.Contains(g, "CONSULT"):
		return SeniorityConsultant
	case strings.Contains(g, "VOLUNTEER"), strings.HasPrefix(g, "UNV"):
		return SeniorityVolunteer
	case executiveGrade.MatchString(g):
		return SeniorityExecutive
	}

	if m := professionalGrade.FindStringSubmatch(g); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch {
		case n >= 4:
			return SenioritySenior
		case n == 3:
			return SeniorityMid
		case n >= 1:
			return SeniorityEntry
		}
	}
	if m := nationalGrade.FindStringSubmatch(g); m != nil {
		switch m[1] {
		case "D", "E":
			return SenioritySenior
		case "C":
			return SeniorityMid
		default:
			return SeniorityEntry
		}
	}
	if m := generalGrade.FindStringSubmatch(g); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch {
		case n >= 7:
			return SenioritySenior
		case n == 6:
			return SeniorityMid
		case n >= 1:
			return SeniorityEntry
		}
	}
	return SeniorityUnknown
}
