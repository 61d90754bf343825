package trend

import (
	"fmt"
	"strings"
)

// profileEmptyValues are field values treated as absent when summarizing.
var profileEmptyValues = map[string]bool{
	"": true, "none": true, "null": true, "nan": true, "[]": true, "{}": true,
}

// SummarizeProfile builds the deterministic textual summary of a user
// profile used as embedding input and prompt context. Field order is fixed;
// empty fields render as "none" so two profiles with the same data always
// produce the same text.
func SummarizeProfile(u UserProfile) string {
	field := func(v string) string {
		if profileEmptyValues[strings.ToLower(strings.TrimSpace(v))] {
			return "none"
		}
		return strings.TrimSpace(v)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Institution: %s, Major: %s\n", field(u.Institution), field(u.Major))
	fmt.Fprintf(&sb, "Degree: %s, Education status: %s\n", field(u.Degree), field(u.EducationStatus))
	fmt.Fprintf(&sb, "Desired job: %s\n", field(u.DesiredJob))
	fmt.Fprintf(&sb, "Language score: %s\n", field(u.LanguageScore))
	fmt.Fprintf(&sb, "Skills: %s\n", field(u.Skills))
	fmt.Fprintf(&sb, "Certificates: %s\n", field(u.Certificates))
	fmt.Fprintf(&sb, "Latest experience: %s", field(u.LatestExperience))
	return sb.String()
}
