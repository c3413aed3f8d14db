package model

// Measures is the closed vocabulary accepted in measure_name. Matching is
// exact and case-sensitive.
var Measures = []string{
	"Violent crime rate",
	"Unemployment",
	"Children in poverty",
	"Diabetic screening",
	"Mammography screening",
	"Preventable hospital stays",
	"Uninsured",
	"Sexually transmitted infections",
	"Physical inactivity",
	"Adult obesity",
	"Premature Death",
	"Daily fine particulate matter",
}

var measureSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Measures))
	for _, s := range Measures {
		m[s] = struct{}{}
	}
	return m
}()

// IsMeasure reports whether name is one of the recognized measures.
func IsMeasure(name string) bool {
	_, ok := measureSet[name]
	return ok
}

// IsZIP reports whether s is a five digit ZIP code.
func IsZIP(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
