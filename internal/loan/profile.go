// Package loan turns applicant attributes into the feature vector expected by
// the trained approval model and runs that model.
package loan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidProfile marks applicant input rejected before encoding.
var ErrInvalidProfile = errors.New("invalid applicant profile")

type Gender int

const (
	GenderMale Gender = iota
	GenderFemale
	GenderOther
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	case GenderOther:
		return "Other"
	}
	return fmt.Sprintf("Gender(%d)", int(g))
}

func (g Gender) code() float64 {
	switch g {
	case GenderMale:
		return 0
	case GenderFemale:
		return 1
	case GenderOther:
		return 2
	}
	panic(fmt.Sprintf("loan: unknown %s", g))
}

type Education int

const (
	EducationHighSchool Education = iota
	EducationUndergraduate
	EducationGraduate
	EducationPostgraduate
)

func (e Education) String() string {
	switch e {
	case EducationHighSchool:
		return "High School"
	case EducationUndergraduate:
		return "Undergraduate"
	case EducationGraduate:
		return "Graduate"
	case EducationPostgraduate:
		return "Postgraduate"
	}
	return fmt.Sprintf("Education(%d)", int(e))
}

func (e Education) code() float64 {
	switch e {
	case EducationHighSchool:
		return 0
	case EducationUndergraduate:
		return 1
	case EducationGraduate:
		return 2
	case EducationPostgraduate:
		return 3
	}
	panic(fmt.Sprintf("loan: unknown %s", e))
}

type HomeOwnership int

const (
	HomeOwn HomeOwnership = iota
	HomeRent
	HomeMortgage
)

func (h HomeOwnership) String() string {
	switch h {
	case HomeOwn:
		return "Own"
	case HomeRent:
		return "Rent"
	case HomeMortgage:
		return "Mortgage"
	}
	return fmt.Sprintf("HomeOwnership(%d)", int(h))
}

func (h HomeOwnership) code() float64 {
	switch h {
	case HomeOwn:
		return 0
	case HomeRent:
		return 1
	case HomeMortgage:
		return 2
	}
	panic(fmt.Sprintf("loan: unknown %s", h))
}

type Intent int

const (
	IntentPersonal Intent = iota
	IntentBusiness
	IntentEducation
)

func (i Intent) String() string {
	switch i {
	case IntentPersonal:
		return "Personal"
	case IntentBusiness:
		return "Business"
	case IntentEducation:
		return "Education"
	}
	return fmt.Sprintf("Intent(%d)", int(i))
}

func (i Intent) code() float64 {
	switch i {
	case IntentPersonal:
		return 0
	case IntentBusiness:
		return 1
	case IntentEducation:
		return 2
	}
	panic(fmt.Sprintf("loan: unknown %s", i))
}

// PreviousDefault records whether the applicant has a loan default on file.
type PreviousDefault int

const (
	DefaultNo PreviousDefault = iota
	DefaultYes
)

func (d PreviousDefault) String() string {
	switch d {
	case DefaultNo:
		return "No"
	case DefaultYes:
		return "Yes"
	}
	return fmt.Sprintf("PreviousDefault(%d)", int(d))
}

func (d PreviousDefault) code() float64 {
	switch d {
	case DefaultNo:
		return 0
	case DefaultYes:
		return 1
	}
	panic(fmt.Sprintf("loan: unknown %s", d))
}

var (
	Genders          = []Gender{GenderMale, GenderFemale, GenderOther}
	Educations       = []Education{EducationHighSchool, EducationUndergraduate, EducationGraduate, EducationPostgraduate}
	HomeOwnerships   = []HomeOwnership{HomeOwn, HomeRent, HomeMortgage}
	Intents          = []Intent{IntentPersonal, IntentBusiness, IntentEducation}
	PreviousDefaults = []PreviousDefault{DefaultNo, DefaultYes}
)

// parseLabel finds the enum value whose display label equals s.
func parseLabel[T fmt.Stringer](field, s string, values []T) (T, error) {
	for _, v := range values {
		if v.String() == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %s %q", ErrInvalidProfile, field, s)
}

func ParseGender(s string) (Gender, error) { return parseLabel("gender", s, Genders) }

func ParseEducation(s string) (Education, error) { return parseLabel("education", s, Educations) }

func ParseHomeOwnership(s string) (HomeOwnership, error) {
	return parseLabel("home ownership", s, HomeOwnerships)
}

func ParseIntent(s string) (Intent, error) { return parseLabel("loan intent", s, Intents) }

func ParsePreviousDefault(s string) (PreviousDefault, error) {
	return parseLabel("previous default", s, PreviousDefaults)
}

func (g Gender) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (e Education) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (h HomeOwnership) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (d PreviousDefault) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (g *Gender) UnmarshalText(b []byte) (err error) {
	*g, err = ParseGender(string(b))
	return err
}

func (e *Education) UnmarshalText(b []byte) (err error) {
	*e, err = ParseEducation(string(b))
	return err
}

func (h *HomeOwnership) UnmarshalText(b []byte) (err error) {
	*h, err = ParseHomeOwnership(string(b))
	return err
}

func (i *Intent) UnmarshalText(b []byte) (err error) {
	*i, err = ParseIntent(string(b))
	return err
}

func (d *PreviousDefault) UnmarshalText(b []byte) (err error) {
	*d, err = ParsePreviousDefault(string(b))
	return err
}

// ApplicantProfile is the set of attributes collected for one prediction.
// InterestRate is a percentage, 0..100.
type ApplicantProfile struct {
	Age                  int             `json:"age"`
	Gender               Gender          `json:"gender"`
	Education            Education       `json:"education"`
	Income               float64         `json:"income"`
	EmploymentExperience int             `json:"employmentExperience"`
	HomeOwnership        HomeOwnership   `json:"homeOwnership"`
	LoanAmount           float64         `json:"loanAmount"`
	LoanIntent           Intent          `json:"loanIntent"`
	InterestRate         float64         `json:"interestRate"`
	LoanPercentIncome    float64         `json:"loanPercentIncome"`
	CreditHistoryLength  int             `json:"creditHistoryLength"`
	CreditScore          int             `json:"creditScore"`
	PreviousLoanDefaults PreviousDefault `json:"previousLoanDefaults"`
}

// Defaults returns the profile a blank form starts from.
func Defaults() ApplicantProfile {
	return ApplicantProfile{
		Age:                  30,
		Gender:               GenderMale,
		Education:            EducationHighSchool,
		Income:               50000,
		EmploymentExperience: 5,
		HomeOwnership:        HomeOwn,
		LoanAmount:           10000,
		LoanIntent:           IntentPersonal,
		InterestRate:         5.0,
		LoanPercentIncome:    10.0,
		CreditHistoryLength:  5,
		CreditScore:          650,
		PreviousLoanDefaults: DefaultNo,
	}
}

// UnmarshalJSON fills omitted fields from Defaults, like an untouched form input.
func (p *ApplicantProfile) UnmarshalJSON(b []byte) error {
	type plain ApplicantProfile
	v := plain(Defaults())
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = ApplicantProfile(v)
	return nil
}

// Range is the accepted interval of a numeric field. A nil Max is unbounded.
type Range struct {
	Min float64  `json:"min"`
	Max *float64 `json:"max,omitempty"`
}

func (r Range) contains(v float64) bool {
	return v >= r.Min && (r.Max == nil || v <= *r.Max)
}

func bounded(min, max float64) Range { return Range{Min: min, Max: &max} }

var Ranges = map[string]Range{
	"age":                  bounded(18, 100),
	"income":               {Min: 0},
	"employmentExperience": {Min: 0},
	"loanAmount":           {Min: 1000},
	"interestRate":         bounded(0, 100),
	"loanPercentIncome":    bounded(0, 100),
	"creditHistoryLength":  {Min: 1},
	"creditScore":          bounded(300, 850),
}

// Validate checks every numeric field against Ranges and every category
// against its closed set.
func (p ApplicantProfile) Validate() error {
	numeric := []struct {
		name  string
		value float64
	}{
		{"age", float64(p.Age)},
		{"income", p.Income},
		{"employmentExperience", float64(p.EmploymentExperience)},
		{"loanAmount", p.LoanAmount},
		{"interestRate", p.InterestRate},
		{"loanPercentIncome", p.LoanPercentIncome},
		{"creditHistoryLength", float64(p.CreditHistoryLength)},
		{"creditScore", float64(p.CreditScore)},
	}
	var errs []error
	for _, f := range numeric {
		r := Ranges[f.name]
		if !r.contains(f.value) {
			if r.Max == nil {
				errs = append(errs, fmt.Errorf("%s must be >= %g, got %g", f.name, r.Min, f.value))
			} else {
				errs = append(errs, fmt.Errorf("%s must be between %g and %g, got %g", f.name, r.Min, *r.Max, f.value))
			}
		}
	}
	if int(p.Gender) < 0 || int(p.Gender) >= len(Genders) {
		errs = append(errs, fmt.Errorf("unknown %s", p.Gender))
	}
	if int(p.Education) < 0 || int(p.Education) >= len(Educations) {
		errs = append(errs, fmt.Errorf("unknown %s", p.Education))
	}
	if int(p.HomeOwnership) < 0 || int(p.HomeOwnership) >= len(HomeOwnerships) {
		errs = append(errs, fmt.Errorf("unknown %s", p.HomeOwnership))
	}
	if int(p.LoanIntent) < 0 || int(p.LoanIntent) >= len(Intents) {
		errs = append(errs, fmt.Errorf("unknown %s", p.LoanIntent))
	}
	if int(p.PreviousLoanDefaults) < 0 || int(p.PreviousLoanDefaults) >= len(PreviousDefaults) {
		errs = append(errs, fmt.Errorf("unknown %s", p.PreviousLoanDefaults))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, errors.Join(errs...))
	}
	return nil
}
