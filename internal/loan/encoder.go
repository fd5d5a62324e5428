package loan

// FeatureWidth is the input width the trained scaler and classifier expect:
// the 13 applicant fields plus one trailing filler.
const FeatureWidth = 14

// fillerValue pads the vector to FeatureWidth. The artifacts were fitted with
// this extra column; it carries no applicant information and the encoder and
// artifacts stay correct only if they are retrained together.
const fillerValue = 0

// FeatureVector is the model input in training column order.
type FeatureVector [FeatureWidth]float64

// Slice returns the vector as a fresh slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureWidth)
	copy(out, v[:])
	return out
}

// Encode maps a profile to its feature vector. The profile must have passed
// Validate; an out-of-range category panics.
func Encode(p ApplicantProfile) FeatureVector {
	return FeatureVector{
		float64(p.Age),
		p.Gender.code(),
		p.Education.code(),
		p.Income,
		float64(p.EmploymentExperience),
		p.HomeOwnership.code(),
		p.LoanAmount,
		p.LoanIntent.code(),
		p.InterestRate / 100,
		p.LoanPercentIncome,
		float64(p.CreditHistoryLength),
		float64(p.CreditScore),
		p.PreviousLoanDefaults.code(),
		fillerValue,
	}
}

const WarnLoanExceedsIncome = "loan amount exceeds applicant's annual income"

// Warnings lists advisory findings about a profile. They never block a
// prediction.
func Warnings(p ApplicantProfile) []string {
	var out []string
	if p.LoanAmount > p.Income {
		out = append(out, WarnLoanExceedsIncome)
	}
	return out
}
