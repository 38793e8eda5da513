// Package schema holds the data types shared between the resolver, the
// automation engine, and the HTTP surface: the validated record extracted
// from the source documents, the per-field progress events, and the final
// run report.
package schema

// Representative holds the representative's contact details (form part 1).
type Representative struct {
	OnlineAccount string `json:"online_account,omitempty"`
	FamilyName    string `json:"family_name"`
	GivenName     string `json:"given_name"`
	MiddleName    string `json:"middle_name,omitempty"`
	StreetNumber  string `json:"street_number"`
	AptType       string `json:"apt_type,omitempty"` // "apt" | "ste" | "flr"
	AptNumber     string `json:"apt_number,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	Country       string `json:"country"`
	DaytimePhone  string `json:"daytime_phone"`
	MobilePhone   string `json:"mobile_phone,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Eligibility holds the representative's professional credentials (part 2).
type Eligibility struct {
	IsAttorney         bool   `json:"is_attorney"`
	LicensingAuthority string `json:"licensing_authority,omitempty"`
	BarNumber          string `json:"bar_number,omitempty"`
	SubjectToOrders    string `json:"subject_to_orders,omitempty"` // "not" | "am"
	LawFirm            string `json:"law_firm,omitempty"`
	IsAccreditedRep    bool   `json:"is_accredited_rep"`
	RecognizedOrg      string `json:"recognized_org,omitempty"`
	AccreditationDate  string `json:"accreditation_date,omitempty"` // YYYY-MM-DD
	IsAssociated       bool   `json:"is_associated"`
	AssociatedWithName string `json:"associated_with_name,omitempty"`
	IsLawStudent       bool   `json:"is_law_student"`
	StudentName        string `json:"student_name,omitempty"`
}

// SubjectPerson holds the passport bio-data fields (part 3).
type SubjectPerson struct {
	Surname        string `json:"surname"`
	GivenNames     string `json:"given_names"`
	MiddleNames    string `json:"middle_names,omitempty"`
	PassportNumber string `json:"passport_number"`
	CountryOfIssue string `json:"country_of_issue"`
	Nationality    string `json:"nationality"`
	DateOfBirth    string `json:"date_of_birth"` // YYYY-MM-DD
	PlaceOfBirth   string `json:"place_of_birth"`
	Sex            string `json:"sex,omitempty"` // "M" | "F" | "X"
	IssueDate      string `json:"issue_date"`
	ExpiryDate     string `json:"expiry_date"`
}

// Record is the combined validated data for one run. Required attributes are
// non-empty by the time a Record reaches the engine; validation belongs to
// the review layer upstream.
type Record struct {
	Representative Representative `json:"representative"`
	Eligibility    Eligibility    `json:"eligibility"`
	Subject        SubjectPerson  `json:"subject"`
}

// Status values carried by ProgressEvent.
const (
	StatusFilling = "filling"
	StatusDone    = "done"
	StatusError   = "error"
)

// NavigationField is the synthetic field id used when the run fails before
// any field is attempted.
const NavigationField = "__navigation__"

// ProgressEvent is one status notification for one field during a run.
// Progress is an overall percentage, non-decreasing across a run.
type ProgressEvent struct {
	Field    string  `json:"field"`
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
}

// Report is the final, authoritative outcome summary for a run.
type Report struct {
	Success      bool     `json:"success"`
	ScreenshotID *string  `json:"screenshot_id"`
	FilledFields int      `json:"filled_fields"`
	TotalFields  int      `json:"total_fields"`
	Errors       []string `json:"errors"`
}
