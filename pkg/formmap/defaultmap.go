package formmap

import (
	"github.com/mendrika-alma/formfill/pkg/driver"
	"github.com/mendrika-alma/formfill/pkg/schema"
)

func css(sel string) driver.Locator { return driver.Locator{Selector: sel} }

func nth(sel string, i int) driver.Locator { return driver.Locator{Selector: sel, Index: i} }

func rep(f func(*schema.Representative) string) func(*schema.Record) string {
	return func(r *schema.Record) string { return f(&r.Representative) }
}

func elig(f func(*schema.Eligibility) string) func(*schema.Record) string {
	return func(r *schema.Record) string { return f(&r.Eligibility) }
}

func eligFlag(f func(*schema.Eligibility) bool) func(*schema.Record) bool {
	return func(r *schema.Record) bool { return f(&r.Eligibility) }
}

func subj(f func(*schema.SubjectPerson) string) func(*schema.Record) string {
	return func(r *schema.Record) string { return f(&r.Subject) }
}

// DefaultEntries is the declarative map for the target form, in fill order:
// representative, eligibility, subject person.
//
// representative.apt_type and representative.apt_number share one visual
// unit-designation control; apt_type is declared after apt_number so its
// interaction lands last, while both fields still report progress.
func DefaultEntries() []Entry {
	return []Entry{
		// Part 1 — representative
		{FieldID: "representative.online_account", Kind: KindText, Locator: css("#online-account"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.OnlineAccount })},
		{FieldID: "representative.family_name", Kind: KindText, Locator: css("#family-name"), Required: true, Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.FamilyName })},
		{FieldID: "representative.given_name", Kind: KindText, Locator: css("#given-name"), Required: true, Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.GivenName })},
		{FieldID: "representative.middle_name", Kind: KindText, Locator: css("#middle-name"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.MiddleName })},
		{FieldID: "representative.street_number", Kind: KindText, Locator: css("#street-number"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.StreetNumber })},
		{FieldID: "representative.apt_number", Kind: KindText, Locator: css("#apt-number"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.AptNumber })},
		{FieldID: "representative.apt_type", Kind: KindRadio, Group: GroupRepresentative,
			Options: []Option{
				{Value: "apt", Locator: css("#apt")},
				{Value: "ste", Locator: css("#ste")},
				{Value: "flr", Locator: css("#flr")},
			},
			Text: rep(func(a *schema.Representative) string { return a.AptType })},
		{FieldID: "representative.city", Kind: KindText, Locator: css("#city"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.City })},
		{FieldID: "representative.state", Kind: KindSelect, Locator: css("#state"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.State })},
		{FieldID: "representative.zip_code", Kind: KindText, Locator: css("#zip"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.ZipCode })},
		{FieldID: "representative.country", Kind: KindText, Locator: css("#country"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.Country })},
		{FieldID: "representative.daytime_phone", Kind: KindText, Locator: css("#daytime-phone"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.DaytimePhone })},
		{FieldID: "representative.mobile_phone", Kind: KindText, Locator: css("#mobile-phone"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.MobilePhone })},
		{FieldID: "representative.email", Kind: KindText, Locator: css("#email"), Group: GroupRepresentative,
			Text: rep(func(a *schema.Representative) string { return a.Email })},

		// Part 2 — eligibility
		{FieldID: "eligibility.is_attorney", Kind: KindCheckbox, Locator: css("#attorney-eligible"), Group: GroupEligibility,
			Flag: eligFlag(func(e *schema.Eligibility) bool { return e.IsAttorney })},
		{FieldID: "eligibility.licensing_authority", Kind: KindText, Locator: css("#licensing-authority"), Group: GroupEligibility,
			Text: elig(func(e *schema.Eligibility) string { return e.LicensingAuthority })},
		{FieldID: "eligibility.bar_number", Kind: KindText, Locator: css("#bar-number"), Group: GroupEligibility,
			Text: elig(func(e *schema.Eligibility) string { return e.BarNumber })},
		{FieldID: "eligibility.subject_to_orders", Kind: KindRadio, Group: GroupEligibility,
			Options: []Option{
				{Value: "not", Locator: css("#not-subject")},
				{Value: "am", Locator: css("#am-subject")},
			},
			Text: elig(func(e *schema.Eligibility) string { return e.SubjectToOrders })},
		{FieldID: "eligibility.law_firm", Kind: KindText, Locator: css("#law-firm"), Group: GroupEligibility,
			Text: elig(func(e *schema.Eligibility) string { return e.LawFirm })},
		{FieldID: "eligibility.is_accredited_rep", Kind: KindCheckbox, Locator: css("#accredited-rep"), Group: GroupEligibility,
			Flag: eligFlag(func(e *schema.Eligibility) bool { return e.IsAccreditedRep })},
		{FieldID: "eligibility.recognized_org", Kind: KindText, Locator: css("#recognized-org"), Group: GroupEligibility,
			Text: elig(func(e *schema.Eligibility) string { return e.RecognizedOrg })},
		{FieldID: "eligibility.accreditation_date", Kind: KindText, Locator: css("#accreditation-date"), Group: GroupEligibility,
			Text:      elig(func(e *schema.Eligibility) string { return e.AccreditationDate }),
			Transform: DateTransform},
		{FieldID: "eligibility.is_associated", Kind: KindCheckbox, Locator: css("#associated-with"), Group: GroupEligibility,
			Flag: eligFlag(func(e *schema.Eligibility) bool { return e.IsAssociated })},
		{FieldID: "eligibility.associated_with_name", Kind: KindText, Locator: css("#associated-with-name"), Group: GroupEligibility,
			Text: elig(func(e *schema.Eligibility) string { return e.AssociatedWithName })},
		{FieldID: "eligibility.is_law_student", Kind: KindCheckbox, Locator: css("#law-student"), Group: GroupEligibility,
			Flag: eligFlag(func(e *schema.Eligibility) bool { return e.IsLawStudent })},
		{FieldID: "eligibility.student_name", Kind: KindText, Locator: css("#student-name"), Group: GroupEligibility,
			Text: elig(func(e *schema.Eligibility) string { return e.StudentName })},

		// Part 3 — subject person (passport bio-data). The form reuses
		// id="passport-given-names" for given and middle names, so those
		// two locators index into the match list.
		{FieldID: "subject.surname", Kind: KindText, Locator: css("#passport-surname"), Required: true, Group: GroupSubject,
			Text: subj(func(p *schema.SubjectPerson) string { return p.Surname })},
		{FieldID: "subject.given_names", Kind: KindText, Locator: nth("#passport-given-names", 0), Required: true, Group: GroupSubject,
			Text: subj(func(p *schema.SubjectPerson) string { return p.GivenNames })},
		{FieldID: "subject.middle_names", Kind: KindText, Locator: nth("#passport-given-names", 1), Group: GroupSubject,
			Text: subj(func(p *schema.SubjectPerson) string { return p.MiddleNames })},
		{FieldID: "subject.passport_number", Kind: KindText, Locator: css("#passport-number"), Required: true, Group: GroupSubject,
			Text: subj(func(p *schema.SubjectPerson) string { return p.PassportNumber })},
		{FieldID: "subject.country_of_issue", Kind: KindText, Locator: css("#passport-country"), Group: GroupSubject,
			Text: subj(func(p *schema.SubjectPerson) string { return p.CountryOfIssue })},
		{FieldID: "subject.nationality", Kind: KindText, Locator: css("#passport-nationality"), Group: GroupSubject,
			Text: subj(func(p *schema.SubjectPerson) string { return p.Nationality })},
		{FieldID: "subject.date_of_birth", Kind: KindText, Locator: css("#passport-dob"), Required: true, Group: GroupSubject,
			Text:      subj(func(p *schema.SubjectPerson) string { return p.DateOfBirth }),
			Transform: DateTransform},
		{FieldID: "subject.place_of_birth", Kind: KindText, Locator: css("#passport-pob"), Group: GroupSubject,
			Text: subj(func(p *schema.SubjectPerson) string { return p.PlaceOfBirth })},
		{FieldID: "subject.sex", Kind: KindSelect, Locator: css("#passport-sex"), Group: GroupSubject,
			Text:      subj(func(p *schema.SubjectPerson) string { return p.Sex }),
			Transform: SexTransform},
		{FieldID: "subject.issue_date", Kind: KindText, Locator: css("#passport-issue-date"), Group: GroupSubject,
			Text:      subj(func(p *schema.SubjectPerson) string { return p.IssueDate }),
			Transform: DateTransform},
		{FieldID: "subject.expiry_date", Kind: KindText, Locator: css("#passport-expiry-date"), Group: GroupSubject,
			Text:      subj(func(p *schema.SubjectPerson) string { return p.ExpiryDate }),
			Transform: DateTransform},
	}
}
