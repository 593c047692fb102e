// Package records holds the domain records returned by the data collaborator.
//
// The agent treats them as opaque: field values travel verbatim from the
// datastore to the response envelope. JSON names match the upstream wire
// format so the presentation layer can render them unchanged.
package records

import "time"

// FacilitySummary is the short facility view nested in an Account.
type FacilitySummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type Account struct {
	AccountID                          string            `json:"account_id"`
	Name                               string            `json:"name"`
	Status                             string            `json:"status"`
	IsTNA                              bool              `json:"is_tna"`
	CreatedAt                          string            `json:"created_at"`
	PricingModel                       string            `json:"pricing_model"`
	AddressLine1                       string            `json:"address_line1"`
	AddressLine2                       string            `json:"address_line2"`
	AddressCity                        string            `json:"address_city"`
	AddressState                       string            `json:"address_state"`
	AddressPostalCode                  string            `json:"address_postal_code"`
	AddressCountry                     string            `json:"address_country"`
	Facilities                         []FacilitySummary `json:"facilities"`
	TotalAmountDue                     float64           `json:"total_amount_due"`
	TotalAmountDueThisWeek             float64           `json:"total_amount_due_this_week"`
	InvoiceID                          string            `json:"invoice_id"`
	InvoiceAmount                      float64           `json:"invoice_amount"`
	InvoiceDueDate                     string            `json:"invoice_due_date"`
	CurrentBalance                     float64           `json:"current_balance"`
	PointsEarnedThisQuarter            int               `json:"points_earned_this_quarter"`
	PendingBalance                     int               `json:"pending_balance"`
	CurrentTier                        string            `json:"current_tier"`
	NextTier                           string            `json:"next_tier"`
	PointsToNextTier                   int               `json:"points_to_next_tier"`
	QuarterEndDate                     string            `json:"quarter_end_date"`
	FreeVialsAvailable                 int               `json:"free_vials_available"`
	RewardsRequiredForNextFreeVial     int               `json:"rewards_required_for_next_free_vial"`
	RewardsRedeemedTowardsNextFreeVial int               `json:"rewards_redeemed_towards_next_free_vial"`
	RewardsStatus                      string            `json:"rewards_status"`
	RewardsUpdatedAt                   string            `json:"rewards_updated_at"`
	EvoluxLevel                        string            `json:"evolux_level"`
}

type Facility struct {
	ID                                 string `json:"id"`
	Name                               string `json:"name"`
	Status                             string `json:"status"`
	HasSignedMedicalLiabilityAgreement bool   `json:"has_signed_medical_liability_agreement"`
	MedicalLicenseID                   string `json:"medical_license_id"`
	MedicalLicenseState                string `json:"medical_license_state"`
	MedicalLicenseNumber               string `json:"medical_license_number"`
	MedicalLicenseInvolvement          string `json:"medical_license_involvement"`
	MedicalLicenseExpirationDate       string `json:"medical_license_expiration_date"`
	MedicalLicenseIsExpired            bool   `json:"medical_license_is_expired"`
	MedicalLicenseStatus               string `json:"medical_license_status"`
	MedicalLicenseOwnerFirstName       string `json:"medical_license_owner_first_name"`
	MedicalLicenseOwnerLastName        string `json:"medical_license_owner_last_name"`
	AccountID                          string `json:"account_id"`
	AccountName                        string `json:"account_name"`
	AccountStatus                      string `json:"account_status"`
	AccountHasSignedFinancialAgreement bool   `json:"account_has_signed_financial_agreement"`
	AccountHasAcceptedJetTerms         bool   `json:"account_has_accepted_jet_terms"`
	ShippingAddressLine1               string `json:"shipping_address_line1"`
	ShippingAddressLine2               string `json:"shipping_address_line2"`
	ShippingAddressCity                string `json:"shipping_address_city"`
	ShippingAddressState               string `json:"shipping_address_state"`
	ShippingAddressZip                 string `json:"shipping_address_zip"`
	ShippingAddressCommercial          bool   `json:"shipping_address_commercial"`
	Sponsored                          bool   `json:"sponsored"`
	AgreementStatus                    string `json:"agreement_status"`
	AgreementSignedAt                  string `json:"agreement_signed_at"`
	AgreementType                      string `json:"agreement_type"`
}

type Note struct {
	NoteID    string    `json:"note_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Order selects the sort direction of a note listing.
type Order string

const (
	OrderAsc  Order = "asc"  // oldest first
	OrderDesc Order = "desc" // newest first
)

// NoteQuery filters a note listing. Date, when set, matches notes created on
// that UTC calendar day. Limit <= 0 means no limit.
type NoteQuery struct {
	UserID string
	Date   *time.Time
	Limit  int
	Order  Order
}
