package datastore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/petasbytes/overview-agent/internal/records"
)

// DemoUsers own the seeded notes.
var DemoUsers = []string{
	"sumer.choudhary@bitcot.com",
	"kaushal.sethia.c@evolus.com",
}

const DemoAccountID = "A-011977763"

func seedFacility(id, name, status, signedAt string) records.Facility {
	return records.Facility{
		ID:                                 id,
		Name:                               name,
		Status:                             status,
		HasSignedMedicalLiabilityAgreement: true,
		MedicalLicenseID:                   "CA-G38840",
		MedicalLicenseState:                "CA",
		MedicalLicenseNumber:               "G38840",
		MedicalLicenseInvolvement:          "WORKS_AT_ACCOUNT",
		MedicalLicenseExpirationDate:       "2026-09-30T00:00:00.000+00:00",
		MedicalLicenseIsExpired:            false,
		MedicalLicenseStatus:               "Renewed & Current",
		MedicalLicenseOwnerFirstName:       "GAYLE",
		MedicalLicenseOwnerLastName:        "MISLE",
		AccountID:                          DemoAccountID,
		AccountName:                        "Dimod Account",
		AccountStatus:                      "ACTIVE",
		AccountHasSignedFinancialAgreement: true,
		AccountHasAcceptedJetTerms:         false,
		ShippingAddressLine1:               "15035 E 14TH ST",
		ShippingAddressLine2:               "",
		ShippingAddressCity:                "SAN LEANDRO",
		ShippingAddressState:               "CA",
		ShippingAddressZip:                 "94578",
		ShippingAddressCommercial:          true,
		Sponsored:                          false,
		AgreementStatus:                    "SIGNED",
		AgreementSignedAt:                  signedAt,
		AgreementType:                      "MEDICAL_LIABILITY",
	}
}

// SeedFacilities returns the demo facilities.
func SeedFacilities() []records.Facility {
	return []records.Facility{
		seedFacility("F-013203268", "TEST Delete Facility", "INACTIVE", "2025-04-24T05:22:40.173+00:00"),
		seedFacility("F-015766066", "Diamond Facility", "ACTIVE", "2025-02-18T04:51:09.920+00:00"),
	}
}

// SeedAccount returns the demo account.
func SeedAccount() records.Account {
	var summaries []records.FacilitySummary
	for _, f := range SeedFacilities() {
		summaries = append(summaries, records.FacilitySummary{ID: f.ID, Name: f.Name, Status: f.Status})
	}
	return records.Account{
		AccountID:                          DemoAccountID,
		Name:                               "Dimod Account",
		Status:                             "ACTIVE",
		IsTNA:                              false,
		CreatedAt:                          "2025-02-18T04:46:02.486+00:00",
		PricingModel:                       "ACCOUNT_LOYALTY",
		AddressLine1:                       "100 WYCLIFFE",
		AddressLine2:                       "",
		AddressCity:                        "IRVINE",
		AddressState:                       "CA",
		AddressPostalCode:                  "92602-1206",
		AddressCountry:                     "US",
		Facilities:                         summaries,
		TotalAmountDue:                     0,
		TotalAmountDueThisWeek:             0,
		InvoiceID:                          "",
		InvoiceAmount:                      0,
		InvoiceDueDate:                     "",
		CurrentBalance:                     0,
		PointsEarnedThisQuarter:            0,
		PendingBalance:                     50,
		CurrentTier:                        "Member",
		NextTier:                           "silver",
		PointsToNextTier:                   40,
		QuarterEndDate:                     "2025-09-30T23:59:59-07:00",
		FreeVialsAvailable:                 29,
		RewardsRequiredForNextFreeVial:     9,
		RewardsRedeemedTowardsNextFreeVial: 1,
		RewardsStatus:                      "OPTED_IN",
		RewardsUpdatedAt:                   "2025-04-25T13:40:50.176+00:00",
		EvoluxLevel:                        "LEVEL_0",
	}
}

type seedNote struct {
	content string
	at      func(now time.Time) time.Time
}

var seedNotes = []seedNote{
	{"Kickoff call summary: discussed account overview and next steps.", func(now time.Time) time.Time { return now.AddDate(0, 0, -5) }},
	{"Follow-up: pending balance and rewards status reviewed.", func(now time.Time) time.Time { return now.AddDate(0, 0, -2) }},
	{"Meeting 29/10/2025: confirmed free vials availability.", func(time.Time) time.Time {
		return time.Date(2025, time.October, 29, 10, 0, 0, 0, time.UTC)
	}},
}

// Seed loads the demo account, facilities and notes. Records are upserted;
// notes are only added for demo users that have none, so Seed is safe to run
// on every start.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	if err := s.PutAccount(ctx, SeedAccount()); err != nil {
		return fmt.Errorf("seeding account: %w", err)
	}
	for _, f := range SeedFacilities() {
		if err := s.PutFacility(ctx, f); err != nil {
			return fmt.Errorf("seeding facility %s: %w", f.ID, err)
		}
	}

	now := s.now().UTC()
	for _, user := range DemoUsers {
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE user_id = ?`, user).Scan(&count); err != nil {
			return fmt.Errorf("checking notes for %s: %w", user, err)
		}
		if count > 0 {
			continue
		}
		for _, n := range seedNotes {
			if _, err := s.insertNote(ctx, user, n.content, n.at(now)); err != nil {
				return fmt.Errorf("seeding note for %s: %w", user, err)
			}
		}
	}

	s.logger.Info("datastore seeded",
		zap.String("account_id", DemoAccountID),
		zap.Int("users", len(DemoUsers)),
	)
	return nil
}
