package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/petasbytes/overview-agent/internal/apperr"
	"github.com/petasbytes/overview-agent/internal/datastore"
)

const (
	FetchAccountName  = "fetch_account_details"
	FetchFacilityName = "fetch_facility_details"
)

type FetchAccountInput struct {
	AccountID string `json:"account_id" jsonschema_description:"The account ID to fetch details for (e.g. A-011977763)."`
}

type FetchFacilityInput struct {
	FacilityID string `json:"facility_id" jsonschema_description:"The facility ID to fetch details for (e.g. F-015766066)."`
}

// FetchAccountDefinition looks up one account record.
func FetchAccountDefinition(store datastore.Store) ToolDefinition {
	return define(FetchAccountName,
		"Retrieve account information including status, facilities, balance and rewards.",
		func(in *FetchAccountInput) error {
			in.AccountID = strings.TrimSpace(in.AccountID)
			if in.AccountID == "" {
				return apperr.InvalidInput("account_id is required")
			}
			return nil
		},
		func(ctx context.Context, in FetchAccountInput) (any, error) {
			acct, err := store.GetAccount(ctx, in.AccountID)
			if errors.Is(err, datastore.ErrNotFound) {
				return nil, apperr.NotFound("account %s not found", in.AccountID)
			}
			if err != nil {
				return nil, err
			}
			return acct, nil
		},
	)
}

// FetchFacilityDefinition looks up one facility record.
func FetchFacilityDefinition(store datastore.Store) ToolDefinition {
	return define(FetchFacilityName,
		"Retrieve facility information including medical licenses, agreements and status.",
		func(in *FetchFacilityInput) error {
			in.FacilityID = strings.TrimSpace(in.FacilityID)
			if in.FacilityID == "" {
				return apperr.InvalidInput("facility_id is required")
			}
			return nil
		},
		func(ctx context.Context, in FetchFacilityInput) (any, error) {
			fac, err := store.GetFacility(ctx, in.FacilityID)
			if errors.Is(err, datastore.ErrNotFound) {
				return nil, apperr.NotFound("facility %s not found", in.FacilityID)
			}
			if err != nil {
				return nil, err
			}
			return fac, nil
		},
	)
}
