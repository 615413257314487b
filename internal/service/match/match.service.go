package match

import (
	"context"
	"fmt"
	"strings"

	"go-checkout/internal/common/models"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/helper"
	"go-checkout/internal/repository"

	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"
)

// IService reconciles submitted contact info against existing backend accounts.
type IService interface {
	Resolve(contact *types.ContactInfo) ([]types.CandidateAccount, error)
	FillCandidateGaps(candidates []types.CandidateAccount, contact *types.ContactInfo) []types.CandidateAccount
}

type Service struct {
	ctx                context.Context
	rp                 repository.IRepository
	defaultCountryCode string
}

func NewService(ctx context.Context, rp repository.IRepository, defaultCountryCode string) IService {
	return &Service{
		ctx:                ctx,
		rp:                 rp,
		defaultCountryCode: defaultCountryCode,
	}
}

// Resolve looks up accounts matching the submitted contact info. The caller has
// already validated email and phone syntax. Zero candidates is a valid result and is
// distinct from a lookup failure: only transport or backend errors return a non-nil
// error, and the error never masquerades as an empty list.
func (s *Service) Resolve(contact *types.ContactInfo) ([]types.CandidateAccount, error) {
	phone := helper.NormalizePhone(contact.MobileNumber, s.defaultCountryCode)

	accounts, err := s.rp.Account.Search(
		s.ctx,
		strings.TrimSpace(contact.Email),
		phone,
		normalizeName(contact.FirstName),
		normalizeName(contact.LastName),
	)
	if err != nil {
		return nil, fmt.Errorf("account search failed: %w", err)
	}

	candidates := lo.Map(accounts, func(a models.Account, _ int) types.CandidateAccount {
		return types.CandidateAccount{
			AccountID:        a.ID,
			FirstName:        lo.FromPtr(a.FirstName),
			LastName:         lo.FromPtr(a.LastName),
			OrganizationName: lo.FromPtr(a.OrganizationName),
			Email:            lo.FromPtr(a.Email),
			MobileNumber:     lo.FromPtr(a.MobileNumber),
		}
	})

	return candidates, nil
}

// FillCandidateGaps substitutes the user's own input for fields absent on a
// candidate, per candidate. A value from one candidate is never copied into another.
func (s *Service) FillCandidateGaps(candidates []types.CandidateAccount, contact *types.ContactInfo) []types.CandidateAccount {
	filled := make([]types.CandidateAccount, len(candidates))
	for i, c := range candidates {
		if c.FirstName == "" {
			c.FirstName = contact.FirstName
		}
		if c.LastName == "" {
			c.LastName = contact.LastName
		}
		if c.OrganizationName == "" {
			c.OrganizationName = contact.OrganizationName
		}
		if c.Email == "" {
			c.Email = contact.Email
		}
		if c.MobileNumber == "" {
			c.MobileNumber = contact.MobileNumber
		}
		filled[i] = c
	}
	return filled
}

// normalizeName folds composed and decomposed unicode forms so accented names match
// regardless of how the form encoded them.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
