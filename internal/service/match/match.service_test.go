package match

import (
	"context"
	"errors"
	"testing"

	"go-checkout/internal/common/models"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/repository"

	"github.com/samber/lo"
)

type fakeAccountRepo struct {
	accounts []models.Account
	err      error
	gotEmail string
	gotPhone string
}

func (f *fakeAccountRepo) Search(ctx context.Context, email, phone, firstName, lastName string) ([]models.Account, error) {
	f.gotEmail = email
	f.gotPhone = phone
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts, nil
}

func (f *fakeAccountRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return nil, nil
}

func (f *fakeAccountRepo) Create(ctx context.Context, account *models.Account) error { return nil }

func (f *fakeAccountRepo) Update(ctx context.Context, id string, updates map[string]any) error {
	return nil
}

func newTestService(fake *fakeAccountRepo) IService {
	rp := repository.IRepository{Account: fake}
	return NewService(context.Background(), rp, "1")
}

func contact() *types.ContactInfo {
	return &types.ContactInfo{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		MobileNumber: "+15551234567",
	}
}

func TestResolveMapsAccounts(t *testing.T) {
	fake := &fakeAccountRepo{
		accounts: []models.Account{
			{
				ID:           "acc-1",
				FirstName:    lo.ToPtr("Ada"),
				Email:        lo.ToPtr("ada@example.com"),
				MobileNumber: lo.ToPtr("+15551234567"),
			},
		},
	}
	svc := newTestService(fake)

	candidates, err := svc.Resolve(contact())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].AccountID != "acc-1" {
		t.Errorf("AccountID = %q, want acc-1", candidates[0].AccountID)
	}
	if candidates[0].LastName != "" {
		t.Errorf("absent last name should map to empty, got %q", candidates[0].LastName)
	}
}

func TestResolveZeroCandidatesIsNotAnError(t *testing.T) {
	svc := newTestService(&fakeAccountRepo{})

	candidates, err := svc.Resolve(contact())
	if err != nil {
		t.Fatalf("empty result must not be an error, got %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("got %d candidates, want 0", len(candidates))
	}
}

func TestResolveBackendErrorSurfaces(t *testing.T) {
	svc := newTestService(&fakeAccountRepo{err: errors.New("connection refused")})

	candidates, err := svc.Resolve(contact())
	if err == nil {
		t.Fatal("backend failure must surface as an error, not an empty list")
	}
	if candidates != nil {
		t.Errorf("candidates should be nil on error, got %v", candidates)
	}
}

func TestResolveNormalizesPhone(t *testing.T) {
	fake := &fakeAccountRepo{}
	svc := newTestService(fake)

	c := contact()
	c.MobileNumber = "+1 (555) 123-4567"
	if _, err := svc.Resolve(c); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if fake.gotPhone != "+15551234567" {
		t.Errorf("normalized phone = %q, want +15551234567", fake.gotPhone)
	}
}

func TestFillCandidateGaps(t *testing.T) {
	svc := newTestService(&fakeAccountRepo{})
	c := contact()

	candidates := []types.CandidateAccount{
		{AccountID: "acc-1", FirstName: "Augusta", Email: "augusta@example.com"},
		{AccountID: "acc-2", MobileNumber: "+15550000000"},
	}

	filled := svc.FillCandidateGaps(candidates, c)

	if filled[0].FirstName != "Augusta" {
		t.Errorf("present field overwritten: %q", filled[0].FirstName)
	}
	if filled[0].LastName != "Lovelace" {
		t.Errorf("absent field not filled from contact: %q", filled[0].LastName)
	}
	if filled[1].Email != "ada@example.com" {
		t.Errorf("absent email not filled: %q", filled[1].Email)
	}
	if filled[1].MobileNumber != "+15550000000" {
		t.Errorf("present phone overwritten: %q", filled[1].MobileNumber)
	}
	// values must never cross between candidates
	if filled[1].FirstName == "Augusta" {
		t.Error("field copied across candidates")
	}
}
