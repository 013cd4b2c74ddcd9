package customers_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/sprinkler-crm/customers"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

func validRecord() map[string]any {
	return map[string]any{
		"first_name": "Jo",
		"last_name":  "Doe",
		"phone":      "5551234567",
		"address":    "1 Elm Street NW",
	}
}

func TestValidateCustomerData(t *testing.T) {
	tests := []struct {
		name   string
		modify func(map[string]any)
		want   []string
	}{
		{
			name:   "valid without coordinates",
			modify: func(map[string]any) {},
		},
		{
			name: "valid with numeric string coordinates",
			modify: func(r map[string]any) {
				r["latitude"] = "45.5"
				r["longitude"] = "-122.6"
			},
		},
		{
			name: "boundary coordinates",
			modify: func(r map[string]any) {
				r["latitude"] = -90.0
				r["longitude"] = 180
			},
		},
		{
			name: "blank coordinates are absent",
			modify: func(r map[string]any) {
				r["latitude"] = ""
				r["longitude"] = nil
			},
		},
		{
			name:   "single character first name",
			modify: func(r map[string]any) { r["first_name"] = "A" },
			want:   []string{"First name is required and must be at least 2 characters"},
		},
		{
			name:   "latitude out of range",
			modify: func(r map[string]any) { r["latitude"] = 95 },
			want:   []string{"Latitude must be a number between -90 and 90"},
		},
		{
			name:   "longitude not a number",
			modify: func(r map[string]any) { r["longitude"] = "east" },
			want:   []string{"Longitude must be a number between -180 and 180"},
		},
		{
			name:   "whitespace padded address is trimmed",
			modify: func(r map[string]any) { r["address"] = "   1 Elm   " },
			want:   []string{"Address is required and must be at least 10 characters"},
		},
		{
			name:   "non string phone",
			modify: func(r map[string]any) { r["phone"] = 5551234567 },
			want:   []string{"Phone number is required and must be at least 10 characters"},
		},
		{
			name: "everything missing",
			modify: func(r map[string]any) {
				for k := range r {
					delete(r, k)
				}
				r["latitude"] = 91
				r["longitude"] = -181
			},
			want: []string{
				"First name is required and must be at least 2 characters",
				"Last name is required and must be at least 2 characters",
				"Phone number is required and must be at least 10 characters",
				"Address is required and must be at least 10 characters",
				"Latitude must be a number between -90 and 90",
				"Longitude must be a number between -180 and 180",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.modify(rec)

			res := customers.ValidateCustomerData(rec)

			require.Equal(t, len(tt.want) == 0, res.IsValid)
			if diff := cmp.Diff(tt.want, res.Errors); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateCustomerData_ShortFirstName(t *testing.T) {
	res := customers.ValidateCustomerData(map[string]any{
		"first_name": "A",
		"last_name":  "Smith",
		"phone":      "1234567890",
		"address":    "123 Main Street",
	})

	require.False(t, res.IsValid)
	require.Equal(t, []string{"First name is required and must be at least 2 characters"}, res.Errors)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, res.Err(), &verr)
	require.Equal(t, res.Errors, verr.Problems)
}

func TestValidationResult_ErrNilWhenValid(t *testing.T) {
	require.NoError(t, customers.ValidateCustomerData(validRecord()).Err())
}
