package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readerboard/readerboard-server/internal/domain"
	domainerrors "github.com/readerboard/readerboard-server/internal/errors"
	"github.com/readerboard/readerboard-server/internal/validation"
)

type statusRequest struct {
	FID    int64  `json:"fid" validate:"required,gt=0"`
	Status string `json:"status" validate:"required,bookstatus"`
	Unit   string `json:"unit,omitempty" validate:"logunit"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(statusRequest{FID: 1, Status: "current", Unit: "pages"})
	assert.NoError(t, err)

	err = v.Validate(statusRequest{FID: 1, Status: "desired"})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       statusRequest
		wantField string
	}{
		{"missing fid", statusRequest{Status: "current"}, "fid"},
		{"unknown status", statusRequest{FID: 1, Status: "reading"}, "status"},
		{"unknown unit", statusRequest{FID: 1, Status: "current", Unit: "lines"}, "unit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Details, tt.wantField)
			assert.Contains(t, domainErr.Message, tt.wantField)
		})
	}
}

func TestValidator_DomainTypes(t *testing.T) {
	v := validation.New()

	bad := "not a url"
	err := v.Validate(domain.ProfileUpdate{FID: 42, PfpURL: &bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pfpUrl")

	assert.NoError(t, v.Validate(domain.ProfileUpdate{FID: 42}))
	assert.Error(t, v.Validate(domain.BookRef{Key: "/works/OL1W"}))
}

func TestValidator_BookKey(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(domain.BookRef{Key: "/works/OL45804W", Title: "Fox"}))

	err := v.Validate(domain.BookRef{Key: "/works/OL45804W/likes/99", Title: "Fox"})
	require.Error(t, err)
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Contains(t, domainErr.Details, "key")
}
