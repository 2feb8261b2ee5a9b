package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReportRequestValidate(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 14)

	tests := []struct {
		name    string
		req     GenerateReportRequest
		wantErr string
	}{
		{
			name: "valid",
			req:  GenerateReportRequest{Keywords: []string{"HVDC"}, FromDate: from, ToDate: to},
		},
		{
			name:    "no keywords",
			req:     GenerateReportRequest{FromDate: from, ToDate: to},
			wantErr: "keywords",
		},
		{
			name:    "only blank keywords",
			req:     GenerateReportRequest{Keywords: []string{" ", ""}, FromDate: from, ToDate: to},
			wantErr: "keywords",
		},
		{
			name:    "missing dates",
			req:     GenerateReportRequest{Keywords: []string{"HVDC"}},
			wantErr: "from_date",
		},
		{
			name:    "from equals to",
			req:     GenerateReportRequest{Keywords: []string{"HVDC"}, FromDate: from, ToDate: from},
			wantErr: "from_date",
		},
		{
			name:    "from after to",
			req:     GenerateReportRequest{Keywords: []string{"HVDC"}, FromDate: to, ToDate: from},
			wantErr: "from_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerateReportRequestDefaults(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	req := GenerateReportRequest{
		Keywords: []string{" grid storage ", "", "HVDC"},
		FromDate: from,
		ToDate:   from.AddDate(0, 0, 7),
	}
	require.NoError(t, req.Validate())

	assert.Equal(t, []string{"grid storage", "HVDC"}, req.Keywords)
	assert.Equal(t, "Keyword report: grid storage, HVDC", req.Title)
	assert.Equal(t, "api", req.GeneratedBy)
}
