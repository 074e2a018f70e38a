package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSalary(t *testing.T) {
	tests := []struct {
		text    string
		wantMin float64
		wantTxt string
		wantOK  bool
	}{
		{"25-30 LPA", 25, "25-30 LPA", true},
		{"Salary: 20 - 25 Lakhs", 20, "20-25 LPA", true},
		{"INR 12-18 Lacs", 12, "12-18 LPA", true},
		{"Up to 40 LPA", 40, "Up to 40 LPA", true},
		{"Package 18 LPA fixed", 18, "18 LPA", true},
		{"Compensation: 2,000,000-2,500,000 per annum", 20, "20-25 LPA", true},
		{"25L - 30L CTC", 25, "25-30 LPA", true},
		{"$80K-$100K", 64, "64-80 LPA", true},
		{"Rs. 6,00,000 - 8,00,000 per annum", 6, "6-8 LPA", true},
		{"₹3,50,000 - ₹4,50,000", 3.5, "3.5-4.5 LPA", true},
		{"₹4,50,000", 4.5, "4.5 LPA", true},
		{"INR 12,00,000 CTC", 12, "12 LPA", true},
		{"₹5-8 L", 5, "5-8 LPA", true},
		{"50-70K/month", 6, "6-8.4 LPA", true},
		{"₹40K - 60K per month", 4.8, "4.8-7.2 LPA", true},
		{"₹ 25,000 - 35,000 per month", 3, "3-4.2 LPA", true},
		{"Rs. 30000 per month", 3.6, "3.6 LPA", true},
		{"Not mentioned", 0, "", false},
		{"Competitive", 0, "", false},
		{"", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseSalary(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.InDelta(t, tt.wantMin, got.MinLPA, 0.001)
				assert.Equal(t, tt.wantTxt, got.Text)
			}
		})
	}
}

func TestSalaryTable_Lookup(t *testing.T) {
	table := NewSalaryTable(nil)

	got, ok := table.Lookup("Amazon Web Services")
	assert.True(t, ok)
	assert.Equal(t, 28.0, got.LPA)

	got, ok = table.Lookup("EY GDS")
	assert.True(t, ok)
	assert.Equal(t, 9.0, got.LPA)

	_, ok = table.Lookup("Motorola Solutions")
	assert.False(t, ok, "substring of a word must not match")

	_, ok = table.Lookup("Tiny Startup")
	assert.False(t, ok)
}
