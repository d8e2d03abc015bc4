package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"simple", "https://example.com/privacy", "example.com"},
		{"subdomain", "https://www.shop.example.com/terms", "example.com"},
		{"multi-part suffix", "https://news.example.co.uk/legal", "example.co.uk"},
		{"port stripped", "https://example.com:8443/policy", "example.com"},
		{"uppercase host", "https://EXAMPLE.COM/", "example.com"},
		{"no host", "not-a-url", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RegistrableDomain(tt.url))
		})
	}
}

func TestEmptyAnalysis(t *testing.T) {
	a := EmptyAnalysis()
	assert.Equal(t, "L0_OPEN_ACCESS", a.AccessLevel.Level)
	assert.NotNil(t, a.CopyrightClauses)
	assert.Empty(t, a.CopyrightClauses)
	assert.NotNil(t, a.TechnicalProtectionMeasures)
	assert.NotNil(t, a.LiabilityClauses)
	assert.NotNil(t, a.JurisdictionClauses)
	assert.NotNil(t, a.DataLicensing)
}

func TestAnalysisRowKey(t *testing.T) {
	row := AnalysisRow{URL: "https://example.com/legal", ArchiveFile: "seg-00000_legal.warc.gz"}
	url, file := row.Key()
	assert.Equal(t, "https://example.com/legal", url)
	assert.Equal(t, "seg-00000_legal.warc.gz", file)
}
