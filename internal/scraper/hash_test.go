package scraper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobmate/govjobs-service/internal/scraper"
)

func TestSourceHash_Deterministic(t *testing.T) {
	a := scraper.SourceHash("Junior Engineer", "SSC", "https://ssc.gov.in/notice/1")
	b := scraper.SourceHash("Junior Engineer", "SSC", "https://ssc.gov.in/notice/1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestSourceHash_IgnoresCosmeticDifferences(t *testing.T) {
	a := scraper.SourceHash("Junior Engineer (Civil)", "SSC", "HTTPS://SSC.gov.in/notice/1/#apply")
	b := scraper.SourceHash("  junior   engineer civil ", "ssc.", "https://ssc.gov.in/notice/1")
	assert.Equal(t, a, b)
}

func TestSourceHash_QueryIsSignificant(t *testing.T) {
	a := scraper.SourceHash("Clerk", "SBI", "https://sbi.co.in/careers?id=1")
	b := scraper.SourceHash("Clerk", "SBI", "https://sbi.co.in/careers?id=2")
	assert.NotEqual(t, a, b)
}

func TestSourceHash_FieldsDoNotBleed(t *testing.T) {
	a := scraper.SourceHash("Clerk SBI", "", "")
	b := scraper.SourceHash("Clerk", "SBI", "")
	assert.NotEqual(t, a, b)
}

func TestSourceHash_RelativeOrOpaqueLinks(t *testing.T) {
	assert.Equal(t,
		scraper.SourceHash("Clerk", "SBI", "Notice 42"),
		scraper.SourceHash("Clerk", "SBI", "notice 42"))
}
