package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var refPattern = regexp.MustCompile(`^D3D-\d{4}-\d{4}-[A-Z0-9]{6}$`)

func TestMakeRefFormat(t *testing.T) {
	now := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	ref := MakeRef(now)

	assert.Regexp(t, refPattern, ref)
	assert.Equal(t, "D3D-2024-0517-", ref[:14])
}

func TestMakeRefUsesUTCDate(t *testing.T) {
	// 23:30 UTC-5 on May 18 is already May 19 in UTC
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2024, 5, 18, 23, 30, 0, 0, loc)

	ref := MakeRef(now)
	assert.Equal(t, "D3D-2024-0519-", ref[:14])
}

func TestMakeRefTokensDiffer(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[MakeRef(now)] = true
	}
	assert.Greater(t, len(seen), 1, "expected random tokens to differ")
}
