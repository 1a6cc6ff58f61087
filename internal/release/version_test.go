package release

import (
	"testing"

	"embedup/internal/platform/errors"
	"embedup/internal/testutil"
)

func TestParseRequest_ThreePart(t *testing.T) {
	v, exact, err := ParseRequest("1.65.0")
	testutil.AssertNoError(t, err, "three-part request should parse")
	testutil.AssertFalse(t, exact, "three-part request is a prefix, not exact")
	testutil.AssertEqual(t, v.Prefix(), "1.65.0", "prefix")
}

func TestParseRequest_FourPart(t *testing.T) {
	v, exact, err := ParseRequest("1.65.0.1")
	testutil.AssertNoError(t, err, "four-part request should parse")
	testutil.AssertTrue(t, exact, "four-part request is exact")
	testutil.AssertEqual(t, v.String(), "1.65.0.1", "full version")
}

func TestParseRequest_Invalid(t *testing.T) {
	cases := []string{"", "1", "1.65", "1.65.0.1.2", "v1.65.0", "1.65.x", "latest", "1..0"}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			_, _, err := ParseRequest(c)
			testutil.AssertError(t, err, "malformed request must be rejected")
			testutil.AssertTrue(t, errors.Is(err, errors.ErrInvalidVersion), "error kind")
		})
	}
}

func TestParseTag(t *testing.T) {
	v, ok := ParseTag("v1.65.0.1")
	testutil.AssertTrue(t, ok, "tag with v prefix")
	testutil.AssertEqual(t, v.String(), "1.65.0.1", "parsed tag")

	v, ok = ParseTag("1.64.0.0")
	testutil.AssertTrue(t, ok, "bare tag")
	testutil.AssertEqual(t, v.String(), "1.64.0.0", "parsed bare tag")

	_, ok = ParseTag("esp-2021r2-patch5")
	testutil.AssertFalse(t, ok, "non-version tags are skipped")
}

func TestVersion_SubpatchOrderIsNumeric(t *testing.T) {
	// "10" sorts above "9": comparison is numeric, not lexicographic.
	a := Version{Major: 1, Minor: 65, Patch: 0, Subpatch: 9}
	b := Version{Major: 1, Minor: 65, Patch: 0, Subpatch: 10}
	testutil.AssertTrue(t, less(a, b), "subpatch 9 < 10")
	testutil.AssertFalse(t, less(b, a), "subpatch 10 is not < 9")
}
