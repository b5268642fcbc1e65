package syncengine

import "testing"

func TestParseBookNumber(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{"1", 1},
		{"12a", 12},
		{"", 0},
		{"abc", 0},
	}
	for _, c := range cases {
		if got := parseBookNumber(c.in); got != c.want {
			t.Errorf("parseBookNumber(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestMapHadithsSkipsInvalidNumber(t *testing.T) {
	dtos := []hadithDTO{
		{HadithNumber: "1", TextArabic: "a", TextEnglish: "b", Grade: "sahih"},
		{HadithNumber: "", TextArabic: "x", TextEnglish: "y", Grade: "daif"},
	}
	hadiths, errs, err := mapHadiths("bukhari", 3, dtos)
	if err != nil {
		t.Fatalf("mapHadiths() error: %v", err)
	}
	if len(hadiths) != 1 || len(errs) != 1 {
		t.Fatalf("mapHadiths() = %d hadiths, %d errs; want 1, 1", len(hadiths), len(errs))
	}
	if hadiths[0].HadithNumber != 1 || hadiths[0].BookNumber != 3 || hadiths[0].CollectionSlug != "bukhari" {
		t.Errorf("hadiths[0] = %+v, unexpected", hadiths[0])
	}
}
