package trend

import (
	"strings"
	"testing"
	"time"
)

func TestExtractSkillTokens(t *testing.T) {
	tests := []struct {
		name     string
		category FieldCategory
		value    string
		want     []string
	}{
		{
			name:     "tech stack comma",
			category: CategoryTechStack,
			value:    "Python, Go, SQL",
			want:     []string{"Python", "Go", "SQL"},
		},
		{
			name:     "tech stack mixed delimiters",
			category: CategoryTechStack,
			value:    "Python; Go/SQL",
			want:     []string{"Python", "Go", "SQL"},
		},
		{
			name:     "tech stack empty segments dropped",
			category: CategoryTechStack,
			value:    "Python,, , Go",
			want:     []string{"Python", "Go"},
		},
		{
			name:     "json list",
			category: CategoryRequiredSkills,
			value:    `["Python", "Docker"]`,
			want:     []string{"Python", "Docker"},
		},
		{
			name:     "json list with null and blanks",
			category: CategoryPreferredSkills,
			value:    `["Python", null, "  ", "Docker"]`,
			want:     []string{"Python", "Docker"},
		},
		{
			name:     "malformed json falls back to delimiters",
			category: CategoryMainTasksSkills,
			value:    "Python, Docker",
			want:     []string{"Python", "Docker"},
		},
		{
			name:     "empty value",
			category: CategoryTechStack,
			value:    "   ",
			want:     nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSkillTokens(tt.category, tt.value)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCapSkillToken(t *testing.T) {
	t.Run("short token untouched", func(t *testing.T) {
		if got := capSkillToken("Python"); got != "Python" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("exactly 500 untouched", func(t *testing.T) {
		s := strings.Repeat("a", 500)
		if got := capSkillToken(s); got != s {
			t.Error("500-rune token should pass through")
		}
	})

	t.Run("long token capped with ellipsis", func(t *testing.T) {
		got := capSkillToken(strings.Repeat("a", 600))
		if len([]rune(got)) != 500 {
			t.Fatalf("capped length = %d, want 500", len([]rune(got)))
		}
		if !strings.HasSuffix(got, "...") {
			t.Errorf("missing ellipsis: %q", got[490:])
		}
	})

	t.Run("multibyte runes", func(t *testing.T) {
		got := capSkillToken(strings.Repeat("데", 600))
		if n := len([]rune(got)); n != 500 {
			t.Errorf("capped rune length = %d, want 500", n)
		}
	})
}

func TestBuildStats(t *testing.T) {
	date := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC) // ISO week 34

	postings := []JobPosting{
		{TechStack: "Python, Go"},
		{TechStack: "Python, SQL"},
	}

	stats := BuildStats(1, CategoryTechStack, date, postings)
	if len(stats) != 3 {
		t.Fatalf("got %d stats, want 3", len(stats))
	}

	// Python count 2 first; Go and SQL tie at 1, alphabetical.
	wantOrder := []struct {
		skill string
		count int
	}{
		{"Python", 2},
		{"Go", 1},
		{"SQL", 1},
	}
	for i, w := range wantOrder {
		if stats[i].Skill != w.skill || stats[i].Count != w.count {
			t.Errorf("row %d: got (%q, %d), want (%q, %d)",
				i, stats[i].Skill, stats[i].Count, w.skill, w.count)
		}
	}

	for _, s := range stats {
		if s.Week != 34 {
			t.Errorf("week = %d, want 34", s.Week)
		}
		if !s.Date.Equal(date) {
			t.Errorf("date = %v, want %v", s.Date, date)
		}
	}
}

func TestBuildStatsTopKBound(t *testing.T) {
	date := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)

	// 60 distinct skills, one posting each.
	postings := make([]JobPosting, 60)
	for i := range postings {
		postings[i].TechStack = "skill" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}

	stats := BuildStats(1, CategoryTechStack, date, postings)
	if len(stats) > TopSkillsPerKey {
		t.Errorf("got %d rows, want at most %d", len(stats), TopSkillsPerKey)
	}
}

func TestBuildStatsDeterministic(t *testing.T) {
	date := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)
	postings := []JobPosting{
		{TechStack: "Go, Python, SQL"},
		{TechStack: "Python"},
	}

	a := BuildStats(1, CategoryTechStack, date, postings)
	b := BuildStats(1, CategoryTechStack, date, postings)
	if len(a) != len(b) {
		t.Fatal("two runs differ in length")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("row %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestBuildStatsZeroPostings(t *testing.T) {
	date := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)
	if stats := BuildStats(1, CategoryTechStack, date, nil); len(stats) != 0 {
		t.Errorf("got %d rows for zero postings, want 0", len(stats))
	}
}

func TestParseFieldCategory(t *testing.T) {
	for _, c := range AllCategories {
		if _, err := ParseFieldCategory(string(c)); err != nil {
			t.Errorf("%s rejected: %v", c, err)
		}
	}
	if _, err := ParseFieldCategory("salary"); err == nil {
		t.Error("unknown category accepted")
	}
}

func TestCivilDateStampsLocalDay(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	prev := StatsLocation()
	SetStatsLocation(seoul)
	defer SetStatsLocation(prev)

	// Monday 08:00 KST is Sunday 23:00 UTC: the batch instant and a reader
	// later the same local day must resolve the same row key.
	batch := time.Date(2025, 8, 18, 8, 0, 0, 0, seoul)
	reader := time.Date(2025, 8, 18, 20, 0, 0, 0, seoul)

	want := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)
	if got := CivilDate(batch); !got.Equal(want) {
		t.Errorf("batch date = %v, want %v", got, want)
	}
	if got := CivilDate(reader); !got.Equal(CivilDate(batch)) {
		t.Errorf("reader resolves %v, batch stamped %v", got, CivilDate(batch))
	}

	// Week stamped from the civil date is the local ISO week (34), not the
	// week of the batch instant's UTC day (33, still Sunday in UTC).
	stats := BuildStats(1, CategoryTechStack, CivilDate(batch), []JobPosting{{TechStack: "Go"}})
	if len(stats) != 1 || stats[0].Week != 34 {
		t.Fatalf("stats = %+v, want single row in week 34", stats)
	}
	_, readerWeek := reader.ISOWeek()
	if stats[0].Week != readerWeek {
		t.Errorf("stored week %d, same-day reader defaults to week %d", stats[0].Week, readerWeek)
	}
}
