package trend

import "testing"

func TestParseSkillProficiencies(t *testing.T) {
	tests := []struct {
		name   string
		skills string
		want   map[string]string
	}{
		{
			name:   "typical",
			skills: "Python(high), Go(mid), SQL(low)",
			want:   map[string]string{"python": "high", "go": "mid", "sql": "low"},
		},
		{
			name:   "entries without marker skipped",
			skills: "Python, Go(mid)",
			want:   map[string]string{"go": "mid"},
		},
		{
			name:   "whitespace tolerant",
			skills: "  Python ( high ) ,Go(mid)",
			want:   map[string]string{"python": "high", "go": "mid"},
		},
		{
			name:   "empty",
			skills: "",
			want:   map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSkillProficiencies(tt.skills)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s: got %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestScoreRoleFit(t *testing.T) {
	trendSkills := []TrendSkill{
		{Skill: "Python", TotalCount: 10},
		{Skill: "Go", TotalCount: 5},
		{Skill: "Rust", TotalCount: 3},
	}

	tests := []struct {
		name   string
		skills map[string]string
		want   float64
	}{
		{
			name:   "weighted sum",
			skills: map[string]string{"python": "high", "go": "low"},
			want:   10*1.8 + 5*1.0,
		},
		{
			name:   "mid weight",
			skills: map[string]string{"python": "mid"},
			want:   10 * 1.4,
		},
		{
			name:   "unknown proficiency weighs one",
			skills: map[string]string{"python": "expert"},
			want:   10.0,
		},
		{
			name:   "no overlap",
			skills: map[string]string{"cobol": "high"},
			want:   0,
		},
		{
			name:   "no skills",
			skills: map[string]string{},
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreRoleFit(tt.skills, trendSkills); got != tt.want {
				t.Errorf("ScoreRoleFit() = %v, want %v", got, tt.want)
			}
		})
	}
}
