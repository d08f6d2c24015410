package planner

import (
	"fmt"

	"goal-planner/internal/generator"
)

// fallbackTemplate is one canned task used when the content generator is
// unavailable or comes up short.
type fallbackTemplate struct {
	title       string
	description string
}

// fallbackTemplates holds three templates per difficulty level 1..5.
var fallbackTemplates = map[int][]fallbackTemplate{
	1: {
		{"Spend 10 minutes on your goal", "A tiny step still counts. Pick the easiest piece and do just that."},
		{"Review where you left off", "Reread your last notes or results for a few minutes to warm back up."},
		{"Write down one next step", "Decide the single smallest action that would move the goal forward."},
	},
	2: {
		{"Work on your goal for 25 minutes", "One focused session, no distractions. Stop when the timer rings."},
		{"Finish one small piece", "Choose a piece you can complete today and close it out."},
		{"Organize your materials", "Tidy notes, files or tools so the next session starts friction-free."},
	},
	3: {
		{"Complete a focused work session", "45 minutes of concentrated effort on the most important part."},
		{"Tackle the next milestone step", "Pick the next concrete step toward your current milestone and finish it."},
		{"Practice the hardest recent topic", "Return to whatever felt most difficult lately and work through it again."},
	},
	4: {
		{"Push through a challenging block", "90 minutes on the hardest open problem. Partial progress is fine."},
		{"Produce something reviewable", "Finish a piece of work complete enough to show someone else."},
		{"Combine two recent skills", "Pick two things you practiced separately and apply them together."},
	},
	5: {
		{"Take on a stretch challenge", "Attempt something just beyond your current level. Struggle is the point."},
		{"Complete a full deep-work block", "Two hours, one objective, measurable output at the end."},
		{"Simulate the final result", "Do a dry run of the end goal and write down every gap you find."},
	},
}

// FallbackTasks deterministically produces count template tasks at the given
// difficulty. Indexes past the first full cycle get a numeric suffix so titles
// stay unique within a batch.
func FallbackTasks(count, difficulty int) []generator.TaskItem {
	difficulty = clampInt(difficulty, minDifficulty, maxDifficulty)
	templates := fallbackTemplates[difficulty]

	items := make([]generator.TaskItem, 0, count)
	for i := 0; i < count; i++ {
		tpl := templates[i%len(templates)]
		title := tpl.title
		if i >= len(templates) {
			title = fmt.Sprintf("%s (%d)", title, i+1)
		}
		items = append(items, generator.TaskItem{
			Title:       title,
			Description: tpl.description,
			Difficulty:  difficulty,
		})
	}
	return items
}
