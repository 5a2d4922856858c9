package openai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"shadowpixel-backend/internal/github"
)

const (
	systemPrompt = "You are a professional resume analyzer. Write concise, specific candidate summaries for technical recruiters."

	// Resume text beyond this length adds cost without improving the summary.
	maxResumeChars = 3000
	maxRepoDigest  = 10
)

// Message is a single chat message sent to the provider.
type Message struct {
	Role    string
	Content string
}

// BuildSummaryPrompt assembles the chat messages for a candidate summary.
func BuildSummaryPrompt(resumeText string, gh github.UserSummary) []Message {
	var b strings.Builder

	b.WriteString("Summarize this candidate in 3-5 sentences, covering their strongest skills, experience level, and open-source activity.\n\n")

	b.WriteString("## Resume\n")
	b.WriteString(truncate(resumeText, maxResumeChars))
	b.WriteString("\n\n")

	b.WriteString("## GitHub Profile\n")
	writeProfile(&b, gh.Profile)

	if len(gh.Repositories) > 0 {
		b.WriteString("\n## Recent Repositories\n")
		writeRepos(&b, gh.Repositories)
	}

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}
}

func writeProfile(b *strings.Builder, p github.Profile) {
	fmt.Fprintf(b, "Login: %s\n", p.Login)
	if p.Name != "" {
		fmt.Fprintf(b, "Name: %s\n", p.Name)
	}
	if p.Bio != "" {
		fmt.Fprintf(b, "Bio: %s\n", p.Bio)
	}
	if p.Company != "" {
		fmt.Fprintf(b, "Company: %s\n", p.Company)
	}
	if p.Location != "" {
		fmt.Fprintf(b, "Location: %s\n", p.Location)
	}
	fmt.Fprintf(b, "Public repos: %d, Followers: %d\n", p.PublicRepos, p.Followers)
}

func writeRepos(b *strings.Builder, repos []github.Repository) {
	limit := len(repos)
	if limit > maxRepoDigest {
		limit = maxRepoDigest
	}
	for _, repo := range repos[:limit] {
		fmt.Fprintf(b, "- %s", repo.Name)
		if repo.Language != "" {
			fmt.Fprintf(b, " (%s)", repo.Language)
		}
		if repo.Stars > 0 {
			fmt.Fprintf(b, " ★%d", repo.Stars)
		}
		if repo.Description != "" {
			fmt.Fprintf(b, ": %s", truncate(repo.Description, 120))
		}
		b.WriteString("\n")
	}
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
