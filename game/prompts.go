package game

import (
	"fmt"

	"github.com/codebyksp/mafAI/domain"
)

// gamePrompts is the fixed playlist, one entry per round.
var gamePrompts = [domain.TotalRounds]string{
	"What's the most embarrassing thing that happened to you in school?",
	"If you could have dinner with anyone, living or dead, who would it be and why?",
	"What's a skill you wish you had?",
}

// fallbackAnswers are written for the AI when the responder fails outright,
// indexed by round.
var fallbackAnswers = [domain.TotalRounds]string{
	"honestly, probably just hanging out with my friends",
	"idk maybe pizza lol, i know thats basic",
	"probably when i tripped in the hallway in front of everyone",
}

const genericFallbackAnswer = "not sure tbh"

func promptForRound(round int) string {
	return gamePrompts[round-1]
}

func fallbackForRound(round int) string {
	if round < 1 || round > domain.TotalRounds {
		return genericFallbackAnswer
	}
	return fallbackAnswers[round-1]
}

// personaPrompt wraps the round prompt in the persona instruction that keeps
// the responder's answers short, casual and human-sounding.
func personaPrompt(prompt string) string {
	return fmt.Sprintf(`You are playing a party game where you must pretend to be a human player.
Your goal is to blend in and NOT be detected as AI.

CRITICAL INSTRUCTIONS:
- Answer like a casual human friend would
- Keep it SHORT (1-2 sentences max)
- Use conversational language: "lol", "honestly", "idk", "probably"
- Be specific but imperfect
- Minor grammar mistakes are OK
- Show personality and emotion
- Avoid being too formal

Prompt: %s

Your casual human answer:`, prompt)
}
