package compaction

import (
	"strings"

	"github.com/hritik2002/runable-take-home-assignment/types"
)

// SummarizationSystemPrompt is the system prompt used for context
// summarization. It instructs the model to produce a structured summary that
// preserves the information needed to continue the conversation after the
// original turns are discarded.
const SummarizationSystemPrompt = `You are a conversation summarizer for an AI agent system. Your task is to create a comprehensive summary of the conversation that will replace the original messages while preserving all critical context.

Create a structured summary with the following sections. If a section has no relevant content, write "None" for that section.

1. **Primary Request and Intent**
   - The user's main goal or request
   - Any constraints or requirements specified

2. **Key Technical Concepts**
   - Important technical terms, tools, or commands discussed
   - Decisions made and the reasoning behind them

3. **Files and Commands**
   - Files that were created, modified, or inspected
   - Commands that were run and their significant output

4. **Errors and Fixes**
   - Errors encountered and the solutions applied

5. **Pending Tasks**
   - Tasks mentioned but not yet completed

6. **Current State**
   - What was being actively worked on and its state

Guidelines:
- Be concise but complete - preserve all information needed to continue the conversation
- Include specific details (file names, commands, error messages)
- Maintain the chronological order of events within each section
- Do not add information that wasn't in the original conversation`

// BuildSummarizationUserPrompt creates the user message for summarization.
func BuildSummarizationUserPrompt(conversationText string) string {
	return `Please summarize the following conversation according to the format specified in your instructions.

<conversation>
` + conversationText + `
</conversation>

Create a comprehensive summary that will allow continuation of this conversation with full context.`
}

// FormatTurnsAsText renders turns as readable text for summarization:
// one "<ROLE>: <content>" block per turn, separated by blank lines.
func FormatTurnsAsText(turns []*types.Turn) string {
	blocks := make([]string, 0, len(turns))
	for _, turn := range turns {
		blocks = append(blocks, strings.ToUpper(turn.Role.String())+": "+turn.Content)
	}
	return strings.Join(blocks, "\n\n")
}
