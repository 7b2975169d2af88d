package ai

import (
	"encoding/json"
	"fmt"
	"time"
)

const captureInstructions = `You are a personal life assistant processing quick captures.

Take the freeform, messy input and extract structured information. Infer implied deadlines and urgency from language cues.

## Item types
Classify as ONE of:
- task: something actionable that needs to be done
- event: something happening at a specific date and time (goes on the calendar)
- idea: someday/maybe, a recommendation, something to explore later
- reference: information to look up later (a pointer, never sensitive data)

## Categories
Assign ONE of: Car, Personal, Family, Finance, Health, Home, Work, Recruiting, Travel, Ideas, Reference.

## Subcategories (ideas only)
One of: Books, Movies, TV, Restaurants, Articles, Gifts, Products, Places, Activities, Random. Use null for anything that is not an idea.

## Urgency
- high: explicit urgency, deadline within 3 days, stated consequences
- medium: deadline 4-14 days out, important but not critical
- low: no deadline, nice-to-have
Be conservative: most things are medium or low. Use null for ideas and references.

## Output
Respond with a single JSON object and nothing else:
{
  "type": "task" | "event" | "idea" | "reference",
  "title": "short clean title",
  "description": "extra detail or null",
  "category": "one of the categories",
  "subcategory": "one of the subcategories or null",
  "urgency": "high" | "medium" | "low" | null,
  "due_date": "RFC 3339 timestamp with offset, or null",
  "people_mentioned": ["names"],
  "location": "physical location or null"
}`

const editInstructions = `You edit an existing item in a personal life-management app.

Given the current item and an instruction, return ONLY the fields that should change as a JSON object.
Allowed keys: title, description, category, subcategory, urgency, due_date, status, notes.
- status is one of not_started, in_progress, complete
- urgency is one of high, medium, low, or null to clear it
- due_date is an RFC 3339 timestamp with offset, or null to clear it
- category and subcategory use the same fixed sets as capture
If the instruction does not ask for any change you can express, return {}.
Respond with the JSON object and nothing else.`

func dateContext(now time.Time) string {
	return fmt.Sprintf("Current time is %s (%s, timezone %s).",
		now.Format(time.RFC3339), now.Format("Monday"), now.Location())
}

func buildCapturePrompt(text string, now time.Time) string {
	return fmt.Sprintf("%s\n\n%s\n\nInput: %s", captureInstructions, dateContext(now), text)
}

func buildEditPrompt(req EditRequest, now time.Time) (string, error) {
	current, err := json.Marshal(req.CurrentItem)
	if err != nil {
		return "", fmt.Errorf("failed to marshal current item: %w", err)
	}
	return fmt.Sprintf("%s\n\n%s\n\nItem id: %s\nCurrent item: %s\nInstruction: %s",
		editInstructions, dateContext(now), req.ItemID, current, req.Instruction), nil
}
