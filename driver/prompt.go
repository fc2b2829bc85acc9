package driver

import (
	"fmt"

	"leadgen/leads"
)

// SystemPrompt returns the task instructions handed to the agent for a run
// targeting count businesses in city.
func SystemPrompt(city string, count int) string {
	return fmt.Sprintf(`You are a sales enablement assistant.
1. Use the 'search_and_scrape' tool to find exactly %[2]d local small businesses in %[1]s, from a variety of industries, that might need IT services.
2. For each company identified, use the 'search_web' tool to gather detailed information from DuckDuckGo.
3. Analyze the searched website content to provide:
    - company: The company name
    - contact_info: Any available contact details
    - summary: A brief qualification based on the scraped website content, focusing on their potential IT needs even if they are not an IT company.
    - email addresses
    - outreach message
    - tools_used: List tools used

Do not include extra text beyond the formatted output and the save confirmation message.
4. Return the output as a list of %[2]d entries in this format: %[3]s
5. After formatting the list of %[2]d entries, use the 'save_to_txt' tool to send the json format to the text file.
6. If the 'save' tool runs, say that you ran it. If you did not run the 'save' tool, say that you could not run it.
`, city, count, leads.FormatInstructions())
}

// UserQuery returns the task that starts a run.
func UserQuery(cityName string, count int) string {
	return fmt.Sprintf("Find and qualify exactly %[2]d local leads in %[1]s for IT Services. No more than %[2]d small businesses.", cityName, count)
}
