package narrative

import "strings"

const systemPrompt = "You are PharmaInsight AI, an expert pharmacy business analyst assistant.\n" +
	"You have access to comprehensive sales data from a retail pharmacy and your job is to:\n\n" +
	"1. Answer questions about the pharmacy's performance clearly and actionably\n" +
	"2. Identify problems and issues in the data\n" +
	"3. Provide specific, actionable recommendations\n" +
	"4. Use the actual numbers from the data to support your analysis\n" +
	"5. Think like a 30-year veteran pharmacy owner who knows the business inside out\n\n" +
	"Key pharmacy concepts you understand:\n" +
	"- ABC Analysis: Class A products (80% of revenue), Class B (15%), Class C (5%)\n" +
	"- Markup strategies: Acute items (45%), Chronic (30%), Convenience (40%), Recurring (35%)\n" +
	"- Fast movers vs dead stock\n" +
	"- Seasonality in pharmacy sales\n" +
	"- The importance of never letting high-demand items go out of stock\n\n" +
	"Always be specific with numbers and percentages. Give actionable advice, not generic recommendations.\n" +
	"Format your response with clear sections when appropriate."

// DiagnosisQuestion is asked by Diagnose.
const DiagnosisQuestion = "Please provide a comprehensive diagnosis of this pharmacy's performance:\n\n" +
	"1. **Overall Health Assessment**: Rate the business health (Good/Fair/Poor) with reasons\n" +
	"2. **Top 3 Issues**: What are the most critical problems I should address immediately?\n" +
	"3. **Quick Wins**: What are 3 things I can do THIS WEEK to improve performance?\n" +
	"4. **Revenue Opportunities**: Where am I leaving money on the table?\n" +
	"5. **Risk Areas**: What should I watch out for in the coming months?\n\n" +
	"Be specific with numbers and give me actionable steps, not generic advice."

// BuildPrompt renders the user message for a question over a data snapshot.
func BuildPrompt(c *Context, question string) string {
	var b strings.Builder
	b.WriteString("Here is the pharmacy's current data:\n\n")
	b.WriteString(c.Summary())
	b.WriteString("\nBased on this data, please answer the following question:\n\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nProvide specific, actionable insights based on the actual numbers.")
	return b.String()
}

// QuestionCategory groups suggested questions under a heading.
type QuestionCategory struct {
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
}

// SuggestedQuestions is the static catalog offered to users.
func SuggestedQuestions() []QuestionCategory {
	return []QuestionCategory{
		{Name: "Performance", Questions: []string{
			"How is my pharmacy performing overall?",
			"What was my best month and why?",
			"Am I growing or declining?",
		}},
		{Name: "Products", Questions: []string{
			"What are my top 10 products?",
			"Which products should I stop stocking?",
			"What products should I promote?",
		}},
		{Name: "Inventory", Questions: []string{
			"What should I reorder this week?",
			"Which products are dead stock?",
			"How much of each fast mover should I order?",
		}},
		{Name: "Strategy", Questions: []string{
			"How can I increase my margins?",
			"What pricing changes should I make?",
			"How do I reduce dead stock?",
		}},
		{Name: "Diagnosis", Questions: []string{
			"What problems do you see in my data?",
			"What am I doing wrong?",
			"Where am I leaving money on the table?",
		}},
	}
}

// followUps are returned with every answer.
var followUps = []string{
	"What are my top selling products?",
	"Which products should I reorder?",
	"What issues do you see in my data?",
	"How can I improve my margins?",
	"What's my sales trend looking like?",
}
