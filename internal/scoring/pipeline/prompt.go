package pipeline

import (
	"strings"
)

const notProvided = "Not provided"

// SystemInstruction is sent with every classification request.
const SystemInstruction = `You are an AI sales lead qualification assistant.

Your role:
- Evaluate potential customer leads for a given product/offer.
- Classify each lead's buying intent as High, Medium, or Low.
- Always provide a clear, concise reasoning (1-2 sentences).
- Use only the information provided (product/offer + lead details). Do not invent details.

Response Rules:
- Always return a JSON object.
- Keys must be exactly: "intent" and "reasoning".
- Valid values for "intent": "High", "Medium", or "Low".
- "reasoning" should explain why you chose that intent in 1-2 sentences.
- Do not include extra text, commentary, or formatting outside the JSON object.`

// BuildPrompt serializes the offer and lead into the classification prompt.
func BuildPrompt(lead Lead, offer Offer) string {
	var b strings.Builder
	b.WriteString("Product/Offer Details:\n")
	b.WriteString("Name: " + offer.Name + "\n")
	b.WriteString("Value Propositions: " + strings.Join(offer.ValueProps, ", ") + "\n")
	b.WriteString("Ideal Use Cases: " + strings.Join(offer.IdealUseCases, ", ") + "\n")
	b.WriteString("\n")
	b.WriteString("Lead Details:\n")
	b.WriteString("Name: " + lead.Name + "\n")
	b.WriteString("Role: " + orNotProvided(lead.Role) + "\n")
	b.WriteString("Company: " + orNotProvided(lead.Company) + "\n")
	b.WriteString("Industry: " + orNotProvided(lead.Industry) + "\n")
	b.WriteString("Location: " + orNotProvided(lead.Location) + "\n")
	b.WriteString("LinkedIn Bio: " + orNotProvided(lead.LinkedInBio) + "\n")
	b.WriteString("\n")
	b.WriteString("Based on this information, classify the lead's buying intent and provide reasoning.")
	return b.String()
}

func orNotProvided(value string) string {
	if strings.TrimSpace(value) == "" {
		return notProvided
	}
	return value
}
