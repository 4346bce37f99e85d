package prompt

const systemPrompt = `You are a plant pathology classifier. You receive one photo of a single plant leaf.
Classify it into a label of the form "<Plant>_<condition>", e.g. "Tomato_healthy",
"Potato_Early_disease", "Pepper_Bacterial_disease". Use "healthy" when the leaf
shows no damage and "disease" when it does. Respond with a JSON object only:
{"label": "<Plant>_<condition>", "confidence": <0.0-1.0>}`

const userPrompt = "Classify this leaf image. Respond with the JSON object only."

// GetSystemPrompt returns the classification instruction.
func GetSystemPrompt() string {
	return systemPrompt
}

// GetUserPrompt returns the per-image user message text.
func GetUserPrompt() string {
	return userPrompt
}
