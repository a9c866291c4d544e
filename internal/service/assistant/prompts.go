package assistant

// Все тексты на английском: модель работает на нём, перевод делает Translator.
const (
	instructions = "You are an expert agricultural assistant. You are given a photo taken by a farmer. " +
		"Describe it and answer the farmer's follow-up questions. Always refer back to this image when answering, " +
		"be practical and specific about crops, soil, pests, diseases and farming practices."

	describePrompt = "Analyze this image and give a summary of about 50 words in one coherent paragraph. " +
		"Cover the crops, the soil, any visible pests or diseases, the farming practices and any issues you notice. " +
		"I will ask follow-up questions about the same image afterwards."

	msgImageError = "Error processing image"
	msgNotStarted = "The session has not been started. Please upload an image first."
	msgFarewell   = "Session ended. Thank you for using the Agriculture Assistant."
)
