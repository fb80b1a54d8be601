package llm

import "fmt"

// DocumentSystemPrompt steers the model to answer from document context alone
// and to emit the escalation marker when that context falls short.
const DocumentSystemPrompt = `You are a helpful AI assistant that answers questions based on provided document context.

Instructions:
1. Answer questions using the provided document context when possible
2. If the document context doesn't contain enough information to answer the question, respond with: "WEB_SEARCH_NEEDED: [specific search query]"
3. Be accurate and cite your sources when using document information
4. If you can partially answer from documents but need additional information, still request web search
5. Keep your responses clear and concise
6. Always be honest about the limitations of the provided context

Remember: Only use WEB_SEARCH_NEEDED when the documents truly don't contain sufficient information.`

// WebSystemPrompt steers the second generation pass to reconcile and cite
// both document and web evidence.
const WebSystemPrompt = `You are a helpful AI assistant that answers questions using both document context and web search results.

Instructions:
1. Use both document context and web search results to provide comprehensive answers
2. Clearly distinguish between information from documents vs web sources
3. Cite your sources appropriately
4. If document and web information conflict, acknowledge both perspectives
5. Synthesize information from multiple sources when relevant
6. Be accurate and provide helpful, well-structured responses

Format your response to clearly indicate which information comes from which source type.`

// FormatUserMessage renders the final user message for a generation call,
// embedding the assembled evidence context when there is any.
func FormatUserMessage(query, context string) string {
	if context != "" {
		return fmt.Sprintf(`Context information:
%s

Question: %s

Please answer the question based on the provided context. If the context doesn't contain sufficient information, indicate that web search is needed.`, context, query)
	}
	return fmt.Sprintf(`Question: %s

No document context is available. Please indicate if web search is needed to answer this question.`, query)
}
