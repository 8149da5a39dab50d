// Package outbound holds the clients the research pipeline calls: web search,
// page scraping and the chat-completion LLM.
package outbound
