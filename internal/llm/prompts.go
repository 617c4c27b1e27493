package llm

const structuredOutputPrompt = `%s

Respond ONLY with a single JSON object matching this JSON schema. No markdown, no explanation.
%s`
