package ai

import "fmt"

const systemPrompt = `You are an expert content writer specializing in local business blogging.
Your writing is:
1. Professional and authoritative
2. Locally relevant and specific
3. SEO-optimized
4. Engaging and actionable
5. Well-structured with clear headings

Always include:
- Local statistics or references when possible
- Industry-specific insights
- Practical examples
- Clear calls-to-action`

const userPromptTemplate = `Create a detailed blog post for a %[1]s business in %[2]s.
Topic: %[3]s
Style: %[4]s

The blog post should:
1. Be locally relevant to %[2]s
2. Include industry-specific insights for %[1]s
3. Be SEO-friendly with appropriate headings
4. Include practical examples and actionable advice
5. Maintain a %[4]s tone throughout

Please structure the post with:
- An engaging introduction
- 3-4 main sections with subheadings
- Practical examples or case studies
- A clear conclusion with call-to-action`

// SystemPrompt 固定的写作角色与约束
func SystemPrompt() string {
	return systemPrompt
}

// BlogPrompt 根据行业、地点、主题和风格生成用户指令
func BlogPrompt(industry, location, topic, style string) string {
	return fmt.Sprintf(userPromptTemplate, industry, location, topic, style)
}
