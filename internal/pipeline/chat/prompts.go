// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chat

import (
	"fmt"
	"sort"
	"strings"

	"campus-assistant/internal/tool"
)

// Persona 助手人设
type Persona struct {
	Name    string
	College string
}

// DefaultPersona 默认人设
var DefaultPersona = Persona{Name: "BMSCE Assistant", College: "BMS College of Engineering"}

// callShape 工具调用的 JSON 示例，必填参数渲染为 "<name>": "<type>"
func callShape(d tool.Descriptor) string {
	required := append([]string(nil), d.Schema.Required...)
	sort.Strings(required)
	args := make([]string, 0, len(required))
	for _, name := range required {
		typ := d.Schema.Properties[name].Type
		if typ == "" {
			typ = "string"
		}
		args = append(args, fmt.Sprintf("%q: %q", name, typ))
	}
	return fmt.Sprintf(`{"tool": %q, "arguments": {%s}}`, d.Name, strings.Join(args, ", "))
}

func buildClassifierPrompt(catalog *tool.Catalog, message string) string {
	var prompt strings.Builder
	prompt.WriteString("You are a precise tool selector. Your task is to analyze the user's question and choose the most appropriate tool from the list below.\n\n")
	prompt.WriteString("# Available Tools & Formats:\n")
	descs := catalog.Descriptors()
	for i, d := range descs {
		fmt.Fprintf(&prompt, "%d.  **%s**: %s\n", i+1, d.Name, d.Description)
		fmt.Fprintf(&prompt, "    - Format: %s\n\n", callShape(d))
	}
	fmt.Fprintf(&prompt, "%d.  **none**: Use for greetings, thank yous, or conversational chat.\n", len(descs)+1)
	prompt.WriteString("    - Format: {\"tool\": \"none\"}\n\n")
	prompt.WriteString("# User Question:\n")
	fmt.Fprintf(&prompt, "%q\n\n", message)
	prompt.WriteString("# Instructions:\n")
	prompt.WriteString("-   Analyze the user's question carefully.\n")
	prompt.WriteString("-   Choose the single best tool that matches the user's intent.\n")
	prompt.WriteString("-   **Respond with ONLY the JSON object in the exact format specified for the chosen tool.**\n\n")
	prompt.WriteString("Your JSON response:")
	return prompt.String()
}

func buildSynthesisPrompt(p Persona, query, payload string) string {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "You are a friendly and helpful AI assistant for %s students. Your name is %s and you're here to help students with information about college events, notifications, and academic content.\n\n", p.College, p.Name)
	prompt.WriteString("PERSONALITY:\n")
	prompt.WriteString("- Be warm, friendly, and approachable like a helpful senior student\n")
	prompt.WriteString("- Use casual but respectful language\n")
	prompt.WriteString("- Keep responses concise but informative\n")
	prompt.WriteString("- Use emojis occasionally (but don't overdo it)\n\n")
	prompt.WriteString("TASK:\n")
	fmt.Fprintf(&prompt, "A student asked: %q\n\n", query)
	prompt.WriteString("You retrieved this data:\n")
	prompt.WriteString(payload)
	prompt.WriteString("\n\n")
	prompt.WriteString("Now, present this information in a natural, conversational way. DO NOT mention that you got this from a database, an API, a tool or \"provided information\". Just present it as if you naturally know this information.\n")
	prompt.WriteString("Do not change any names, dates or numbers from the data.\n\n")
	prompt.WriteString("FORMATTING GUIDELINES:\n")
	prompt.WriteString("- Use clear numbering (1., 2., 3.) for lists\n")
	prompt.WriteString("- Include relevant dates naturally in the text\n")
	prompt.WriteString("- Group related information together\n")
	prompt.WriteString("- End with a friendly closing line if appropriate\n\n")
	prompt.WriteString("Your response:")
	return prompt.String()
}

func buildChatPrompt(p Persona, message string) string {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "You are a friendly AI assistant for %s students. Your name is %s.\n\n", p.College, p.Name)
	fmt.Fprintf(&prompt, "User: %s\n\n", message)
	prompt.WriteString("Respond in a warm, helpful, and student-friendly way. Keep it concise and natural.\n\n")
	prompt.WriteString("Your response:")
	return prompt.String()
}
