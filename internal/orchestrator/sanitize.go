package orchestrator

import "github.com/firebase/genkit/go/ai"

// sanitizeMessages drops the debris an interrupted tool loop leaves behind:
// tool calls that never got a response, tool responses that answer nothing,
// and assistant messages with no content left after filtering.
func sanitizeMessages(msgs []*ai.Message) []*ai.Message {
	answered := make(map[string]bool)
	for _, m := range msgs {
		if m == nil || m.Role != ai.RoleTool {
			continue
		}
		for _, p := range m.Content {
			if p.ToolResponse != nil {
				answered[toolKey(p.ToolResponse.Ref, p.ToolResponse.Name)] = true
			}
		}
	}

	requested := make(map[string]bool)
	out := make([]*ai.Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		switch m.Role {
		case ai.RoleModel:
			kept := make([]*ai.Part, 0, len(m.Content))
			for _, p := range m.Content {
				switch {
				case p.ToolRequest != nil:
					key := toolKey(p.ToolRequest.Ref, p.ToolRequest.Name)
					if answered[key] {
						requested[key] = true
						kept = append(kept, p)
					}
				case p.IsText() && p.Text != "":
					kept = append(kept, p)
				}
			}
			if len(kept) > 0 {
				out = append(out, &ai.Message{Role: m.Role, Content: kept, Metadata: m.Metadata})
			}
		case ai.RoleTool:
			kept := make([]*ai.Part, 0, len(m.Content))
			for _, p := range m.Content {
				if p.ToolResponse != nil && requested[toolKey(p.ToolResponse.Ref, p.ToolResponse.Name)] {
					kept = append(kept, p)
				}
			}
			if len(kept) > 0 {
				out = append(out, &ai.Message{Role: m.Role, Content: kept, Metadata: m.Metadata})
			}
		default:
			out = append(out, m)
		}
	}
	return out
}

func toolKey(ref, name string) string {
	if ref != "" {
		return ref
	}
	return name
}
