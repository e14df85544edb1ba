package chaos

import (
	"fmt"
	"strings"
)

// mockPayload synthesizes a plausible success body keyed by the HTTP
// method and operation name. Collection-style GETs return a list, other
// GETs a single item, writes an acknowledgement envelope.
func (e *Engine) mockPayload(operation, method string, seed int64, draw uint64) any {
	lower := strings.ToLower(operation)

	switch strings.ToUpper(method) {
	case "GET", "":
		if strings.Contains(lower, "find") || strings.Contains(lower, "list") {
			items := make([]map[string]any, 0, e.cfg.MockListSize)
			for i := 1; i <= e.cfg.MockListSize; i++ {
				items = append(items, mockItem(i))
			}
			return items
		}
		return mockItem(1)

	case "POST", "PUT":
		// Deterministic stand-in for a server-assigned ID.
		id := 1000 + int(Variate(seed, draw)*9000)
		return map[string]any{
			"id":      id,
			"status":  "success",
			"message": fmt.Sprintf("%s operation completed", strings.ToUpper(method)),
		}

	case "DELETE":
		return map[string]any{
			"status":  "deleted",
			"message": "Resource deleted successfully",
		}
	}

	return map[string]any{"message": "Success"}
}

func mockItem(i int) map[string]any {
	return map[string]any{
		"id":     i,
		"name":   fmt.Sprintf("Item-%d", i),
		"status": "active",
	}
}
