package classifier

import "github.com/elee1766/deskpilot/src/aisdk"

// promptMessages builds a minimal system+user exchange.
func promptMessages(system, user string) []*aisdk.Message {
	return []*aisdk.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}
