package ai

import "fmt"

// GenericMessage is the role/content pair accepted by OpenAI-compatible
// backends. Content is passed through as-is: a string or a block slice.
type GenericMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// BuildMessages assembles the message list for one call: the system prompt, if
// given, goes first; the explicit messages follow in order; the user prompt, if
// given, goes last. Empty strings count as not supplied. It fails with
// ErrInvalidArgument when the result would be empty.
func BuildMessages(messages []Message, system, user string) ([]Message, error) {
	built := make([]Message, 0, len(messages)+2)

	if system != "" {
		built = append(built, NewMessage(RoleSystem, system))
	}
	built = append(built, messages...)
	if user != "" {
		built = append(built, NewMessage(RoleUser, user))
	}

	if len(built) == 0 {
		return nil, fmt.Errorf("%w: provide at least one of messages, system, or user", ErrInvalidArgument)
	}
	return built, nil
}

// ToGeneric converts messages into the OpenAI-style role/content list,
// keeping structured content untouched.
func ToGeneric(messages []Message) []GenericMessage {
	generic := make([]GenericMessage, 0, len(messages))
	for _, message := range messages {
		generic = append(generic, GenericMessage{Role: string(message.Role), Content: message.Value()})
	}
	return generic
}

// SplitSystem separates system content from the conversation for backends that
// take the system prompt as a distinct field. System content is stringified;
// when several system messages are present the last one wins. Any remaining
// role other than user or assistant is coerced to user.
func SplitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))

	for _, message := range messages {
		switch message.Role {
		case RoleSystem:
			system = message.Text()
			continue
		case RoleUser, RoleAssistant:
		default:
			message.Role = RoleUser
		}
		rest = append(rest, message)
	}

	return system, rest
}
