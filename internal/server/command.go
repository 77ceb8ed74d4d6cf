package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/drewdunne/difftale/internal/pipeline"
)

// ErrUnknownAction is returned for commands with an unrecognised action.
var ErrUnknownAction = errors.New("unknown action")

// Action names a command.
type Action string

const (
	ActionCompare        Action = "compare"
	ActionChat           Action = "chat"
	ActionChatAboutFiles Action = "chat-about-files"
	ActionListRefs       Action = "list-refs"
	ActionStop           Action = "stop"
)

// CompareCommand requests a report. RunID is generated when empty and can
// be passed to a stop command while the report runs.
type CompareCommand struct {
	RunID string `json:"runId,omitempty"`
	pipeline.Request
}

// ChatCommand asks a question. Dir is required for chat-about-files.
type ChatCommand struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
	Dir      string `json:"dir,omitempty"`
}

// ListRefsCommand lists the tags and branches of a remote.
type ListRefsCommand struct {
	Dir    string `json:"dir"`
	Remote string `json:"remote,omitempty"`
}

// StopCommand cancels a running comparison.
type StopCommand struct {
	RunID string `json:"runId"`
}

// Command is a decoded request. Exactly one payload field is set, matching
// Action.
type Command struct {
	Action   Action
	Compare  *CompareCommand
	Chat     *ChatCommand
	ListRefs *ListRefsCommand
	Stop     *StopCommand
}

// DecodeCommand parses and validates a `{"action": ...}` request body.
func DecodeCommand(data []byte) (*Command, error) {
	var head struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding command: %w", err)
	}

	cmd := &Command{Action: head.Action}
	var payload any
	switch head.Action {
	case ActionCompare:
		cmd.Compare = &CompareCommand{}
		payload = cmd.Compare
	case ActionChat, ActionChatAboutFiles:
		cmd.Chat = &ChatCommand{}
		payload = cmd.Chat
	case ActionListRefs:
		cmd.ListRefs = &ListRefsCommand{}
		payload = cmd.ListRefs
	case ActionStop:
		cmd.Stop = &StopCommand{}
		payload = cmd.Stop
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, head.Action)
	}

	if err := json.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("decoding %s command: %w", head.Action, err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Validate checks the fields the action needs.
func (c *Command) Validate() error {
	switch c.Action {
	case ActionCompare:
		return c.Compare.Validate()
	case ActionChat:
		if strings.TrimSpace(c.Chat.Question) == "" {
			return errors.New("question is required")
		}
	case ActionChatAboutFiles:
		if strings.TrimSpace(c.Chat.Question) == "" {
			return errors.New("question is required")
		}
		if c.Chat.Dir == "" {
			return errors.New("dir is required")
		}
	case ActionListRefs:
		if c.ListRefs.Dir == "" {
			return errors.New("dir is required")
		}
	case ActionStop:
		if c.Stop.RunID == "" {
			return errors.New("runId is required")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, c.Action)
	}
	return nil
}
